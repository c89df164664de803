package classifier

// Check names one of the three heuristics, in reporting priority order.
type Check string

const (
	CheckRate   Check = "Rate"
	CheckLength Check = "Length"
	CheckData   Check = "Data"
)

// Checks lists the heuristics in the order failures are reported.
var Checks = []Check{CheckRate, CheckLength, CheckData}

// Verdict is the outcome of classifying one frame.
type Verdict struct {
	RateOK   bool `json:"rate_ok"`
	LengthOK bool `json:"length_ok"`
	DataOK   bool `json:"data_ok"`
}

// Valid reports whether all three checks passed.
func (v Verdict) Valid() bool {
	return v.RateOK && v.LengthOK && v.DataOK
}

// Passed reports the outcome of a single check.
func (v Verdict) Passed(c Check) bool {
	switch c {
	case CheckRate:
		return v.RateOK
	case CheckLength:
		return v.LengthOK
	case CheckData:
		return v.DataOK
	}
	return false
}

// Reason returns the first failed check in Rate, Length, Data order. ok is
// false when the verdict is valid.
func (v Verdict) Reason() (reason Check, ok bool) {
	for _, c := range Checks {
		if !v.Passed(c) {
			return c, true
		}
	}
	return "", false
}
