package classifier

import "time"

// IdentifierHistory is what the classifier remembers about the previous frame
// of one identifier.
type IdentifierHistory struct {
	LastArrival   time.Time `json:"last_arrival"`
	LastLength    uint8     `json:"last_length"`
	LastPayload   []byte    `json:"last_payload"`
	HasPriorFrame bool      `json:"has_prior_frame"`
}

func (h *IdentifierHistory) clone() IdentifierHistory {
	c := *h
	if h.LastPayload != nil {
		c.LastPayload = append([]byte(nil), h.LastPayload...)
	}
	return c
}

// rateCheck passes on the first frame or when the gap since the previous
// frame exceeds TMax.
func (h *IdentifierHistory) rateCheck(arrival time.Time) bool {
	ok := !h.HasPriorFrame || arrival.Sub(h.LastArrival) > TMax
	h.LastArrival = arrival
	return ok
}

// lengthCheck passes on the first frame or when the length changed.
func (h *IdentifierHistory) lengthCheck(length uint8) bool {
	ok := !h.HasPriorFrame || length != h.LastLength
	h.LastLength = length
	return ok
}

// dataCheck fails when any byte of payload also appears anywhere in the
// previous payload.
func (h *IdentifierHistory) dataCheck(payload []byte) bool {
	ok := true
	if h.HasPriorFrame {
		var seen [256]bool
		for _, b := range h.LastPayload {
			seen[b] = true
		}
		for _, b := range payload {
			if seen[b] {
				ok = false
				break
			}
		}
	}
	h.LastPayload = append(h.LastPayload[:0:0], payload...)
	return ok
}
