package classifier

import "testing"

func TestVerdict_Reason(t *testing.T) {
	tests := []struct {
		name   string
		v      Verdict
		valid  bool
		reason Check
	}{
		{"all pass", Verdict{true, true, true}, true, ""},
		{"rate first", Verdict{false, false, false}, false, CheckRate},
		{"length before data", Verdict{true, false, false}, false, CheckLength},
		{"data only", Verdict{true, true, false}, false, CheckData},
		{"rate only", Verdict{false, true, true}, false, CheckRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v", tt.v.Valid(), tt.valid)
			}
			reason, failed := tt.v.Reason()
			if failed == tt.valid || reason != tt.reason {
				t.Errorf("Reason() = %q, %v; want %q", reason, failed, tt.reason)
			}
		})
	}
}
