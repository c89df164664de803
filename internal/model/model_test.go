package model

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/engine/protocol"
	"errors"
	"testing"
	"time"
)

func TestRecord_StatusAndReason(t *testing.T) {
	frame := &protocol.DecodedFrame{ID: 0x100, Length: 1, Payload: []byte{9}}
	_, formatErr := protocol.Decode(protocol.RawFrame{Lo: 1})
	var fe *protocol.FormatError
	if !errors.As(formatErr, &fe) {
		t.Fatalf("expected a FormatError, got %v", formatErr)
	}

	tests := []struct {
		name   string
		rec    Record
		status string
		reason string
	}{
		{"valid", Record{Frame: frame, Verdict: classifier.Verdict{RateOK: true, LengthOK: true, DataOK: true}}, StatusValid, ""},
		{"rate first", Record{Frame: frame, Verdict: classifier.Verdict{LengthOK: false, DataOK: false}}, StatusInvalid, "Rate"},
		{"data only", Record{Frame: frame, Verdict: classifier.Verdict{RateOK: true, LengthOK: true}}, StatusInvalid, "Data"},
		{"malformed", Record{FormatErr: fe}, StatusMalformed, "UnalignedStartBit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Status(); got != tt.status {
				t.Errorf("Status() = %s, want %s", got, tt.status)
			}
			if got := tt.rec.Reason(); got != tt.reason {
				t.Errorf("Reason() = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestRecord_UnixSeconds(t *testing.T) {
	rec := Record{Timestamp: time.Unix(1700000000, 5000)}
	if got := rec.UnixSeconds(); got != "1700000000.000005" {
		t.Errorf("UnixSeconds() = %s", got)
	}
}

func TestRecord_Entry(t *testing.T) {
	raw, err := protocol.Encode(0x300, []byte{1, 2})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rec := Record{
		Timestamp: time.Unix(1700000000, 0),
		Raw:       raw,
		Frame:     &protocol.DecodedFrame{ID: 0x300, Length: 2, Payload: []byte{1, 2}},
		Verdict:   classifier.Verdict{RateOK: true, DataOK: true},
		TimingErr: errors.New("too fast"),
	}
	e := rec.Entry()
	if e.Frame != raw.String() || e.Identifier != 0x300 || e.Length != 2 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Status != StatusInvalid || e.Reason != "Length" || e.TimingErr != "too fast" {
		t.Errorf("unexpected outcome fields: %+v", e)
	}
}
