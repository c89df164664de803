package classifier

import (
	"bytes"
	"testing"
	"time"

	"CANSpectra/internal/engine/protocol"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestClassify_FirstFrameAlwaysValid(t *testing.T) {
	for _, id := range protocol.AllowedIdentifiers {
		c := New()
		v := c.Classify(id, []byte{1, 1, 1}, 3, t0)
		if v != (Verdict{RateOK: true, LengthOK: true, DataOK: true}) {
			t.Errorf("id 0x%x: first frame verdict %+v, want all true", id, v)
		}
		h, ok := c.History(id)
		if !ok || !h.HasPriorFrame || h.LastLength != 3 || !h.LastArrival.Equal(t0) || !bytes.Equal(h.LastPayload, []byte{1, 1, 1}) {
			t.Errorf("id 0x%x: history not seeded: %+v", id, h)
		}
	}
}

// A frame inside the normal period with an unchanged length is reported as a
// rate and length failure. This mirrors the deployed detector and is the
// opposite of flood-detection intuition.
func TestClassify_SameLengthWithinPeriodFails(t *testing.T) {
	c := New()
	c.Classify(protocol.FirstIdentifier, []byte{1, 2, 3}, 3, t0)

	v := c.Classify(protocol.FirstIdentifier, []byte{4, 5, 6}, 3, t0.Add(60*time.Millisecond))
	if v.RateOK {
		t.Error("expected rate check to fail for a 60ms gap")
	}
	if v.LengthOK {
		t.Error("expected length check to fail for an unchanged length")
	}
	if !v.DataOK {
		t.Error("expected data check to pass for disjoint payloads")
	}
	if reason, ok := v.Reason(); !ok || reason != CheckRate {
		t.Errorf("expected reason Rate, got %q (%v)", reason, ok)
	}
}

func TestClassify_RateGapAboveTMaxPasses(t *testing.T) {
	c := New()
	c.Classify(protocol.FirstIdentifier, []byte{1}, 1, t0)

	if v := c.Classify(protocol.FirstIdentifier, []byte{2, 3}, 2, t0.Add(TMax)); v.RateOK {
		t.Error("a gap of exactly TMax must not pass")
	}
	if v := c.Classify(protocol.FirstIdentifier, []byte{4}, 1, t0.Add(2*TMax+time.Millisecond)); !v.RateOK {
		t.Error("a gap above TMax must pass")
	}
}

func TestClassify_DataRepeatFails(t *testing.T) {
	c := New()
	c.Classify(protocol.SecondIdentifier, []byte{9, 9}, 2, t0)

	v := c.Classify(protocol.SecondIdentifier, []byte{9, 1}, 2, t0.Add(time.Second))
	if v.DataOK {
		t.Error("expected data check to fail when byte 9 repeats")
	}
	if !v.RateOK {
		t.Error("expected rate check to pass for a one second gap")
	}
	if reason, _ := v.Reason(); reason != CheckLength {
		t.Errorf("expected reason Length, got %q", reason)
	}
	h, _ := c.History(protocol.SecondIdentifier)
	if !bytes.Equal(h.LastPayload, []byte{9, 1}) {
		t.Errorf("last payload should be replaced even on failure, got %v", h.LastPayload)
	}
}

func TestClassify_LengthChangePasses(t *testing.T) {
	c := New()
	c.Classify(protocol.ThirdIdentifier, nil, 0, t0)
	v := c.Classify(protocol.ThirdIdentifier, []byte{7}, 1, t0.Add(time.Second))
	if !v.Valid() {
		t.Errorf("expected a valid verdict, got %+v", v)
	}
	// An empty payload never repeats a byte.
	v = c.Classify(protocol.ThirdIdentifier, nil, 0, t0.Add(2*time.Second))
	if !v.DataOK {
		t.Error("expected empty payload to pass the data check")
	}
}

func TestClassify_IdentifiersIsolated(t *testing.T) {
	c := New()
	a, b := protocol.FirstIdentifier, protocol.SecondIdentifier

	if v := c.Classify(a, []byte{1, 2}, 2, t0); !v.Valid() {
		t.Errorf("first frame for 0x%x should be valid, got %+v", a, v)
	}
	// Same length, same bytes and a short gap, but a different identifier.
	if v := c.Classify(b, []byte{1, 2}, 2, t0.Add(10*time.Millisecond)); !v.Valid() {
		t.Errorf("first frame for 0x%x should be valid, got %+v", b, v)
	}
	v := c.Classify(a, []byte{3}, 1, t0.Add(500*time.Millisecond))
	if !v.Valid() {
		t.Errorf("0x%x should only be compared with its own history, got %+v", a, v)
	}
	v = c.Classify(b, []byte{2}, 2, t0.Add(20*time.Millisecond))
	if v.RateOK || v.LengthOK || v.DataOK {
		t.Errorf("0x%x should fail all checks against its own history, got %+v", b, v)
	}
}

func TestClassify_UnknownIdentifierLazilyCreated(t *testing.T) {
	c := New()
	if _, ok := c.History(0x7AB); ok {
		t.Fatal("unexpected history for 0x7AB before any frame")
	}
	if v := c.Classify(0x7AB, []byte{1}, 1, t0); !v.Valid() {
		t.Errorf("first frame should be valid, got %+v", v)
	}
	if ids := c.Identifiers(); len(ids) != 4 || ids[3] != 0x7AB {
		t.Errorf("unexpected identifiers %v", ids)
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	c := New()
	payload := []byte{1, 2, 3}
	c.Classify(protocol.FirstIdentifier, payload, 3, t0)
	payload[0] = 42

	snap := c.Snapshot()
	h := snap[protocol.FirstIdentifier]
	if h.LastPayload[0] != 1 {
		t.Errorf("history aliased the caller's payload: %v", h.LastPayload)
	}
	h.LastPayload[1] = 99
	again, _ := c.History(protocol.FirstIdentifier)
	if again.LastPayload[1] != 2 {
		t.Errorf("snapshot aliased the live history: %v", again.LastPayload)
	}
	if len(snap) != len(protocol.AllowedIdentifiers) {
		t.Errorf("expected %d histories, got %d", len(protocol.AllowedIdentifiers), len(snap))
	}
}

func TestClassifyFrame(t *testing.T) {
	c := New()
	raw, _ := protocol.Encode(protocol.FirstIdentifier, []byte{5, 6})
	frame, err := protocol.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v := c.ClassifyFrame(frame, t0); !v.Valid() {
		t.Errorf("expected valid verdict, got %+v", v)
	}
	h, _ := c.History(protocol.FirstIdentifier)
	if h.LastLength != 2 {
		t.Errorf("expected last length 2, got %d", h.LastLength)
	}
}
