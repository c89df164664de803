package generator

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/engine/protocol"
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextIdentifier_Distribution(t *testing.T) {
	g := New(1)
	counts := map[uint16]int{}
	const n = 4000
	for i := 0; i < n; i++ {
		counts[g.NextIdentifier()]++
	}
	if len(counts) != 3 {
		t.Fatalf("expected exactly the three allowed identifiers, got %v", counts)
	}
	for id := range counts {
		if !protocol.IsAllowedIdentifier(id) {
			t.Errorf("identifier 0x%x is not allowed", id)
		}
	}
	// 0x100 is drawn about half the time.
	if c := counts[protocol.FirstIdentifier]; c < n*4/10 || c > n*6/10 {
		t.Errorf("0x100 drawn %d times out of %d", c, n)
	}
}

func TestRun_FramesDecodeAndGapsInWindow(t *testing.T) {
	g := New(42)
	g.Start = time.Unix(1700000000, 0)

	var prev time.Time
	frames := 0
	err := g.Run(context.Background(), 200, func(raw protocol.RawFrame, at time.Time) error {
		frame, err := protocol.Decode(raw)
		if err != nil {
			t.Fatalf("generated frame %s does not decode: %v", raw, err)
		}
		if len(frame.Payload) != int(frame.Length) || frame.Length > protocol.MaxPayloadLen {
			t.Errorf("bad payload length in %+v", frame)
		}
		if !prev.IsZero() {
			gap := at.Sub(prev)
			if gap < classifier.TMin || gap > classifier.TMax {
				t.Errorf("gap %s outside [%s, %s]", gap, classifier.TMin, classifier.TMax)
			}
		}
		prev = at
		frames++
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if frames != 200 {
		t.Errorf("expected 200 frames, got %d", frames)
	}
}

func TestRun_SameSeedSameTraffic(t *testing.T) {
	collect := func() []protocol.RawFrame {
		g := New(7)
		var out []protocol.RawFrame
		g.Run(context.Background(), 20, func(raw protocol.RawFrame, _ time.Time) error {
			out = append(out, raw)
			return nil
		})
		return out
	}
	a, b := collect(), collect()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("frame %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestRun_StopsOnEmitErrorAndCancel(t *testing.T) {
	boom := errors.New("boom")
	g := New(3)
	calls := 0
	err := g.Run(context.Background(), 0, func(protocol.RawFrame, time.Time) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Errorf("expected to stop after the failing emit, got %v after %d calls", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.Realtime = true
	if err := g.Run(ctx, 0, func(protocol.RawFrame, time.Time) error {
		t.Error("emit must not be called after cancel")
		return nil
	}); err != nil {
		t.Errorf("expected nil on cancel, got %v", err)
	}
}
