// Package generator produces random frame traffic that the detector accepts:
// allow-listed identifiers, a random payload of 0..8 bytes and a gap between
// frames drawn uniformly from [TMin, TMax] in whole milliseconds.
package generator

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/engine/protocol"
	"context"
	"math/rand/v2"
	"time"
)

// Emit delivers one generated frame stamped with its send time.
type Emit func(raw protocol.RawFrame, at time.Time) error

// Generator draws frames from a seeded source.
type Generator struct {
	rng *rand.Rand
	// Realtime makes Run sleep between frames. Otherwise timestamps advance
	// from Start without waiting, which is what offline targets want.
	Realtime bool
	Start    time.Time
}

// New creates a generator. The same seed yields the same traffic.
func New(seed uint64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Start: time.Now(),
	}
}

// NextIdentifier picks 0x100 half of the time and 0x200 or 0x300 otherwise.
// The top identifier bits are a zero, a random bit r, then 1 when r is zero
// or another random bit when r is one.
func (g *Generator) NextIdentifier() uint16 {
	second := g.rng.IntN(2)
	third := 1
	if second == 1 {
		third = g.rng.IntN(2)
	}
	return uint16(second<<1|third) << (protocol.IDLen - 3)
}

// NextPayload returns 0..MaxPayloadLen random bytes.
func (g *Generator) NextPayload() []byte {
	payload := make([]byte, g.rng.IntN(protocol.MaxPayloadLen+1))
	for i := range payload {
		payload[i] = byte(g.rng.IntN(256))
	}
	return payload
}

// NextPeriod returns the gap before the next frame.
func (g *Generator) NextPeriod() time.Duration {
	lo := int(classifier.TMin / time.Millisecond)
	hi := int(classifier.TMax / time.Millisecond)
	return time.Duration(lo+g.rng.IntN(hi-lo+1)) * time.Millisecond
}

// NextFrame builds one random frame.
func (g *Generator) NextFrame() (protocol.RawFrame, error) {
	return protocol.Encode(g.NextIdentifier(), g.NextPayload())
}

// Run emits count frames, or frames until ctx is done when count is zero or
// negative. Each frame is preceded by a random gap.
func (g *Generator) Run(ctx context.Context, count int, emit Emit) error {
	at := g.Start
	for i := 0; count <= 0 || i < count; i++ {
		period := g.NextPeriod()
		if g.Realtime {
			timer := time.NewTimer(period)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			at = time.Now()
		} else {
			if ctx.Err() != nil {
				return nil
			}
			at = at.Add(period)
		}

		raw, err := g.NextFrame()
		if err != nil {
			return err
		}
		if err := emit(raw, at); err != nil {
			return err
		}
	}
	return nil
}
