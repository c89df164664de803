package classifier

import (
	"sort"
	"sync"
	"time"

	"CANSpectra/internal/engine/protocol"
)

// Inter-frame period bounds.
const (
	TMin = 50 * time.Millisecond
	TMax = 100 * time.Millisecond
)

// Classifier owns the per-identifier history. Classify is meant to be driven
// by a single goroutine; the mutex lets readers take consistent copies.
type Classifier struct {
	mu        sync.Mutex
	histories map[uint16]*IdentifierHistory
}

// New creates a classifier with history pre-seeded for the allow-list.
func New() *Classifier {
	c := &Classifier{histories: make(map[uint16]*IdentifierHistory, len(protocol.AllowedIdentifiers))}
	for _, id := range protocol.AllowedIdentifiers {
		c.histories[id] = &IdentifierHistory{}
	}
	return c
}

// Classify runs the rate, length and data checks for one frame and updates
// the identifier's history. Unknown identifiers get a history lazily.
func (c *Classifier) Classify(id uint16, payload []byte, length uint8, arrival time.Time) Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.histories[id]
	if !ok {
		h = &IdentifierHistory{}
		c.histories[id] = h
	}

	v := Verdict{
		RateOK:   h.rateCheck(arrival),
		LengthOK: h.lengthCheck(length),
		DataOK:   h.dataCheck(payload),
	}
	h.HasPriorFrame = true
	return v
}

// ClassifyFrame classifies a decoded frame.
func (c *Classifier) ClassifyFrame(f protocol.DecodedFrame, arrival time.Time) Verdict {
	return c.Classify(f.ID, f.Payload, f.Length, arrival)
}

// History returns a copy of the history for id.
func (c *Classifier) History(id uint16) (IdentifierHistory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.histories[id]
	if !ok {
		return IdentifierHistory{}, false
	}
	return h.clone(), true
}

// Identifiers returns the identifiers with a history, sorted.
func (c *Classifier) Identifiers() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uint16, 0, len(c.histories))
	for id := range c.histories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns a deep copy of every history.
func (c *Classifier) Snapshot() map[uint16]IdentifierHistory {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uint16]IdentifierHistory, len(c.histories))
	for id, h := range c.histories {
		out[id] = h.clone()
	}
	return out
}
