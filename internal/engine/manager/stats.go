package manager

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/model"
	"sync"
	"time"
)

type stats struct {
	mu   sync.Mutex
	snap model.StatsSnapshot
}

func newStats() *stats {
	return &stats{snap: model.StatsSnapshot{
		StartedAt:       time.Now(),
		MalformedByKind: make(map[string]uint64),
		Identifiers:     make(map[uint16]*model.IdentifierStats),
	}}
}

func (s *stats) observe(rec *model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Frames++
	s.snap.LastFrameAt = rec.Timestamp
	if rec.TimingErr != nil {
		s.snap.TimingViolations++
	}
	if rec.Malformed() {
		s.snap.Malformed++
		s.snap.MalformedByKind[rec.FormatErr.Kind.String()]++
		return
	}

	ids, ok := s.snap.Identifiers[rec.Frame.ID]
	if !ok {
		ids = &model.IdentifierStats{}
		s.snap.Identifiers[rec.Frame.ID] = ids
	}
	ids.Frames++
	if rec.Verdict.Valid() {
		s.snap.Valid++
		ids.Valid++
		return
	}
	s.snap.Invalid++
	ids.Invalid++
	if !rec.Verdict.Passed(classifier.CheckRate) {
		ids.RateFailures++
	}
	if !rec.Verdict.Passed(classifier.CheckLength) {
		ids.LengthFailures++
	}
	if !rec.Verdict.Passed(classifier.CheckData) {
		ids.DataFailures++
	}
}

func (s *stats) snapshot() model.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.snap
	out.MalformedByKind = make(map[string]uint64, len(s.snap.MalformedByKind))
	for k, v := range s.snap.MalformedByKind {
		out.MalformedByKind[k] = v
	}
	out.Identifiers = make(map[uint16]*model.IdentifierStats, len(s.snap.Identifiers))
	for id, v := range s.snap.Identifiers {
		c := *v
		out.Identifiers[id] = &c
	}
	return out
}
