package model

import "time"

// IdentifierStats counts outcomes for one identifier.
type IdentifierStats struct {
	Frames         uint64 `json:"frames"`
	Valid          uint64 `json:"valid"`
	Invalid        uint64 `json:"invalid"`
	RateFailures   uint64 `json:"rate_failures"`
	LengthFailures uint64 `json:"length_failures"`
	DataFailures   uint64 `json:"data_failures"`
}

// StatsSnapshot is a point-in-time copy of the detector counters.
type StatsSnapshot struct {
	StartedAt        time.Time                   `json:"started_at"`
	LastFrameAt      time.Time                   `json:"last_frame_at"`
	Frames           uint64                      `json:"frames"`
	Valid            uint64                      `json:"valid"`
	Invalid          uint64                      `json:"invalid"`
	Malformed        uint64                      `json:"malformed"`
	MalformedByKind  map[string]uint64           `json:"malformed_by_kind"`
	TimingViolations uint64                      `json:"timing_violations"`
	Identifiers      map[uint16]*IdentifierStats `json:"identifiers"`
}

// StatsSource exposes detector counters to readers outside the pipeline.
type StatsSource interface {
	Stats() StatsSnapshot
}
