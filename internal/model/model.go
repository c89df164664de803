package model

import (
	"fmt"
	"time"

	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/engine/protocol"
)

// Chunk is one fixed-size block read off the transport.
type Chunk struct {
	Data    []byte
	Arrival time.Time
}

// Record status values written by sinks.
const (
	StatusValid     = "Valid"
	StatusInvalid   = "Invalid"
	StatusMalformed = "Malformed"
)

// Record is the outcome of processing one chunk. Exactly one of Frame and
// FormatErr is set.
type Record struct {
	Timestamp time.Time
	Raw       protocol.RawFrame
	Frame     *protocol.DecodedFrame
	Verdict   classifier.Verdict
	FormatErr *protocol.FormatError
	// TimingErr is set when the gap to the previous chunk on the stream
	// broke the inter-arrival contract.
	TimingErr error
}

// Malformed reports whether the frame failed structural decoding.
func (r *Record) Malformed() bool {
	return r.FormatErr != nil
}

// Status returns Valid, Invalid or Malformed.
func (r *Record) Status() string {
	switch {
	case r.Malformed():
		return StatusMalformed
	case r.Verdict.Valid():
		return StatusValid
	default:
		return StatusInvalid
	}
}

// Reason returns the failed check name, the format error kind, or "".
func (r *Record) Reason() string {
	if r.Malformed() {
		return r.FormatErr.Kind.String()
	}
	if reason, ok := r.Verdict.Reason(); ok {
		return string(reason)
	}
	return ""
}

// UnixSeconds formats the timestamp as fractional unix seconds with
// microsecond precision.
func (r *Record) UnixSeconds() string {
	us := r.Timestamp.UnixMicro()
	return fmt.Sprintf("%d.%06d", us/1e6, us%1e6)
}

// Entry is the flat, serializable form of a Record.
type Entry struct {
	Timestamp  time.Time `json:"timestamp" cbor:"timestamp"`
	Frame      string    `json:"frame" cbor:"frame"`
	Status     string    `json:"status" cbor:"status"`
	Reason     string    `json:"reason,omitempty" cbor:"reason,omitempty"`
	Identifier uint16    `json:"identifier" cbor:"identifier"`
	Length     uint8     `json:"length" cbor:"length"`
	Payload    []byte    `json:"payload,omitempty" cbor:"payload,omitempty"`
	RateOK     bool      `json:"rate_ok" cbor:"rate_ok"`
	LengthOK   bool      `json:"length_ok" cbor:"length_ok"`
	DataOK     bool      `json:"data_ok" cbor:"data_ok"`
	TimingErr  string    `json:"timing_error,omitempty" cbor:"timing_error,omitempty"`
}

// Entry flattens the record.
func (r *Record) Entry() Entry {
	e := Entry{
		Timestamp: r.Timestamp,
		Frame:     r.Raw.String(),
		Status:    r.Status(),
		Reason:    r.Reason(),
		RateOK:    r.Verdict.RateOK,
		LengthOK:  r.Verdict.LengthOK,
		DataOK:    r.Verdict.DataOK,
	}
	if r.Frame != nil {
		e.Identifier = r.Frame.ID
		e.Length = r.Frame.Length
		e.Payload = r.Frame.Payload
	}
	if r.TimingErr != nil {
		e.TimingErr = r.TimingErr.Error()
	}
	return e
}
