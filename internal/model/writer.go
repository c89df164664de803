package model

// Writer defines a generic interface for persisting per-frame records.
type Writer interface {
	// Name identifies the writer in logs.
	Name() string

	// Write persists a single record. Records arrive in stream order.
	Write(rec *Record) error

	// Close flushes buffered data and releases resources.
	Close() error
}
