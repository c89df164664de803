package model

import "context"

// Source delivers fixed-size frame blocks from a transport. ReadFrames blocks
// until the stream ends or ctx is cancelled; it never closes out.
type Source interface {
	ReadFrames(ctx context.Context, out chan<- *Chunk) error
	Close() error
}
