package probe

import (
	"CANSpectra/internal/engine/protocol"
	"CANSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"
)

// Listener accepts a single TCP connection and reads fixed-size frames off it.
type Listener struct {
	ln net.Listener
}

// NewListener binds addr.
func NewListener(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Printf("Listening for frames on %s", ln.Addr())
	return &Listener{ln: ln}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// ReadFrames waits for one peer and forwards its frames to out until the peer
// closes the connection or ctx is cancelled.
func (l *Listener) ReadFrames(ctx context.Context, out chan<- *model.Chunk) error {
	stop := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			l.ln.Close()
		case <-stop:
		}
	}()

	c, err := l.ln.Accept()
	close(stop)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to accept connection: %w", err)
	}
	defer c.Close()
	log.Printf("Accepted connection from %s", c.RemoteAddr())

	// Stop accepting: a detector classifies one stream.
	l.ln.Close()

	connCh := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-connCh:
		}
	}()
	defer close(connCh)

	return ReadStream(ctx, c, out)
}

// ReadStream splits r into FrameSize blocks stamped with their arrival time.
// EOF ends the stream; a trailing partial block is logged and dropped.
func ReadStream(ctx context.Context, r io.Reader, out chan<- *model.Chunk) error {
	for {
		buf := make([]byte, protocol.FrameSize)
		n, err := io.ReadFull(r, buf)
		arrival := time.Now()
		switch {
		case err == io.EOF:
			log.Println("Stream closed by peer.")
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			log.Printf("Dropping trailing partial frame of %d bytes", n)
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		select {
		case out <- &model.Chunk{Data: buf, Arrival: arrival}:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases the listening socket.
func (l *Listener) Close() error {
	err := l.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
