package probe

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/engine/protocol"
	"CANSpectra/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Subscriber is a frame source fed by a NATS subject. Every message carries
// one raw frame.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// ReadFrames subscribes to the configured subject and forwards frames to out
// until ctx is cancelled.
func (s *Subscriber) ReadFrames(ctx context.Context, out chan<- *model.Chunk) error {
	msgs := make(chan *nats.Msg, 64)
	sub, err := s.nc.ChanSubscribe(s.subject, msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to '%s': %w", s.subject, err)
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for frames...", s.subject)

	for {
		select {
		case msg := <-msgs:
			c, err := chunkFromMsg(msg, time.Now())
			if err != nil {
				log.Printf("Error decoding NATS message: %v", err)
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func chunkFromMsg(msg *nats.Msg, arrival time.Time) (*model.Chunk, error) {
	if len(msg.Data) != protocol.FrameSize {
		return nil, fmt.Errorf("expected %d bytes, got %d", protocol.FrameSize, len(msg.Data))
	}
	data := make([]byte, protocol.FrameSize)
	copy(data, msg.Data)
	return &model.Chunk{Data: data, Arrival: arrival}, nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() error {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
	return nil
}
