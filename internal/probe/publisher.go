package probe

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/engine/protocol"
	"log"

	"github.com/nats-io/nats.go"
)

// Publisher is responsible for publishing raw frames to a NATS topic.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.ProbeConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish sends the 16-byte wire form of raw to the configured subject.
func (p *Publisher) Publish(raw protocol.RawFrame) error {
	return p.nc.Publish(p.subject, raw.Bytes())
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			return err
		}
		log.Println("NATS connection drained and closed.")
	}
	return nil
}
