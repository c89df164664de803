package sink

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/model"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultVerdictSubject = "cans.verdicts"

// NATSWriter publishes one message per record.
type NATSWriter struct {
	nc       *nats.Conn
	subject  string
	encoding string
}

// NewNATSWriter connects to NATS. Encoding is one of proto, cbor or json.
func NewNATSWriter(cfg config.NATSWriterConfig) (model.Writer, error) {
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "proto"
	}
	if _, err := EncodeEntry(encoding, model.Entry{}); err != nil {
		return nil, err
	}
	subject := cfg.Subject
	if subject == "" {
		subject = defaultVerdictSubject
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s, publishing verdicts to '%s' (%s)", url, subject, encoding)
	return &NATSWriter{nc: nc, subject: subject, encoding: encoding}, nil
}

func (w *NATSWriter) Name() string {
	return "nats"
}

func (w *NATSWriter) Write(rec *model.Record) error {
	data, err := EncodeEntry(w.encoding, rec.Entry())
	if err != nil {
		return err
	}
	return w.nc.Publish(w.subject, data)
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	if err := w.nc.Drain(); err != nil {
		return err
	}
	log.Println("NATS connection drained and closed.")
	return nil
}

// EncodeEntry serializes an entry for the wire.
func EncodeEntry(encoding string, e model.Entry) ([]byte, error) {
	switch encoding {
	case "proto":
		msg, err := structpb.NewStruct(map[string]interface{}{
			"timestamp":    e.Timestamp.UTC().Format(time.RFC3339Nano),
			"frame":        e.Frame,
			"status":       e.Status,
			"reason":       e.Reason,
			"identifier":   int64(e.Identifier),
			"length":       int64(e.Length),
			"payload":      hex.EncodeToString(e.Payload),
			"rate_ok":      e.RateOK,
			"length_ok":    e.LengthOK,
			"data_ok":      e.DataOK,
			"timing_error": e.TimingErr,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build protobuf struct: %w", err)
		}
		return proto.Marshal(msg)
	case "cbor":
		return cborMode.Marshal(e)
	case "json":
		return json.Marshal(e)
	default:
		return nil, fmt.Errorf("unknown encoding: '%s'", encoding)
	}
}
