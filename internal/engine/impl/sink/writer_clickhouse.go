package sink

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/model"
	"context"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS frame_verdicts (
    Timestamp   DateTime64(6),
    Frame       String,
    Status      LowCardinality(String),
    Reason      LowCardinality(String),
    Identifier  UInt16,
    Length      UInt8,
    Payload     String,
    RateOK      Bool,
    LengthOK    Bool,
    DataOK      Bool,
    TimingError String
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Identifier, Timestamp);
`

const defaultBatchSize = 500

// batchConn is the part of driver.Conn the writer uses.
type batchConn interface {
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
	Close() error
}

// ClickHouseWriter batches records into the frame_verdicts table. A batch
// that fails to send is dropped, so an unreachable server never makes the
// pending buffer grow past batchSize.
type ClickHouseWriter struct {
	conn      batchConn
	batchSize int
	pending   []model.Entry
}

// NewClickHouseWriter connects to ClickHouse and ensures the table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ClickHouseWriter{conn: conn, batchSize: batchSize}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

func (w *ClickHouseWriter) Name() string {
	return "clickhouse"
}

// Write buffers the record and sends a batch once batchSize records are pending.
func (w *ClickHouseWriter) Write(rec *model.Record) error {
	w.pending = append(w.pending, rec.Entry())
	if len(w.pending) < w.batchSize {
		return nil
	}
	return w.flush()
}

func (w *ClickHouseWriter) flush() error {
	n := len(w.pending)
	if n == 0 {
		return nil
	}

	err := w.send()
	w.pending = w.pending[:0]
	if err != nil {
		return fmt.Errorf("dropped %d records: %w", n, err)
	}

	log.Printf("Wrote %d records to ClickHouse", n)
	return nil
}

func (w *ClickHouseWriter) send() error {
	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO frame_verdicts")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range w.pending {
		if err := batch.Append(row(e)...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append record to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// row orders an entry's values to match the frame_verdicts columns.
func row(e model.Entry) []interface{} {
	return []interface{}{
		e.Timestamp,
		e.Frame,
		e.Status,
		e.Reason,
		e.Identifier,
		e.Length,
		hex.EncodeToString(e.Payload),
		e.RateOK,
		e.LengthOK,
		e.DataOK,
		e.TimingErr,
	}
}

// Close sends any pending records and closes the connection.
func (w *ClickHouseWriter) Close() error {
	err := w.flush()
	if cerr := w.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
