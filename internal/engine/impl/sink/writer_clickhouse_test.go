package sink

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type unreachableConn struct {
	prepares int
	closed   bool
}

func (c *unreachableConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	c.prepares++
	return nil, errors.New("connection refused")
}

func (c *unreachableConn) Close() error {
	c.closed = true
	return nil
}

func TestClickHouseWriter_DropsFailedBatch(t *testing.T) {
	conn := &unreachableConn{}
	w := &ClickHouseWriter{conn: conn, batchSize: 2}
	records := sampleRecords(t)

	if err := w.Write(records[0]); err != nil {
		t.Fatalf("first write should only buffer, got %v", err)
	}
	err := w.Write(records[1])
	if err == nil || !strings.Contains(err.Error(), "dropped 2 records") {
		t.Fatalf("expected the failed batch to be reported as dropped, got %v", err)
	}
	if len(w.pending) != 0 {
		t.Fatalf("failed batch must not stay pending, %d records left", len(w.pending))
	}

	// Later batches are bounded by batchSize, not by the failure history.
	for i := 0; i < 5; i++ {
		w.Write(records[i%len(records)])
		if len(w.pending) >= w.batchSize {
			t.Fatalf("pending grew to %d with batch size %d", len(w.pending), w.batchSize)
		}
	}

	err = w.Close()
	if err == nil || !strings.Contains(err.Error(), "dropped 1 records") {
		t.Errorf("expected Close to report the dropped tail, got %v", err)
	}
	if !conn.closed {
		t.Error("connection should be closed")
	}
	if conn.prepares != 4 {
		t.Errorf("expected 4 batch attempts, got %d", conn.prepares)
	}
}
