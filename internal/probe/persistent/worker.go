package persistent

import (
	"CANSpectra/internal/model"
	"log"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 10000

// Worker drains records to a single writer on its own goroutine, so a slow
// sink never stalls classification. One goroutine per writer keeps records in
// stream order.
type Worker struct {
	writer       model.Writer
	recordChan   chan *model.Record
	dropWhenFull bool
	stopOnce     sync.Once
	wg           sync.WaitGroup

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewWorker creates and starts a worker for writer.
func NewWorker(writer model.Writer, bufferSize int, dropWhenFull bool) *Worker {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	w := &Worker{
		writer:       writer,
		recordChan:   make(chan *model.Record, bufferSize),
		dropWhenFull: dropWhenFull,
	}
	w.wg.Add(1)
	go w.run()
	log.Printf("Persistent worker started for writer %s (buffer %d, drop when full: %v)", writer.Name(), bufferSize, dropWhenFull)
	return w
}

func (w *Worker) run() {
	defer w.wg.Done()
	for rec := range w.recordChan {
		if err := w.writer.Write(rec); err != nil {
			w.failed.Add(1)
			log.Printf("PersistentWorker (%s): Error writing record: %v", w.writer.Name(), err)
			continue
		}
		w.written.Add(1)
	}
}

// Enqueue hands a record to the worker. In drop mode a full queue discards
// the record instead of blocking.
func (w *Worker) Enqueue(rec *model.Record) {
	if !w.dropWhenFull {
		w.recordChan <- rec
		return
	}
	select {
	case w.recordChan <- rec:
	default:
		if w.dropped.Add(1)%1000 == 1 {
			log.Printf("PersistentWorker (%s): Channel is full, dropping record.", w.writer.Name())
		}
	}
}

// Stop drains the queue, then closes the writer. Enqueue must not be called
// after Stop.
func (w *Worker) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.recordChan)
		w.wg.Wait()
		err = w.writer.Close()
		log.Printf("Persistent worker for %s stopped: %d written, %d dropped, %d failed.",
			w.writer.Name(), w.written.Load(), w.dropped.Load(), w.failed.Load())
	})
	return err
}

// Counts returns the written, dropped and failed record counts.
func (w *Worker) Counts() (written, dropped, failed uint64) {
	return w.written.Load(), w.dropped.Load(), w.failed.Load()
}
