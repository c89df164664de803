package sink

import (
	"CANSpectra/internal/model"
	"bufio"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// cborMode keeps sub-second timestamps, which the default unix-seconds mode
// would truncate.
var cborMode cbor.EncMode

func init() {
	mode, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("invalid cbor encoding options: %v", err))
	}
	cborMode = mode
}

// CBORWriter appends a CBOR sequence of entries to one file per session.
type CBORWriter struct {
	file    *os.File
	buf     *bufio.Writer
	encoder *cbor.Encoder
}

// NewCBORWriter creates <rootPath>/<timestamp>.cbor.
func NewCBORWriter(rootPath string) (model.Writer, error) {
	file, buf, err := createSessionFile(rootPath, ".cbor")
	if err != nil {
		return nil, err
	}
	return &CBORWriter{file: file, buf: buf, encoder: cborMode.NewEncoder(buf)}, nil
}

func (w *CBORWriter) Name() string {
	return "cbor"
}

func (w *CBORWriter) Write(rec *model.Record) error {
	if err := w.encoder.Encode(rec.Entry()); err != nil {
		return fmt.Errorf("failed to encode record to cbor: %w", err)
	}
	return nil
}

func (w *CBORWriter) Close() error {
	return closeSessionFile(w.file, w.buf)
}
