package sink

import (
	"CANSpectra/internal/model"
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// GobWriter appends gob-encoded entries to one file per session.
type GobWriter struct {
	file    *os.File
	buf     *bufio.Writer
	encoder *gob.Encoder
}

// NewGobWriter creates <rootPath>/<timestamp>.gob.
func NewGobWriter(rootPath string) (model.Writer, error) {
	file, buf, err := createSessionFile(rootPath, ".gob")
	if err != nil {
		return nil, err
	}
	return &GobWriter{file: file, buf: buf, encoder: gob.NewEncoder(buf)}, nil
}

func (w *GobWriter) Name() string {
	return "gob"
}

func (w *GobWriter) Write(rec *model.Record) error {
	if err := w.encoder.Encode(rec.Entry()); err != nil {
		return fmt.Errorf("failed to encode record to gob: %w", err)
	}
	return nil
}

func (w *GobWriter) Close() error {
	return closeSessionFile(w.file, w.buf)
}

func createSessionFile(rootPath, ext string) (*os.File, *bufio.Writer, error) {
	if rootPath == "" {
		return nil, nil, fmt.Errorf("root path is required")
	}
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	filePath := filepath.Join(rootPath, sessionFileName(ext))
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file '%s': %w", filePath, err)
	}
	return file, bufio.NewWriter(file), nil
}

func closeSessionFile(file *os.File, buf *bufio.Writer) error {
	if err := buf.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush %s: %w", file.Name(), err)
	}
	return file.Close()
}
