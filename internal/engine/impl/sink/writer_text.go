package sink

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/model"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// TextWriter writes one report line per record to a rotating file.
type TextWriter struct {
	out  *lumberjack.Logger
	path string
}

// NewTextWriter creates the report file writer.
func NewTextWriter(cfg config.TextConfig) (model.Writer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("text writer requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return &TextWriter{out: out, path: cfg.Path}, nil
}

func (w *TextWriter) Name() string {
	return "text"
}

// FormatReportLine renders a record as
// <timestamp>,0x<frame>,Valid | Invalid,<check> | Malformed,<kind>.
func FormatReportLine(rec *model.Record) string {
	line := fmt.Sprintf("%s,0x%s,%s", rec.UnixSeconds(), rec.Raw.Hex(), rec.Status())
	if reason := rec.Reason(); reason != "" {
		line += "," + reason
	}
	return line
}

func (w *TextWriter) Write(rec *model.Record) error {
	if _, err := w.out.Write([]byte(FormatReportLine(rec) + "\n")); err != nil {
		return fmt.Errorf("failed to write report line: %w", err)
	}
	return nil
}

func (w *TextWriter) Close() error {
	if err := w.out.Close(); err != nil {
		return err
	}
	log.Printf("Created Report - %s", w.path)
	return nil
}
