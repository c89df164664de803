package logging

import (
	"CANSpectra/internal/config"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.log")
	closer := Setup(config.LoggingConfig{File: path, MaxSizeMB: 1})
	defer Setup(config.LoggingConfig{})

	log.Println("detector started")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "detector started") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestSetup_NoFile(t *testing.T) {
	if err := Setup(config.LoggingConfig{}).Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
