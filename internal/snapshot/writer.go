package snapshot

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/model"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryData holds the metadata for a snapshot.
type SummaryData struct {
	Identifiers      int    `json:"identifiers"`
	Frames           uint64 `json:"frames"`
	Valid            uint64 `json:"valid"`
	Invalid          uint64 `json:"invalid"`
	Malformed        uint64 `json:"malformed"`
	TimingViolations uint64 `json:"timing_violations"`
	Timestamp        string `json:"timestamp"`
}

// Writer handles writing classifier history snapshots to disk.
type Writer struct{}

// NewWriter creates a new snapshot writer.
func NewWriter() *Writer {
	return &Writer{}
}

// HistoryFileName is the file holding the gob-encoded history of id.
func HistoryFileName(id uint16) string {
	return fmt.Sprintf("id_0x%x.dat", id)
}

// Write stores every identifier history that has seen a frame, plus a
// summary, under <rootPath>/<timestamp>.
func (w *Writer) Write(histories map[uint16]classifier.IdentifierHistory, stats model.StatsSnapshot, rootPath string, timestamp string) error {
	snapshotDir := filepath.Join(rootPath, timestamp)
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	written := 0
	for id, history := range histories {
		if !history.HasPriorFrame {
			continue
		}
		if err := writeGob(filepath.Join(snapshotDir, HistoryFileName(id)), history); err != nil {
			return err
		}
		written++
	}

	summary := SummaryData{
		Identifiers:      written,
		Frames:           stats.Frames,
		Valid:            stats.Valid,
		Invalid:          stats.Invalid,
		Malformed:        stats.Malformed,
		TimingViolations: stats.TimingViolations,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	summaryFile, err := os.Create(filepath.Join(snapshotDir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	return nil
}

func writeGob(filePath string, history classifier.IdentifierHistory) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(history); err != nil {
		return fmt.Errorf("failed to encode history to gob for file '%s': %w", filePath, err)
	}
	return nil
}
