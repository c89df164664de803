package pcap

import (
	"CANSpectra/internal/engine/protocol"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// Writer stores raw frames as pcap records readable by Reader.
type Writer struct {
	w *pcapgo.Writer
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(protocol.FrameSize, LinkTypeFrame); err != nil {
		return nil, fmt.Errorf("failed to write pcap file header: %w", err)
	}
	return &Writer{w: pw}, nil
}

// WriteFrame appends one frame captured at the given time.
func (w *Writer) WriteFrame(raw protocol.RawFrame, at time.Time) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     at,
		CaptureLength: protocol.FrameSize,
		Length:        protocol.FrameSize,
	}
	if err := w.w.WritePacket(ci, raw.Bytes()); err != nil {
		return fmt.Errorf("failed to write frame to pcap: %w", err)
	}
	return nil
}
