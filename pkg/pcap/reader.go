package pcap

import (
	"CANSpectra/internal/engine/protocol"
	"CANSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// LinkTypeFrame marks captures of raw 16-byte frames. It is the first
// user-defined DLT (DLT_USER0).
const LinkTypeFrame = layers.LinkType(147)

// Reader replays frames from a pcap file written by the pcap sink.
type Reader struct {
	file   *os.File
	reader *pcapgo.Reader
}

// NewReader opens a pcap file for replay.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	if reader.LinkType() != LinkTypeFrame {
		file.Close()
		return nil, fmt.Errorf("unexpected link type %v in %s", reader.LinkType(), filePath)
	}
	return &Reader{file: file, reader: reader}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadFrames sends every captured frame to out, using the capture timestamp
// as the arrival time. It returns nil at the end of the file.
func (r *Reader) ReadFrames(ctx context.Context, out chan<- *model.Chunk) error {
	for {
		data, ci, err := r.reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		if len(data) != protocol.FrameSize {
			// Short captures cannot be frames; skip them and keep going.
			log.Printf("Skipping pcap record of %d bytes", len(data))
			continue
		}

		select {
		case out <- &model.Chunk{Data: data, Arrival: ci.Timestamp}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
