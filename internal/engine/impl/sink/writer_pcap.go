package sink

import (
	"CANSpectra/internal/model"
	"CANSpectra/pkg/pcap"
	"bufio"
	"os"
)

// PcapWriter captures every raw frame, malformed ones included, so a session
// can be replayed through the pcap source.
type PcapWriter struct {
	file   *os.File
	buf    *bufio.Writer
	writer *pcap.Writer
}

// NewPcapWriter creates <rootPath>/<timestamp>.pcap.
func NewPcapWriter(rootPath string) (model.Writer, error) {
	file, buf, err := createSessionFile(rootPath, ".pcap")
	if err != nil {
		return nil, err
	}
	writer, err := pcap.NewWriter(buf)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &PcapWriter{file: file, buf: buf, writer: writer}, nil
}

func (w *PcapWriter) Name() string {
	return "pcap"
}

func (w *PcapWriter) Write(rec *model.Record) error {
	return w.writer.WriteFrame(rec.Raw, rec.Timestamp)
}

func (w *PcapWriter) Close() error {
	return closeSessionFile(w.file, w.buf)
}
