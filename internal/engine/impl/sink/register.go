package sink

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/factory"
	"CANSpectra/internal/model"
	"time"
)

// --- Factory Registration ---

func init() {
	factory.RegisterWriter("text", func(def config.WriterDef) (model.Writer, error) {
		return NewTextWriter(def.Text)
	})
	factory.RegisterWriter("gob", func(def config.WriterDef) (model.Writer, error) {
		return NewGobWriter(def.Gob.RootPath)
	})
	factory.RegisterWriter("cbor", func(def config.WriterDef) (model.Writer, error) {
		return NewCBORWriter(def.CBOR.RootPath)
	})
	factory.RegisterWriter("pcap", func(def config.WriterDef) (model.Writer, error) {
		return NewPcapWriter(def.Pcap.RootPath)
	})
	factory.RegisterWriter("clickhouse", func(def config.WriterDef) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse)
	})
	factory.RegisterWriter("nats", func(def config.WriterDef) (model.Writer, error) {
		return NewNATSWriter(def.NATS)
	})
}

var timeNow = time.Now

// sessionFileName names a per-session output file.
func sessionFileName(ext string) string {
	return timeNow().Format("2006-01-02_15-04-05") + ext
}
