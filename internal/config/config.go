package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DetectorConfig holds the settings of the detection pipeline.
type DetectorConfig struct {
	Source             string `yaml:"source" toml:"source"`
	ListenAddr         string `yaml:"listen_addr" toml:"listen_addr"`
	PcapPath           string `yaml:"pcap_path" toml:"pcap_path"`
	SizeOfFrameChannel int    `yaml:"size_of_frame_channel" toml:"size_of_frame_channel"`
	TimingPolicy       string `yaml:"timing_policy" toml:"timing_policy"`
	SnapshotInterval   string `yaml:"snapshot_interval" toml:"snapshot_interval"`
	SnapshotRootPath   string `yaml:"snapshot_root_path" toml:"snapshot_root_path"`
}

// TextConfig configures the report file writer.
type TextConfig struct {
	Path       string `yaml:"path" toml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// FileConfig configures writers that produce one file per session.
type FileConfig struct {
	RootPath string `yaml:"root_path" toml:"root_path"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port"`
	Database  string `yaml:"database" toml:"database"`
	Username  string `yaml:"username" toml:"username"`
	Password  string `yaml:"password" toml:"password"`
	BatchSize int    `yaml:"batch_size" toml:"batch_size"`
}

// NATSWriterConfig configures the NATS verdict publisher.
type NATSWriterConfig struct {
	URL      string `yaml:"url" toml:"url"`
	Subject  string `yaml:"subject" toml:"subject"`
	Encoding string `yaml:"encoding" toml:"encoding"`
}

// WriterDef defines a single verdict sink.
type WriterDef struct {
	Type         string           `yaml:"type" toml:"type"`
	Enabled      bool             `yaml:"enabled" toml:"enabled"`
	BufferSize   int              `yaml:"buffer_size" toml:"buffer_size"`
	DropWhenFull bool             `yaml:"drop_when_full" toml:"drop_when_full"`
	Text         TextConfig       `yaml:"text" toml:"text"`
	Gob          FileConfig       `yaml:"gob" toml:"gob"`
	CBOR         FileConfig       `yaml:"cbor" toml:"cbor"`
	Pcap         FileConfig       `yaml:"pcap" toml:"pcap"`
	ClickHouse   ClickHouseConfig `yaml:"clickhouse" toml:"clickhouse"`
	NATS         NATSWriterConfig `yaml:"nats" toml:"nats"`
}

// ProbeConfig holds the NATS transport settings.
type ProbeConfig struct {
	NATSURL string `yaml:"nats_url" toml:"nats_url"`
	Subject string `yaml:"subject" toml:"subject"`
}

// APIConfig holds the HTTP and gRPC listen addresses.
type APIConfig struct {
	ListenAddr     string `yaml:"listen_addr" toml:"listen_addr"`
	GRPCListenAddr string `yaml:"grpc_listen_addr" toml:"grpc_listen_addr"`
}

// AlerterRule defines a single threshold rule evaluated against detector stats.
type AlerterRule struct {
	Name       string  `yaml:"name" toml:"name"`
	Metric     string  `yaml:"metric" toml:"metric"`
	Identifier string  `yaml:"identifier" toml:"identifier"`
	Operator   string  `yaml:"operator" toml:"operator"`
	Threshold  float64 `yaml:"threshold" toml:"threshold"`
}

// AlerterConfig holds the alerting settings.
type AlerterConfig struct {
	Enabled       bool          `yaml:"enabled" toml:"enabled"`
	CheckInterval string        `yaml:"check_interval" toml:"check_interval"`
	Rules         []AlerterRule `yaml:"rules" toml:"rules"`
}

// SMTPConfig holds the e-mail notifier settings.
type SMTPConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	From     string `yaml:"from" toml:"from"`
	To       string `yaml:"to" toml:"to"`
}

// LoggingConfig configures an optional rotating log file.
type LoggingConfig struct {
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Detector DetectorConfig `yaml:"detector" toml:"detector"`
	Writers  []WriterDef    `yaml:"writers" toml:"writers"`
	Probe    ProbeConfig    `yaml:"probe" toml:"probe"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Alerter  AlerterConfig  `yaml:"alerter" toml:"alerter"`
	SMTP     SMTPConfig     `yaml:"smtp" toml:"smtp"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// Default values applied when a field is left empty.
const (
	DefaultListenAddr   = "127.0.0.1:65432"
	DefaultSource       = "tcp"
	DefaultTimingPolicy = "report"
	DefaultChannelSize  = 1024
	DefaultNATSSubject  = "cans.frames.raw"
)

// LoadConfig reads the configuration from a YAML or TOML file (chosen by
// extension) and returns a Config struct with defaults applied.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Detector.Source == "" {
		c.Detector.Source = DefaultSource
	}
	if c.Detector.ListenAddr == "" {
		c.Detector.ListenAddr = DefaultListenAddr
	}
	if c.Detector.TimingPolicy == "" {
		c.Detector.TimingPolicy = DefaultTimingPolicy
	}
	if c.Detector.SizeOfFrameChannel <= 0 {
		c.Detector.SizeOfFrameChannel = DefaultChannelSize
	}
	if c.Probe.Subject == "" {
		c.Probe.Subject = DefaultNATSSubject
	}
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	switch c.Detector.Source {
	case "tcp", "nats":
	case "pcap":
		if c.Detector.PcapPath == "" {
			return fmt.Errorf("detector.pcap_path is required for source 'pcap'")
		}
	default:
		return fmt.Errorf("unknown detector source: '%s'", c.Detector.Source)
	}
	switch c.Detector.TimingPolicy {
	case "ignore", "report", "stop":
	default:
		return fmt.Errorf("unknown timing policy: '%s'", c.Detector.TimingPolicy)
	}
	return nil
}
