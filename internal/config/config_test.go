package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
detector:
  source: pcap
  pcap_path: capture.pcap
  timing_policy: stop
writers:
  - type: text
    enabled: true
    text:
      path: report.txt
alerter:
  rules:
    - name: r1
      metric: malformed_total
      operator: ">"
      threshold: 3
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Detector.Source != "pcap" || cfg.Detector.PcapPath != "capture.pcap" {
		t.Errorf("unexpected detector config: %+v", cfg.Detector)
	}
	if cfg.Detector.TimingPolicy != "stop" {
		t.Errorf("expected timing policy 'stop', got '%s'", cfg.Detector.TimingPolicy)
	}
	if cfg.Detector.ListenAddr != DefaultListenAddr {
		t.Errorf("expected default listen addr, got '%s'", cfg.Detector.ListenAddr)
	}
	if len(cfg.Writers) != 1 || cfg.Writers[0].Text.Path != "report.txt" || !cfg.Writers[0].Enabled {
		t.Errorf("unexpected writers: %+v", cfg.Writers)
	}
	if len(cfg.Alerter.Rules) != 1 || cfg.Alerter.Rules[0].Threshold != 3 {
		t.Errorf("unexpected alerter rules: %+v", cfg.Alerter.Rules)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[detector]
source = "nats"
size_of_frame_channel = 16

[probe]
nats_url = "nats://example:4222"

[[writers]]
type = "gob"
enabled = true
[writers.gob]
root_path = "/tmp/gob"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Detector.Source != "nats" || cfg.Detector.SizeOfFrameChannel != 16 {
		t.Errorf("unexpected detector config: %+v", cfg.Detector)
	}
	if cfg.Probe.NATSURL != "nats://example:4222" || cfg.Probe.Subject != DefaultNATSSubject {
		t.Errorf("unexpected probe config: %+v", cfg.Probe)
	}
	if cfg.Detector.TimingPolicy != DefaultTimingPolicy {
		t.Errorf("expected default timing policy, got '%s'", cfg.Detector.TimingPolicy)
	}
	if len(cfg.Writers) != 1 || cfg.Writers[0].Gob.RootPath != "/tmp/gob" {
		t.Errorf("unexpected writers: %+v", cfg.Writers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown source": "detector:\n  source: serial\n",
		"pcap no path":   "detector:\n  source: pcap\n",
		"unknown policy": "detector:\n  timing_policy: abort\n",
		"malformed yaml": "detector: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, "config.yaml", content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadConfig_ShippedDefaults(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Detector.Source != "tcp" || len(cfg.Writers) == 0 {
		t.Errorf("unexpected shipped config: %+v", cfg.Detector)
	}
}
