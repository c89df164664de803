package manager

import (
	"CANSpectra/internal/alerter"
	"CANSpectra/internal/config"
	"CANSpectra/internal/engine/classifier"
	_ "CANSpectra/internal/engine/impl/sink" // Registers the verdict writers
	"CANSpectra/internal/engine/protocol"
	"CANSpectra/internal/factory"
	"CANSpectra/internal/metrics"
	"CANSpectra/internal/model"
	"CANSpectra/internal/notification"
	"CANSpectra/internal/probe/persistent"
	"CANSpectra/internal/snapshot"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrTimingViolation is set on a record whose gap to the previous chunk on
// the stream falls outside (0.98*TMin, 1.02*TMax).
var ErrTimingViolation = errors.New("inter-arrival time outside the stream contract")

const (
	minGap = classifier.TMin * 98 / 100
	maxGap = classifier.TMax * 102 / 100
)

// TimingPolicy decides what happens after a timing violation.
type TimingPolicy int

const (
	// TimingIgnore skips the inter-arrival check.
	TimingIgnore TimingPolicy = iota
	// TimingReport logs and counts the violation and keeps going.
	TimingReport
	// TimingStop reports the violation and halts the pipeline.
	TimingStop
)

// ParseTimingPolicy maps the configuration value to a TimingPolicy.
func ParseTimingPolicy(s string) (TimingPolicy, error) {
	switch s {
	case "ignore":
		return TimingIgnore, nil
	case "report", "":
		return TimingReport, nil
	case "stop":
		return TimingStop, nil
	}
	return TimingReport, fmt.Errorf("unknown timing policy: '%s'", s)
}

// Options configures a Manager built with New.
type Options struct {
	TimingPolicy     TimingPolicy
	ChannelSize      int
	SnapshotInterval time.Duration
	SnapshotRootPath string
	Metrics          *metrics.Metrics
	Alerter          *alerter.Alerter
}

// Manager runs the detection pipeline for one stream: it decodes every
// chunk, classifies well-formed frames and fans the records out to the
// sink workers.
type Manager struct {
	classifier *classifier.Classifier
	stats      *stats
	metrics    *metrics.Metrics
	sinks      []*persistent.Worker
	alerter    *alerter.Alerter

	policy      TimingPolicy
	lastArrival time.Time

	frameChannel chan *model.Chunk
	workerWg     sync.WaitGroup

	snapshots        *snapshot.Writer
	snapshotInterval time.Duration
	snapshotRootPath string
	done             chan struct{}
	snapshotterWg    sync.WaitGroup

	halted   chan struct{}
	haltOnce sync.Once
	stopOnce sync.Once
}

// New creates a Manager that writes to the given sinks.
func New(sinks []factory.Sink, opts Options) *Manager {
	if opts.ChannelSize <= 0 {
		opts.ChannelSize = config.DefaultChannelSize
	}
	m := &Manager{
		classifier:       classifier.New(),
		stats:            newStats(),
		metrics:          opts.Metrics,
		alerter:          opts.Alerter,
		policy:           opts.TimingPolicy,
		frameChannel:     make(chan *model.Chunk, opts.ChannelSize),
		snapshots:        snapshot.NewWriter(),
		snapshotInterval: opts.SnapshotInterval,
		snapshotRootPath: opts.SnapshotRootPath,
		done:             make(chan struct{}),
		halted:           make(chan struct{}),
	}
	for _, s := range sinks {
		m.sinks = append(m.sinks, persistent.NewWorker(s.Writer, s.BufferSize, s.DropWhenFull))
	}
	return m
}

// NewManager builds a Manager, its writers and its alerter from cfg.
func NewManager(cfg *config.Config, mtr *metrics.Metrics) (*Manager, error) {
	policy, err := ParseTimingPolicy(cfg.Detector.TimingPolicy)
	if err != nil {
		return nil, err
	}

	var interval time.Duration
	if cfg.Detector.SnapshotInterval != "" {
		interval, err = time.ParseDuration(cfg.Detector.SnapshotInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot interval: %w", err)
		}
		if interval > 0 && cfg.Detector.SnapshotRootPath == "" {
			return nil, fmt.Errorf("detector.snapshot_root_path is required when snapshots are enabled")
		}
	}

	sinks, err := factory.Create(cfg)
	if err != nil {
		return nil, err
	}

	m := New(sinks, Options{
		TimingPolicy:     policy,
		ChannelSize:      cfg.Detector.SizeOfFrameChannel,
		SnapshotInterval: interval,
		SnapshotRootPath: cfg.Detector.SnapshotRootPath,
		Metrics:          mtr,
	})

	if cfg.Alerter.Enabled {
		var notifier model.Notifier
		if cfg.SMTP.Host != "" {
			email, err := notification.NewEmailNotifier(cfg.SMTP)
			if err != nil {
				m.stopSinks()
				return nil, fmt.Errorf("failed to create e-mail notifier: %w", err)
			}
			notifier = email
		}

		if notifier != nil {
			alertr, err := alerter.NewAlerter(&cfg.Alerter, m, notifier)
			if err != nil {
				m.stopSinks()
				return nil, fmt.Errorf("failed to create alerter: %w", err)
			}
			m.alerter = alertr
			log.Println("Alerter enabled and initialized.")
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	return m, nil
}

// Start begins the classification worker, the snapshotter and the alerter.
func (m *Manager) Start() {
	if m.snapshotInterval > 0 {
		m.snapshotterWg.Add(1)
		go m.runSnapshotter()
		log.Printf("Started snapshotter with interval %s", m.snapshotInterval)
	}

	if m.alerter != nil {
		m.alerter.Start()
	}

	m.workerWg.Add(1)
	go m.worker()
	log.Printf("Manager started with %d sinks.", len(m.sinks))
}

// InputChannel is where sources deliver chunks.
func (m *Manager) InputChannel() chan<- *model.Chunk {
	return m.frameChannel
}

// Halted is closed when a timing violation stops the pipeline.
func (m *Manager) Halted() <-chan struct{} {
	return m.halted
}

// Classifier exposes the classifier for read-only queries.
func (m *Manager) Classifier() *classifier.Classifier {
	return m.classifier
}

// Stats returns a copy of the detector counters.
func (m *Manager) Stats() model.StatsSnapshot {
	return m.stats.snapshot()
}

// Process runs one chunk through the pipeline and returns its record. It
// must be called from a single goroutine; Start does so for chunks sent on
// the input channel.
func (m *Manager) Process(chunk *model.Chunk) (*model.Record, error) {
	raw, err := protocol.FromBytes(chunk.Data)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		Timestamp: chunk.Arrival,
		Raw:       raw,
		TimingErr: m.checkTiming(chunk.Arrival),
	}

	frame, err := protocol.Decode(raw)
	if err != nil {
		var fe *protocol.FormatError
		if !errors.As(err, &fe) {
			return nil, err
		}
		rec.FormatErr = fe
		log.Printf("Fault frame format: %v", err)
	} else {
		rec.Frame = &frame
		rec.Verdict = m.classifier.ClassifyFrame(frame, chunk.Arrival)
	}

	m.stats.observe(rec)
	if m.metrics != nil {
		m.metrics.Observe(rec)
	}
	return rec, nil
}

func (m *Manager) checkTiming(arrival time.Time) error {
	prev := m.lastArrival
	m.lastArrival = arrival
	if m.policy == TimingIgnore || prev.IsZero() {
		return nil
	}
	gap := arrival.Sub(prev)
	if gap > minGap && gap < maxGap {
		return nil
	}
	return fmt.Errorf("%w: %s since previous frame", ErrTimingViolation, gap)
}

func (m *Manager) worker() {
	defer m.workerWg.Done()
	for chunk := range m.frameChannel {
		if m.isHalted() {
			continue
		}
		rec, err := m.Process(chunk)
		if err != nil {
			log.Printf("Dropping chunk: %v", err)
			continue
		}
		for _, s := range m.sinks {
			s.Enqueue(rec)
		}
		if rec.TimingErr != nil {
			log.Printf("Timing violation at %s: %v", rec.UnixSeconds(), rec.TimingErr)
			if m.policy == TimingStop {
				m.halt()
			}
		}
	}
}

func (m *Manager) halt() {
	m.haltOnce.Do(func() {
		log.Println("Timing policy is 'stop', halting the pipeline.")
		close(m.halted)
	})
}

func (m *Manager) isHalted() bool {
	select {
	case <-m.halted:
		return true
	default:
		return false
	}
}

func (m *Manager) runSnapshotter() {
	defer m.snapshotterWg.Done()
	ticker := time.NewTicker(m.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.takeSnapshot()
		case <-m.done:
			m.takeSnapshot()
			return
		}
	}
}

func (m *Manager) takeSnapshot() {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if err := m.snapshots.Write(m.classifier.Snapshot(), m.Stats(), m.snapshotRootPath, timestamp); err != nil {
		log.Printf("Error writing snapshot at %s: %v", timestamp, err)
		return
	}
	log.Printf("Completed snapshot at %s.", timestamp)
}

func (m *Manager) stopSinks() {
	for _, s := range m.sinks {
		if err := s.Stop(); err != nil {
			log.Printf("Error closing writer: %v", err)
		}
	}
}

// Stop gracefully shuts down the manager. Sources must have stopped sending
// on the input channel before Stop is called.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		log.Println("Manager stopping...")
		close(m.frameChannel)

		log.Println("Waiting for the classification worker to finish...")
		m.workerWg.Wait()

		m.stopSinks()

		close(m.done)
		m.snapshotterWg.Wait()

		if m.alerter != nil {
			m.alerter.Stop()
		}

		log.Println("Manager stopped.")
	})
}
