package alerter

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/model"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Alerter periodically evaluates threshold rules against the detector
// counters and sends a consolidated notification when any rule triggers.
type Alerter struct {
	source        model.StatsSource
	rules         []config.AlerterRule
	notifier      model.Notifier
	checkInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, source model.StatsSource, notifier model.Notifier) (*Alerter, error) {
	interval, err := time.ParseDuration(cfg.CheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid check_interval for alerter: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("alerter check_interval must be a positive duration")
	}
	for _, rule := range cfg.Rules {
		if _, _, err := metricValue(rule, model.StatsSnapshot{}); err != nil {
			return nil, fmt.Errorf("invalid alerter rule '%s': %w", rule.Name, err)
		}
	}

	return &Alerter{
		source:        source,
		rules:         cfg.Rules,
		notifier:      notifier,
		checkInterval: interval,
		stopChan:      make(chan struct{}),
	}, nil
}

// Start launches the periodic evaluation loop.
func (a *Alerter) Start() {
	log.Println("Alerter started")
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.evaluateAndNotify()
			case <-a.stopChan:
				return
			}
		}
	}()
}

// Stop stops the loop and runs one final evaluation.
func (a *Alerter) Stop() {
	a.stopOnce.Do(func() {
		log.Println("Stopping Alerter...")
		close(a.stopChan)
		a.wg.Wait()
		a.evaluateAndNotify()
	})
}

// Evaluate returns one HTML fragment per triggered rule.
func (a *Alerter) Evaluate() []string {
	snap := a.source.Stats()
	var triggered []string

	for _, rule := range a.rules {
		value, unit, err := metricValue(rule, snap)
		if err != nil {
			log.Printf("Warning: skipping alerter rule '%s': %v", rule.Name, err)
			continue
		}
		if !check(value, rule.Threshold, rule.Operator) {
			continue
		}
		scope := "all identifiers"
		if rule.Identifier != "" {
			scope = rule.Identifier
		}
		triggered = append(triggered, fmt.Sprintf("<h3>Alert: %s</h3>"+
			"<ul>"+
			"<li><b>Scope:</b> <code>%s</code></li>"+
			"<li><b>Metric:</b> <code>%s</code></li>"+
			"<li><b>Condition:</b> <code>%s %.2f</code></li>"+
			"<li><b>Observed Value:</b> <code>%.2f %s</code></li>"+
			"</ul>",
			rule.Name, scope, rule.Metric, rule.Operator, rule.Threshold, value, unit))
	}

	return triggered
}

func (a *Alerter) evaluateAndNotify() {
	messages := a.Evaluate()
	if len(messages) == 0 {
		return
	}

	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(messages))

	body := "<h1>CANSpectra Alert Summary</h1>" +
		"<p>The following alerts were triggered during the last check:</p><hr>" +
		strings.Join(messages, "<hr>")

	if a.notifier == nil {
		return
	}
	subject := fmt.Sprintf("CANSpectra Alert Summary (%d Triggered)", len(messages))
	if err := a.notifier.Send(subject, body); err != nil {
		log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
	} else {
		log.Printf("INFO: Consolidated alert notification sent successfully.")
	}
}

// metricValue resolves a rule's metric against a stats snapshot.
func metricValue(rule config.AlerterRule, snap model.StatsSnapshot) (float64, string, error) {
	if rule.Identifier != "" {
		id, err := strconv.ParseUint(rule.Identifier, 0, 16)
		if err != nil {
			return 0, "", fmt.Errorf("invalid identifier '%s': %w", rule.Identifier, err)
		}
		ids := model.IdentifierStats{}
		if s, ok := snap.Identifiers[uint16(id)]; ok {
			ids = *s
		}
		switch rule.Metric {
		case "frames_total":
			return float64(ids.Frames), "frames", nil
		case "valid_total":
			return float64(ids.Valid), "frames", nil
		case "invalid_total":
			return float64(ids.Invalid), "frames", nil
		case "invalid_ratio":
			return ratio(ids.Invalid, ids.Frames), "ratio", nil
		case "rate_failures":
			return float64(ids.RateFailures), "failures", nil
		case "length_failures":
			return float64(ids.LengthFailures), "failures", nil
		case "data_failures":
			return float64(ids.DataFailures), "failures", nil
		}
		return 0, "", fmt.Errorf("metric '%s' cannot be scoped to an identifier", rule.Metric)
	}

	switch rule.Metric {
	case "frames_total":
		return float64(snap.Frames), "frames", nil
	case "valid_total":
		return float64(snap.Valid), "frames", nil
	case "invalid_total":
		return float64(snap.Invalid), "frames", nil
	case "invalid_ratio":
		return ratio(snap.Invalid, snap.Frames), "ratio", nil
	case "malformed_total":
		return float64(snap.Malformed), "frames", nil
	case "timing_violations":
		return float64(snap.TimingViolations), "violations", nil
	case "rate_failures", "length_failures", "data_failures":
		var total uint64
		for _, s := range snap.Identifiers {
			switch rule.Metric {
			case "rate_failures":
				total += s.RateFailures
			case "length_failures":
				total += s.LengthFailures
			default:
				total += s.DataFailures
			}
		}
		return float64(total), "failures", nil
	}
	return 0, "", fmt.Errorf("unknown metric '%s'", rule.Metric)
}

func ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// check compares a value against a threshold based on an operator.
func check(value, threshold float64, operator string) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	default:
		log.Printf("Warning: unknown operator '%s' in alerter rule", operator)
		return false
	}
}
