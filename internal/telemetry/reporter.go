package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/calder-vis/motionlink/internal/infrastructure/mqtt"
)

// defaultInterval is how often health snapshots are published when the
// config leaves the interval unset.
const defaultInterval = 30 * time.Second

// Publisher is the interface for publishing telemetry messages.
// This is typically implemented by the mqtt.Client.
type Publisher interface {
	// PublishRetained publishes a retained message at the client's
	// configured QoS. Every reporter output is retained so a subscriber
	// joining late still sees the last known state.
	PublishRetained(topic string, payload []byte) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// StatsSource supplies the current session snapshot for health messages.
// This is implemented by the session manager.
type StatsSource interface {
	Snapshot() Snapshot
}

// Snapshot is one point-in-time view of the active session.
type Snapshot struct {
	Device       string    `json:"device,omitempty"`
	State        string    `json:"state"`
	Samples      uint64    `json:"samples"`
	CommandsSent uint64    `json:"commands_sent"`
	SendFailures uint64    `json:"send_failures"`
	PollFailures uint64    `json:"poll_failures"`
	StartedAt    time.Time `json:"started_at,omitempty"`
}

// healthMessage is the JSON payload published to the health topic.
type healthMessage struct {
	Snapshot
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

// transitionMessage is the JSON payload published per status transition.
type transitionMessage struct {
	Device    string `json:"device"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Logger is the minimal logging interface the reporter needs.
type Logger interface {
	Error(msg string, args ...any)
}

// Reporter publishes session telemetry over MQTT.
//
// It has two outputs: per-transition status messages (retained, so a
// dashboard joining late sees the current state) and a periodic health
// snapshot with loop counters and uptime.
type Reporter struct {
	version   string
	startTime time.Time
	interval  time.Duration
	publisher Publisher
	source    StatsSource

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// Config holds configuration for the telemetry reporter.
type Config struct {
	// Version is the daemon version embedded in health messages.
	Version string

	// Interval is how often to publish health snapshots.
	// Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT client for publishing messages.
	Publisher Publisher

	// Source supplies session snapshots.
	Source StatsSource
}

// New creates a telemetry reporter. Call Start to begin periodic
// reporting and Stop to shut down.
func New(cfg Config) *Reporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}

	return &Reporter{
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		source:    cfg.Source,
		done:      make(chan struct{}),
	}
}

// Start begins periodic health reporting.
//
// Parameters:
//   - ctx: Context for cancellation (stops reporting when cancelled)
func (r *Reporter) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.reportLoop(ctx)
}

// Stop gracefully stops health reporting.
// Safe to call multiple times.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

// SetLogger sets the logger for publish failures.
func (r *Reporter) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

// PublishTransition publishes one session status transition.
//
// Messages are retained on the per-device status topic so subscribers
// always see the device's last known state.
//
// Parameters:
//   - device: Configured device name
//   - state: New session state ("connecting", "streaming", ...)
//   - reason: Optional cause, set on error transitions
func (r *Reporter) PublishTransition(device, state, reason string) error {
	if r.publisher == nil || !r.publisher.IsConnected() {
		return nil
	}

	msg := transitionMessage{
		Device:    device,
		State:     state,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return r.publisher.PublishRetained(mqtt.SessionStatusTopic(device), payload)
}

// PublishNow publishes the current health snapshot immediately.
func (r *Reporter) PublishNow() error {
	if r.publisher == nil || !r.publisher.IsConnected() {
		return nil
	}

	var snap Snapshot
	if r.source != nil {
		snap = r.source.Snapshot()
	}

	msg := healthMessage{
		Snapshot:      snap,
		Version:       r.version,
		UptimeSeconds: int64(time.Since(r.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return r.publisher.PublishRetained(mqtt.TopicHealth, payload)
}

// reportLoop runs the periodic health reporting.
func (r *Reporter) reportLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.PublishNow(); err != nil {
		r.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			if err := r.PublishNow(); err != nil {
				r.logError("failed to publish health", err)
			}
		}
	}
}

// logError logs an error if a logger is set.
func (r *Reporter) logError(msg string, err error) {
	r.loggerMu.RLock()
	logger := r.logger
	r.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
