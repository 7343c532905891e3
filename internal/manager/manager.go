package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calder-vis/motionlink/internal/command"
	"github.com/calder-vis/motionlink/internal/dispatch"
	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/infrastructure/logging"
	"github.com/calder-vis/motionlink/internal/profile"
	"github.com/calder-vis/motionlink/internal/registry"
	"github.com/calder-vis/motionlink/internal/session"
	"github.com/calder-vis/motionlink/internal/telemetry"
)

// eventBuffer is the capacity of the status event channel. Events beyond
// a stalled consumer's backlog are dropped rather than blocking the loop.
const eventBuffer = 32

// statsWriteInterval is how often cumulative loop statistics are
// recorded while streaming.
const statsWriteInterval = 10 * time.Second

// defaultLabel substitutes for %s placeholders when no button is pressed,
// matching the duration literal the command stream historically carried.
const defaultLabel = "1.0"

// Sink delivers rendered command strings to the visualization endpoints.
// Implemented by dispatch.Sink.
type Sink interface {
	Send(cmd string) []dispatch.Result
}

// Recorder records motion telemetry. Implemented by influxdb.Client;
// nil disables recording.
type Recorder interface {
	WriteMotionSample(device, deviceType string, axes []float64, axisNames []string)
	WriteLoopStats(device string, samples, commandsSent, sendFailures, pollFailures uint64)
}

// StatusEvent is one session state transition, published on the event
// channel for the UI boundary.
type StatusEvent struct {
	Device    string        `json:"device"`
	SessionID string        `json:"session_id,omitempty"`
	State     session.State `json:"state"`
	Reason    string        `json:"reason,omitempty"`
	At        time.Time     `json:"at"`
}

// Deps holds the dependencies required by the Manager.
type Deps struct {
	Registry *registry.Registry
	HID      hid.Manager
	Commands *command.Table
	Sink     Sink
	Profiles profile.Repository // optional, nil means identity profiles
	Recorder Recorder           // optional, nil disables telemetry recording
	Logger   *logging.Logger

	// PollInterval is the pause between successful polls.
	PollInterval time.Duration

	// IdleBackoff is the pause after a poll that yielded no data.
	IdleBackoff time.Duration

	// MaxPollFailures is the consecutive failure budget per session.
	MaxPollFailures int
}

// Manager owns the single active device session and its poll loop.
//
// Connect and Disconnect are safe for concurrent use; at most one
// session streams at any time, and connecting while a session runs
// forces a clean close of the old one first. State transitions are
// published as StatusEvents on a one-way channel; raw pipeline errors
// never cross that boundary.
type Manager struct {
	deps   Deps
	events chan StatusEvent

	mu      sync.Mutex
	sess    *session.Session
	prof    *profile.Profile
	tmpl    *command.Template
	stop    chan struct{}
	loopWG  sync.WaitGroup
	closed  bool
	started time.Time

	// Fault state is written by the poll loop, which must never take
	// m.mu (Disconnect holds it while waiting for the loop to exit).
	faultMu     sync.Mutex
	faulted     bool
	faultReason string

	// Cumulative counters for the active session, reset on Connect.
	samples      atomic.Uint64
	commandsSent atomic.Uint64
	sendFailures atomic.Uint64
	pollFailures atomic.Uint64
}

// New creates a session manager.
//
// Parameters:
//   - deps: Required collaborators (registry, hid, commands, sink, logger)
//
// Returns:
//   - *Manager: Ready for Connect calls
//   - error: If a required dependency is missing
func New(deps Deps) (*Manager, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.HID == nil {
		return nil, fmt.Errorf("hid manager is required")
	}
	if deps.Commands == nil {
		return nil, fmt.Errorf("command table is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("dispatch sink is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = 10 * time.Millisecond
	}
	if deps.IdleBackoff <= 0 {
		deps.IdleBackoff = 15 * time.Millisecond
	}
	if deps.MaxPollFailures <= 0 {
		deps.MaxPollFailures = 5
	}

	return &Manager{
		deps:   deps,
		events: make(chan StatusEvent, eventBuffer),
	}, nil
}

// Events returns the status event channel.
//
// The channel is never closed while the manager lives; consumers should
// select against their own shutdown signal. Events are dropped, not
// queued without bound, if the consumer stalls.
func (m *Manager) Events() <-chan StatusEvent {
	return m.events
}

// Connect opens a session for the named device and starts streaming.
//
// Any session already running is closed first, so the call always ends
// with either exactly one fresh session or none. The device's mapping
// profile is loaded once here; edits made while streaming apply on the
// next Connect.
//
// Parameters:
//   - ctx: Context for profile loading
//   - name: Configured device name, e.g. "SpaceMouse"
//
// Returns:
//   - string: The new session's ID
//   - error: ErrUnknownDevice, hid open errors, or ErrManagerClosed
func (m *Manager) Connect(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrManagerClosed
	}

	desc, err := m.deps.Registry.LookupName(name)
	if err != nil {
		return "", err
	}

	// Force a clean close of any running session before opening the next.
	m.stopLoopLocked("superseded")

	prof := m.loadProfile(ctx, desc)
	tmpl, err := m.resolveTemplate(desc, prof)
	if err != nil {
		return "", err
	}

	m.emit(StatusEvent{Device: desc.Name, State: session.StateConnecting, At: time.Now()})

	sess, err := session.Open(m.deps.HID, desc, m.deps.MaxPollFailures)
	if err != nil {
		m.emit(StatusEvent{Device: desc.Name, State: session.StateError, Reason: reasonFor(err), At: time.Now()})
		return "", err
	}

	m.emit(StatusEvent{Device: desc.Name, SessionID: sess.ID(), State: session.StateConnected, At: time.Now()})

	m.sess = sess
	m.prof = prof
	m.tmpl = tmpl
	m.stop = make(chan struct{})
	m.started = time.Now()
	m.samples.Store(0)
	m.commandsSent.Store(0)
	m.sendFailures.Store(0)
	m.pollFailures.Store(0)

	m.loopWG.Add(1)
	go m.run(sess, prof, tmpl, m.stop)

	m.deps.Logger.Info("session connected",
		"device", desc.Name,
		"session_id", sess.ID(),
		"type", string(desc.Type),
	)

	return sess.ID(), nil
}

// Disconnect stops the active session and releases its device handle.
//
// Returns:
//   - error: ErrNoSession if nothing is connected
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return ErrNoSession
	}

	m.stopLoopLocked("disconnect requested")
	return nil
}

// Close shuts the manager down, stopping any active session.
// Further Connect calls fail with ErrManagerClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.stopLoopLocked("shutting down")
	return nil
}

// Status returns the active session's device name and state.
// With no session it reports an empty device and StateDisconnected.
func (m *Manager) Status() (string, session.State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return "", session.StateDisconnected
	}

	name := m.sess.Descriptor().Name
	if faulted, _ := m.faultState(); faulted {
		return name, session.StateError
	}
	return name, m.sess.State()
}

// Snapshot reports the active session's state and counters for
// telemetry.
func (m *Manager) Snapshot() telemetry.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := telemetry.Snapshot{
		State:        string(session.StateDisconnected),
		Samples:      m.samples.Load(),
		CommandsSent: m.commandsSent.Load(),
		SendFailures: m.sendFailures.Load(),
		PollFailures: m.pollFailures.Load(),
	}
	if m.sess != nil {
		snap.Device = m.sess.Descriptor().Name
		snap.State = string(m.sess.State())
		snap.StartedAt = m.started
		if faulted, _ := m.faultState(); faulted {
			snap.State = string(session.StateError)
		}
	}
	return snap
}

// DeviceStatus joins a catalogue entry with live hardware presence.
type DeviceStatus struct {
	registry.Descriptor
	Present bool `json:"present"`
}

// Devices lists the configured catalogue joined with hardware presence,
// ordered by device name.
func (m *Manager) Devices() []DeviceStatus {
	descs := m.deps.Registry.List()
	out := make([]DeviceStatus, len(descs))
	for i, desc := range descs {
		present, err := m.deps.HID.Present(desc.VendorID, desc.ProductID)
		if err != nil {
			m.deps.Logger.Warn("presence check failed", "device", desc.Name, "error", err)
			present = false
		}
		out[i] = DeviceStatus{Descriptor: desc, Present: present}
	}
	return out
}

// stopLoopLocked stops the poll loop and closes the session handle.
// Callers must hold m.mu. No-op when no session is active.
func (m *Manager) stopLoopLocked(reason string) {
	if m.sess == nil {
		return
	}

	close(m.stop)
	m.loopWG.Wait()

	name := m.sess.Descriptor().Name
	id := m.sess.ID()
	faulted, _ := m.faultState()
	m.clearFault()

	_ = m.sess.Close()
	m.sess = nil
	m.prof = nil
	m.tmpl = nil
	m.stop = nil

	// A faulted loop already emitted its Error event; the close that
	// follows still lands the session back at Disconnected.
	m.emit(StatusEvent{Device: name, SessionID: id, State: session.StateDisconnected, Reason: reason, At: time.Now()})

	if !faulted {
		m.deps.Logger.Info("session disconnected", "device", name, "session_id", id, "reason", reason)
	}
}

// loadProfile fetches the device's stored profile, falling back to the
// identity default when no repository is wired or nothing is stored.
func (m *Manager) loadProfile(ctx context.Context, desc registry.Descriptor) *profile.Profile {
	if m.deps.Profiles == nil {
		return profile.Default(desc)
	}

	prof, err := m.deps.Profiles.Get(ctx, desc.Name)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			m.deps.Logger.Warn("profile load failed, using defaults", "device", desc.Name, "error", err)
		}
		return profile.Default(desc)
	}
	return prof
}

// resolveTemplate picks the command template: the profile override when
// set, else the logical type's configured pattern.
func (m *Manager) resolveTemplate(desc registry.Descriptor, prof *profile.Profile) (*command.Template, error) {
	if prof.Template != "" {
		tmpl, err := command.Parse(prof.Template)
		if err != nil {
			return nil, fmt.Errorf("profile template for %q: %w", desc.Name, err)
		}
		return tmpl, nil
	}
	return m.deps.Commands.Resolve(string(desc.Type))
}

// setFault records a hardware fault from the poll loop.
func (m *Manager) setFault(reason string) {
	m.faultMu.Lock()
	m.faulted = true
	m.faultReason = reason
	m.faultMu.Unlock()
}

// clearFault resets the fault record when the session is torn down.
func (m *Manager) clearFault() {
	m.faultMu.Lock()
	m.faulted = false
	m.faultReason = ""
	m.faultMu.Unlock()
}

// faultState reads the current fault record.
func (m *Manager) faultState() (bool, string) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	return m.faulted, m.faultReason
}

// emit publishes a status event without ever blocking the caller.
func (m *Manager) emit(ev StatusEvent) {
	select {
	case m.events <- ev:
	default:
		m.deps.Logger.Warn("status event dropped, consumer stalled",
			"device", ev.Device,
			"state", string(ev.State),
		)
	}
}

// reasonFor maps a pipeline error onto the coarse reason string that
// crosses the UI boundary.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, hid.ErrDeviceNotPresent):
		return "device not present"
	case errors.Is(err, hid.ErrDeviceBusy):
		return "device busy"
	case errors.Is(err, session.ErrHardwareFault):
		return "hardware fault"
	default:
		return "internal error"
	}
}
