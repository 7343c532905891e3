package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/registry"
)

// State is the lifecycle state of a device session.
type State string

// Session lifecycle states. A session only ever advances
// Disconnected → Connecting → Connected → Streaming, moves to Error from
// any non-terminal state, and returns to Disconnected on Close.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateStreaming    State = "streaming"
	StateError        State = "error"
)

// RawSample is one polled snapshot of a device's axis and button deltas.
// It is ephemeral and never persisted.
type RawSample struct {
	// Axes holds one normalised delta per configured axis, in the axis
	// declaration order from the device's descriptor.
	Axes []float64

	// Buttons holds the pressed state per configured button.
	Buttons []bool

	// At is the monotonic poll timestamp.
	At time.Time
}

// Session owns one physical device's connection lifecycle and produces
// RawSamples from its raw input reports.
//
// A Session is exclusively owned by its Manager's poll loop; the mutex
// exists so state can be observed from other goroutines, not to make the
// poll path multi-consumer.
type Session struct {
	id   string
	desc registry.Descriptor

	mu          sync.Mutex
	dev         hid.Device
	state       State
	lastSample  *RawSample
	failures    int
	maxFailures int
}

// Open requests exclusive access to the hardware matching the descriptor
// and returns a Session in the Connected state.
//
// The session passes through Connecting before Connected, honouring the
// observable lifecycle order. hid.ErrDeviceBusy and hid.ErrDeviceNotPresent
// pass through unchanged for the caller to surface.
//
// Parameters:
//   - mgr: The hardware capability boundary
//   - desc: Registry descriptor of the device to open
//   - maxPollFailures: Consecutive read failures before the session faults
//
// Returns:
//   - *Session: Open session in state Connected
//   - error: If the device cannot be claimed
func Open(mgr hid.Manager, desc registry.Descriptor, maxPollFailures int) (*Session, error) {
	if maxPollFailures < 1 {
		maxPollFailures = 1
	}

	s := &Session{
		id:          uuid.NewString(),
		desc:        desc,
		state:       StateConnecting,
		maxFailures: maxPollFailures,
	}

	dev, err := mgr.Open(desc.VendorID, desc.ProductID)
	if err != nil {
		s.state = StateDisconnected
		return nil, fmt.Errorf("opening device %q: %w", desc.Name, err)
	}

	s.dev = dev
	s.state = StateConnected
	return s, nil
}

// ID returns the unique identifier assigned to this session.
func (s *Session) ID() string {
	return s.id
}

// Descriptor returns the registry descriptor of the session's device.
func (s *Session) Descriptor() registry.Descriptor {
	return s.desc
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastSample returns the most recent successfully polled sample.
// The boolean is false until the first successful poll. A Streaming
// session therefore always has a sample.
func (s *Session) LastSample() (RawSample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSample == nil {
		return RawSample{}, false
	}
	return *s.lastSample, true
}

// Poll reads the next available input event and decodes it into a RawSample.
//
// Outcomes:
//   - (sample, nil): a new sample; the session enters Streaming on the
//     first success
//   - hid.ErrNoData: nothing new; not a failure, the caller idles briefly
//   - ErrClosed: the session is closed or faulted
//   - ErrHardwareFault: the consecutive-failure budget is exhausted; the
//     session is now in Error and the handle must be released via Close
//
// Individual read or decode failures below the budget are returned as
// errors but leave the session operational.
func (s *Session) Poll() (RawSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConnected, StateStreaming:
		// pollable
	case StateError:
		return RawSample{}, fmt.Errorf("%w: session faulted", ErrClosed)
	default:
		return RawSample{}, ErrClosed
	}

	ev, err := s.dev.Read()
	if err != nil {
		if errors.Is(err, hid.ErrNoData) {
			return RawSample{}, hid.ErrNoData
		}
		return RawSample{}, s.recordFailureLocked(err)
	}

	axes, buttons, err := decodeReport(s.desc, ev.Data)
	if err != nil {
		return RawSample{}, s.recordFailureLocked(err)
	}

	s.failures = 0
	sample := RawSample{Axes: axes, Buttons: buttons, At: ev.At}
	s.lastSample = &sample

	if s.state == StateConnected {
		s.state = StateStreaming
	}

	return sample, nil
}

// recordFailureLocked counts a poll failure and faults the session when
// the consecutive-failure budget is exhausted. Callers must hold s.mu.
func (s *Session) recordFailureLocked(cause error) error {
	s.failures++
	if s.failures >= s.maxFailures {
		s.state = StateError
		return fmt.Errorf("%w: %d consecutive poll failures, last: %v", ErrHardwareFault, s.failures, cause)
	}
	return fmt.Errorf("poll failure %d/%d: %w", s.failures, s.maxFailures, cause)
}

// Close releases the hardware handle and returns the session to
// Disconnected. It is idempotent and reachable from every state,
// including Error.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return nil
	}

	var err error
	if s.dev != nil {
		err = s.dev.Close()
		s.dev = nil
	}
	s.state = StateDisconnected
	return err
}
