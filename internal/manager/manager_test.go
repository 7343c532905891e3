package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calder-vis/motionlink/internal/command"
	"github.com/calder-vis/motionlink/internal/dispatch"
	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/infrastructure/config"
	"github.com/calder-vis/motionlink/internal/infrastructure/logging"
	"github.com/calder-vis/motionlink/internal/registry"
	"github.com/calder-vis/motionlink/internal/session"
)

// fakeSink records rendered commands in memory.
type fakeSink struct {
	mu   sync.Mutex
	cmds []string
	fail bool
}

func (f *fakeSink) Send(cmd string) []dispatch.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	if f.fail {
		return []dispatch.Result{{Endpoint: "viz", Err: dispatch.ErrSendFailed}}
	}
	return []dispatch.Result{{Endpoint: "viz"}}
}

func (f *fakeSink) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cmds))
	copy(out, f.cmds)
	return out
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(map[string]config.InputDeviceConfig{
		"Bluetooth_mouse": {
			VID:     "046d",
			PID:     "b03a",
			Type:    "mouse",
			Axes:    []string{"x", "y"},
			Buttons: []string{"left_click", "right_click"},
		},
		"SpaceMouse": {
			VID:  "256f",
			PID:  "c635",
			Type: "3dconnexion",
			Axes: []string{"x", "y", "z"},
		},
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return reg
}

func testTable(t *testing.T) *command.Table {
	t.Helper()
	tbl, err := command.NewTable(map[string]string{
		"mouse":       "addrotation %.3f 0.0 0.0 %s",
		"3dconnexion": "addrotation %.3f %.3f %.3f %s",
	})
	if err != nil {
		t.Fatalf("building command table: %v", err)
	}
	return tbl
}

func quietLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

func testManager(t *testing.T, mock *hid.MockManager, sink Sink) *Manager {
	t.Helper()
	m, err := New(Deps{
		Registry:        testRegistry(t),
		HID:             mock,
		Commands:        testTable(t),
		Sink:            sink,
		Logger:          quietLogger(),
		PollInterval:    time.Millisecond,
		IdleBackoff:     time.Millisecond,
		MaxPollFailures: 3,
	})
	if err != nil {
		t.Fatalf("creating manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// waitState waits for the next event in the given state, failing the
// test on timeout. Intermediate events in other states are consumed.
func waitState(t *testing.T, events <-chan StatusEvent, want session.State) StatusEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.State == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func TestConnectStreamsCommands(t *testing.T) {
	mock := hid.NewMockManager()
	dev := mock.AddDevice(0x046d, 0xb03a)
	sink := &fakeSink{}
	m := testManager(t, mock, sink)

	// One mouse report: no buttons, x=64 (~0.504), y=10.
	dev.Emit([]byte{0x00, 64, 10})

	id, err := m.Connect(context.Background(), "Bluetooth_mouse")
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if id == "" {
		t.Error("Connect() returned empty session id")
	}

	waitState(t, m.Events(), session.StateConnecting)
	waitState(t, m.Events(), session.StateConnected)
	waitState(t, m.Events(), session.StateStreaming)

	// The dominant axis (x) renders through the mouse template with the
	// default label.
	deadline := time.After(2 * time.Second)
	for len(sink.commands()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no command dispatched")
		case <-time.After(time.Millisecond):
		}
	}
	if got := sink.commands()[0]; got != "addrotation 0.504 0.0 0.0 1.0" {
		t.Errorf("command = %q, want %q", got, "addrotation 0.504 0.0 0.0 1.0")
	}

	if err := m.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}
	waitState(t, m.Events(), session.StateDisconnected)

	if dev, state := m.Status(); dev != "" || state != session.StateDisconnected {
		t.Errorf("Status() = (%q, %q) after disconnect", dev, state)
	}
}

func TestButtonLabelInCommand(t *testing.T) {
	mock := hid.NewMockManager()
	dev := mock.AddDevice(0x046d, 0xb03a)
	sink := &fakeSink{}
	m := testManager(t, mock, sink)

	// Second button pressed (bit 1), y dominant.
	dev.Emit([]byte{0x02, 0, 127})

	if _, err := m.Connect(context.Background(), "Bluetooth_mouse"); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	waitState(t, m.Events(), session.StateStreaming)

	deadline := time.After(2 * time.Second)
	for len(sink.commands()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no command dispatched")
		case <-time.After(time.Millisecond):
		}
	}
	if got := sink.commands()[0]; got != "addrotation 1.000 0.0 0.0 right_click" {
		t.Errorf("command = %q", got)
	}
}

func TestConnectUnknownDevice(t *testing.T) {
	m := testManager(t, hid.NewMockManager(), &fakeSink{})

	_, err := m.Connect(context.Background(), "nonexistent")
	if !errors.Is(err, registry.ErrUnknownDevice) {
		t.Errorf("Connect() error = %v, want ErrUnknownDevice", err)
	}
}

func TestConnectDeviceNotPresent(t *testing.T) {
	m := testManager(t, hid.NewMockManager(), &fakeSink{})

	_, err := m.Connect(context.Background(), "Bluetooth_mouse")
	if !errors.Is(err, hid.ErrDeviceNotPresent) {
		t.Fatalf("Connect() error = %v, want ErrDeviceNotPresent", err)
	}

	waitState(t, m.Events(), session.StateConnecting)
	ev := waitState(t, m.Events(), session.StateError)
	if ev.Reason != "device not present" {
		t.Errorf("error event reason = %q", ev.Reason)
	}
}

func TestHardwareFaultStopsLoop(t *testing.T) {
	mock := hid.NewMockManager()
	dev := mock.AddDevice(0x046d, 0xb03a)
	m := testManager(t, mock, &fakeSink{})

	readErr := errors.New("read failed")
	for i := 0; i < 3; i++ {
		dev.FailWith(readErr)
	}

	if _, err := m.Connect(context.Background(), "Bluetooth_mouse"); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	ev := waitState(t, m.Events(), session.StateError)
	if ev.Reason != "hardware fault" {
		t.Errorf("error event reason = %q, want hardware fault", ev.Reason)
	}

	// Status keeps reporting the fault until the next connect attempt.
	deadline := time.After(2 * time.Second)
	for {
		if _, state := m.Status(); state == session.StateError {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Status() never reported error state")
		case <-time.After(time.Millisecond):
		}
	}

	// A fresh connect recovers: the device handle was released.
	dev.Emit([]byte{0x00, 10, 0})
	if _, err := m.Connect(context.Background(), "Bluetooth_mouse"); err != nil {
		t.Fatalf("reconnect after fault: %v", err)
	}
	waitState(t, m.Events(), session.StateStreaming)
}

func TestRenderMismatchAbsorbed(t *testing.T) {
	mock := hid.NewMockManager()
	dev := mock.AddDevice(0x256f, 0xc635)
	sink := &fakeSink{}

	// Table whose 3dconnexion template wants more axes than the device has.
	tbl, err := command.NewTable(map[string]string{
		"3dconnexion": "addrotation %.3f %.3f %.3f %.3f %.3f %.3f %s",
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	m, err := New(Deps{
		Registry:        testRegistry(t),
		HID:             mock,
		Commands:        tbl,
		Sink:            sink,
		Logger:          quietLogger(),
		PollInterval:    time.Millisecond,
		IdleBackoff:     time.Millisecond,
		MaxPollFailures: 3,
	})
	if err != nil {
		t.Fatalf("creating manager: %v", err)
	}
	defer m.Close()

	// 3 axes, int16 LE each: 350, 0, 0.
	dev.Emit([]byte{0x5E, 0x01, 0x00, 0x00, 0x00, 0x00})

	if _, err := m.Connect(context.Background(), "SpaceMouse"); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	waitState(t, m.Events(), session.StateStreaming)

	// The mismatch is absorbed: nothing dispatched, session not faulted.
	time.Sleep(20 * time.Millisecond)
	if n := len(sink.commands()); n != 0 {
		t.Errorf("dispatched %d commands despite arity mismatch", n)
	}
	if _, state := m.Status(); state != session.StateStreaming {
		t.Errorf("state = %q, want streaming", state)
	}
}

func TestSendFailureAbsorbed(t *testing.T) {
	mock := hid.NewMockManager()
	dev := mock.AddDevice(0x046d, 0xb03a)
	sink := &fakeSink{fail: true}
	m := testManager(t, mock, sink)

	dev.Emit([]byte{0x00, 50, 0})

	if _, err := m.Connect(context.Background(), "Bluetooth_mouse"); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	waitState(t, m.Events(), session.StateStreaming)

	time.Sleep(20 * time.Millisecond)
	if _, state := m.Status(); state != session.StateStreaming {
		t.Errorf("state = %q after send failures, want streaming", state)
	}

	snap := m.Snapshot()
	if snap.SendFailures == 0 {
		t.Error("send failures not counted")
	}
}

func TestConnectSupersedesActiveSession(t *testing.T) {
	mock := hid.NewMockManager()
	mouse := mock.AddDevice(0x046d, 0xb03a)
	mock.AddDevice(0x256f, 0xc635)
	m := testManager(t, mock, &fakeSink{})

	mouse.Emit([]byte{0x00, 10, 0})

	if _, err := m.Connect(context.Background(), "Bluetooth_mouse"); err != nil {
		t.Fatalf("first Connect() error: %v", err)
	}
	waitState(t, m.Events(), session.StateStreaming)

	if _, err := m.Connect(context.Background(), "SpaceMouse"); err != nil {
		t.Fatalf("second Connect() error: %v", err)
	}

	// The old session closes cleanly before the new one opens.
	ev := waitState(t, m.Events(), session.StateDisconnected)
	if ev.Device != "Bluetooth_mouse" {
		t.Errorf("disconnected device = %q, want Bluetooth_mouse", ev.Device)
	}
	ev = waitState(t, m.Events(), session.StateConnected)
	if ev.Device != "SpaceMouse" {
		t.Errorf("connected device = %q, want SpaceMouse", ev.Device)
	}
}

func TestDisconnectWithoutSession(t *testing.T) {
	m := testManager(t, hid.NewMockManager(), &fakeSink{})

	if err := m.Disconnect(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Disconnect() = %v, want ErrNoSession", err)
	}
}

func TestCloseRejectsFurtherConnects(t *testing.T) {
	mock := hid.NewMockManager()
	mock.AddDevice(0x046d, 0xb03a)
	m := testManager(t, mock, &fakeSink{})

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}

	if _, err := m.Connect(context.Background(), "Bluetooth_mouse"); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Connect() after Close = %v, want ErrManagerClosed", err)
	}
}

func TestDevicesReportsPresence(t *testing.T) {
	mock := hid.NewMockManager()
	mock.AddDevice(0x046d, 0xb03a)
	m := testManager(t, mock, &fakeSink{})

	devices := m.Devices()
	if len(devices) != 2 {
		t.Fatalf("Devices() returned %d entries, want 2", len(devices))
	}

	byName := map[string]bool{}
	for _, d := range devices {
		byName[d.Name] = d.Present
	}
	if !byName["Bluetooth_mouse"] {
		t.Error("Bluetooth_mouse should be present")
	}
	if byName["SpaceMouse"] {
		t.Error("SpaceMouse should be absent")
	}
}
