package influxdb

import (
	"errors"
	"testing"

	"github.com/calder-vis/motionlink/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() with disabled config = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1", // nothing listens here
		Token:   "test",
		Org:     "test",
		Bucket:  "test",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() to unreachable server = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteWhenDisconnectedIsNoOp(t *testing.T) {
	c := &Client{connected: false}

	// Must not panic despite the nil writeAPI.
	c.WriteMotionSample("SpaceMouse", "3dconnexion", []float64{0.1, 0.2}, nil)
	c.WriteLoopStats("SpaceMouse", 10, 8, 1, 1)
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1.0})
	c.Flush()
}

func TestCloseNilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client: %v", err)
	}
}

func TestIsConnected(t *testing.T) {
	c := &Client{connected: true}
	if !c.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}
