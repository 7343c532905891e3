package dispatch

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/calder-vis/motionlink/internal/infrastructure/config"
)

// listenUDP opens a local UDP listener and returns it with its port.
func listenUDP(t *testing.T) (*net.UDPConn, int) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	_, portStr, err := net.SplitHostPort(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("SplitHostPort() error = %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return conn, port
}

// recvOne reads a single datagram with a timeout.
func recvOne(t *testing.T, conn *net.UDPConn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP() error = %v", err)
	}
	return string(buf[:n])
}

func TestNewSink_MalformedAddress(t *testing.T) {
	_, err := NewSink(map[string]config.EndpointConfig{
		"broken": {UDPIP: "this is not an address", UDPPort: 7755},
	})
	if !errors.Is(err, ErrBadEndpoint) {
		t.Errorf("NewSink() error = %v, want ErrBadEndpoint", err)
	}
}

func TestSend_DeliversPlainText(t *testing.T) {
	listener, port := listenUDP(t)

	sink, err := NewSink(map[string]config.EndpointConfig{
		"drishti": {UDPIP: "127.0.0.1", UDPPort: port},
	})
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	defer sink.Close()

	results := sink.Send("addrotation 0.125 0.0 0.0 M1")
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Send() results = %+v", results)
	}

	if got := recvOne(t, listener); got != "addrotation 0.125 0.0 0.0 M1" {
		t.Errorf("received %q, want %q", got, "addrotation 0.125 0.0 0.0 M1")
	}
}

func TestSend_FanOut(t *testing.T) {
	listenerA, portA := listenUDP(t)
	listenerB, portB := listenUDP(t)

	sink, err := NewSink(map[string]config.EndpointConfig{
		"alpha": {UDPIP: "127.0.0.1", UDPPort: portA},
		"beta":  {UDPIP: "127.0.0.1", UDPPort: portB},
	})
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	defer sink.Close()

	results := sink.Send("reset")
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("endpoint %q error = %v", r.Endpoint, r.Err)
		}
	}

	if got := recvOne(t, listenerA); got != "reset" {
		t.Errorf("alpha received %q", got)
	}
	if got := recvOne(t, listenerB); got != "reset" {
		t.Errorf("beta received %q", got)
	}
}

func TestSend_PartialFailure(t *testing.T) {
	listenerA, portA := listenUDP(t)
	_, portB := listenUDP(t)
	listenerC, portC := listenUDP(t)

	sink, err := NewSink(map[string]config.EndpointConfig{
		"ep1": {UDPIP: "127.0.0.1", UDPPort: portA},
		"ep2": {UDPIP: "127.0.0.1", UDPPort: portB},
		"ep3": {UDPIP: "127.0.0.1", UDPPort: portC},
	})
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	defer sink.Close()

	// Sabotage ep2's socket; ep1 and ep3 must still be attempted and
	// reported independently.
	for i := range sink.endpoints {
		if sink.endpoints[i].name == "ep2" {
			sink.endpoints[i].conn.Close()
		}
	}

	results := sink.Send("addrotation 0.100 0.0 0.0 1.0")
	if len(results) != 3 {
		t.Fatalf("Send() returned %d results, want 3", len(results))
	}

	byName := make(map[string]error, 3)
	for _, r := range results {
		byName[r.Endpoint] = r.Err
	}

	if byName["ep1"] != nil {
		t.Errorf("ep1 error = %v, want nil", byName["ep1"])
	}
	if !errors.Is(byName["ep2"], ErrSendFailed) {
		t.Errorf("ep2 error = %v, want ErrSendFailed", byName["ep2"])
	}
	if byName["ep3"] != nil {
		t.Errorf("ep3 error = %v, want nil", byName["ep3"])
	}

	if got := recvOne(t, listenerA); got == "" {
		t.Error("ep1 received nothing")
	}
	if got := recvOne(t, listenerC); got == "" {
		t.Error("ep3 received nothing")
	}

	stats := sink.Stats()
	if stats.Sent != 2 || stats.Failed != 1 {
		t.Errorf("Stats() = %+v, want Sent=2 Failed=1", stats)
	}
}

func TestSend_AfterClose(t *testing.T) {
	_, port := listenUDP(t)

	sink, err := NewSink(map[string]config.EndpointConfig{
		"drishti": {UDPIP: "127.0.0.1", UDPPort: port},
	})
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	results := sink.Send("reset")
	if len(results) != 1 || !errors.Is(results[0].Err, ErrSinkClosed) {
		t.Errorf("Send() after Close() = %+v, want ErrSinkClosed", results)
	}
}

func TestEndpoints_Order(t *testing.T) {
	_, portA := listenUDP(t)
	_, portB := listenUDP(t)

	sink, err := NewSink(map[string]config.EndpointConfig{
		"zeta":  {UDPIP: "127.0.0.1", UDPPort: portA},
		"alpha": {UDPIP: "127.0.0.1", UDPPort: portB},
	})
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	defer sink.Close()

	eps := sink.Endpoints()
	if len(eps) != 2 || eps[0] != "alpha" || eps[1] != "zeta" {
		t.Errorf("Endpoints() = %v, want [alpha zeta]", eps)
	}
}
