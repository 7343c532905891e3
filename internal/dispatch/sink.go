package dispatch

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calder-vis/motionlink/internal/infrastructure/config"
)

// writeDeadline bounds how long a single datagram write may block.
// UDP writes normally return immediately; the deadline is a backstop so
// the poll loop can never be wedged by a sick socket.
const writeDeadline = 250 * time.Millisecond

// Result is the delivery outcome for one endpoint.
// Err is nil on success. A failed endpoint never affects the others.
type Result struct {
	Endpoint string
	Err      error
}

// Stats holds sink delivery counters.
type Stats struct {
	Sent   uint64
	Failed uint64
}

// endpointConn is one configured endpoint with its connected UDP socket.
type endpointConn struct {
	name string
	addr string
	conn *net.UDPConn
}

// Sink delivers rendered command strings to the configured visualization
// endpoints, one datagram per command per endpoint.
//
// Delivery is best-effort with drop semantics: there is no retry and no
// queue, so sustained endpoint failure cannot grow memory. Each endpoint's
// outcome is reported independently.
//
// Thread Safety: Send and Stats are safe for concurrent use; Close must
// not race with Send.
type Sink struct {
	endpoints []endpointConn

	closed atomic.Bool
	mu     sync.Mutex

	sentTotal   atomic.Uint64
	failedTotal atomic.Uint64
}

// NewSink opens one UDP socket per configured endpoint.
//
// A malformed endpoint address is a configuration defect and fails the
// construction, not a later per-sample send.
//
// Parameters:
//   - endpoints: The visualisation.render_options.visualisations map
//
// Returns:
//   - *Sink: Sink with every endpoint socket open
//   - error: If any endpoint address cannot be resolved or dialled
func NewSink(endpoints map[string]config.EndpointConfig) (*Sink, error) {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Sink{endpoints: make([]endpointConn, 0, len(endpoints))}
	for _, name := range names {
		ep := endpoints[name]
		addr := net.JoinHostPort(ep.UDPIP, fmt.Sprintf("%d", ep.UDPPort))

		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			s.closeAll()
			return nil, fmt.Errorf("%w: endpoint %q (%s): %v", ErrBadEndpoint, name, addr, err)
		}

		conn, err := net.DialUDP("udp", nil, udpAddr)
		if err != nil {
			s.closeAll()
			return nil, fmt.Errorf("%w: endpoint %q (%s): %v", ErrBadEndpoint, name, addr, err)
		}

		s.endpoints = append(s.endpoints, endpointConn{name: name, addr: addr, conn: conn})
	}

	return s, nil
}

// Send delivers one rendered command to every endpoint.
//
// Each endpoint is attempted regardless of earlier failures, and the
// outcome per endpoint is reported in the returned slice (ordered by
// endpoint name). The message body is the command string in plain text.
//
// Parameters:
//   - cmd: The rendered command string
//
// Returns:
//   - []Result: One entry per endpoint, Err wrapping ErrSendFailed on failure
func (s *Sink) Send(cmd string) []Result {
	if s.closed.Load() {
		results := make([]Result, len(s.endpoints))
		for i, ep := range s.endpoints {
			results[i] = Result{Endpoint: ep.name, Err: ErrSinkClosed}
		}
		return results
	}

	payload := []byte(cmd)
	results := make([]Result, len(s.endpoints))
	for i, ep := range s.endpoints {
		results[i] = Result{Endpoint: ep.name}

		_ = ep.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if _, err := ep.conn.Write(payload); err != nil {
			results[i].Err = fmt.Errorf("%w: endpoint %q (%s): %v", ErrSendFailed, ep.name, ep.addr, err)
			s.failedTotal.Add(1)
			continue
		}
		s.sentTotal.Add(1)
	}

	return results
}

// Endpoints returns the configured endpoint names in delivery order.
func (s *Sink) Endpoints() []string {
	out := make([]string, len(s.endpoints))
	for i, ep := range s.endpoints {
		out[i] = ep.name
	}
	return out
}

// Stats returns delivery counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Sent:   s.sentTotal.Load(),
		Failed: s.failedTotal.Load(),
	}
}

// Close releases all endpoint sockets. Idempotent.
func (s *Sink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.closeAll()
	return nil
}

func (s *Sink) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ep := range s.endpoints {
		if ep.conn != nil {
			_ = ep.conn.Close()
		}
	}
}
