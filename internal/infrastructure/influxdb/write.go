package influxdb

import (
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteMotionSample records one decoded motion sample.
//
// Each axis becomes a field (axis_0, axis_1, ... or the configured axis
// name when provided). The write is non-blocking; data is batched and
// sent asynchronously.
//
// Parameters:
//   - device: Configured device name (e.g., "SpaceMouse")
//   - deviceType: Logical type tag ("mouse", "3dconnexion", "gamepad")
//   - axes: Normalised axis deltas in [-1, 1]
//   - axisNames: Configured axis names; entries beyond its length fall
//     back to positional names
func (c *Client) WriteMotionSample(device, deviceType string, axes []float64, axisNames []string) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, len(axes))
	for i, v := range axes {
		name := fmt.Sprintf("axis_%d", i)
		if i < len(axisNames) && axisNames[i] != "" {
			name = axisNames[i]
		}
		fields[name] = v
	}

	point := write.NewPoint(
		"motion_samples",
		map[string]string{
			"device": device,
			"type":   deviceType,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLoopStats records cumulative session loop statistics.
//
// Called periodically while a session streams, giving the durable form
// of an input-rate readout.
//
// Parameters:
//   - device: Configured device name
//   - samples: Samples decoded since the session started
//   - commandsSent: Datagrams delivered across all endpoints
//   - sendFailures: Datagram writes that failed
//   - pollFailures: Hardware reads that failed
func (c *Client) WriteLoopStats(device string, samples, commandsSent, sendFailures, pollFailures uint64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_stats",
		map[string]string{
			"device": device,
		},
		map[string]interface{}{
			"samples":       int64(samples),
			"commands_sent": int64(commandsSent),
			"send_failures": int64(sendFailures),
			"poll_failures": int64(pollFailures),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
