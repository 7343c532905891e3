// Package dispatch delivers rendered command strings to visualization
// endpoints over UDP.
//
// One datagram is sent per rendered command to each configured endpoint,
// with no acknowledgement expected. Delivery is best-effort: a dead
// endpoint is reported in that send's per-endpoint results and skipped
// over, never blocking or failing delivery to the remaining endpoints,
// and nothing is queued or retried. This matches the fire-and-forget
// nature of a real-time control stream, where a stale rotation command
// is worse than a dropped one.
package dispatch
