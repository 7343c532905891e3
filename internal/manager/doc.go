// Package manager orchestrates the device-to-command pipeline.
//
// The Manager owns at most one active device session and runs its poll
// loop in a dedicated goroutine:
//
//	          Connect(name)                      Events()
//	  API ───────────────────▶ Manager ─────────────────────▶ UI boundary
//	                              │
//	                              ▼
//	          ┌── poll ── decode ── profile ── reduce ── render ── send ──┐
//	          └──────────────────────── loop ◀───────────────────────────┘
//
// Connecting while a session streams forces a clean close of the old one
// first, so the invariant "at most one streaming session" holds across
// rapid device switches. Per-sample errors (template mismatch, endpoint
// send failure) are absorbed and logged; an exhausted consecutive poll
// failure budget faults the session, stops the loop and releases the
// hardware handle.
//
// State transitions leave the manager only as StatusEvents on a one-way
// buffered channel, with coarse reason strings in place of raw pipeline
// errors.
package manager
