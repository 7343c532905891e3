// Package session owns the runtime connection to one physical input
// device.
//
// A Session wraps an exclusively-held hid.Device and walks an explicit
// lifecycle:
//
//	Disconnected ──open──▶ Connecting ──▶ Connected ──first poll──▶ Streaming
//	     ▲                                   │                         │
//	     └───────────── Close ───────────────┴─────────────────────────┘
//
// Any non-terminal state can fall to Error when the consecutive poll
// failure budget is exhausted; Error is terminal until the caller closes
// the session and opens a fresh one. Close is idempotent and releases
// the hardware handle on every exit path.
//
// Poll distinguishes three outcomes the loop treats differently: a new
// sample, hid.ErrNoData (idle and retry), and an error (counted against
// the failure budget). Raw report decoding into normalised axis deltas
// lives in decode.go and is driven by the device's logical type.
package session
