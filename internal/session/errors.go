package session

import "errors"

// Domain errors for the session package.
var (
	// ErrClosed is returned when polling a session that is closed,
	// never opened, or faulted.
	ErrClosed = errors.New("session: closed")

	// ErrHardwareFault is returned when the consecutive poll failure
	// budget is exhausted. The session is in the terminal Error state
	// until the caller closes it and opens a fresh one.
	ErrHardwareFault = errors.New("session: hardware fault")

	// ErrMalformedReport is returned when a raw input report is too
	// short to decode for the device's logical type.
	ErrMalformedReport = errors.New("session: malformed report")
)
