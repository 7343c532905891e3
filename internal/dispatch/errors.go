package dispatch

import "errors"

// Domain errors for the dispatch package.
var (
	// ErrBadEndpoint is returned at construction when an endpoint address
	// cannot be resolved or dialled.
	ErrBadEndpoint = errors.New("dispatch: bad endpoint")

	// ErrSendFailed is returned per endpoint when a datagram write fails.
	// It is non-fatal and isolated to that endpoint.
	ErrSendFailed = errors.New("dispatch: send failed")

	// ErrSinkClosed is returned when sending on a closed sink.
	ErrSinkClosed = errors.New("dispatch: sink closed")
)
