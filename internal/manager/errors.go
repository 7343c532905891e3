package manager

import "errors"

// Domain errors for the manager package.
var (
	// ErrNoSession is returned by Disconnect when no session is active.
	ErrNoSession = errors.New("manager: no active session")

	// ErrManagerClosed is returned by Connect after Close.
	ErrManagerClosed = errors.New("manager: closed")
)
