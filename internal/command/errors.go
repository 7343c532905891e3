package command

import "errors"

// Domain errors for the command package.
var (
	// ErrBadTemplate is returned when a configured pattern cannot be
	// compiled. This is a configuration defect surfaced at load time.
	ErrBadTemplate = errors.New("command: bad template")

	// ErrNoTemplate is returned when a logical device type has no
	// configured template.
	ErrNoTemplate = errors.New("command: no template for type")

	// ErrTemplateMismatch is returned when the supplied field counts do
	// not exactly match the template's placeholders. Rendering never
	// truncates or pads.
	ErrTemplateMismatch = errors.New("command: template mismatch")
)
