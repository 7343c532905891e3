package session

import (
	"encoding/binary"
	"fmt"

	"github.com/calder-vis/motionlink/internal/registry"
)

// Axis normalisation divisors. Deltas are scaled into [-1, 1] so the
// template engine sees the same numeric range regardless of hardware.
const (
	// mouseAxisRange is the magnitude of a full-scale int8 mouse delta.
	mouseAxisRange = 127.0

	// spaceAxisRange is the full-scale magnitude of a 3Dconnexion axis,
	// which reports signed 16-bit values in roughly ±350.
	spaceAxisRange = 350.0
)

// decodeReport turns a raw HID input report into per-axis deltas and
// button states for the descriptor's logical type.
//
// Report layouts:
//   - mouse: [button bitmap, dx int8, dy int8, ...]
//   - 3dconnexion: [axis int16 LE]*n, optionally followed by a button
//     bitmap byte
//   - anything else (gamepad): [button bitmap, axis int8...]
//
// The number of decoded axes and buttons always matches the descriptor's
// configured channel lists; a report too short for them is rejected.
func decodeReport(desc registry.Descriptor, data []byte) ([]float64, []bool, error) {
	switch desc.Type {
	case registry.Type3DConnexion:
		return decodeSpaceReport(desc, data)
	default:
		return decodePointerReport(desc, data)
	}
}

// decodePointerReport decodes the boot-protocol style layout shared by
// mice and gamepads: a leading button bitmap followed by one signed byte
// per axis.
func decodePointerReport(desc registry.Descriptor, data []byte) ([]float64, []bool, error) {
	need := 1 + len(desc.Axes)
	if len(data) < need {
		return nil, nil, fmt.Errorf("%w: %q report is %d bytes, need %d",
			ErrMalformedReport, desc.Name, len(data), need)
	}

	axes := make([]float64, len(desc.Axes))
	for i := range desc.Axes {
		axes[i] = float64(int8(data[1+i])) / mouseAxisRange
	}

	return axes, decodeButtons(data[0], len(desc.Buttons)), nil
}

// decodeSpaceReport decodes a 3Dconnexion motion report: little-endian
// signed 16-bit values per axis, optionally trailed by a button bitmap.
func decodeSpaceReport(desc registry.Descriptor, data []byte) ([]float64, []bool, error) {
	need := 2 * len(desc.Axes)
	if len(data) < need {
		return nil, nil, fmt.Errorf("%w: %q report is %d bytes, need %d",
			ErrMalformedReport, desc.Name, len(data), need)
	}

	axes := make([]float64, len(desc.Axes))
	for i := range desc.Axes {
		raw := int16(binary.LittleEndian.Uint16(data[2*i:]))
		v := float64(raw) / spaceAxisRange
		// Clamp: some units overshoot the nominal range slightly.
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		axes[i] = v
	}

	var buttons []bool
	if len(data) > need {
		buttons = decodeButtons(data[need], len(desc.Buttons))
	} else {
		buttons = make([]bool, len(desc.Buttons))
	}

	return axes, buttons, nil
}

// decodeButtons expands a button bitmap byte into the configured number
// of button states, lowest bit first.
func decodeButtons(bitmap byte, count int) []bool {
	buttons := make([]bool, count)
	for i := 0; i < count && i < 8; i++ {
		buttons[i] = bitmap&(1<<i) != 0
	}
	return buttons
}
