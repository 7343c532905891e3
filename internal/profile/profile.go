package profile

import (
	"time"

	"github.com/calder-vis/motionlink/internal/registry"
)

// AxisMode selects how a multi-axis sample is reduced before template
// rendering.
type AxisMode string

const (
	// ModeVector passes every axis delta to the template in declaration
	// order.
	ModeVector AxisMode = "vector"

	// ModeDominant passes only the single largest-magnitude delta, the
	// behaviour a per-axis command stream expects from a mouse.
	ModeDominant AxisMode = "dominant"
)

// AxisTransform is the per-axis tuning applied to raw deltas.
type AxisTransform struct {
	// Scale multiplies the delta. Zero means 1.0 (no scaling).
	Scale float64 `json:"scale"`

	// Invert flips the delta's sign.
	Invert bool `json:"invert"`

	// Deadzone zeroes deltas whose magnitude is below this threshold.
	Deadzone float64 `json:"deadzone"`
}

// Profile is one device's mapping profile: how its raw deltas are tuned
// and reduced before command synthesis, and optionally which template
// pattern overrides the type default.
type Profile struct {
	// Device is the configured device name the profile belongs to.
	Device string `json:"device"`

	// Mode selects axis reduction. Empty means the type default
	// (dominant for mice, vector for everything else).
	Mode AxisMode `json:"axis_mode,omitempty"`

	// Template optionally overrides the type's configured command
	// pattern for this device. Empty means no override.
	Template string `json:"template,omitempty"`

	// Axes holds per-axis transforms, indexed like the descriptor's
	// axis list. Missing entries mean identity.
	Axes []AxisTransform `json:"axes,omitempty"`

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time `json:"updated_at"`
}

// Default returns the identity profile for a descriptor.
func Default(desc registry.Descriptor) *Profile {
	return &Profile{
		Device: desc.Name,
		Mode:   DefaultMode(desc.Type),
	}
}

// DefaultMode returns the axis reduction mode a logical type uses when
// no profile overrides it.
func DefaultMode(t registry.DeviceType) AxisMode {
	if t == registry.TypeMouse {
		return ModeDominant
	}
	return ModeVector
}

// Apply runs the profile's transforms over raw axis deltas and clamps
// the result to [-1, 1].
//
// The input slice is not modified. Axes without a configured transform
// pass through untouched (apart from the clamp).
func (p *Profile) Apply(axes []float64) []float64 {
	out := make([]float64, len(axes))
	for i, v := range axes {
		if i < len(p.Axes) {
			t := p.Axes[i]
			scale := t.Scale
			if scale == 0 {
				scale = 1
			}
			v *= scale
			if t.Invert {
				v = -v
			}
			if v < t.Deadzone && v > -t.Deadzone {
				v = 0
			}
		}
		out[i] = clamp(v)
	}
	return out
}

// Reduce applies the profile's axis mode to a transformed sample.
//
// Vector mode returns the axes unchanged; dominant mode returns a
// single-element slice holding the largest-magnitude delta. mode falls
// back to the descriptor-type default when the profile leaves it empty.
func (p *Profile) Reduce(axes []float64, deviceType registry.DeviceType) []float64 {
	mode := p.Mode
	if mode == "" {
		mode = DefaultMode(deviceType)
	}
	if mode != ModeDominant || len(axes) <= 1 {
		return axes
	}

	dominant := axes[0]
	for _, v := range axes[1:] {
		if abs(v) > abs(dominant) {
			dominant = v
		}
	}
	return []float64{dominant}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
