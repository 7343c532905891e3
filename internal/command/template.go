package command

import (
	"fmt"
	"math"
	"strings"
)

// verbKind classifies a template placeholder by the field it consumes.
type verbKind int

const (
	verbFloat verbKind = iota // %f and friends, consumes an axis delta
	verbInt                   // %d, consumes an axis delta rounded to integer
	verbLabel                 // %s, consumes a derived label field
)

// Template is one parsed command pattern for a logical device type.
//
// A template is immutable after Parse and rendering is pure: identical
// (template, fields) inputs always produce the identical output string,
// byte for byte.
type Template struct {
	pattern string
	verbs   []verbKind

	numAxes   int
	numLabels int
}

// Fields are the live values substituted into a template.
//
// Axis deltas feed the numeric placeholders in declaration order; labels
// feed the %s placeholders in declaration order. Counts must match the
// template exactly or rendering fails with ErrTemplateMismatch.
type Fields struct {
	Axes   []float64
	Labels []string
}

// Parse compiles a printf-style command pattern.
//
// Supported placeholders: %f %e %g (with optional flags, width and
// precision, e.g. %.3f), %d, %s, and %% for a literal percent sign.
//
// Parameters:
//   - pattern: The configured command pattern, e.g. "addrotation %.3f 0.0 0.0 %s"
//
// Returns:
//   - *Template: Compiled template
//   - error: ErrBadTemplate if the pattern contains an unsupported verb
//     or a trailing bare percent
func Parse(pattern string) (*Template, error) {
	t := &Template{pattern: pattern}

	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		i++
		if i >= len(pattern) {
			return nil, fmt.Errorf("%w: trailing %% in %q", ErrBadTemplate, pattern)
		}
		if pattern[i] == '%' {
			continue
		}

		// Skip flags, width and precision.
		for i < len(pattern) && strings.ContainsRune("+-# 0123456789.", rune(pattern[i])) {
			i++
		}
		if i >= len(pattern) {
			return nil, fmt.Errorf("%w: unterminated placeholder in %q", ErrBadTemplate, pattern)
		}

		switch pattern[i] {
		case 'f', 'F', 'e', 'E', 'g', 'G':
			t.verbs = append(t.verbs, verbFloat)
			t.numAxes++
		case 'd':
			t.verbs = append(t.verbs, verbInt)
			t.numAxes++
		case 's':
			t.verbs = append(t.verbs, verbLabel)
			t.numLabels++
		default:
			return nil, fmt.Errorf("%w: unsupported verb %%%c in %q", ErrBadTemplate, pattern[i], pattern)
		}
	}

	return t, nil
}

// Pattern returns the original configured pattern string.
func (t *Template) Pattern() string {
	return t.pattern
}

// AxisPlaceholders returns the number of numeric placeholders.
func (t *Template) AxisPlaceholders() int {
	return t.numAxes
}

// LabelPlaceholders returns the number of %s placeholders.
func (t *Template) LabelPlaceholders() int {
	return t.numLabels
}

// Render substitutes fields into the template and returns the command string.
//
// Placeholders are filled in declaration order: each numeric placeholder
// consumes the next axis delta, each %s consumes the next label. A count
// mismatch in either direction is a hard ErrTemplateMismatch; no partial
// or padded string is ever produced.
//
// Parameters:
//   - fields: Axis deltas and derived labels for this sample
//
// Returns:
//   - string: The rendered command
//   - error: ErrTemplateMismatch if field counts do not match the template
func (t *Template) Render(fields Fields) (string, error) {
	if len(fields.Axes) != t.numAxes || len(fields.Labels) != t.numLabels {
		return "", fmt.Errorf("%w: template wants %d axis and %d label fields, got %d and %d",
			ErrTemplateMismatch, t.numAxes, t.numLabels, len(fields.Axes), len(fields.Labels))
	}

	args := make([]any, 0, len(t.verbs))
	axisIdx, labelIdx := 0, 0
	for _, kind := range t.verbs {
		switch kind {
		case verbFloat:
			args = append(args, fields.Axes[axisIdx])
			axisIdx++
		case verbInt:
			args = append(args, int(math.Round(fields.Axes[axisIdx])))
			axisIdx++
		case verbLabel:
			args = append(args, fields.Labels[labelIdx])
			labelIdx++
		}
	}

	return fmt.Sprintf(t.pattern, args...), nil
}
