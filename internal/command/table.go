package command

import "fmt"

// Table holds the compiled command templates, keyed by logical device type.
//
// At most one template exists per logical type. The table is built once
// from the actuation.commands configuration section and is immutable at
// runtime.
type Table struct {
	templates map[string]*Template
}

// NewTable compiles the actuation.commands configuration section.
//
// Parameters:
//   - commands: Map of logical device type to command pattern
//
// Returns:
//   - *Table: Compiled template table
//   - error: ErrBadTemplate (wrapped with the offending type) if any
//     pattern fails to compile
func NewTable(commands map[string]string) (*Table, error) {
	tbl := &Table{templates: make(map[string]*Template, len(commands))}

	for logicalType, pattern := range commands {
		t, err := Parse(pattern)
		if err != nil {
			return nil, fmt.Errorf("template for type %q: %w", logicalType, err)
		}
		tbl.templates[logicalType] = t
	}

	return tbl, nil
}

// Resolve returns the template for a logical device type.
// Returns ErrNoTemplate when the type has no configured template.
func (tbl *Table) Resolve(logicalType string) (*Template, error) {
	t, ok := tbl.templates[logicalType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTemplate, logicalType)
	}
	return t, nil
}

// Types returns the logical types the table has templates for.
func (tbl *Table) Types() []string {
	out := make([]string, 0, len(tbl.templates))
	for logicalType := range tbl.templates {
		out = append(out, logicalType)
	}
	return out
}
