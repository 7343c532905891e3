// Package command is the command template engine for motionlink.
//
// It turns a live device sample into the textual command a visualization
// endpoint understands, by substituting axis deltas and derived labels
// into a configuration-driven printf-style pattern:
//
//	tbl, _ := command.NewTable(cfg.Actuation.Commands)
//	tmpl, _ := tbl.Resolve("mouse")
//	cmd, _ := tmpl.Render(command.Fields{
//	    Axes:   []float64{0.125},
//	    Labels: []string{"M1"},
//	})
//	// cmd == "addrotation 0.125 0.0 0.0 M1"
//
// Rendering is pure and deterministic, which makes replay-based testing
// trivial. Placeholder arity is checked strictly: a mismatch between the
// template and the supplied fields is a hard error, never a silently
// truncated or padded command.
package command
