package actions

import (
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// LogOptions contains options for the log command
type LogOptions struct {
	Branch string
	// Limit caps the number of entries; zero shows all of them
	Limit int
}

// LogAction prints the history of a stack, newest first
func LogAction(ctx *runtime.Context, opts LogOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	entries, err := ctx.Engine.Log(ctx, branch, opts.Limit)
	if err != nil {
		return err
	}

	lines := make([]output.LogLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, output.LogLine{ID: e.ID, Label: e.Label, When: e.When})
	}
	ctx.Splog.Page(output.RenderLog(lines))
	return nil
}
