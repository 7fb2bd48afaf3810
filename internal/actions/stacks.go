package actions

import (
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// StacksAction lists the branches that carry a stack, marking the checked out one
func StacksAction(ctx *runtime.Context) error {
	branches, err := ctx.Engine.Stacks()
	if err != nil {
		return err
	}
	if len(branches) == 0 {
		ctx.Splog.Info("No stacks yet; run %s on a branch.", output.ColorCommand("pstack init"))
		return nil
	}
	current, _ := ctx.CurrentBranch()
	for _, b := range branches {
		if b == current {
			ctx.Splog.Info("* %s", output.ColorPatch(b))
		} else {
			ctx.Splog.Info("  %s", b)
		}
	}
	return nil
}
