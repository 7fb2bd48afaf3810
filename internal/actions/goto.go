package actions

import (
	"context"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// GotoOptions contains options for the goto command
type GotoOptions struct {
	Branch string
	Patch  string
}

// GotoAction pushes or pops until Patch is the top applied patch
func GotoAction(ctx *runtime.Context, opts GotoOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	err = RunTransaction(ctx, branch, "goto "+opts.Patch, func(c context.Context, tx *engine.Transaction) error {
		return tx.Goto(c, opts.Patch)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Now at %s.", output.ColorPatch(opts.Patch))
	return nil
}
