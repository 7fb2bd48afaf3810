package actions

import (
	"context"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// RefreshOptions contains options for the refresh command
type RefreshOptions struct {
	Branch  string
	Message string
}

// RefreshAction records the working tree's changes in the top patch
func RefreshAction(ctx *runtime.Context, opts RefreshOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	var top string
	err = RunTransaction(ctx, branch, "refresh", func(c context.Context, tx *engine.Transaction) error {
		top = tx.Stack().Top()
		return tx.RefreshFromWorktree(c, opts.Message)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Refreshed %s.", output.ColorPatch(top))
	return nil
}
