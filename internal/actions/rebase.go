package actions

import (
	"context"
	"fmt"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// RebaseOptions contains options for the rebase command
type RebaseOptions struct {
	Branch string
	// Target is any revision naming the new base commit
	Target string
}

// RebaseAction moves the stack onto a new base, re-pushing the applied patches
func RebaseAction(ctx *runtime.Context, opts RebaseOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	target, err := ctx.Engine.Store().ResolveRevision(opts.Target)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.Target, err)
	}

	err = RunTransaction(ctx, branch, "rebase "+opts.Target, func(c context.Context, tx *engine.Transaction) error {
		return tx.Rebase(c, target)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Rebased %s onto %s (%s).", branch, opts.Target, output.ShortID(target))
	return nil
}
