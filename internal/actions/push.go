package actions

import (
	"context"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// PushOptions contains options for the push command
type PushOptions struct {
	Branch string
	// Patches are pushed in the given order; when empty, Number or All decide
	Patches []string
	All     bool
	Number  int
}

// PushAction applies unapplied patches on top of the stack
func PushAction(ctx *runtime.Context, opts PushOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	var pushed []string
	err = RunTransaction(ctx, branch, "push", func(c context.Context, tx *engine.Transaction) error {
		if len(opts.Patches) > 0 {
			pushed = opts.Patches
			return tx.Push(c, opts.Patches...)
		}
		n := max(opts.Number, 1)
		if opts.All {
			n = -1
		}
		if pushed, err = tx.PushNext(c, n); err == nil && len(pushed) == 0 {
			return errNoChange
		}
		return err
	})
	if err != nil {
		return err
	}

	if len(pushed) == 0 {
		ctx.Splog.Info("No patches to push.")
		return nil
	}
	ctx.Splog.Info("Pushed %s.", strings.Join(pushed, ", "))
	return nil
}
