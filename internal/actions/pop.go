package actions

import (
	"context"
	"slices"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// PopOptions contains options for the pop command
type PopOptions struct {
	Branch string
	// Patch is popped together with every patch above it
	Patch  string
	All    bool
	Number int
}

// PopAction unapplies patches from the top of the stack
func PopAction(ctx *runtime.Context, opts PopOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	var popped []string
	err = RunTransaction(ctx, branch, "pop", func(c context.Context, tx *engine.Transaction) error {
		before := slices.Clone(tx.Stack().Applied)
		switch {
		case opts.Patch != "":
			if err := tx.Pop(c, opts.Patch); err != nil {
				return err
			}
			popped = before[len(tx.Stack().Applied):]
			return nil
		case opts.All:
			popped, err = tx.PopAll(c)
		default:
			popped, err = tx.PopN(c, max(opts.Number, 1))
		}
		if err == nil && len(popped) == 0 {
			return errNoChange
		}
		return err
	})
	if err != nil {
		return err
	}

	if len(popped) == 0 {
		ctx.Splog.Info("No patches to pop.")
		return nil
	}
	ctx.Splog.Info("Popped %s.", strings.Join(popped, ", "))
	return nil
}
