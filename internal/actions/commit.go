package actions

import (
	"context"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// UncommitOptions contains options for the uncommit command
type UncommitOptions struct {
	Branch string
	Number int
}

// UncommitAction turns commits below the stack into patches at its bottom
func UncommitAction(ctx *runtime.Context, opts UncommitOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	var names []string
	err = RunTransaction(ctx, branch, "uncommit", func(c context.Context, tx *engine.Transaction) error {
		var err error
		names, err = tx.Uncommit(c, max(opts.Number, 1))
		return err
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Uncommitted %s.", strings.Join(names, ", "))
	return nil
}

// CommitOptions contains options for the commit command
type CommitOptions struct {
	Branch string
	Number int
	All    bool
}

// CommitAction makes the bottom applied patches permanent commits of the branch
func CommitAction(ctx *runtime.Context, opts CommitOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	var names []string
	err = RunTransaction(ctx, branch, "commit", func(c context.Context, tx *engine.Transaction) error {
		n := max(opts.Number, 1)
		if opts.All {
			n = -1
		}
		var err error
		names, err = tx.CommitPatches(c, n)
		return err
	})
	if err != nil {
		return err
	}
	if len(names) == 0 {
		ctx.Splog.Info("No patches to commit.")
		return nil
	}
	ctx.Splog.Info("Committed %s.", strings.Join(names, ", "))
	return nil
}
