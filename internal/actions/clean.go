package actions

import (
	"context"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// CleanOptions contains options for the clean command.
// With neither Applied nor Unapplied set both lists are cleaned.
type CleanOptions struct {
	Branch    string
	Applied   bool
	Unapplied bool
}

// CleanAction deletes the patches that change nothing
func CleanAction(ctx *runtime.Context, opts CleanOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	if !opts.Applied && !opts.Unapplied {
		opts.Applied, opts.Unapplied = true, true
	}

	var deleted []string
	err = RunTransaction(ctx, branch, "clean", func(c context.Context, tx *engine.Transaction) error {
		var err error
		if deleted, err = tx.Clean(c, opts.Applied, opts.Unapplied); err == nil && len(deleted) == 0 {
			return errNoChange
		}
		return err
	})
	if err != nil {
		return err
	}

	if len(deleted) == 0 {
		ctx.Splog.Info("No empty patches.")
		return nil
	}
	ctx.Splog.Info("Deleted %s: %s.", pluralize(len(deleted), "empty patch", "empty patches"), strings.Join(deleted, ", "))
	return nil
}
