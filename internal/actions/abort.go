package actions

import (
	"errors"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// AbortOptions contains options for the abort command
type AbortOptions struct {
	Branch string
	// Hard also resets the working tree to the branch head
	Hard bool
}

// AbortAction drops an operation that stopped at a conflict, leaving the stack
// as it was before the operation began
func AbortAction(ctx *runtime.Context, opts AbortOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	tx, err := ctx.Engine.Resume(ctx, branch)
	if errors.Is(err, pstackerrors.ErrNoPendingOperation) {
		ctx.Splog.Info("No operation to abort on %s.", branch)
		if opts.Hard {
			return ctx.Engine.RestoreWorktree(ctx, branch)
		}
		return nil
	}
	if err != nil {
		return err
	}

	checkedOut := tx.CheckedOut()
	label := tx.Label()
	if err := tx.Abort(ctx); err != nil {
		return err
	}
	ctx.Splog.Info("Aborted %q.", label)

	if !checkedOut {
		return nil
	}
	if opts.Hard {
		return ctx.Engine.RestoreWorktree(ctx, branch)
	}
	ctx.Splog.Tip("The working tree still holds the conflicted files; run %s to discard them.",
		output.ColorCommand("pstack abort --hard"))
	return nil
}
