package actions

import (
	"errors"
	"fmt"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// ContinueOptions contains options for the continue and resolved commands
type ContinueOptions struct {
	Branch string
	// StageAll marks every file in the working tree as resolved first
	StageAll bool
}

// ContinueAction finishes an operation that stopped at a conflict. The
// conflicted patch takes the resolution staged in the working tree.
func ContinueAction(ctx *runtime.Context, opts ContinueOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	tx, err := ctx.Engine.Resume(ctx, branch)
	if err != nil {
		if errors.Is(err, pstackerrors.ErrNoPendingOperation) {
			return fmt.Errorf("nothing to continue: %w", err)
		}
		return err
	}
	patch, _ := tx.Conflict()

	if opts.StageAll && tx.CheckedOut() {
		if err := ctx.Worktree.StageAll(ctx); err != nil {
			tx.Release()
			return err
		}
	}

	if err := tx.ContinueCommit(ctx); err != nil {
		var pending *pstackerrors.ConflictsPendingError
		if errors.As(err, &pending) {
			ctx.Splog.Warn("%s still has unresolved conflicts.", output.ColorPatch(pending.Patch))
			printPaths(ctx, pending.Paths)
			if !tx.CheckedOut() {
				ctx.Splog.Tip("Run %s to drop the operation.", output.ColorCommand("pstack abort"))
			} else {
				ctx.Splog.Tip("Stage the resolved files, or run %s.", output.ColorCommand("pstack resolved"))
			}
			tx.Release()
		}
		return err
	}

	if patch != "" {
		ctx.Splog.Info("Recorded the resolution of %s and finished %q.", output.ColorPatch(patch), tx.Label())
	} else {
		ctx.Splog.Info("Finished %q.", tx.Label())
	}
	return nil
}

// ResolvedAction stages the whole working tree as the conflict resolution and continues
func ResolvedAction(ctx *runtime.Context, opts ContinueOptions) error {
	opts.StageAll = true
	return ContinueAction(ctx, opts)
}
