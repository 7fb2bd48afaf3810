package actions

import (
	"context"
	"errors"
	"fmt"

	"stackit.dev/pstack/internal/config"
	"stackit.dev/pstack/internal/engine"
	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/runtime"
)

// errNoChange is returned by a transaction function that left the stack as it
// was; RunTransaction then aborts instead of recording an empty log entry.
var errNoChange = errors.New("no change")

// RunTransaction opens a transaction labelled label on branch, runs fn and commits.
//
// When fn halts on a conflict the configured policy decides what happens: with
// hold the transaction stays halted until 'pstack continue' or 'pstack abort',
// with stop the patches that applied cleanly are committed. Any other error
// aborts the transaction.
func RunTransaction(ctx *runtime.Context, branch, label string, fn func(ctx context.Context, tx *engine.Transaction) error) error {
	tx, err := ctx.Engine.Begin(ctx, branch, label)
	if err != nil {
		return explainBeginError(ctx, err)
	}

	if err := fn(ctx, tx); err != nil {
		if errors.Is(err, errNoChange) {
			return tx.Abort(ctx)
		}
		if tx.Halted() {
			return handleConflict(ctx, tx, err)
		}
		if abortErr := tx.Abort(ctx); abortErr != nil {
			ctx.Splog.Debug("failed to abort %q: %v", label, abortErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if tx.Status() == engine.StatusOpen && !tx.Halted() {
			if abortErr := tx.Abort(ctx); abortErr != nil {
				ctx.Splog.Debug("failed to abort %q: %v", label, abortErr)
			}
		}
		return err
	}
	return nil
}

// explainBeginError adds a tip when a halted operation blocks new ones
func explainBeginError(ctx *runtime.Context, err error) error {
	var open *pstackerrors.AlreadyOpenError
	if errors.As(err, &open) && open.Halted {
		ctx.Splog.Warn("An earlier operation on %s stopped at a conflict.", open.Branch)
		printResolutionTip(ctx)
	}
	return err
}

func handleConflict(ctx *runtime.Context, tx *engine.Transaction, err error) error {
	patch, paths := tx.Conflict()
	if ctx.Settings.ConflictPolicy == config.PolicyStop {
		if commitErr := tx.CommitUpToConflict(ctx); commitErr != nil {
			return fmt.Errorf("failed to commit up to the conflict: %w", commitErr)
		}
		ctx.Splog.Warn("%s does not apply cleanly and was left unapplied.", patch)
		printPaths(ctx, paths)
		return err
	}

	PrintConflictStatus(ctx, tx, patch, paths)
	tx.Release()
	return err
}

// StackBranch resolves the branch an action works on and checks it has a stack
func StackBranch(ctx *runtime.Context, branch string) (string, error) {
	branch, err := ctx.TargetBranch(branch)
	if err != nil {
		return "", err
	}
	ok, err := ctx.Engine.IsInitialized(branch)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: run 'pstack init' on %s first", pstackerrors.ErrNotInitialized, branch)
	}
	return branch, nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
