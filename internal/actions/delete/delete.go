// Package delete provides functionality for deleting patches from a stack.
package delete

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// Options contains options for deleting patches
type Options struct {
	Branch  string
	Patches []string
	// Force skips the confirmation prompt
	Force bool
}

// Action deletes patches, popping applied ones and pushing back the patches above them
func Action(ctx *runtime.Context, opts Options) error {
	if len(opts.Patches) == 0 {
		return fmt.Errorf("no patches given to delete")
	}
	branch, err := actions.StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	if !opts.Force {
		confirmed, err := actions.PromptConfirm(
			fmt.Sprintf("Delete %s? Their changes are only recoverable through 'pstack undo'.", strings.Join(opts.Patches, ", ")),
			false)
		if errors.Is(err, actions.ErrInteractiveDisabled) {
			return fmt.Errorf("refusing to delete without confirmation; pass --force")
		}
		if err != nil {
			return fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !confirmed {
			ctx.Splog.Info("Delete canceled.")
			return nil
		}
	}

	err = actions.RunTransaction(ctx, branch, "delete", func(c context.Context, tx *engine.Transaction) error {
		return tx.Delete(c, opts.Patches...)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Deleted %s.", strings.Join(opts.Patches, ", "))
	return nil
}
