package actions

import (
	"context"
	"fmt"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// RenameOptions contains options for the rename command
type RenameOptions struct {
	Branch string
	// OldName defaults to the top applied patch
	OldName string
	NewName string
}

// RenameAction gives a patch a new name
func RenameAction(ctx *runtime.Context, opts RenameOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	oldName := opts.OldName
	err = RunTransaction(ctx, branch, "rename", func(c context.Context, tx *engine.Transaction) error {
		if oldName == "" {
			if oldName = tx.Stack().Top(); oldName == "" {
				return fmt.Errorf("no patches applied")
			}
		}
		return tx.Rename(c, oldName, opts.NewName)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Renamed %s to %s.", oldName, output.ColorPatch(opts.NewName))
	return nil
}
