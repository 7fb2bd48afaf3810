package actions

import (
	"context"
	"fmt"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// EditOptions contains options for the edit command
type EditOptions struct {
	Branch string
	// Patch defaults to the top applied patch
	Patch   string
	Message string
}

// EditAction replaces the message of a patch
func EditAction(ctx *runtime.Context, opts EditOptions) error {
	if strings.TrimSpace(opts.Message) == "" {
		return fmt.Errorf("a message is required")
	}
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	patch := opts.Patch
	err = RunTransaction(ctx, branch, "edit", func(c context.Context, tx *engine.Transaction) error {
		if patch == "" {
			if patch = tx.Stack().Top(); patch == "" {
				return fmt.Errorf("no patches applied")
			}
		}
		return tx.Edit(c, patch, opts.Message)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Updated the message of %s.", output.ColorPatch(patch))
	return nil
}
