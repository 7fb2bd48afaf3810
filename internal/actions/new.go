package actions

import (
	"context"
	"fmt"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// NewOptions contains options for the new command
type NewOptions struct {
	Branch  string
	Name    string
	Message string
	// Refresh records the working tree's changes in the new patch right away
	Refresh bool
}

// NewAction creates a patch on top of the stack
func NewAction(ctx *runtime.Context, opts NewOptions) error {
	if opts.Name == "" && strings.TrimSpace(opts.Message) == "" {
		return fmt.Errorf("a patch name or a message is required")
	}
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	var name string
	label := "new"
	if opts.Name != "" {
		label = "new " + opts.Name
	}
	err = RunTransaction(ctx, branch, label, func(c context.Context, tx *engine.Transaction) error {
		var err error
		if name, err = tx.New(c, opts.Name, opts.Message); err != nil {
			return err
		}
		if opts.Refresh {
			return tx.RefreshFromWorktree(c, "")
		}
		return nil
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Created %s.", output.ColorPatch(name))
	return nil
}
