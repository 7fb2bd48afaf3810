package actions

import (
	"context"
	"fmt"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// SquashOptions contains options for the squash command
type SquashOptions struct {
	Branch  string
	Patches []string
	// Name defaults to the first patch squashed
	Name    string
	Message string
}

// SquashAction combines several patches into one
func SquashAction(ctx *runtime.Context, opts SquashOptions) error {
	if len(opts.Patches) < 2 {
		return fmt.Errorf("squash needs at least two patches")
	}
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = opts.Patches[0]
	}
	err = RunTransaction(ctx, branch, "squash", func(c context.Context, tx *engine.Transaction) error {
		return tx.Squash(c, name, opts.Message, opts.Patches...)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Squashed %s into %s.", pluralize(len(opts.Patches), "patch", "patches"), output.ColorPatch(name))
	return nil
}
