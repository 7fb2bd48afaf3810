package actions

import (
	"context"
	"fmt"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// PickOptions contains options for the pick command
type PickOptions struct {
	Branch string
	// Revision names the commit to import
	Revision string
	Name     string
	// Unapplied keeps the new patch off the applied list
	Unapplied bool
}

// PickAction imports a commit as a new patch, keeping its message and author
func PickAction(ctx *runtime.Context, opts PickOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	commit, err := ctx.Engine.Store().ResolveRevision(opts.Revision)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.Revision, err)
	}

	var name string
	err = RunTransaction(ctx, branch, "pick "+opts.Revision, func(c context.Context, tx *engine.Transaction) error {
		var err error
		name, err = tx.Pick(c, opts.Name, commit, opts.Unapplied)
		return err
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Imported %s as %s.", output.ShortID(commit), output.ColorPatch(name))
	return nil
}
