package actions

import (
	"context"
	"fmt"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// HideOptions contains options for the hide and unhide commands
type HideOptions struct {
	Branch  string
	Patches []string
}

// HideAction moves patches out of the series listing, popping applied ones
func HideAction(ctx *runtime.Context, opts HideOptions) error {
	if len(opts.Patches) == 0 {
		return fmt.Errorf("no patches given to hide")
	}
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	err = RunTransaction(ctx, branch, "hide", func(c context.Context, tx *engine.Transaction) error {
		return tx.Hide(c, opts.Patches...)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Hid %s.", strings.Join(opts.Patches, ", "))
	return nil
}

// UnhideAction returns hidden patches to the end of the unapplied list
func UnhideAction(ctx *runtime.Context, opts HideOptions) error {
	if len(opts.Patches) == 0 {
		return fmt.Errorf("no patches given to unhide")
	}
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	err = RunTransaction(ctx, branch, "unhide", func(c context.Context, tx *engine.Transaction) error {
		return tx.Unhide(c, opts.Patches...)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Unhid %s.", strings.Join(opts.Patches, ", "))
	return nil
}
