package actions

import (
	"context"
	"fmt"
	"strings"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/runtime"
)

// FloatOptions contains options for the float command
type FloatOptions struct {
	Branch  string
	Patches []string
}

// FloatAction moves patches to the top of the stack, pushing unapplied ones
func FloatAction(ctx *runtime.Context, opts FloatOptions) error {
	if len(opts.Patches) == 0 {
		return fmt.Errorf("no patches given to float")
	}
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	err = RunTransaction(ctx, branch, "float", func(c context.Context, tx *engine.Transaction) error {
		return tx.Float(c, opts.Patches...)
	})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Floated %s.", strings.Join(opts.Patches, ", "))
	return nil
}

// SinkOptions contains options for the sink command
type SinkOptions struct {
	Branch  string
	Patches []string
	// To is the applied patch to sink below; empty sinks to the bottom
	To string
}

// SinkAction moves patches down the stack
func SinkAction(ctx *runtime.Context, opts SinkOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	patches := opts.Patches
	err = RunTransaction(ctx, branch, "sink", func(c context.Context, tx *engine.Transaction) error {
		if len(patches) == 0 {
			top := tx.Stack().Top()
			if top == "" {
				return fmt.Errorf("no patches applied")
			}
			patches = []string{top}
		}
		return tx.Sink(c, opts.To, patches...)
	})
	if err != nil {
		return err
	}
	if opts.To != "" {
		ctx.Splog.Info("Sank %s below %s.", strings.Join(patches, ", "), opts.To)
	} else {
		ctx.Splog.Info("Sank %s to the bottom.", strings.Join(patches, ", "))
	}
	return nil
}
