// Package undo provides the undo, redo and reset commands, which move a stack
// back and forth through its history.
package undo

import (
	"errors"
	"fmt"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
	"stackit.dev/pstack/internal/stack"
)

// Options contains options for the undo and redo commands
type Options struct {
	Branch string
	Steps  int
	// Hard discards local changes in the working tree
	Hard bool
}

// Action undoes the last Steps operations on a stack
func Action(ctx *runtime.Context, opts Options) error {
	branch, err := prepare(ctx, opts.Branch, opts.Hard)
	if err != nil {
		return err
	}
	steps := max(opts.Steps, 1)
	s, err := ctx.Engine.Undo(ctx, branch, steps, engine.UndoOptions{Hard: opts.Hard})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Undid %s on %s.", plural(steps), branch)
	report(ctx, s)
	return nil
}

// RedoAction reverts the last Steps undos
func RedoAction(ctx *runtime.Context, opts Options) error {
	branch, err := prepare(ctx, opts.Branch, opts.Hard)
	if err != nil {
		return err
	}
	steps := max(opts.Steps, 1)
	s, err := ctx.Engine.Redo(ctx, branch, steps, engine.UndoOptions{Hard: opts.Hard})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Redid %s on %s.", plural(steps), branch)
	report(ctx, s)
	return nil
}

// ResetOptions contains options for the reset command
type ResetOptions struct {
	Branch string
	// State is a state commit id from 'pstack log'
	State string
	Hard  bool
}

// ResetAction restores the stack recorded in a state from the log
func ResetAction(ctx *runtime.Context, opts ResetOptions) error {
	if opts.State == "" {
		return fmt.Errorf("a state from 'pstack log' is required")
	}
	branch, err := prepare(ctx, opts.Branch, opts.Hard)
	if err != nil {
		return err
	}
	id, err := ctx.Engine.Store().ResolveRevision(opts.State)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", opts.State, err)
	}
	s, err := ctx.Engine.Reset(ctx, branch, id, engine.UndoOptions{Hard: opts.Hard})
	if err != nil {
		return err
	}
	ctx.Splog.Info("Reset %s to %s.", branch, output.ShortID(id))
	report(ctx, s)
	return nil
}

// prepare resolves the branch and makes sure the working tree may be moved
func prepare(ctx *runtime.Context, branch string, hard bool) (string, error) {
	branch, err := actions.StackBranch(ctx, branch)
	if err != nil {
		return "", err
	}
	current, _ := ctx.CurrentBranch()
	if current != branch {
		return branch, nil
	}

	if hard {
		confirmed, err := actions.PromptConfirm("Discard all local changes in the working tree?", false)
		if errors.Is(err, actions.ErrInteractiveDisabled) {
			return branch, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !confirmed {
			return "", fmt.Errorf("canceled")
		}
		return branch, nil
	}

	if ctx.Settings.UndoRequireClean {
		clean, err := ctx.Worktree.IsClean(ctx)
		if err != nil {
			return "", err
		}
		if !clean {
			return "", fmt.Errorf("the working tree has local changes; refresh them into a patch or pass --hard")
		}
	}
	return branch, nil
}

func report(ctx *runtime.Context, s *stack.Stack) {
	if top := s.Top(); top != "" {
		ctx.Splog.Info("Now at %s.", output.ColorPatch(top))
	} else {
		ctx.Splog.Info("No patches applied.")
	}
}

func plural(n int) string {
	if n == 1 {
		return "1 operation"
	}
	return fmt.Sprintf("%d operations", n)
}
