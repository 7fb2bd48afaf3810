package actions

import (
	"errors"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// InitOptions contains options for the init command
type InitOptions struct {
	Branch string
}

// InitAction starts an empty stack on a branch, based at its current head
func InitAction(ctx *runtime.Context, opts InitOptions) error {
	branch, err := ctx.TargetBranch(opts.Branch)
	if err != nil {
		return err
	}

	s, err := ctx.Engine.Init(ctx, branch)
	if errors.Is(err, pstackerrors.ErrAlreadyInitialized) {
		ctx.Splog.Info("%s already has a stack.", output.ColorPatch(branch))
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Splog.Info("Initialized a stack on %s at %s.", output.ColorPatch(branch), output.ShortID(s.Base))
	return nil
}
