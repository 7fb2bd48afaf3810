package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/actions/undo"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newUndoCmd creates the undo command
func newUndoCmd() *cobra.Command {
	var opts undo.Options

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the last operations on the stack",
		Long: `Restore the branch and the stack to how they were before the last
operation. Undos are operations too: undoing twice goes two steps back,
and 'pstack redo' reverts undos.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return undo.Action(ctx, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Steps, "number", "n", 1, "Undo this many operations")
	cmd.Flags().BoolVar(&opts.Hard, "hard", false, "Discard local changes in the working tree")
	return cmd
}

// newRedoCmd creates the redo command
func newRedoCmd() *cobra.Command {
	var opts undo.Options

	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Revert the last undos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return undo.RedoAction(ctx, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Steps, "number", "n", 1, "Redo this many undos")
	cmd.Flags().BoolVar(&opts.Hard, "hard", false, "Discard local changes in the working tree")
	return cmd
}

// newResetCmd creates the reset command
func newResetCmd() *cobra.Command {
	var opts undo.ResetOptions

	cmd := &cobra.Command{
		Use:   "reset <state>",
		Short: "Restore the stack to a state from 'pstack log'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				opts.State = args[0]
				return undo.ResetAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Hard, "hard", false, "Discard local changes in the working tree")
	return cmd
}

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	var opts actions.LogOptions

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the history of the stack",
		Long: `Show the history of the stack, newest first. Each line is one operation;
its id can be given to 'pstack reset'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.LogAction(ctx, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "number", "n", 0, "Show at most this many entries")
	return cmd
}
