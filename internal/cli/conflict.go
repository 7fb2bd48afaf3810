package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newContinueCmd creates the continue command
func newContinueCmd() *cobra.Command {
	var opts actions.ContinueOptions

	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Finish an operation that stopped at a conflict",
		Long: `Finish an operation that stopped at a conflict. The conflicted patch
takes the resolution staged in the index, which must have no unmerged
paths left.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.ContinueAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.StageAll, "all", "a", false, "Stage every change in the working tree first")
	return cmd
}

// newResolvedCmd creates the resolved command
func newResolvedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolved",
		Short: "Mark all conflicts resolved and continue",
		Long:  `Stage the whole working tree as the resolution of the conflict and finish the operation.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.ResolvedAction(ctx, actions.ContinueOptions{Branch: helpers.Branch(cmd)})
			})
		},
	}
}

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	var opts actions.AbortOptions

	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Drop an operation that stopped at a conflict",
		Long: `Drop an operation that stopped at a conflict. The branch and the stack
stay as they were before the operation began. The conflicted files are
left in the working tree unless --hard is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.AbortAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Hard, "hard", false, "Also reset the working tree to the branch head")
	return cmd
}
