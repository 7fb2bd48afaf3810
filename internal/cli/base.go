package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newRebaseCmd creates the rebase command
func newRebaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebase <revision>",
		Short: "Move the stack onto a new base",
		Long: `Pop every applied patch, move the stack's base to revision and push the
patches back. A conflicting patch stops the rebase like a conflicting push.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.RebaseAction(ctx, actions.RebaseOptions{Branch: helpers.Branch(cmd), Target: args[0]})
			})
		},
	}
}

// newUncommitCmd creates the uncommit command
func newUncommitCmd() *cobra.Command {
	var opts actions.UncommitOptions

	cmd := &cobra.Command{
		Use:   "uncommit",
		Short: "Turn commits below the stack into patches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.UncommitAction(ctx, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Number, "number", "n", 1, "Uncommit this many commits")
	return cmd
}

// newCommitCmd creates the commit command
func newCommitCmd() *cobra.Command {
	var opts actions.CommitOptions

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Turn the bottom applied patches into regular commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.CommitAction(ctx, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Number, "number", "n", 1, "Commit this many patches")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Commit every applied patch")
	cmd.MarkFlagsMutuallyExclusive("all", "number")
	return cmd
}
