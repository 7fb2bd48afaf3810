package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Start a stack on the current branch",
		Long: `Start an empty stack on the current branch. The branch's head becomes
the base of the stack; patches are created on top of it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.InitAction(ctx, actions.InitOptions{Branch: helpers.Branch(cmd)})
			})
		},
	}
}

// newStacksCmd creates the stacks command
func newStacksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stacks",
		Short: "List the branches that have a stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, actions.StacksAction)
		},
	}
}
