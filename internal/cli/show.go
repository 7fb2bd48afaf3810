package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newShowCmd creates the show command
func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "show [patch]",
		Short:             "Show a patch's message and diff, the top one by default",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.AllPatches),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts := actions.ShowOptions{Branch: helpers.Branch(cmd)}
				if len(args) == 1 {
					opts.Patch = args[0]
				}
				return actions.ShowAction(ctx, opts)
			})
		},
	}
}
