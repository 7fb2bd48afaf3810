package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newSeriesCmd creates the series command
func newSeriesCmd() *cobra.Command {
	var opts actions.SeriesOptions

	cmd := &cobra.Command{
		Use:     "series",
		Aliases: []string{"ls"},
		Short:   "List the patches of the stack",
		Long: `List the patches of the stack from the bottom up.

'+' marks an applied patch, '>' the top applied patch, '-' an unapplied
patch and '!' a hidden one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.SeriesAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.ShowDescription, "description", "d", false, "Show the first line of each patch message")
	cmd.Flags().BoolVar(&opts.ShowCommits, "commits", false, "Show each patch's commit id")
	cmd.Flags().BoolVarP(&opts.ShowHidden, "all", "a", false, "Include hidden patches")
	return cmd
}
