package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	var opts actions.ConfigOptions

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the repository's pstack settings",
		Long: `Show the settings pstack resolved from .git/pstack.json, PSTACK_*
environment variables and flags. With --set-conflict-policy the policy is
saved to .git/pstack.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.ConfigAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.ConflictPolicy, "set-conflict-policy", "", "Save the conflict policy (hold or stop)")
	return cmd
}
