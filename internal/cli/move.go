package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newFloatCmd creates the float command
func newFloatCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "float <patch...>",
		Short:             "Move patches to the top of the stack",
		Long:              `Move patches to the top of the stack in the order given, pushing any that are unapplied.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Applied: true, Unapplied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.FloatAction(ctx, actions.FloatOptions{Branch: helpers.Branch(cmd), Patches: args})
			})
		},
	}
}

// newSinkCmd creates the sink command
func newSinkCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "sink [patch...]",
		Short: "Move patches down the stack",
		Long: `Move patches towards the bottom of the stack, in the order given. Without
arguments the top patch is sunk. With --to the patches land just below that
applied patch, otherwise at the bottom.`,
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Applied: true, Unapplied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.SinkAction(ctx, actions.SinkOptions{Branch: helpers.Branch(cmd), Patches: args, To: to})
			})
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "", "Sink below this applied patch")
	return cmd
}
