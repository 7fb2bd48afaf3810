package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	var opts actions.PushOptions

	cmd := &cobra.Command{
		Use:   "push [patch...]",
		Short: "Apply unapplied patches on top of the stack",
		Long: `Apply patches on top of the stack. Without arguments the next unapplied
patch is pushed; named patches are pushed in the order given.

If a patch does not apply cleanly the push stops at it. Resolve the conflicts
and run 'pstack continue', or run 'pstack abort' to leave the stack as it was.`,
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Unapplied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				opts.Patches = args
				return actions.PushAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Push all unapplied patches")
	cmd.Flags().IntVarP(&opts.Number, "number", "n", 1, "Push this many patches")
	cmd.MarkFlagsMutuallyExclusive("all", "number")
	return cmd
}

// newPopCmd creates the pop command
func newPopCmd() *cobra.Command {
	var opts actions.PopOptions

	cmd := &cobra.Command{
		Use:   "pop [patch]",
		Short: "Unapply patches from the top of the stack",
		Long: `Unapply patches from the top of the stack. Without arguments the top
patch is popped; naming a patch pops it and every patch above it.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Applied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				if len(args) == 1 {
					opts.Patch = args[0]
				}
				return actions.PopAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Pop all applied patches")
	cmd.Flags().IntVarP(&opts.Number, "number", "n", 1, "Pop this many patches")
	cmd.MarkFlagsMutuallyExclusive("all", "number")
	return cmd
}

// newGotoCmd creates the goto command
func newGotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "goto <patch>",
		Short:             "Push or pop until a patch is on top",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Applied: true, Unapplied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.GotoAction(ctx, actions.GotoOptions{Branch: helpers.Branch(cmd), Patch: args[0]})
			})
		},
	}
}
