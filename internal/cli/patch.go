package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/actions/delete"
	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/runtime"
)

// newNewCmd creates the new command
func newNewCmd() *cobra.Command {
	var opts actions.NewOptions

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a patch on top of the stack",
		Long: `Create an empty patch on top of the stack. Without a name, one is derived
from the first line of the message. With --refresh the working tree's
changes go into the new patch right away.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				if len(args) == 1 {
					opts.Name = args[0]
				}
				return actions.NewAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Patch message")
	cmd.Flags().BoolVarP(&opts.Refresh, "refresh", "r", false, "Record the working tree's changes in the new patch")
	return cmd
}

// newRefreshCmd creates the refresh command
func newRefreshCmd() *cobra.Command {
	var opts actions.RefreshOptions

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Record the working tree's changes in the top patch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.RefreshAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Replace the patch message")
	return cmd
}

// newEditCmd creates the edit command
func newEditCmd() *cobra.Command {
	var opts actions.EditOptions

	cmd := &cobra.Command{
		Use:               "edit [patch]",
		Short:             "Change the message of a patch",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.AllPatches),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				if len(args) == 1 {
					opts.Patch = args[0]
				}
				return actions.EditAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "New patch message")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

// newRenameCmd creates the rename command
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rename [old-name] <new-name>",
		Short:             "Rename a patch, the top one by default",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: helpers.CompletePatches(helpers.AllPatches),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts := actions.RenameOptions{Branch: helpers.Branch(cmd), NewName: args[len(args)-1]}
				if len(args) == 2 {
					opts.OldName = args[0]
				}
				return actions.RenameAction(ctx, opts)
			})
		},
	}
}

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "delete <patch...>",
		Short:             "Delete patches from the stack",
		Long:              `Delete patches. Applied patches are popped first and the patches above them pushed back.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.AllPatches),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return delete.Action(ctx, delete.Options{Branch: helpers.Branch(cmd), Patches: args, Force: force})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not prompt for confirmation")
	return cmd
}

// newHideCmd creates the hide command
func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "hide <patch...>",
		Short:             "Hide patches from the series listing",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Applied: true, Unapplied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.HideAction(ctx, actions.HideOptions{Branch: helpers.Branch(cmd), Patches: args})
			})
		},
	}
}

// newUnhideCmd creates the unhide command
func newUnhideCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unhide <patch...>",
		Short:             "Return hidden patches to the unapplied list",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Hidden: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				return actions.UnhideAction(ctx, actions.HideOptions{Branch: helpers.Branch(cmd), Patches: args})
			})
		},
	}
}

// newSquashCmd creates the squash command
func newSquashCmd() *cobra.Command {
	var opts actions.SquashOptions

	cmd := &cobra.Command{
		Use:   "squash <patch...>",
		Short: "Combine patches into one",
		Long: `Combine patches into a single patch, placed where the lowest applied one
of them was. The patches are combined in the order given.`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: helpers.CompletePatches(helpers.PatchLists{Applied: true, Unapplied: true}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				opts.Patches = args
				return actions.SquashAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Name of the combined patch")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Message of the combined patch")
	return cmd
}

// newPickCmd creates the pick command
func newPickCmd() *cobra.Command {
	var opts actions.PickOptions

	cmd := &cobra.Command{
		Use:   "pick <revision>",
		Short: "Import a commit as a new patch",
		Long: `Create a patch from the change a commit makes to its parent, keeping the
commit's message and author, and push it on top of the stack.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				opts.Revision = args[0]
				return actions.PickAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Name of the new patch")
	cmd.Flags().BoolVar(&opts.Unapplied, "unapplied", false, "Keep the new patch unapplied")
	return cmd
}

// newCleanCmd creates the clean command
func newCleanCmd() *cobra.Command {
	var opts actions.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the patches that change nothing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				opts.Branch = helpers.Branch(cmd)
				return actions.CleanAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Applied, "applied", "a", false, "Only clean applied patches")
	cmd.Flags().BoolVarP(&opts.Unapplied, "unapplied", "u", false, "Only clean unapplied patches")
	return cmd
}
