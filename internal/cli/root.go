package cli

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/cli/helpers"
	"stackit.dev/pstack/internal/output"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pstack",
		Short: "pstack manages a stack of patches on top of a git branch",
		Long: `pstack manages a stack of patches on top of a git branch.

Each patch is a commit that can be pushed onto or popped off the branch,
reordered, edited and squashed. Every command is one transaction: it either
updates the branch and the stack together or leaves both untouched, and
'pstack undo' steps back through the history of the stack.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			output.ConfigureColors()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP(helpers.FlagDirectory, "C", "", "Run as if pstack was started in this directory")
	flags.StringP(helpers.FlagBranch, "b", "", "Work on this branch instead of the checked out one")
	flags.String(helpers.FlagConflictPolicy, "", "What to do when a push conflicts: hold or stop")
	flags.String(helpers.FlagLogFile, "", "Write a debug log to this file")

	rootCmd.AddCommand(
		newInitCmd(),
		newStacksCmd(),
		newSeriesCmd(),
		newPushCmd(),
		newPopCmd(),
		newGotoCmd(),
		newFloatCmd(),
		newSinkCmd(),
		newNewCmd(),
		newRefreshCmd(),
		newEditCmd(),
		newRenameCmd(),
		newDeleteCmd(),
		newHideCmd(),
		newUnhideCmd(),
		newSquashCmd(),
		newPickCmd(),
		newCleanCmd(),
		newRebaseCmd(),
		newUncommitCmd(),
		newCommitCmd(),
		newContinueCmd(),
		newResolvedCmd(),
		newAbortCmd(),
		newUndoCmd(),
		newRedoCmd(),
		newResetCmd(),
		newLogCmd(),
		newShowCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
