package helpers

import (
	"github.com/spf13/cobra"

	"stackit.dev/pstack/internal/runtime"
	"stackit.dev/pstack/internal/stack"
)

// PatchLists selects which lists CompletePatches offers
type PatchLists struct {
	Applied   bool
	Unapplied bool
	Hidden    bool
}

// AllPatches offers every patch
var AllPatches = PatchLists{Applied: true, Unapplied: true, Hidden: true}

// CompletePatches returns a cobra.ValidArgsFunction that completes patch names
func CompletePatches(lists PatchLists) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		err := Run(cmd, func(ctx *runtime.Context) error {
			branch, err := ctx.TargetBranch(Branch(cmd))
			if err != nil {
				return err
			}
			s, err := ctx.Engine.Load(ctx, branch)
			if err != nil {
				return err
			}
			names = patchNames(s, lists)
			return nil
		})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

func patchNames(s *stack.Stack, lists PatchLists) []string {
	var names []string
	if lists.Applied {
		names = append(names, s.Applied...)
	}
	if lists.Unapplied {
		names = append(names, s.Unapplied...)
	}
	if lists.Hidden {
		names = append(names, s.Hidden...)
	}
	return names
}
