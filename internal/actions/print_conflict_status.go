package actions

import (
	"fmt"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// PrintConflictStatus tells the user which patch conflicted and how to go on
func PrintConflictStatus(ctx *runtime.Context, tx *engine.Transaction, patch string, paths []string) {
	splog := ctx.Splog
	splog.Info("%s", output.ColorConflict(fmt.Sprintf("Hit conflicts pushing %s onto %s.", patch, tx.Branch())))
	printPaths(ctx, paths)
	splog.Newline()

	if !tx.CheckedOut() {
		splog.Info("%s is not checked out, so the conflicts cannot be resolved in the working tree.", tx.Branch())
		splog.Tip("Run %s to drop the operation.", output.ColorCommand("pstack abort"))
		return
	}
	printResolutionTip(ctx)
}

func printPaths(ctx *runtime.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx.Splog.Info("Unmerged files:")
	for _, path := range paths {
		ctx.Splog.Info("  %s", output.ColorConflict(path))
	}
}

func printResolutionTip(ctx *runtime.Context) {
	ctx.Splog.Info("To fix and continue:")
	ctx.Splog.Info("(1) resolve the conflicts in the files above")
	ctx.Splog.Info("(2) run %s to record the resolution and finish the operation", output.ColorCommand("pstack continue"))
	ctx.Splog.Info("Or run %s to leave the stack as it was.", output.ColorCommand("pstack abort"))
}
