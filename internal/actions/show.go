package actions

import (
	"fmt"
	"strings"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
)

// ShowOptions contains options for the show command
type ShowOptions struct {
	Branch string
	// Patch defaults to the top applied patch
	Patch string
}

// ShowAction prints a patch's message and diff
func ShowAction(ctx *runtime.Context, opts ShowOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	s, err := ctx.Engine.Load(ctx, branch)
	if err != nil {
		return err
	}
	name := opts.Patch
	if name == "" {
		if name = s.Top(); name == "" {
			return fmt.Errorf("no patches applied")
		}
	}
	if !s.Exists(name) {
		return pstackerrors.NewNoSuchPatchError(name, "")
	}

	text, err := RenderPatch(ctx.Engine.Store(), name, s.Commit(name))
	if err != nil {
		return err
	}
	ctx.Splog.Page(text)
	return nil
}

// RenderPatch formats a patch commit as a header, its message and its diff against its parent
func RenderPatch(store git.Store, name, commit string) (string, error) {
	c, err := store.ReadCommit(commit)
	if err != nil {
		return "", err
	}
	parentTree := git.EmptyTreeID
	if parent := c.Parent(); parent != "" {
		if parentTree, err = store.CommitTree(parent); err != nil {
			return "", err
		}
	}
	diff, err := store.UnifiedDiff(parentTree, c.Tree)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "patch %s\n", output.ColorPatch(name))
	fmt.Fprintf(&b, "commit %s\n", c.ID)
	fmt.Fprintf(&b, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(&b, "Date:   %s\n\n", c.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	if diff != "" {
		b.WriteString("\n")
		b.WriteString(diff)
	}
	return b.String(), nil
}
