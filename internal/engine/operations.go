package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/merge"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/stack"
)

// rewrite writes a copy of c with a new tree and parent, keeping its author and message
func (tx *Transaction) rewrite(c *git.Commit, tree, parent string) (string, error) {
	var parents []string
	if parent != "" {
		parents = []string{parent}
	}
	return tx.engine.store.WriteCommit(git.CommitData{
		Tree:      tree,
		Parents:   parents,
		Message:   c.Message,
		Author:    c.Author,
		Committer: tx.engine.signature(),
	})
}

// pushOne applies an unapplied patch on top of the candidate head. On conflict
// the patch is left on top of the applied list with its old commit and the
// returned conflict describes what still has to be resolved.
func (tx *Transaction) pushOne(ctx context.Context, name string) (*conflict, error) {
	e := tx.engine
	c, err := e.store.ReadCommit(tx.stack.Commit(name))
	if err != nil {
		return nil, err
	}
	head := tx.stack.Head

	if c.Parent() == head {
		e.splog.Debug("push %s: unchanged", name)
		return nil, tx.stack.Move(name, stack.ListApplied, -1)
	}

	onto, err := e.store.CommitTree(head)
	if err != nil {
		return nil, err
	}
	materializeFrom := ""
	if tx.checkedOut {
		materializeFrom = tx.worktreeTree
	}
	result, err := e.merger.Apply(ctx, c, onto, materializeFrom)
	if err != nil {
		return nil, err
	}

	if result.Outcome == merge.Clean {
		commit, err := tx.rewrite(c, result.Tree, head)
		if err != nil {
			return nil, err
		}
		if err := tx.stack.SetCommit(name, commit); err != nil {
			return nil, err
		}
		e.splog.Debug("push %s: %s", name, output.ShortID(commit))
		return nil, tx.stack.Move(name, stack.ListApplied, -1)
	}

	if materializeFrom != "" {
		tx.worktreeTree = result.Tree
	}
	if err := tx.stack.Move(name, stack.ListApplied, -1); err != nil {
		return nil, err
	}
	e.splog.Debug("push %s: conflicts in %s", name, strings.Join(result.Paths(), ", "))
	return &conflict{Patch: name, Parent: head, Tree: result.Tree, Paths: result.Paths()}, nil
}

// pushAll pushes names in order, halting at the first conflict
func (tx *Transaction) pushAll(ctx context.Context, names []string) error {
	for _, name := range names {
		c, err := tx.pushOne(ctx, name)
		if err != nil {
			return err
		}
		if c != nil {
			return tx.halt(ctx, c)
		}
	}
	return nil
}

// popTop moves the top applied patch to the front of the unapplied list
func popTop(s *stack.Stack) error {
	return s.Move(s.Top(), stack.ListUnapplied, 0)
}

// popTo pops patches until n remain applied
func popTo(s *stack.Stack, n int) error {
	for len(s.Applied) > n {
		if err := popTop(s); err != nil {
			return err
		}
	}
	return nil
}

// apply turns the applied list into target with the fewest pops and pushes.
// beforePush runs between the two phases.
func (tx *Transaction) apply(ctx context.Context, target []string, beforePush func() error) error {
	pops, pushes := stack.Plan(tx.stack.Applied, target)
	for range pops {
		if err := popTop(tx.stack); err != nil {
			return err
		}
	}
	if beforePush != nil {
		if err := beforePush(); err != nil {
			return err
		}
	}
	return tx.pushAll(ctx, pushes)
}

// uniqueNames checks that every name exists and is listed once
func (tx *Transaction) uniqueNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !tx.stack.Exists(name) {
			return pstackerrors.NewNoSuchPatchError(name, "")
		}
		if seen[name] {
			return pstackerrors.NewDuplicateNameError(name, "listed twice")
		}
		seen[name] = true
	}
	return nil
}

func (tx *Transaction) notHidden(names []string) error {
	for _, name := range names {
		if slices.Contains(tx.stack.Hidden, name) {
			return pstackerrors.NewNoSuchPatchError(name, "is hidden")
		}
	}
	return nil
}

// Push applies the named unapplied patches in order on top of the stack.
// A conflict halts the transaction at that patch; the patches after it stay unapplied.
func (tx *Transaction) Push(ctx context.Context, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	if err := tx.notHidden(names); err != nil {
		return err
	}
	for _, name := range names {
		if tx.stack.IsApplied(name) {
			return pstackerrors.NewDuplicateNameError(name, "is already applied")
		}
	}
	return tx.pushAll(ctx, names)
}

// PushNext pushes the first n unapplied patches; n < 0 pushes all of them
func (tx *Transaction) PushNext(ctx context.Context, n int) ([]string, error) {
	if n < 0 || n > len(tx.stack.Unapplied) {
		n = len(tx.stack.Unapplied)
	}
	names := slices.Clone(tx.stack.Unapplied[:n])
	return names, tx.Push(ctx, names...)
}

// Pop unapplies name and every patch above it
func (tx *Transaction) Pop(_ context.Context, name string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	i := slices.Index(tx.stack.Applied, name)
	if i < 0 {
		if !tx.stack.Exists(name) {
			return pstackerrors.NewNoSuchPatchError(name, "")
		}
		return pstackerrors.NewNoSuchPatchError(name, "is not applied")
	}
	return popTo(tx.stack, i)
}

// PopN pops the top n applied patches; n < 0 pops all of them
func (tx *Transaction) PopN(_ context.Context, n int) ([]string, error) {
	if err := tx.checkMutable(); err != nil {
		return nil, err
	}
	applied := len(tx.stack.Applied)
	if n < 0 || n > applied {
		n = applied
	}
	popped := slices.Clone(tx.stack.Applied[applied-n:])
	return popped, popTo(tx.stack, applied-n)
}

// Goto makes name the top applied patch, popping or pushing as needed
func (tx *Transaction) Goto(ctx context.Context, name string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	l, i, err := tx.stack.Locate(name)
	if err != nil {
		return err
	}
	var target []string
	switch l {
	case stack.ListApplied:
		target = slices.Clone(tx.stack.Applied[:i+1])
	case stack.ListUnapplied:
		target = append(slices.Clone(tx.stack.Applied), tx.stack.Unapplied[:i+1]...)
	default:
		return pstackerrors.NewNoSuchPatchError(name, "is hidden")
	}
	return tx.apply(ctx, target, nil)
}

// Reorder rearranges the applied patches into order, which must name exactly the applied patches
func (tx *Transaction) Reorder(ctx context.Context, order []string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.stack.Clone().ReorderApplied(order); err != nil {
		return err
	}
	return tx.apply(ctx, order, nil)
}

// Float moves the named patches to the top of the stack in the given order,
// pushing those that are unapplied
func (tx *Transaction) Float(ctx context.Context, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	if err := tx.notHidden(names); err != nil {
		return err
	}
	target := slices.DeleteFunc(slices.Clone(tx.stack.Applied), func(n string) bool {
		return slices.Contains(names, n)
	})
	return tx.apply(ctx, append(target, names...), nil)
}

// Sink moves the named patches down the stack, to just below to, or to the
// bottom when to is empty
func (tx *Transaction) Sink(ctx context.Context, to string, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	if err := tx.notHidden(names); err != nil {
		return err
	}
	rest := slices.DeleteFunc(slices.Clone(tx.stack.Applied), func(n string) bool {
		return slices.Contains(names, n)
	})
	pos := 0
	if to != "" {
		if slices.Contains(names, to) {
			return pstackerrors.NewDuplicateNameError(to, "cannot sink below itself")
		}
		if pos = slices.Index(rest, to); pos < 0 {
			return pstackerrors.NewNoSuchPatchError(to, "is not applied")
		}
	}
	target := slices.Concat(rest[:pos], names, rest[pos:])
	return tx.apply(ctx, target, nil)
}

// Rebase moves the stack onto newBase, re-pushing the applied patches
func (tx *Transaction) Rebase(ctx context.Context, newBase string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if _, err := tx.engine.store.ReadCommit(newBase); err != nil {
		return fmt.Errorf("invalid rebase target %s: %w", newBase, err)
	}
	applied := slices.Clone(tx.stack.Applied)
	if err := popTo(tx.stack, 0); err != nil {
		return err
	}
	tx.stack.Base = newBase
	tx.stack.UpdateHead()
	return tx.pushAll(ctx, applied)
}

// New creates an empty patch on top of the stack. An empty name is derived
// from the message. It returns the patch name.
func (tx *Transaction) New(_ context.Context, name, message string) (string, error) {
	if err := tx.checkMutable(); err != nil {
		return "", err
	}
	if name == "" {
		name = stack.MakePatchName(message, tx.stack.Exists)
	}
	if err := stack.ValidateName(name); err != nil {
		return "", err
	}
	if tx.stack.Exists(name) {
		return "", pstackerrors.NewDuplicateNameError(name, "already exists")
	}
	if strings.TrimSpace(message) == "" {
		message = name
	}

	head := tx.stack.Head
	tree, err := tx.engine.store.CommitTree(head)
	if err != nil {
		return "", err
	}
	sig := tx.engine.signature()
	commit, err := tx.engine.store.WriteCommit(git.CommitData{
		Tree:      tree,
		Parents:   []string{head},
		Message:   normalizeMessage(message),
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return "", err
	}
	return name, tx.stack.Insert(name, commit, stack.ListApplied, -1)
}

// Refresh replaces the top patch's tree, and its message when message is not empty
func (tx *Transaction) Refresh(_ context.Context, tree, message string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	top := tx.stack.Top()
	if top == "" {
		return fmt.Errorf("%w: no patch applied", pstackerrors.ErrNoSuchPatch)
	}
	c, err := tx.engine.store.ReadCommit(tx.stack.Commit(top))
	if err != nil {
		return err
	}
	if message != "" {
		c.Message = normalizeMessage(message)
	}
	commit, err := tx.rewrite(c, tree, c.Parent())
	if err != nil {
		return err
	}
	return tx.stack.SetCommit(top, commit)
}

// RefreshFromWorktree stages every change in the working tree and records it in the top patch
func (tx *Transaction) RefreshFromWorktree(ctx context.Context, message string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if !tx.checkedOut {
		return fmt.Errorf("branch %s is not checked out", tx.branch)
	}
	wt := tx.engine.worktree
	if err := wt.StageAll(ctx); err != nil {
		return err
	}
	tree, err := wt.WriteTree(ctx)
	if err != nil {
		return err
	}
	if err := tx.Refresh(ctx, tree, message); err != nil {
		return err
	}
	tx.worktreeTree = tree
	return nil
}

// Edit changes the message of any patch without touching its position
func (tx *Transaction) Edit(_ context.Context, name, message string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if !tx.stack.Exists(name) {
		return pstackerrors.NewNoSuchPatchError(name, "")
	}
	if !tx.stack.IsApplied(name) {
		c, err := tx.engine.store.ReadCommit(tx.stack.Commit(name))
		if err != nil {
			return err
		}
		c.Message = normalizeMessage(message)
		commit, err := tx.rewrite(c, c.Tree, c.Parent())
		if err != nil {
			return err
		}
		return tx.stack.SetCommit(name, commit)
	}

	// Rewriting an applied patch rewrites everything above it, which never conflicts
	i := slices.Index(tx.stack.Applied, name)
	parent := tx.stack.Base
	if i > 0 {
		parent = tx.stack.Commit(tx.stack.Applied[i-1])
	}
	for j, n := range tx.stack.Applied[i:] {
		c, err := tx.engine.store.ReadCommit(tx.stack.Commit(n))
		if err != nil {
			return err
		}
		if j == 0 {
			c.Message = normalizeMessage(message)
		}
		commit, err := tx.rewrite(c, c.Tree, parent)
		if err != nil {
			return err
		}
		if err := tx.stack.SetCommit(n, commit); err != nil {
			return err
		}
		parent = commit
	}
	return nil
}

// Delete removes patches from the stack. Applied patches are popped first and
// the patches above them pushed back.
func (tx *Transaction) Delete(ctx context.Context, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	target := slices.DeleteFunc(slices.Clone(tx.stack.Applied), func(n string) bool {
		return slices.Contains(names, n)
	})
	return tx.apply(ctx, target, func() error {
		for _, name := range names {
			if err := tx.stack.Remove(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Hide moves patches to the hidden list, popping applied ones first
func (tx *Transaction) Hide(ctx context.Context, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	for _, name := range names {
		if slices.Contains(tx.stack.Hidden, name) {
			return pstackerrors.NewDuplicateNameError(name, "is already hidden")
		}
	}
	target := slices.DeleteFunc(slices.Clone(tx.stack.Applied), func(n string) bool {
		return slices.Contains(names, n)
	})
	return tx.apply(ctx, target, func() error {
		for _, name := range names {
			if err := tx.stack.Move(name, stack.ListHidden, -1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Unhide moves hidden patches to the end of the unapplied list
func (tx *Transaction) Unhide(_ context.Context, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	for _, name := range names {
		if !slices.Contains(tx.stack.Hidden, name) {
			return pstackerrors.NewNoSuchPatchError(name, "is not hidden")
		}
	}
	for _, name := range names {
		if err := tx.stack.Move(name, stack.ListUnapplied, -1); err != nil {
			return err
		}
	}
	return nil
}

// Rename gives a patch a new name
func (tx *Transaction) Rename(_ context.Context, oldName, newName string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	return tx.stack.Rename(oldName, newName)
}

// Squash combines patches into a single patch called name, placed where the
// lowest applied one of them was. The patches are combined in the order
// given; if they do not combine cleanly the transaction is left unchanged.
// An empty message joins the squashed messages.
func (tx *Transaction) Squash(ctx context.Context, name, message string, names ...string) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("nothing to squash")
	}
	if err := tx.uniqueNames(names); err != nil {
		return err
	}
	if err := tx.notHidden(names); err != nil {
		return err
	}
	if name == "" {
		name = names[0]
	}
	if err := stack.ValidateName(name); err != nil {
		return err
	}
	if tx.stack.Exists(name) && !slices.Contains(names, name) {
		return pstackerrors.NewDuplicateNameError(name, "already exists")
	}

	squashed := func(n string) bool { return slices.Contains(names, n) }
	keep := slices.IndexFunc(tx.stack.Applied, squashed)
	if keep < 0 {
		keep = len(tx.stack.Applied)
	}
	rest := slices.DeleteFunc(slices.Clone(tx.stack.Applied[keep:]), squashed)

	work := tx.stack.Clone()
	if err := popTo(work, keep); err != nil {
		return err
	}
	e := tx.engine
	head := work.Head
	tree, err := e.store.CommitTree(head)
	if err != nil {
		return err
	}
	var messages []string
	var first *git.Commit
	for _, n := range names {
		c, err := e.store.ReadCommit(work.Commit(n))
		if err != nil {
			return err
		}
		if first == nil {
			first = c
		}
		messages = append(messages, strings.TrimSpace(c.Message))
		result, err := e.merger.Apply(ctx, c, tree, "")
		if err != nil {
			return err
		}
		if result.Outcome == merge.Conflicted {
			return pstackerrors.NewSquashConflictError(n, result.Paths())
		}
		tree = result.Tree
	}
	if message == "" {
		message = strings.Join(messages, "\n\n")
	}
	commit, err := e.store.WriteCommit(git.CommitData{
		Tree:      tree,
		Parents:   []string{head},
		Message:   normalizeMessage(message),
		Author:    first.Author,
		Committer: e.signature(),
	})
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := work.Remove(n); err != nil {
			return err
		}
	}
	if err := work.Insert(name, commit, stack.ListApplied, -1); err != nil {
		return err
	}

	tx.stack = work
	return tx.pushAll(ctx, rest)
}

// Uncommit turns the n commits below the stack base into patches at the bottom of the stack
func (tx *Transaction) Uncommit(_ context.Context, n int) ([]string, error) {
	if err := tx.checkMutable(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("uncommit needs a positive count, got %d", n)
	}
	taken := make(map[string]bool)
	isTaken := func(name string) bool { return taken[name] || tx.stack.Exists(name) }

	type uncommitted struct{ name, commit string }
	var found []uncommitted
	base := tx.stack.Base
	for range n {
		c, err := tx.engine.store.ReadCommit(base)
		if err != nil {
			return nil, err
		}
		if len(c.Parents) != 1 {
			return nil, fmt.Errorf("cannot uncommit %s: it is a merge or root commit", output.ShortID(base))
		}
		name := stack.MakePatchName(c.Message, isTaken)
		taken[name] = true
		found = append(found, uncommitted{name: name, commit: base})
		base = c.Parent()
	}

	tx.stack.Base = base
	names := make([]string, 0, len(found))
	for _, u := range found {
		if err := tx.stack.Insert(u.name, u.commit, stack.ListApplied, 0); err != nil {
			return nil, err
		}
		names = append(names, u.name)
	}
	slices.Reverse(names)
	return names, nil
}

// CommitPatches turns the bottom n applied patches into regular commits of the branch
func (tx *Transaction) CommitPatches(_ context.Context, n int) ([]string, error) {
	if err := tx.checkMutable(); err != nil {
		return nil, err
	}
	if n < 0 || n > len(tx.stack.Applied) {
		n = len(tx.stack.Applied)
	}
	names := slices.Clone(tx.stack.Applied[:n])
	if n == 0 {
		return nil, nil
	}
	tx.stack.Base = tx.stack.Commit(names[n-1])
	for _, name := range names {
		if err := tx.stack.Remove(name); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Pick imports commit as a new patch called name, keeping its message and
// author. An empty name is derived from the message. Unless unapplied is set
// the patch is pushed, which may halt on a conflict like any push.
func (tx *Transaction) Pick(ctx context.Context, name, commit string, unapplied bool) (string, error) {
	if err := tx.checkMutable(); err != nil {
		return "", err
	}
	c, err := tx.engine.store.ReadCommit(commit)
	if err != nil {
		return "", err
	}
	if len(c.Parents) > 1 {
		return "", fmt.Errorf("cannot pick %s: it is a merge commit", output.ShortID(commit))
	}
	if name == "" {
		name = stack.MakePatchName(c.Message, tx.stack.Exists)
	}
	if err := tx.stack.Insert(name, c.ID, stack.ListUnapplied, 0); err != nil {
		return "", err
	}
	if unapplied {
		return name, nil
	}
	return name, tx.pushAll(ctx, []string{name})
}

// Clean deletes the patches that change nothing from the chosen lists and
// returns their names in stack order
func (tx *Transaction) Clean(ctx context.Context, applied, unapplied bool) ([]string, error) {
	if err := tx.checkMutable(); err != nil {
		return nil, err
	}
	var lists [][]string
	if applied {
		lists = append(lists, tx.stack.Applied)
	}
	if unapplied {
		lists = append(lists, tx.stack.Unapplied)
	}
	var empty []string
	for _, names := range lists {
		for _, name := range names {
			c, err := tx.engine.store.ReadCommit(tx.stack.Commit(name))
			if err != nil {
				return nil, err
			}
			bottom, err := tx.engine.merger.Revert(c)
			if err != nil {
				return nil, err
			}
			if bottom == c.Tree {
				empty = append(empty, name)
			}
		}
	}
	if len(empty) == 0 {
		return nil, nil
	}
	return empty, tx.Delete(ctx, empty...)
}

// normalizeMessage trims surrounding blank space and ends the message with a newline
func normalizeMessage(message string) string {
	return strings.TrimSpace(message) + "\n"
}

// PopAll pops every applied patch
func (tx *Transaction) PopAll(ctx context.Context) ([]string, error) {
	return tx.PopN(ctx, -1)
}
