// Package merge applies a single patch's change onto an arbitrary tree.
// It classifies the outcome and, when asked, writes conflicts into the
// working tree. What to do about a conflict is left to the caller.
package merge

import (
	"context"
	"fmt"

	"stackit.dev/pstack/internal/git"
)

// Outcome classifies the result of applying a patch
type Outcome int

const (
	Clean Outcome = iota
	Conflicted
)

func (o Outcome) String() string {
	if o == Conflicted {
		return "conflicted"
	}
	return "clean"
}

// Result is the tree produced by applying a patch. For Conflicted results
// the tree contains conflict markers and Conflicts lists every contested path.
type Result struct {
	Outcome   Outcome
	Tree      string
	Conflicts []git.Conflict
}

// Paths returns the conflicted paths
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		paths = append(paths, c.Path)
	}
	return paths
}

// Layer wraps the store's merge primitive and the working tree
type Layer struct {
	store    git.Store
	worktree git.Worktree
}

// NewLayer creates a merge layer. worktree may be nil when conflicts are never materialized.
func NewLayer(store git.Store, worktree git.Worktree) *Layer {
	return &Layer{store: store, worktree: worktree}
}

// Apply merges the change recorded by patch (its parent tree to its own tree) onto onto.
// When the result conflicts and materializeFrom is not empty, the working tree is moved
// from that tree to the conflicted result and index stages are written.
func (l *Layer) Apply(ctx context.Context, patch *git.Commit, onto, materializeFrom string) (*Result, error) {
	bottom, err := l.Revert(patch)
	if err != nil {
		return nil, err
	}

	switch {
	case bottom == onto:
		return &Result{Outcome: Clean, Tree: patch.Tree}, nil
	case bottom == patch.Tree:
		return &Result{Outcome: Clean, Tree: onto}, nil
	}

	merged, err := l.store.Merge(ctx, bottom, onto, patch.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", patch.ID, err)
	}
	if merged.Clean {
		return &Result{Outcome: Clean, Tree: merged.Tree}, nil
	}

	result := &Result{Outcome: Conflicted, Tree: merged.Tree, Conflicts: merged.Conflicts}
	if materializeFrom != "" && l.worktree != nil {
		if err := l.worktree.MaterializeConflicts(ctx, materializeFrom, merged); err != nil {
			return nil, fmt.Errorf("failed to write conflicts: %w", err)
		}
	}
	return result, nil
}

// Revert returns the tree the patch was recorded against. Popping a patch
// means going back to this tree, which never conflicts.
func (l *Layer) Revert(patch *git.Commit) (string, error) {
	parent := patch.Parent()
	if parent == "" {
		return git.EmptyTreeID, nil
	}
	tree, err := l.store.CommitTree(parent)
	if err != nil {
		return "", fmt.Errorf("failed to read parent of %s: %w", patch.ID, err)
	}
	return tree, nil
}
