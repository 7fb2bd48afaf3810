package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CLIWorktree drives the index and files of a repository on disk through the git binary
type CLIWorktree struct {
	runner *CommandRunner
}

var _ Worktree = (*CLIWorktree)(nil)

// NewCLIWorktree returns the worktree of a repository opened from disk
func NewCLIWorktree(repo *Repository) (*CLIWorktree, error) {
	if repo.runner == nil {
		return nil, fmt.Errorf("repository has no work tree")
	}
	return &CLIWorktree{runner: repo.runner}, nil
}

// CurrentBranch returns the checked out branch, or "" when HEAD is detached
func (w *CLIWorktree) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := w.runner.Run(ctx, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return branch, nil
}

// Checkout moves the index and files from one tree to another
func (w *CLIWorktree) Checkout(ctx context.Context, from, to string, hard bool) error {
	if hard {
		if _, err := w.runner.Run(ctx, "read-tree", "-u", "--reset", to); err != nil {
			return fmt.Errorf("failed to reset work tree to %s: %w", to, err)
		}
		return nil
	}
	if from == to {
		return nil
	}
	// Stale stat info makes read-tree -m think files are modified; exit status 1 is expected
	// when there are local changes.
	_, _ = w.runner.Run(ctx, "update-index", "-q", "--refresh")
	if _, err := w.runner.Run(ctx, "read-tree", "-u", "-m", from, to); err != nil {
		return fmt.Errorf("failed to check out %s: %w", to, err)
	}
	return nil
}

// MaterializeConflicts checks out the conflicted merge result and records index stages
func (w *CLIWorktree) MaterializeConflicts(ctx context.Context, from string, result *MergeResult) error {
	if err := w.Checkout(ctx, from, result.Tree, false); err != nil {
		return err
	}
	if len(result.Conflicts) == 0 {
		return nil
	}

	var info strings.Builder
	for _, c := range result.Conflicts {
		fmt.Fprintf(&info, "0 %s\t%s\n", ZeroID, c.Path)
		for stage, f := range []TreeFile{c.Base, c.Ours, c.Theirs} {
			if f.Exists() {
				fmt.Fprintf(&info, "%o %s %d\t%s\n", uint32(f.Mode), f.ID, stage+1, c.Path)
			}
		}
	}
	if _, err := w.runner.RunWithInput(ctx, info.String(), "update-index", "--index-info"); err != nil {
		return fmt.Errorf("failed to record conflict stages: %w", err)
	}
	return nil
}

// Conflicts lists paths with unmerged index entries
func (w *CLIWorktree) Conflicts(ctx context.Context) ([]string, error) {
	out, err := w.runner.RunRaw(ctx, "ls-files", "-u", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to list unmerged files: %w", err)
	}
	seen := make(map[string]bool)
	var paths []string
	for _, rec := range strings.Split(out, "\x00") {
		_, path, ok := strings.Cut(rec, "\t")
		if !ok || seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// StageAll stages all changes in the work tree
func (w *CLIWorktree) StageAll(ctx context.Context) error {
	if _, err := w.runner.Run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// WriteTree writes the index as a tree
func (w *CLIWorktree) WriteTree(ctx context.Context) (string, error) {
	tree, err := w.runner.Run(ctx, "write-tree")
	if err != nil {
		return "", fmt.Errorf("failed to write index tree: %w", err)
	}
	return tree, nil
}

// IsClean reports whether tracked files and the index match HEAD
func (w *CLIWorktree) IsClean(ctx context.Context) (bool, error) {
	out, err := w.runner.Run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	return out == "", nil
}

// MemoryWorktree is a working tree held as a single tree id, for repositories
// without a checkout. Resolve and Edit stand in for a user editing files.
type MemoryWorktree struct {
	mu        sync.Mutex
	branch    string
	tree      string
	checkout  string
	conflicts []string
}

var _ Worktree = (*MemoryWorktree)(nil)

// NewMemoryWorktree returns a worktree with branch checked out at tree
func NewMemoryWorktree(branch, tree string) *MemoryWorktree {
	return &MemoryWorktree{branch: branch, tree: tree, checkout: tree}
}

// CurrentBranch returns the checked out branch
func (w *MemoryWorktree) CurrentBranch(_ context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.branch, nil
}

// SetBranch switches the checked out branch without touching files
func (w *MemoryWorktree) SetBranch(branch string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.branch = branch
}

// Checkout moves to tree "to". A non-hard checkout fails if the worktree is not at "from".
func (w *MemoryWorktree) Checkout(_ context.Context, from, to string, hard bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !hard && (w.tree != from || len(w.conflicts) > 0) {
		return fmt.Errorf("work tree is at %s, not %s", w.tree, from)
	}
	w.tree = to
	w.checkout = to
	w.conflicts = nil
	return nil
}

// MaterializeConflicts moves to the conflicted tree and records the conflicted paths
func (w *MemoryWorktree) MaterializeConflicts(_ context.Context, from string, result *MergeResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tree != from {
		return fmt.Errorf("work tree is at %s, not %s", w.tree, from)
	}
	w.tree = result.Tree
	w.checkout = result.Tree
	w.conflicts = result.ConflictPaths()
	return nil
}

// Conflicts lists paths not yet resolved
func (w *MemoryWorktree) Conflicts(_ context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.conflicts...), nil
}

// StageAll marks all conflicts resolved
func (w *MemoryWorktree) StageAll(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conflicts = nil
	return nil
}

// WriteTree returns the current tree, failing while conflicts remain
func (w *MemoryWorktree) WriteTree(_ context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.conflicts) > 0 {
		return "", fmt.Errorf("unmerged paths: %s", strings.Join(w.conflicts, ", "))
	}
	return w.tree, nil
}

// IsClean reports whether the tree is unchanged since the last checkout
func (w *MemoryWorktree) IsClean(_ context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree == w.checkout && len(w.conflicts) == 0, nil
}

// Tree returns the current tree id
func (w *MemoryWorktree) Tree() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree
}

// Edit replaces the working tree content, leaving conflicts in place
func (w *MemoryWorktree) Edit(tree string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tree = tree
}

// Resolve replaces the working tree content and stages it
func (w *MemoryWorktree) Resolve(tree string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tree = tree
	w.conflicts = nil
}
