package git

import "context"

// Store is the object and ref surface the stack engine is built on.
// Object writes are idempotent; refs only move through UpdateRefs.
type Store interface {
	// Objects
	ReadCommit(id string) (*Commit, error)
	WriteCommit(data CommitData) (string, error)
	CommitTree(id string) (string, error)
	WriteBlob(content []byte) (string, error)
	ReadBlob(id string) ([]byte, error)
	TreeFiles(tree string) (map[string]TreeFile, error)
	BuildTree(files map[string]TreeFile) (string, error)

	// Refs
	ReadRef(name string) (string, error)
	UpdateRefs(ctx context.Context, message string, updates ...RefUpdate) error
	CompareAndSwapRef(ctx context.Context, name, old, new string) error
	ListRefs(prefix string) (map[string]string, error)
	ResolveRevision(rev string) (string, error)

	// Merging and diffs
	Merge(ctx context.Context, base, ours, theirs string) (*MergeResult, error)
	DiffTrees(from, to string) ([]FileChange, error)
	UnifiedDiff(from, to string) (string, error)
}

// Worktree is the working tree and index of a checkout. The engine only asks it
// to move between trees, record conflict stages and report whether conflicts remain.
type Worktree interface {
	// CurrentBranch returns the checked out branch, or "" when HEAD is detached
	CurrentBranch(ctx context.Context) (string, error)
	// Checkout moves the index and files from tree "from" to tree "to".
	// With hard set, local changes are discarded.
	Checkout(ctx context.Context, from, to string, hard bool) error
	// MaterializeConflicts writes result.Tree into the working tree and records
	// base/ours/theirs index stages for every conflicted path.
	MaterializeConflicts(ctx context.Context, from string, result *MergeResult) error
	// Conflicts lists paths that still have unmerged index entries
	Conflicts(ctx context.Context) ([]string, error)
	// StageAll stages every change, marking conflicts resolved
	StageAll(ctx context.Context) error
	// WriteTree writes the index as a tree
	WriteTree(ctx context.Context) (string, error)
	// IsClean reports whether the index and tracked files match the last checkout
	IsClean(ctx context.Context) (bool, error)
}
