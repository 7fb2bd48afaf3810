package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/git"
)

// TestSignature is the identity used for commits created by test helpers
var TestSignature = git.Signature{
	Name:  "Test User",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
}

// MemoryRepo is an in-memory repository with a single branch checked out
type MemoryRepo struct {
	t        *testing.T
	Store    *git.Repository
	Worktree *git.MemoryWorktree
	Branch   string
	tick     int
}

// NewMemoryRepo creates an in-memory repository whose branch holds one commit with files
func NewMemoryRepo(t *testing.T, branch string, files map[string]string) *MemoryRepo {
	t.Helper()
	store, err := git.NewMemoryRepository()
	require.NoError(t, err)

	m := &MemoryRepo{t: t, Store: store, Branch: branch}
	tree := m.Tree(files)
	commit := m.Commit(tree, "initial commit")
	require.NoError(t, store.CompareAndSwapRef(t.Context(), git.BranchRef(branch), "", commit))
	m.Worktree = git.NewMemoryWorktree(branch, tree)
	return m
}

// Tree writes files as a tree and returns its id
func (m *MemoryRepo) Tree(files map[string]string) string {
	m.t.Helper()
	entries := make(map[string]git.TreeFile, len(files))
	for path, content := range files {
		id, err := m.Store.WriteBlob([]byte(content))
		require.NoError(m.t, err)
		entries[path] = git.TreeFile{Mode: filemode.Regular, ID: id}
	}
	tree, err := m.Store.BuildTree(entries)
	require.NoError(m.t, err)
	return tree
}

// Commit writes a commit of tree with the given parents
func (m *MemoryRepo) Commit(tree, message string, parents ...string) string {
	m.t.Helper()
	m.tick++
	sig := TestSignature
	sig.When = sig.When.Add(time.Duration(m.tick) * time.Minute)
	id, err := m.Store.WriteCommit(git.CommitData{
		Tree:      tree,
		Parents:   parents,
		Message:   message + "\n",
		Author:    sig,
		Committer: sig,
	})
	require.NoError(m.t, err)
	return id
}

// CommitOnBranch commits files on top of the branch head and moves the branch
func (m *MemoryRepo) CommitOnBranch(message string, files map[string]string) string {
	m.t.Helper()
	head := m.Head()
	current, err := m.Store.CommitTree(head)
	require.NoError(m.t, err)
	merged, err := m.Store.TreeFiles(current)
	require.NoError(m.t, err)
	for path, content := range files {
		id, err := m.Store.WriteBlob([]byte(content))
		require.NoError(m.t, err)
		merged[path] = git.TreeFile{Mode: filemode.Regular, ID: id}
	}
	tree, err := m.Store.BuildTree(merged)
	require.NoError(m.t, err)
	commit := m.Commit(tree, message, head)
	require.NoError(m.t, m.Store.CompareAndSwapRef(m.t.Context(), git.BranchRef(m.Branch), head, commit))
	return commit
}

// Head returns the commit the branch points to
func (m *MemoryRepo) Head() string {
	m.t.Helper()
	head, err := m.Store.ReadRef(git.BranchRef(m.Branch))
	require.NoError(m.t, err)
	return head
}

// Files returns the content of every file in a tree
func (m *MemoryRepo) Files(tree string) map[string]string {
	m.t.Helper()
	entries, err := m.Store.TreeFiles(tree)
	require.NoError(m.t, err)
	out := make(map[string]string, len(entries))
	for path, f := range entries {
		data, err := m.Store.ReadBlob(f.ID)
		require.NoError(m.t, err)
		out[path] = string(data)
	}
	return out
}

// CommitFiles returns the content of every file in a commit
func (m *MemoryRepo) CommitFiles(commit string) map[string]string {
	m.t.Helper()
	tree, err := m.Store.CommitTree(commit)
	require.NoError(m.t, err)
	return m.Files(tree)
}

// PatchCommit creates a commit on top of parent that changes files relative to it
func (m *MemoryRepo) PatchCommit(parent, message string, files map[string]string) string {
	m.t.Helper()
	current, err := m.Store.CommitTree(parent)
	require.NoError(m.t, err)
	entries, err := m.Store.TreeFiles(current)
	require.NoError(m.t, err)
	for path, content := range files {
		if content == "" {
			delete(entries, path)
			continue
		}
		id, err := m.Store.WriteBlob([]byte(content))
		require.NoError(m.t, err)
		entries[path] = git.TreeFile{Mode: filemode.Regular, ID: id}
	}
	tree, err := m.Store.BuildTree(entries)
	require.NoError(m.t, err)
	return m.Commit(tree, message, parent)
}

// String describes the repository for test failure messages
func (m *MemoryRepo) String() string {
	return fmt.Sprintf("memory repo on %s", m.Branch)
}
