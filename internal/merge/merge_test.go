package merge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/merge"
	"stackit.dev/pstack/testhelpers"
)

func TestApply(t *testing.T) {
	setup := func(t *testing.T) (*testhelpers.MemoryRepo, *merge.Layer) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"a": "a\n", "b": "b\n"})
		return m, merge.NewLayer(m.Store, m.Worktree)
	}

	t.Run("patch on its own parent is taken verbatim", func(t *testing.T) {
		m, layer := setup(t)
		base := m.Head()
		patch := m.PatchCommit(base, "p", map[string]string{"a": "A\n"})
		c, err := m.Store.ReadCommit(patch)
		require.NoError(t, err)

		baseTree, err := m.Store.CommitTree(base)
		require.NoError(t, err)
		result, err := layer.Apply(t.Context(), c, baseTree, "")
		require.NoError(t, err)
		require.Equal(t, merge.Clean, result.Outcome)
		require.Equal(t, c.Tree, result.Tree)
	})

	t.Run("empty patch leaves the target unchanged", func(t *testing.T) {
		m, layer := setup(t)
		base := m.Head()
		empty := m.PatchCommit(base, "empty", nil)
		c, err := m.Store.ReadCommit(empty)
		require.NoError(t, err)

		onto := m.Tree(map[string]string{"other": "x\n"})
		result, err := layer.Apply(t.Context(), c, onto, "")
		require.NoError(t, err)
		require.Equal(t, merge.Clean, result.Outcome)
		require.Equal(t, onto, result.Tree)
	})

	t.Run("independent change merges onto a moved base", func(t *testing.T) {
		m, layer := setup(t)
		base := m.Head()
		patch := m.PatchCommit(base, "p", map[string]string{"a": "A\n"})
		c, err := m.Store.ReadCommit(patch)
		require.NoError(t, err)

		onto := m.Tree(map[string]string{"a": "a\n", "b": "B\n"})
		result, err := layer.Apply(t.Context(), c, onto, "")
		require.NoError(t, err)
		require.Equal(t, merge.Clean, result.Outcome)
		require.Equal(t, map[string]string{"a": "A\n", "b": "B\n"}, m.Files(result.Tree))
	})

	t.Run("conflicts are materialized only when asked", func(t *testing.T) {
		m, layer := setup(t)
		base := m.Head()
		patch := m.PatchCommit(base, "p", map[string]string{"a": "patch\n"})
		c, err := m.Store.ReadCommit(patch)
		require.NoError(t, err)
		onto := m.Tree(map[string]string{"a": "other\n", "b": "b\n"})

		result, err := layer.Apply(t.Context(), c, onto, "")
		require.NoError(t, err)
		require.Equal(t, merge.Conflicted, result.Outcome)
		require.Equal(t, []string{"a"}, result.Paths())
		conflicts, err := m.Worktree.Conflicts(t.Context())
		require.NoError(t, err)
		require.Empty(t, conflicts)

		result, err = layer.Apply(t.Context(), c, onto, m.Worktree.Tree())
		require.NoError(t, err)
		require.Equal(t, merge.Conflicted, result.Outcome)
		conflicts, err = m.Worktree.Conflicts(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, conflicts)
		require.Equal(t, result.Tree, m.Worktree.Tree())
	})

	t.Run("revert returns the parent tree", func(t *testing.T) {
		m, layer := setup(t)
		base := m.Head()
		patch := m.PatchCommit(base, "p", map[string]string{"a": "A\n"})
		c, err := m.Store.ReadCommit(patch)
		require.NoError(t, err)

		tree, err := layer.Revert(c)
		require.NoError(t, err)
		baseTree, err := m.Store.CommitTree(base)
		require.NoError(t, err)
		require.Equal(t, baseTree, tree)
	})
}
