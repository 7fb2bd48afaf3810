package git_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/testhelpers"
)

func TestUpdateRefs(t *testing.T) {
	t.Run("missing ref reads as empty", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1"})
		id, err := m.Store.ReadRef("refs/pstack/stacks/main")
		require.NoError(t, err)
		require.Empty(t, id)
	})

	t.Run("compare and swap creates, moves and deletes", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1"})
		head := m.Head()
		next := m.PatchCommit(head, "next", map[string]string{"f": "2"})
		ref := "refs/pstack/test"

		require.NoError(t, m.Store.CompareAndSwapRef(t.Context(), ref, "", head))
		require.NoError(t, m.Store.CompareAndSwapRef(t.Context(), ref, head, next))
		got, err := m.Store.ReadRef(ref)
		require.NoError(t, err)
		require.Equal(t, next, got)

		require.NoError(t, m.Store.CompareAndSwapRef(t.Context(), ref, next, ""))
		got, err = m.Store.ReadRef(ref)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("stale expectation is a ref mismatch", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1"})
		head := m.Head()
		next := m.PatchCommit(head, "next", map[string]string{"f": "2"})

		err := m.Store.CompareAndSwapRef(t.Context(), git.BranchRef("main"), next, head)
		require.ErrorIs(t, err, pstackerrors.ErrRefMismatch)

		var mismatch *pstackerrors.RefMismatchError
		require.True(t, errors.As(err, &mismatch))
		require.Equal(t, "refs/heads/main", mismatch.Ref)
		require.Equal(t, head, mismatch.Actual)
	})

	t.Run("multi-ref update is all or nothing", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1"})
		head := m.Head()
		next := m.PatchCommit(head, "next", map[string]string{"f": "2"})

		err := m.Store.UpdateRefs(t.Context(), "test",
			git.RefUpdate{Name: git.BranchRef("main"), Old: head, New: next},
			git.RefUpdate{Name: "refs/pstack/stacks/main", Old: head, New: next},
		)
		require.ErrorIs(t, err, pstackerrors.ErrRefMismatch)
		require.Equal(t, head, m.Head())

		err = m.Store.UpdateRefs(t.Context(), "test",
			git.RefUpdate{Name: git.BranchRef("main"), Old: head, New: next},
			git.RefUpdate{Name: "refs/pstack/stacks/main", Old: "", New: next},
		)
		require.NoError(t, err)
		require.Equal(t, next, m.Head())
	})

	t.Run("list refs filters by prefix", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1"})
		head := m.Head()
		require.NoError(t, m.Store.CompareAndSwapRef(t.Context(), "refs/pstack/stacks/main", "", head))
		require.NoError(t, m.Store.CompareAndSwapRef(t.Context(), "refs/pstack/stacks/dev", "", head))

		refs, err := m.Store.ListRefs("refs/pstack/stacks/")
		require.NoError(t, err)
		require.Equal(t, []string{"refs/pstack/stacks/dev", "refs/pstack/stacks/main"}, git.SortedRefNames(refs))
	})

	t.Run("revisions resolve through go-git", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1"})
		first := m.Head()
		m.CommitOnBranch("second", map[string]string{"f": "2"})

		id, err := m.Store.ResolveRevision("main~1")
		require.NoError(t, err)
		require.Equal(t, first, id)
	})
}
