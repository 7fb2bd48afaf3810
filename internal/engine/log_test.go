package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/engine"
	pstackerrors "stackit.dev/pstack/internal/errors"
)

func TestLog(t *testing.T) {
	t.Run("every committed transaction adds one entry", func(t *testing.T) {
		f := newFixture(t)
		f.threePatches()
		require.NoError(t, f.run("pop p3", func(ctx context.Context, tx *engine.Transaction) error {
			return tx.Pop(ctx, "p3")
		}))

		entries, err := f.e.Log(t.Context(), "main", 0)
		require.NoError(t, err)
		labels := make([]string, 0, len(entries))
		for _, entry := range entries {
			labels = append(labels, entry.Label)
		}
		require.Equal(t, []string{"pop p3", "new p3", "new p2", "new p1", "initialise"}, labels)
		for i := 0; i < len(entries)-1; i++ {
			require.Equal(t, entries[i+1].ID, entries[i].Prev)
		}
	})

	t.Run("aborted and failed transactions add nothing", func(t *testing.T) {
		f := newFixture(t)
		f.threePatches()
		before := f.logLen()

		tx, err := f.e.Begin(t.Context(), "main", "pop")
		require.NoError(t, err)
		require.NoError(t, tx.Pop(t.Context(), "p1"))
		require.NoError(t, tx.Abort(t.Context()))

		err = f.run("push", func(ctx context.Context, tx *engine.Transaction) error {
			return tx.Push(ctx, "p1")
		})
		require.Error(t, err)
		require.Equal(t, before, f.logLen())
	})

	t.Run("limit", func(t *testing.T) {
		f := newFixture(t)
		f.threePatches()
		entries, err := f.e.Log(t.Context(), "main", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
	})
}

func TestUndoRedo(t *testing.T) {
	t.Run("undo restores the branch and stack exactly", func(t *testing.T) {
		f := newFixture(t)
		f.threePatches()
		head := f.m.Head()
		blob := f.stateBlob()

		require.NoError(t, f.run("pop", func(ctx context.Context, tx *engine.Transaction) error {
			_, err := tx.PopN(ctx, 2)
			return err
		}))
		popped := f.m.Head()
		poppedBlob := f.stateBlob()
		require.NotEqual(t, head, popped)

		_, err := f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, head, f.m.Head())
		require.Equal(t, blob, f.stateBlob())
		f.requireWorktreeAtHead()

		_, err = f.e.Redo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, popped, f.m.Head())
		require.Equal(t, poppedBlob, f.stateBlob())
		f.requireWorktreeAtHead()

		entries, err := f.e.Log(t.Context(), "main", 2)
		require.NoError(t, err)
		require.Equal(t, "redo 1", entries[0].Label)
		require.Equal(t, "undo 1", entries[1].Label)
	})

	t.Run("repeated undo keeps walking back", func(t *testing.T) {
		f := newFixture(t)
		f.addPatch("p1", map[string]string{"c.txt": "c\n"})
		afterP1 := f.stateBlob()
		f.addPatch("p2", map[string]string{"d.txt": "d\n"})

		_, err := f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, afterP1, f.stateBlob())

		s, err := f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Empty(t, s.All())
		require.Equal(t, s.Base, f.m.Head())

		_, err = f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrNothingToUndo)
	})

	t.Run("undo several steps at once", func(t *testing.T) {
		f := newFixture(t)
		initial := f.stateBlob()
		f.threePatches()

		_, err := f.e.Undo(t.Context(), "main", 3, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, initial, f.stateBlob())

		_, err = f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrNothingToUndo)
	})

	t.Run("redo needs a preceding undo", func(t *testing.T) {
		f := newFixture(t)
		f.threePatches()
		_, err := f.e.Redo(t.Context(), "main", 1, engine.UndoOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrNothingToRedo)

		_, err = f.e.Undo(t.Context(), "main", 2, engine.UndoOptions{})
		require.NoError(t, err)
		_, err = f.e.Redo(t.Context(), "main", 2, engine.UndoOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrNothingToRedo)
		_, err = f.e.Redo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, []string{"p1", "p2", "p3"}, f.load().Applied)

		// A new operation ends the run of undos
		require.NoError(t, f.run("pop", func(ctx context.Context, tx *engine.Transaction) error {
			return tx.Pop(ctx, "p3")
		}))
		_, err = f.e.Redo(t.Context(), "main", 1, engine.UndoOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrNothingToRedo)
	})

	t.Run("undo after two undos and a redo", func(t *testing.T) {
		f := newFixture(t)
		f.addPatch("p1", nil)
		f.addPatch("p2", nil)
		f.addPatch("p3", nil)

		for range 2 {
			_, err := f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
			require.NoError(t, err)
		}
		require.Equal(t, []string{"p1"}, f.load().Applied)
		_, err := f.e.Redo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, []string{"p1", "p2"}, f.load().Applied)
		_, err = f.e.Redo(t.Context(), "main", 1, engine.UndoOptions{})
		require.NoError(t, err)
		require.Equal(t, []string{"p1", "p2", "p3"}, f.load().Applied)
	})

	t.Run("undo is refused while a conflict is pending", func(t *testing.T) {
		f := newFixture(t)
		f.conflictingPatches()
		tx, err := f.e.Begin(t.Context(), "main", "push")
		require.NoError(t, err)
		require.Error(t, tx.Push(t.Context(), "p3"))

		_, err = f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrConflictsPending)
	})

	t.Run("hard undo discards working tree changes", func(t *testing.T) {
		f := newFixture(t)
		f.addPatch("p1", map[string]string{"c.txt": "c\n"})
		f.m.Worktree.Edit(f.treeOn(f.m.Head(), map[string]string{"c.txt": "local edit\n"}))

		_, err := f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{})
		require.Error(t, err)

		_, err = f.e.Undo(t.Context(), "main", 1, engine.UndoOptions{Hard: true})
		require.NoError(t, err)
		require.Empty(t, f.load().Applied)
		f.requireWorktreeAtHead()
	})
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.addPatch("p1", map[string]string{"c.txt": "c\n"})
	entries, err := f.e.Log(t.Context(), "main", 1)
	require.NoError(t, err)
	target := entries[0].ID
	blob := f.stateBlob()
	f.addPatch("p2", nil)
	f.addPatch("p3", nil)

	_, err = f.e.Reset(t.Context(), "main", target, engine.UndoOptions{})
	require.NoError(t, err)
	require.Equal(t, blob, f.stateBlob())
	require.Equal(t, []string{"p1"}, f.load().Applied)

	entries, err = f.e.Log(t.Context(), "main", 1)
	require.NoError(t, err)
	require.Contains(t, entries[0].Label, "reset ")

	state, err := f.e.State(t.Context(), target)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, state.Applied)
}
