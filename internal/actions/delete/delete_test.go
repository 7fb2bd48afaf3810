package delete_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/actions/delete"
	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/testhelpers/scenario"
)

func TestDeleteAction(t *testing.T) {
	newScenario := func(t *testing.T) *scenario.Scenario {
		return scenario.NewMemoryScenario(t, map[string]string{"a.txt": "a\n"}).Init().
			WithPatch("p1", map[string]string{"b.txt": "b\n"}).
			WithPatch("p2", map[string]string{"c.txt": "c\n"}).
			WithPatch("p3", map[string]string{"d.txt": "d\n"})
	}

	t.Run("deletes an applied patch and re-pushes the ones above", func(t *testing.T) {
		s := newScenario(t)
		require.NoError(t, delete.Action(s.Context, delete.Options{Patches: []string{"p2"}, Force: true}))
		s.ExpectApplied("p1", "p3").ExpectOutput("Deleted p2.")
		files := s.HeadFiles()
		require.NotContains(t, files, "c.txt")
		require.Equal(t, "d\n", files["d.txt"])
		require.False(t, s.Stack().Exists("p2"))
	})

	t.Run("refuses without confirmation when prompts are disabled", func(t *testing.T) {
		s := newScenario(t)
		err := delete.Action(s.Context, delete.Options{Patches: []string{"p1"}})
		require.ErrorContains(t, err, "--force")
		s.ExpectApplied("p1", "p2", "p3")
	})

	t.Run("unknown patch", func(t *testing.T) {
		s := newScenario(t)
		err := delete.Action(s.Context, delete.Options{Patches: []string{"nope"}, Force: true})
		require.ErrorIs(t, err, pstackerrors.ErrNoSuchPatch)
	})

	t.Run("nothing to delete", func(t *testing.T) {
		s := newScenario(t)
		require.Error(t, delete.Action(s.Context, delete.Options{Force: true}))
	})
}
