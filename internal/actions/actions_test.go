package actions_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/actions"
	"stackit.dev/pstack/internal/config"
	"stackit.dev/pstack/internal/engine"
	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
	"stackit.dev/pstack/testhelpers"
	"stackit.dev/pstack/testhelpers/scenario"
)

var baseFiles = map[string]string{"a.txt": "a\n", "b.txt": "b\n"}

func newScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	return scenario.NewMemoryScenario(t, baseFiles).Init()
}

// threePatches adds p1, p2 and p3, each creating its own file
func threePatches(t *testing.T) *scenario.Scenario {
	t.Helper()
	return newScenario(t).
		WithPatch("p1", map[string]string{"c.txt": "c\n"}).
		WithPatch("p2", map[string]string{"d.txt": "d\n"}).
		WithPatch("p3", map[string]string{"e.txt": "e\n"})
}

// conflicting leaves p1 (a -> 1), p2 (a 1 -> 2) and p3 (new f.txt) unapplied.
// p2 conflicts when pushed without p1.
func conflicting(t *testing.T) *scenario.Scenario {
	t.Helper()
	s := newScenario(t).
		WithPatch("p1", map[string]string{"a.txt": "1\n"}).
		WithPatch("p2", map[string]string{"a.txt": "2\n"}).
		WithPatch("p3", map[string]string{"f.txt": "f\n"})
	return s.Run("pop", func(ctx context.Context, tx *engine.Transaction) error {
		_, err := tx.PopAll(ctx)
		return err
	})
}

func TestInitAction(t *testing.T) {
	s := scenario.NewMemoryScenario(t, baseFiles)

	err := actions.SeriesAction(s.Context, actions.SeriesOptions{})
	require.ErrorIs(t, err, pstackerrors.ErrNotInitialized)

	require.NoError(t, actions.InitAction(s.Context, actions.InitOptions{}))
	s.ExpectOutput("Initialized a stack on main")
	require.Equal(t, s.Head(), s.Stack().Base)

	s.ResetOutput()
	require.NoError(t, actions.InitAction(s.Context, actions.InitOptions{Branch: "main"}))
	s.ExpectOutput("main already has a stack")
}

func TestPushAndPopActions(t *testing.T) {
	t.Run("pop all then push one at a time", func(t *testing.T) {
		s := threePatches(t)
		base := s.Stack().Base

		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{All: true}))
		s.ExpectApplied().ExpectUnapplied("p1", "p2", "p3").ExpectOutput("Popped p1, p2, p3.")
		require.Equal(t, base, s.Head())

		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{}))
		s.ExpectApplied("p1").ExpectOutput("Pushed p1.")

		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{Number: 5}))
		s.ExpectApplied("p1", "p2", "p3").ExpectUnapplied()

		s.ResetOutput()
		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{All: true}))
		s.ExpectOutput("No patches to push.")
	})

	t.Run("nothing to move adds no log entry", func(t *testing.T) {
		s := newScenario(t)
		logLen := func() int {
			entries, err := s.Engine().Log(t.Context(), "main", 0)
			require.NoError(t, err)
			return len(entries)
		}
		before := logLen()

		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{All: true}))
		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{}))
		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{All: true}))
		s.ExpectOutput("No patches to push.").ExpectOutput("No patches to pop.")
		require.Equal(t, before, logLen())

		has, err := s.Engine().HasPending("main")
		require.NoError(t, err)
		require.False(t, has)
		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{}))
	})

	t.Run("pop a named patch pops everything above it", func(t *testing.T) {
		s := threePatches(t)
		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{Patch: "p2"}))
		s.ExpectApplied("p1").ExpectUnapplied("p2", "p3").ExpectOutput("Popped p2, p3.")
		require.NotContains(t, s.HeadFiles(), "d.txt")
	})

	t.Run("push named patches out of order", func(t *testing.T) {
		s := threePatches(t)
		require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{Number: 2}))
		require.NoError(t, actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p3"}}))
		s.ExpectApplied("p1", "p3").ExpectUnapplied("p2")
		require.Equal(t, "e\n", s.HeadFiles()["e.txt"])
	})

	t.Run("pushing an applied patch fails without changing anything", func(t *testing.T) {
		s := threePatches(t)
		head := s.Head()
		err := actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p1"}})
		require.ErrorIs(t, err, pstackerrors.ErrDuplicateName)
		require.Equal(t, head, s.Head())
		s.ExpectApplied("p1", "p2", "p3")
	})
}

func TestGotoAction(t *testing.T) {
	s := threePatches(t)

	require.NoError(t, actions.GotoAction(s.Context, actions.GotoOptions{Patch: "p1"}))
	s.ExpectApplied("p1").ExpectUnapplied("p2", "p3").ExpectOutput("Now at p1.")

	require.NoError(t, actions.GotoAction(s.Context, actions.GotoOptions{Patch: "p3"}))
	s.ExpectApplied("p1", "p2", "p3")

	err := actions.GotoAction(s.Context, actions.GotoOptions{Patch: "nope"})
	require.ErrorIs(t, err, pstackerrors.ErrNoSuchPatch)
}

func TestFloatAndSinkActions(t *testing.T) {
	s := threePatches(t)

	require.NoError(t, actions.FloatAction(s.Context, actions.FloatOptions{Patches: []string{"p1"}}))
	s.ExpectApplied("p2", "p3", "p1")

	require.NoError(t, actions.SinkAction(s.Context, actions.SinkOptions{}))
	s.ExpectApplied("p1", "p2", "p3").ExpectOutput("Sank p1 to the bottom.")

	require.NoError(t, actions.SinkAction(s.Context, actions.SinkOptions{Patches: []string{"p3"}, To: "p2"}))
	s.ExpectApplied("p1", "p3", "p2").ExpectOutput("Sank p3 below p2.")

	require.Error(t, actions.FloatAction(s.Context, actions.FloatOptions{}))
	require.Equal(t, map[string]string{
		"a.txt": "a\n", "b.txt": "b\n", "c.txt": "c\n", "d.txt": "d\n", "e.txt": "e\n",
	}, s.HeadFiles())
}

func TestPatchEditingActions(t *testing.T) {
	t.Run("new derives a name from the message", func(t *testing.T) {
		s := newScenario(t)
		require.NoError(t, actions.NewAction(s.Context, actions.NewOptions{Message: "Fix the parser\n\nDetails"}))
		s.ExpectApplied("fix-the-parser").ExpectOutput("Created fix-the-parser.")

		require.Error(t, actions.NewAction(s.Context, actions.NewOptions{}))
		err := actions.NewAction(s.Context, actions.NewOptions{Name: "fix-the-parser", Message: "again"})
		require.ErrorIs(t, err, pstackerrors.ErrDuplicateName)
	})

	t.Run("refresh records the working tree in the top patch", func(t *testing.T) {
		s := newScenario(t)
		require.NoError(t, actions.NewAction(s.Context, actions.NewOptions{Name: "feature", Message: "Add feature"}))
		edited := s.Memory.PatchCommit(s.Head(), "edit", map[string]string{"a.txt": "edited\n"})
		tree, err := s.Engine().Store().CommitTree(edited)
		require.NoError(t, err)
		s.Memory.Worktree.Edit(tree)

		require.NoError(t, actions.RefreshAction(s.Context, actions.RefreshOptions{}))
		s.ExpectOutput("Refreshed feature.")
		require.Equal(t, "edited\n", s.HeadFiles()["a.txt"])
		c, err := s.Engine().Store().ReadCommit(s.Head())
		require.NoError(t, err)
		require.Equal(t, "Add feature\n", c.Message)
	})

	t.Run("edit and rename", func(t *testing.T) {
		s := threePatches(t)
		require.NoError(t, actions.EditAction(s.Context, actions.EditOptions{Patch: "p1", Message: "First patch"}))
		c, err := s.Engine().Store().ReadCommit(s.Stack().Commit("p1"))
		require.NoError(t, err)
		require.Equal(t, "First patch\n", c.Message)
		s.ExpectApplied("p1", "p2", "p3")

		require.NoError(t, actions.RenameAction(s.Context, actions.RenameOptions{NewName: "top"}))
		s.ExpectApplied("p1", "p2", "top").ExpectOutput("Renamed p3 to top.")

		err = actions.RenameAction(s.Context, actions.RenameOptions{OldName: "p1", NewName: "p2"})
		require.ErrorIs(t, err, pstackerrors.ErrDuplicateName)
		err = actions.RenameAction(s.Context, actions.RenameOptions{OldName: "p1", NewName: "bad name"})
		require.ErrorIs(t, err, pstackerrors.ErrInvalidPatchName)
	})
}

func TestHideAndUnhideActions(t *testing.T) {
	s := threePatches(t)

	require.NoError(t, actions.HideAction(s.Context, actions.HideOptions{Patches: []string{"p2"}}))
	s.ExpectApplied("p1", "p3").ExpectHidden("p2")

	err := actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p2"}})
	require.ErrorIs(t, err, pstackerrors.ErrNoSuchPatch)

	require.NoError(t, actions.UnhideAction(s.Context, actions.HideOptions{Patches: []string{"p2"}}))
	s.ExpectHidden().ExpectUnapplied("p2")
}

func TestSquashAction(t *testing.T) {
	s := threePatches(t)

	require.NoError(t, actions.SquashAction(s.Context, actions.SquashOptions{
		Patches: []string{"p1", "p2"},
		Name:    "both",
	}))
	s.ExpectApplied("both", "p3").ExpectOutput("Squashed 2 patches into both.")
	require.NotContains(t, s.Output.String(), "patchs")
	c, err := s.Engine().Store().ReadCommit(s.Stack().Commit("both"))
	require.NoError(t, err)
	require.Equal(t, "p1\n\np2\n", c.Message)
	require.Equal(t, "d\n", s.HeadFiles()["d.txt"])

	require.Error(t, actions.SquashAction(s.Context, actions.SquashOptions{Patches: []string{"p3"}}))
}

func TestUncommitAndCommitActions(t *testing.T) {
	s := scenario.NewMemoryScenario(t, baseFiles)
	s.Memory.CommitOnBranch("Add config file", map[string]string{"config.txt": "x\n"})
	s.Init()

	require.NoError(t, actions.UncommitAction(s.Context, actions.UncommitOptions{}))
	s.ExpectApplied("add-config-file").ExpectOutput("Uncommitted add-config-file.")

	// The next commit down is the root commit
	require.Error(t, actions.UncommitAction(s.Context, actions.UncommitOptions{}))

	head := s.Head()
	require.NoError(t, actions.CommitAction(s.Context, actions.CommitOptions{All: true}))
	s.ExpectApplied().ExpectOutput("Committed add-config-file.")
	require.Equal(t, head, s.Stack().Base)
	require.Equal(t, head, s.Head())
}

func TestRebaseAction(t *testing.T) {
	s := newScenario(t).WithPatch("p1", map[string]string{"c.txt": "c\n"})
	base := s.Stack().Base
	upstream := s.Memory.PatchCommit(base, "upstream work", map[string]string{"d.txt": "d\n"})
	require.NoError(t, s.Memory.Store.CompareAndSwapRef(t.Context(), git.BranchRef("upstream"), "", upstream))

	require.NoError(t, actions.RebaseAction(s.Context, actions.RebaseOptions{Target: "upstream"}))
	st := s.Stack()
	require.Equal(t, upstream, st.Base)
	require.Equal(t, []string{"p1"}, st.Applied)
	files := s.HeadFiles()
	require.Equal(t, "c\n", files["c.txt"])
	require.Equal(t, "d\n", files["d.txt"])

	require.Error(t, actions.RebaseAction(s.Context, actions.RebaseOptions{Target: "no-such-branch"}))
}

func TestPickAndCleanActions(t *testing.T) {
	s := newScenario(t).
		WithPatch("p1", map[string]string{"c.txt": "c\n"}).
		WithPatch("nothing", nil)
	fix := s.Memory.PatchCommit(s.Stack().Base, "Fix the parser", map[string]string{"d.txt": "d\n"})
	require.NoError(t, s.Memory.Store.CompareAndSwapRef(t.Context(), git.BranchRef("upstream"), "", fix))

	require.NoError(t, actions.PickAction(s.Context, actions.PickOptions{Revision: "upstream"}))
	s.ExpectApplied("p1", "nothing", "fix-the-parser").ExpectOutput("as fix-the-parser.")
	require.Equal(t, "d\n", s.HeadFiles()["d.txt"])

	require.NoError(t, actions.PickAction(s.Context, actions.PickOptions{Revision: "upstream", Name: "again", Unapplied: true}))
	s.ExpectUnapplied("again")

	s.ResetOutput()
	require.NoError(t, actions.CleanAction(s.Context, actions.CleanOptions{}))
	s.ExpectApplied("p1", "fix-the-parser").ExpectUnapplied("again").
		ExpectOutput("Deleted 1 empty patch: nothing.")
	require.Equal(t, "c\n", s.HeadFiles()["c.txt"])

	entries, err := s.Engine().Log(t.Context(), "main", 0)
	require.NoError(t, err)
	s.ResetOutput()
	require.NoError(t, actions.CleanAction(s.Context, actions.CleanOptions{Applied: true}))
	s.ExpectOutput("No empty patches.")
	after, err := s.Engine().Log(t.Context(), "main", 0)
	require.NoError(t, err)
	require.Len(t, after, len(entries))

	require.Error(t, actions.PickAction(s.Context, actions.PickOptions{Revision: "no-such-commit"}))
}

func TestConflictActions(t *testing.T) {
	t.Run("hold keeps the operation open until continue", func(t *testing.T) {
		s := conflicting(t)
		head := s.Head()

		err := actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p3", "p2"}})
		require.ErrorIs(t, err, pstackerrors.ErrConflictsPending)
		s.ExpectOutput("Hit conflicts pushing p2 onto main.").
			ExpectOutput("a.txt").
			ExpectOutput("pstack continue")

		// Nothing is committed while the conflict is pending
		require.Equal(t, head, s.Head())
		s.ExpectApplied().ExpectUnapplied("p1", "p2", "p3")
		pending, err := s.Engine().HasPending("main")
		require.NoError(t, err)
		require.True(t, pending)

		s.ResetOutput()
		err = actions.PopAction(s.Context, actions.PopOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrConflictsPending)
		s.ExpectOutput("stopped at a conflict")

		// Continuing with the markers still unresolved is refused
		err = actions.ContinueAction(s.Context, actions.ContinueOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrConflictsPending)

		resolved, err := s.Engine().Store().CommitTree(
			s.Memory.PatchCommit(head, "resolution", map[string]string{"a.txt": "resolved\n", "f.txt": "f\n"}))
		require.NoError(t, err)
		s.Memory.Worktree.Resolve(resolved)

		s.ResetOutput()
		require.NoError(t, actions.ContinueAction(s.Context, actions.ContinueOptions{}))
		s.ExpectOutput("Recorded the resolution of p2")
		s.ExpectApplied("p3", "p2").ExpectUnapplied("p1")
		require.Equal(t, "resolved\n", s.HeadFiles()["a.txt"])

		entries, err := s.Engine().Log(t.Context(), "main", 1)
		require.NoError(t, err)
		require.Equal(t, "push", entries[0].Label)

		err = actions.ContinueAction(s.Context, actions.ContinueOptions{})
		require.ErrorIs(t, err, pstackerrors.ErrNoPendingOperation)
	})

	t.Run("abort leaves the stack as it was", func(t *testing.T) {
		s := conflicting(t)
		head := s.Head()
		require.Error(t, actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p2"}}))

		require.NoError(t, actions.AbortAction(s.Context, actions.AbortOptions{Hard: true}))
		s.ExpectOutput(`Aborted "push".`)
		require.Equal(t, head, s.Head())
		s.ExpectApplied().ExpectUnapplied("p1", "p2", "p3")
		clean, err := s.Memory.Worktree.IsClean(t.Context())
		require.NoError(t, err)
		require.True(t, clean)

		s.ResetOutput()
		require.NoError(t, actions.AbortAction(s.Context, actions.AbortOptions{}))
		s.ExpectOutput("No operation to abort on main.")
	})

	t.Run("stop commits the patches that applied", func(t *testing.T) {
		s := conflicting(t)
		s.Context.Settings.ConflictPolicy = config.PolicyStop

		err := actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p3", "p2"}})
		require.ErrorIs(t, err, pstackerrors.ErrConflictsPending)
		s.ExpectOutput("p2 does not apply cleanly")
		s.ExpectApplied("p3").ExpectUnapplied("p2", "p1")
		require.Equal(t, "a\n", s.HeadFiles()["a.txt"])

		pending, err := s.Engine().HasPending("main")
		require.NoError(t, err)
		require.False(t, pending)
	})
}

func TestSeriesAction(t *testing.T) {
	s := threePatches(t)
	require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{}))
	require.NoError(t, actions.HideAction(s.Context, actions.HideOptions{Patches: []string{"p3"}}))

	s.ResetOutput()
	require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{}))
	require.Equal(t, "+ p1\n> p2\n", s.Output.String())

	s.ResetOutput()
	require.NoError(t, actions.SeriesAction(s.Context, actions.SeriesOptions{ShowDescription: true, ShowHidden: true}))
	require.Equal(t, "+ p1 # p1\n> p2 # p2\n! p3 # p3\n", s.Output.String())
}

func TestLogAndShowActions(t *testing.T) {
	s := newScenario(t).WithPatch("p1", map[string]string{"c.txt": "c\n"})

	require.NoError(t, actions.LogAction(s.Context, actions.LogOptions{}))
	s.ExpectOutput("new p1").ExpectOutput("initialise")

	s.ResetOutput()
	require.NoError(t, actions.ShowAction(s.Context, actions.ShowOptions{}))
	s.ExpectOutput("patch p1").
		ExpectOutput("diff --git a/c.txt b/c.txt").
		ExpectOutput("+c")

	err := actions.ShowAction(s.Context, actions.ShowOptions{Patch: "missing"})
	require.ErrorIs(t, err, pstackerrors.ErrNoSuchPatch)
}

func TestConfigAction(t *testing.T) {
	s := newScenario(t)
	require.NoError(t, actions.ConfigAction(s.Context, actions.ConfigOptions{}))
	s.ExpectOutput("push.conflictPolicy = hold")

	require.Error(t, actions.ConfigAction(s.Context, actions.ConfigOptions{ConflictPolicy: "stop"}))
}

func TestStacksAction(t *testing.T) {
	s := scenario.NewMemoryScenario(t, baseFiles)
	require.NoError(t, actions.StacksAction(s.Context))
	s.ExpectOutput("No stacks yet")

	s.Init().ResetOutput()
	require.NoError(t, actions.StacksAction(s.Context))
	s.ExpectOutput("* main")
}

func TestConflictResolutionOnDisk(t *testing.T) {
	s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).Init().
		WithPatch("p1", map[string]string{"README.md": "one\n"}).
		WithPatch("p2", map[string]string{"README.md": "two\n"})
	repo := s.Scene.Repo

	require.NoError(t, actions.PopAction(s.Context, actions.PopOptions{All: true}))
	testhelpers.ExpectFile(t, repo, "README.md", "base\n")

	err := actions.PushAction(s.Context, actions.PushOptions{Patches: []string{"p2"}})
	require.ErrorIs(t, err, pstackerrors.ErrConflictsPending)
	content, err := repo.ReadFile("README.md")
	require.NoError(t, err)
	require.Contains(t, content, "<<<<<<<")

	require.NoError(t, repo.WriteFile("README.md", "resolved\n"))
	require.NoError(t, actions.ResolvedAction(s.Context, actions.ContinueOptions{}))
	s.ExpectApplied("p2").ExpectUnapplied("p1")
	require.Equal(t, "resolved\n", s.HeadFiles()["README.md"])
	testhelpers.ExpectCleanStatus(t, repo)

	require.NoError(t, actions.ConfigAction(s.Context, actions.ConfigOptions{ConflictPolicy: "stop"}))
	cfg, err := config.GetRepoConfig(s.Context.Repo.GitDir())
	require.NoError(t, err)
	require.Equal(t, config.PolicyStop, cfg.Push.ConflictPolicy)
}

// blobFailingStore fails every blob write while fail is set
type blobFailingStore struct {
	git.Store
	fail bool
}

func (s *blobFailingStore) WriteBlob(content []byte) (string, error) {
	if s.fail {
		return "", errors.New("disk full")
	}
	return s.Store.WriteBlob(content)
}

func TestFailedCommitReleasesTheBranch(t *testing.T) {
	t.Setenv("PSTACK_NON_INTERACTIVE", "true")
	m := testhelpers.NewMemoryRepo(t, "main", baseFiles)
	store := &blobFailingStore{Store: m.Store}
	splog := output.NewSplogWithWriter(&bytes.Buffer{}, false)
	eng := engine.New(store, m.Worktree, engine.WithSplog(splog))
	ctx := runtime.NewContext(t.Context(), eng, splog)
	require.NoError(t, actions.InitAction(ctx, actions.InitOptions{}))
	head := m.Head()

	store.fail = true
	err := actions.NewAction(ctx, actions.NewOptions{Name: "p1"})
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, head, m.Head())

	store.fail = false
	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p1"}))
	st, err := eng.Load(t.Context(), "main")
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, st.Applied)
}
