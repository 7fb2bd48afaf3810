// Package scenario provides a high-level test scenario that combines a
// repository, an Engine, and a runtime Context to provide a terse API for
// action tests.
package scenario

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
	"stackit.dev/pstack/internal/stack"
	"stackit.dev/pstack/testhelpers"
)

// Scenario is a repository with a stack engine and a runtime Context around it.
// Exactly one of Memory and Scene is set.
type Scenario struct {
	T       *testing.T
	Memory  *testhelpers.MemoryRepo
	Scene   *testhelpers.Scene
	Context *runtime.Context
	// Output collects everything the actions log
	Output *bytes.Buffer
	Branch string
}

// NewMemoryScenario creates a scenario on an in-memory repository whose main
// branch holds files. It needs no git binary.
func NewMemoryScenario(t *testing.T, files map[string]string) *Scenario {
	t.Helper()
	t.Setenv("PSTACK_NON_INTERACTIVE", "true")
	t.Setenv("NO_COLOR", "1")
	output.ConfigureColors()

	m := testhelpers.NewMemoryRepo(t, "main", files)
	out := &bytes.Buffer{}
	splog := output.NewSplogWithWriter(out, false)
	eng := engine.New(m.Store, m.Worktree,
		engine.WithSplog(splog),
		engine.WithCommitter("Stack Bot", "bot@example.com"),
	)
	return &Scenario{
		T:       t,
		Memory:  m,
		Context: runtime.NewContext(t.Context(), eng, splog),
		Output:  out,
		Branch:  "main",
	}
}

// NewScenario creates a scenario on a git repository on disk, set up by setup.
// The test is skipped without a git binary.
// NOTE: This function is NOT safe for parallel tests as it uses t.Setenv.
func NewScenario(t *testing.T, setup testhelpers.SceneSetup) *Scenario {
	t.Helper()
	t.Setenv("PSTACK_NON_INTERACTIVE", "true")
	t.Setenv("NO_COLOR", "1")
	output.ConfigureColors()
	scene := testhelpers.NewScene(t, setup)
	t.Setenv("PSTACK_LOG_FILE", filepath.Join(t.TempDir(), "pstack.log"))

	ctx, err := runtime.GetContext(t.Context(), scene.Dir, nil)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	ctx.Splog = output.NewSplogWithWriter(out, false)
	t.Cleanup(func() { _ = ctx.Close() })

	branch, err := scene.Repo.CurrentBranchName()
	require.NoError(t, err)
	return &Scenario{
		T:       t,
		Scene:   scene,
		Context: ctx,
		Output:  out,
		Branch:  branch,
	}
}

// Engine returns the scenario's engine
func (s *Scenario) Engine() *engine.Engine {
	return s.Context.Engine
}

// Init starts a stack on the scenario's branch
func (s *Scenario) Init() *Scenario {
	s.T.Helper()
	_, err := s.Engine().Init(s.T.Context(), s.Branch)
	require.NoError(s.T, err)
	return s
}

// WithPatch creates a patch on top of the stack that writes files.
// An empty content deletes the file in memory scenarios.
func (s *Scenario) WithPatch(name string, files map[string]string) *Scenario {
	s.T.Helper()
	tx, err := s.Engine().Begin(s.T.Context(), s.Branch, "new "+name)
	require.NoError(s.T, err)
	_, err = tx.New(s.T.Context(), name, name)
	require.NoError(s.T, err)

	if s.Memory != nil {
		tree, err := s.Engine().Store().CommitTree(s.Memory.PatchCommit(s.Head(), name, files))
		require.NoError(s.T, err)
		require.NoError(s.T, tx.Refresh(s.T.Context(), tree, ""))
	} else {
		for path, content := range files {
			require.NoError(s.T, s.Scene.Repo.WriteFile(path, content))
		}
		require.NoError(s.T, tx.RefreshFromWorktree(s.T.Context(), ""))
	}
	require.NoError(s.T, tx.Commit(s.T.Context()))
	return s
}

// Run runs fn in a committed transaction
func (s *Scenario) Run(label string, fn func(ctx context.Context, tx *engine.Transaction) error) *Scenario {
	s.T.Helper()
	tx, err := s.Engine().Begin(s.T.Context(), s.Branch, label)
	require.NoError(s.T, err)
	require.NoError(s.T, fn(s.T.Context(), tx))
	require.NoError(s.T, tx.Commit(s.T.Context()))
	return s
}

// Stack loads the committed stack
func (s *Scenario) Stack() *stack.Stack {
	s.T.Helper()
	st, err := s.Engine().Load(s.T.Context(), s.Branch)
	require.NoError(s.T, err)
	return st
}

// Head returns the commit the branch points to
func (s *Scenario) Head() string {
	s.T.Helper()
	head, err := s.Engine().Store().ReadRef(git.BranchRef(s.Branch))
	require.NoError(s.T, err)
	return head
}

// HeadFiles returns the content of every file at the branch head
func (s *Scenario) HeadFiles() map[string]string {
	s.T.Helper()
	if s.Memory != nil {
		return s.Memory.CommitFiles(s.Head())
	}
	store := s.Engine().Store()
	tree, err := store.CommitTree(s.Head())
	require.NoError(s.T, err)
	entries, err := store.TreeFiles(tree)
	require.NoError(s.T, err)
	files := make(map[string]string, len(entries))
	for path, f := range entries {
		data, err := store.ReadBlob(f.ID)
		require.NoError(s.T, err)
		files[path] = string(data)
	}
	return files
}

// ResetOutput discards the output collected so far
func (s *Scenario) ResetOutput() *Scenario {
	s.Output.Reset()
	return s
}

// ExpectApplied asserts the applied patches, bottom to top
func (s *Scenario) ExpectApplied(expected ...string) *Scenario {
	s.T.Helper()
	require.Equal(s.T, nonNil(expected), nonNil(s.Stack().Applied))
	return s
}

// ExpectUnapplied asserts the unapplied patches in order
func (s *Scenario) ExpectUnapplied(expected ...string) *Scenario {
	s.T.Helper()
	require.Equal(s.T, nonNil(expected), nonNil(s.Stack().Unapplied))
	return s
}

// ExpectHidden asserts the hidden patches in order
func (s *Scenario) ExpectHidden(expected ...string) *Scenario {
	s.T.Helper()
	require.Equal(s.T, nonNil(expected), nonNil(s.Stack().Hidden))
	return s
}

// ExpectOutput asserts that the collected output contains text
func (s *Scenario) ExpectOutput(text string) *Scenario {
	s.T.Helper()
	require.Contains(s.T, s.Output.String(), text)
	return s
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
