package testhelpers

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Scene is a temporary directory holding a git repository on disk
type Scene struct {
	Dir  string
	Repo *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a repository in a temporary directory and runs setup on it.
// The test is skipped when no git binary is available.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	// Resolve symlinks so paths compare equal to what git reports (macOS /var)
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}
	scene := &Scene{Dir: tmpDir, Repo: repo}

	// Keep the user's global config and pstack settings out of the test
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("PSTACK_CONFIG", "")

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// BasicSceneSetup creates a single commit on main
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CommitFile("README.md", "base\n", "initial commit")
}
