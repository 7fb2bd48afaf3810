package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("PSTACK_CONFIG", "")

	t.Run("defaults when no config file exists", func(t *testing.T) {
		settings, err := LoadRepo(t.TempDir())
		require.NoError(t, err)
		require.Equal(t, PolicyHold, settings.ConflictPolicy)
		require.True(t, settings.UndoRequireClean)
		require.Equal(t, DefaultLogFile(), settings.LogFile)
	})

	t.Run("reads the repo config file", func(t *testing.T) {
		gitDir := t.TempDir()
		requireClean := false
		require.NoError(t, SaveRepoConfig(gitDir, &RepoConfig{
			Committer: &CommitterConfig{Name: "Stack Bot", Email: "bot@example.com"},
			Push:      &PushConfig{ConflictPolicy: PolicyStop},
			Undo:      &UndoConfig{RequireClean: &requireClean},
		}))

		settings, err := LoadRepo(gitDir)
		require.NoError(t, err)
		require.Equal(t, PolicyStop, settings.ConflictPolicy)
		require.False(t, settings.UndoRequireClean)
		require.Equal(t, "Stack Bot", settings.CommitterName)
		require.Equal(t, "bot@example.com", settings.CommitterEmail)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		gitDir := t.TempDir()
		require.NoError(t, SetConflictPolicy(gitDir, PolicyStop))
		t.Setenv("PSTACK_PUSH_CONFLICTPOLICY", "hold")
		t.Setenv("PSTACK_LOG_FILE", "/tmp/custom.log")

		settings, err := LoadRepo(gitDir)
		require.NoError(t, err)
		require.Equal(t, PolicyHold, settings.ConflictPolicy)
		require.Equal(t, "/tmp/custom.log", settings.LogFile)
	})

	t.Run("flags override everything", func(t *testing.T) {
		gitDir := t.TempDir()
		require.NoError(t, SetConflictPolicy(gitDir, PolicyHold))

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("conflict-policy", "", "")
		require.NoError(t, flags.Parse([]string{"--conflict-policy=stop"}))

		v := NewViper(gitDir)
		require.NoError(t, BindFlags(v, flags, map[string]string{
			"conflict-policy": KeyConflictPolicy,
			"missing":         KeyLogFile,
		}))
		settings, err := Load(v)
		require.NoError(t, err)
		require.Equal(t, PolicyStop, settings.ConflictPolicy)
	})

	t.Run("invalid policy is rejected", func(t *testing.T) {
		gitDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(gitDir, FileName), []byte(`{"push":{"conflictPolicy":"yolo"}}`), 0600))
		_, err := LoadRepo(gitDir)
		require.Error(t, err)
		require.Error(t, SetConflictPolicy(gitDir, "yolo"))
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Setenv("PSTACK_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
		_, err := LoadRepo(t.TempDir())
		require.Error(t, err)
	})
}
