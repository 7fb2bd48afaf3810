package actions

import (
	"fmt"

	"stackit.dev/pstack/internal/config"
	"stackit.dev/pstack/internal/runtime"
)

// ConfigOptions contains options for the config command
type ConfigOptions struct {
	// ConflictPolicy, when set, is saved to the repository config
	ConflictPolicy string
}

// ConfigAction shows the resolved settings or updates the repository config
func ConfigAction(ctx *runtime.Context, opts ConfigOptions) error {
	if opts.ConflictPolicy != "" {
		if ctx.Repo == nil || ctx.Repo.InMemory() {
			return fmt.Errorf("config can only be saved in a repository on disk")
		}
		policy := config.ConflictPolicy(opts.ConflictPolicy)
		if err := config.SetConflictPolicy(ctx.Repo.GitDir(), policy); err != nil {
			return err
		}
		ctx.Settings.ConflictPolicy = policy
		ctx.Splog.Info("Set %s to %s.", config.KeyConflictPolicy, policy)
		return nil
	}

	s := ctx.Settings
	ctx.Splog.Info("%s = %s", config.KeyConflictPolicy, s.ConflictPolicy)
	ctx.Splog.Info("%s = %t", config.KeyUndoRequireClean, s.UndoRequireClean)
	ctx.Splog.Info("%s = %s", config.KeyLogFile, s.LogFile)
	if s.CommitterName != "" || s.CommitterEmail != "" {
		ctx.Splog.Info("committer = %s <%s>", s.CommitterName, s.CommitterEmail)
	}
	return nil
}
