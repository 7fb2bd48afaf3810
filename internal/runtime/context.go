// Package runtime provides a context type that holds the engine and logger
// for use throughout the application. This avoids passing multiple parameters.
package runtime

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"stackit.dev/pstack/internal/config"
	"stackit.dev/pstack/internal/engine"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/output"
)

// Context provides access to engine and output for commands
type Context struct {
	context.Context
	Engine   *engine.Engine
	Splog    *output.Splog
	Repo     *git.Repository
	Worktree git.Worktree
	Settings *config.Settings
	RepoRoot string
}

// NewContext creates a context around an existing engine, using default settings
func NewContext(ctx context.Context, eng *engine.Engine, splog *output.Splog) *Context {
	return &Context{
		Context:  ctx,
		Engine:   eng,
		Splog:    splog,
		Worktree: eng.Worktree(),
		Settings: &config.Settings{ConflictPolicy: config.PolicyHold, UndoRequireClean: true},
	}
}

// GetContext opens the repository containing dir ("" for the working
// directory), loads its settings and creates the engine. bind, when not nil,
// is called with the viper instance before the settings are resolved so
// flags can be attached.
func GetContext(ctx context.Context, dir string, bind func(v *viper.Viper) error) (*Context, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.OpenRepository(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	v := config.NewViper(repo.GitDir())
	if bind != nil {
		if err := bind(v); err != nil {
			return nil, err
		}
	}
	settings, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	splog, err := output.NewSplogWithConfig(settings.LogFile, output.DefaultLogRotation())
	if err != nil {
		// A broken log path should not stop the command
		splog = output.NewSplog()
		splog.Debug("file logging disabled: %v", err)
	}

	worktree, err := git.NewCLIWorktree(repo)
	if err != nil {
		return nil, err
	}

	committerName, committerEmail := settings.CommitterName, settings.CommitterEmail
	if committerName == "" || committerEmail == "" {
		if id, err := repo.Identity(); err == nil {
			if committerName == "" {
				committerName = id.Name
			}
			if committerEmail == "" {
				committerEmail = id.Email
			}
		}
	}

	eng := engine.New(repo, worktree,
		engine.WithSplog(splog),
		engine.WithCommitter(committerName, committerEmail),
	)
	return &Context{
		Context:  ctx,
		Engine:   eng,
		Splog:    splog,
		Repo:     repo,
		Worktree: worktree,
		Settings: settings,
		RepoRoot: repo.Root(),
	}, nil
}

// CurrentBranch returns the checked out branch, failing when HEAD is detached
func (c *Context) CurrentBranch() (string, error) {
	if c.Worktree == nil {
		return "", fmt.Errorf("no working tree")
	}
	branch, err := c.Worktree.CurrentBranch(c)
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", fmt.Errorf("HEAD is detached; check out a branch first")
	}
	return branch, nil
}

// TargetBranch returns branch, or the checked out branch when branch is empty
func (c *Context) TargetBranch(branch string) (string, error) {
	if branch != "" {
		return branch, nil
	}
	return c.CurrentBranch()
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}
