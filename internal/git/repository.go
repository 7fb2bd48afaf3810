package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Repository wraps a go-git repository and, for repositories on disk, the git binary.
// It implements Store.
type Repository struct {
	repo    *git.Repository
	storer  storage.Storer
	runner  *CommandRunner
	path    string
	gitDir  string
	refLock sync.Mutex
	// go-git object storage is not safe for concurrent readers
	objLock sync.Mutex
	// set once git merge-tree turned out not to know --merge-base (git < 2.40)
	noMergeTree atomic.Bool
}

var _ Store = (*Repository)(nil)

// OpenRepository opens the git repository containing path
func OpenRepository(ctx context.Context, path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	runner := NewCommandRunner(absPath)
	root, err := runner.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git work tree: %w", err)
	}
	gitDir, err := runner.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to locate git dir: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Repository{
		repo:   repo,
		storer: repo.Storer,
		runner: NewCommandRunner(root),
		path:   root,
		gitDir: gitDir,
	}, nil
}

// NewMemoryRepository creates an empty repository held entirely in memory.
// Merges fall back to whole-file conflict markers and ref updates are
// serialized by a mutex.
func NewMemoryRepository() (*Repository, error) {
	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init memory repository: %w", err)
	}
	return &Repository{
		repo:   repo,
		storer: repo.Storer,
	}, nil
}

// Root returns the root directory of the work tree, or "" for memory repositories
func (r *Repository) Root() string {
	return r.path
}

// GitDir returns the absolute git directory, or "" for memory repositories
func (r *Repository) GitDir() string {
	return r.gitDir
}

// Runner returns the command runner, or nil for memory repositories
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// InMemory reports whether the repository is backed by memory storage
func (r *Repository) InMemory() bool {
	return r.runner == nil
}

// Identity returns the user.name and user.email configured for the repository,
// falling back to the global configuration.
func (r *Repository) Identity() (Signature, error) {
	cfg, err := r.repo.ConfigScoped(gitconfig.GlobalScope)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to read git config: %w", err)
	}
	return Signature{Name: cfg.User.Name, Email: cfg.User.Email}, nil
}

// ResolveRevision resolves a revision expression (branch, tag, sha, HEAD~2) to a commit id
func (r *Repository) ResolveRevision(rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	return hash.String(), nil
}

// BranchRef returns the full ref name of a local branch
func BranchRef(branch string) string {
	if strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return plumbing.NewBranchReferenceName(branch).String()
}
