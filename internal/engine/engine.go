package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/merge"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/stack"
)

// Ref namespaces owned by the engine
const (
	StateRefPrefix   = "refs/pstack/stacks/"
	PendingRefPrefix = "refs/pstack/pending/"
)

// StateRef returns the ref holding the latest state commit of branch's stack
func StateRef(branch string) string {
	return StateRefPrefix + branch
}

// PendingRef returns the ref holding a halted transaction on branch
func PendingRef(branch string) string {
	return PendingRefPrefix + branch
}

// Engine opens transactions on patch stacks. At most one transaction per
// branch is open in an engine; other processes are excluded by the pending
// ref and, for the final update, by compare-and-swap on the refs.
type Engine struct {
	store     git.Store
	worktree  git.Worktree
	merger    *merge.Layer
	splog     *output.Splog
	now       func() time.Time
	committer git.Signature

	mu   sync.Mutex
	open map[string]*Transaction
}

// Option configures an Engine
type Option func(*Engine)

// WithSplog sets the logger for debug output
func WithSplog(splog *output.Splog) Option {
	return func(e *Engine) {
		e.splog = splog
	}
}

// WithClock sets the clock used for committer timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCommitter sets the identity recorded as committer on rewritten commits
func WithCommitter(name, email string) Option {
	return func(e *Engine) {
		if name != "" {
			e.committer.Name = name
		}
		if email != "" {
			e.committer.Email = email
		}
	}
}

// New creates an engine over store. worktree may be nil for bare use, in
// which case no branch is ever treated as checked out.
func New(store git.Store, worktree git.Worktree, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		worktree:  worktree,
		merger:    merge.NewLayer(store, worktree),
		splog:     output.NewSplogWithWriter(io.Discard, false),
		now:       time.Now,
		committer: git.Signature{Name: "pstack", Email: "pstack@localhost"},
		open:      make(map[string]*Transaction),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the object and ref store
func (e *Engine) Store() git.Store {
	return e.store
}

// Worktree returns the working tree, or nil
func (e *Engine) Worktree() git.Worktree {
	return e.worktree
}

func (e *Engine) signature() git.Signature {
	sig := e.committer
	sig.When = e.now()
	return sig
}

// Init creates an empty stack on an existing branch, based at its current head
func (e *Engine) Init(ctx context.Context, branch string) (*stack.Stack, error) {
	head, err := e.store.ReadRef(git.BranchRef(branch))
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, fmt.Errorf("branch %s does not exist", branch)
	}
	current, err := e.store.ReadRef(StateRef(branch))
	if err != nil {
		return nil, err
	}
	if current != "" {
		return nil, fmt.Errorf("%w: %s", pstackerrors.ErrAlreadyInitialized, branch)
	}

	s := stack.New(branch, head)
	stateID, err := e.writeState(s, "", "initialise")
	if err != nil {
		return nil, err
	}
	if err := e.store.CompareAndSwapRef(ctx, StateRef(branch), "", stateID); err != nil {
		return nil, e.translateRefError(branch, err)
	}
	e.splog.Debug("initialised stack on %s at %s", branch, output.ShortID(head))
	return s, nil
}

// IsInitialized reports whether branch has a stack
func (e *Engine) IsInitialized(branch string) (bool, error) {
	id, err := e.store.ReadRef(StateRef(branch))
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// Load returns the last committed stack of branch
func (e *Engine) Load(_ context.Context, branch string) (*stack.Stack, error) {
	stateID, err := e.stateID(branch)
	if err != nil {
		return nil, err
	}
	state, err := e.readState(stateID)
	if err != nil {
		return nil, err
	}
	return state.Stack, nil
}

// Stacks lists the branches that have a stack
func (e *Engine) Stacks() ([]string, error) {
	refs, err := e.store.ListRefs(StateRefPrefix)
	if err != nil {
		return nil, err
	}
	names := git.SortedRefNames(refs)
	branches := make([]string, 0, len(names))
	for _, name := range names {
		branches = append(branches, name[len(StateRefPrefix):])
	}
	return branches, nil
}

// HasPending reports whether branch has a halted transaction
func (e *Engine) HasPending(branch string) (bool, error) {
	id, err := e.store.ReadRef(PendingRef(branch))
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// RestoreWorktree resets the working tree to the branch head if branch is checked out.
// Used after aborting a halted transaction that left conflict markers behind.
func (e *Engine) RestoreWorktree(ctx context.Context, branch string) error {
	checkedOut, err := e.isCheckedOut(ctx, branch)
	if err != nil || !checkedOut {
		return err
	}
	head, err := e.store.ReadRef(git.BranchRef(branch))
	if err != nil {
		return err
	}
	tree, err := e.store.CommitTree(head)
	if err != nil {
		return err
	}
	return e.worktree.Checkout(ctx, "", tree, true)
}

func (e *Engine) stateID(branch string) (string, error) {
	id, err := e.store.ReadRef(StateRef(branch))
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s (run 'pstack init')", pstackerrors.ErrNotInitialized, branch)
	}
	return id, nil
}

func (e *Engine) isCheckedOut(ctx context.Context, branch string) (bool, error) {
	if e.worktree == nil {
		return false, nil
	}
	current, err := e.worktree.CurrentBranch(ctx)
	if err != nil {
		return false, err
	}
	return current == branch, nil
}

func (e *Engine) parentOf(commit string) (string, error) {
	c, err := e.store.ReadCommit(commit)
	if err != nil {
		return "", err
	}
	return c.Parent(), nil
}

// translateRefError turns a failed compare-and-swap into a ConcurrentModificationError
func (e *Engine) translateRefError(branch string, err error) error {
	var mismatch *pstackerrors.RefMismatchError
	if errors.As(err, &mismatch) {
		return pstackerrors.NewConcurrentModificationError(branch, mismatch.Ref)
	}
	return err
}

func (e *Engine) register(tx *Transaction) {
	e.open[tx.branch] = tx
}

func (e *Engine) release(tx *Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open[tx.branch] == tx {
		delete(e.open, tx.branch)
	}
}
