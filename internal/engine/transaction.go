package engine

import (
	"context"
	"errors"
	"fmt"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/stack"
)

// Status is the lifecycle state of a transaction
type Status int

const (
	StatusOpen Status = iota
	StatusCommitted
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Transaction is a set of stack operations that become visible together on Commit.
// A transaction is not safe for concurrent use.
type Transaction struct {
	engine *Engine
	branch string
	label  string

	// refs as they were when the transaction began
	baseState string
	baseHead  string

	stack *stack.Stack

	checkedOut bool
	// worktreeTree is the tree the working tree was last moved to
	worktreeTree string
	// hard makes the final checkout discard the working tree's state
	hard bool

	conflict     *conflict
	resolvedTree string
	// pendingBlob is the persisted form of this transaction once it halted
	pendingBlob string

	status Status
}

// Begin opens a transaction on branch. label becomes the log entry of the commit.
//
// If the branch head was moved outside pstack while no patches are applied,
// the new head is adopted as the stack's base. With patches applied such a
// move fails with ErrExternalModification.
func (e *Engine) Begin(ctx context.Context, branch, label string) (*Transaction, error) {
	return e.begin(ctx, branch, label, false)
}

func (e *Engine) begin(ctx context.Context, branch, label string, allowExternal bool) (*Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tx := e.open[branch]; tx != nil {
		return nil, pstackerrors.NewAlreadyOpenError(branch, tx.conflict != nil)
	}
	pending, err := e.store.ReadRef(PendingRef(branch))
	if err != nil {
		return nil, err
	}
	if pending != "" {
		return nil, pstackerrors.NewAlreadyOpenError(branch, true)
	}

	stateID, err := e.stateID(branch)
	if err != nil {
		return nil, err
	}
	st, err := e.readState(stateID)
	if err != nil {
		return nil, err
	}
	head, err := e.store.ReadRef(git.BranchRef(branch))
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, fmt.Errorf("branch %s does not exist", branch)
	}

	candidate := st.Stack.Clone()
	if head != candidate.Head {
		if len(candidate.Applied) > 0 && !allowExternal {
			return nil, fmt.Errorf("%w: %s is at %s but its stack expects %s (run 'pstack reset' or 'pstack undo --hard')",
				pstackerrors.ErrExternalModification, branch, output.ShortID(head), output.ShortID(candidate.Head))
		}
		if len(candidate.Applied) == 0 {
			e.splog.Debug("adopting %s as base of %s", output.ShortID(head), branch)
			candidate.Base = head
			candidate.UpdateHead()
		}
	}

	checkedOut, err := e.isCheckedOut(ctx, branch)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{
		engine:     e,
		branch:     branch,
		label:      label,
		baseState:  stateID,
		baseHead:   head,
		stack:      candidate,
		checkedOut: checkedOut,
	}
	if checkedOut {
		if tx.worktreeTree, err = e.store.CommitTree(head); err != nil {
			return nil, err
		}
	}
	e.register(tx)
	e.splog.Debug("begin %q on %s", label, branch)
	return tx, nil
}

// Resume returns the halted transaction on branch so it can be continued or aborted
func (e *Engine) Resume(ctx context.Context, branch string) (*Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tx := e.open[branch]; tx != nil {
		if tx.conflict == nil && tx.pendingBlob == "" {
			return nil, pstackerrors.NewAlreadyOpenError(branch, false)
		}
		return tx, nil
	}
	blob, err := e.store.ReadRef(PendingRef(branch))
	if err != nil {
		return nil, err
	}
	if blob == "" {
		return nil, fmt.Errorf("%w on %s", pstackerrors.ErrNoPendingOperation, branch)
	}
	data, err := e.store.ReadBlob(blob)
	if err != nil {
		return nil, err
	}
	p, candidate, err := decodePending(data)
	if err != nil {
		return nil, err
	}

	checkedOut, err := e.isCheckedOut(ctx, branch)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{
		engine:       e,
		branch:       branch,
		label:        p.Label,
		baseState:    p.BaseState,
		baseHead:     p.BaseHead,
		stack:        candidate,
		checkedOut:   checkedOut,
		worktreeTree: p.WorktreeTree,
		conflict:     p.Conflict,
		pendingBlob:  blob,
	}
	if checkedOut && !p.CheckedOut {
		// The branch was checked out after the halt; its files are at the base head
		if tx.worktreeTree, err = e.store.CommitTree(p.BaseHead); err != nil {
			return nil, err
		}
	}
	e.register(tx)
	e.splog.Debug("resumed %q on %s", tx.label, branch)
	return tx, nil
}

// Branch returns the branch the transaction works on
func (tx *Transaction) Branch() string {
	return tx.branch
}

// Label returns the log label the commit will carry
func (tx *Transaction) Label() string {
	return tx.label
}

// Status returns the lifecycle state
func (tx *Transaction) Status() Status {
	return tx.status
}

// Stack returns the candidate stack. Callers must not modify it.
func (tx *Transaction) Stack() *stack.Stack {
	return tx.stack
}

// Halted reports whether a push stopped at a conflict that is not resolved yet
func (tx *Transaction) Halted() bool {
	return tx.conflict != nil
}

// Conflict returns the patch with unresolved conflicts and its conflicted paths
func (tx *Transaction) Conflict() (patch string, paths []string) {
	if tx.conflict == nil {
		return "", nil
	}
	return tx.conflict.Patch, tx.conflict.Paths
}

// CheckedOut reports whether the branch is checked out in the working tree
func (tx *Transaction) CheckedOut() bool {
	return tx.checkedOut
}

func (tx *Transaction) checkOpen() error {
	if tx.status != StatusOpen {
		return fmt.Errorf("%w (%s)", pstackerrors.ErrTransactionClosed, tx.status)
	}
	return nil
}

// checkMutable fails when the transaction is closed or waiting on a conflict
func (tx *Transaction) checkMutable() error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	if tx.conflict != nil {
		return tx.conflictError()
	}
	return nil
}

func (tx *Transaction) conflictError() error {
	return pstackerrors.NewConflictsPendingError(tx.branch, tx.conflict.Patch, tx.conflict.Paths)
}

// halt records a conflict and persists the transaction so another process can finish it
func (tx *Transaction) halt(ctx context.Context, c *conflict) error {
	tx.conflict = c
	data, err := tx.encodePending()
	if err != nil {
		return err
	}
	blob, err := tx.engine.store.WriteBlob(data)
	if err != nil {
		return err
	}
	if err := tx.engine.store.CompareAndSwapRef(ctx, PendingRef(tx.branch), tx.pendingBlob, blob); err != nil {
		return tx.engine.translateRefError(tx.branch, err)
	}
	tx.pendingBlob = blob
	tx.engine.splog.Debug("halted %q on %s at %s", tx.label, tx.branch, c.Patch)
	return tx.conflictError()
}

// MarkResolved supplies the resolved tree of the conflicted patch, for callers
// that resolve conflicts without the working tree
func (tx *Transaction) MarkResolved(tree string) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	if tx.conflict == nil {
		return fmt.Errorf("%w on %s", pstackerrors.ErrNoPendingOperation, tx.branch)
	}
	tx.resolvedTree = tree
	return nil
}

// Commit publishes the candidate stack. It fails with ErrConflictsPending
// while a conflict is unresolved, and with ErrConcurrentModification if the
// branch or stack changed since Begin, in which case the transaction is aborted.
func (tx *Transaction) Commit(ctx context.Context) error {
	if err := tx.checkMutable(); err != nil {
		return err
	}
	return tx.commit(ctx)
}

// ContinueCommit finishes a halted transaction. The conflicted patch takes the
// tree given to MarkResolved or, failing that, the working tree's index, which
// must have no unmerged paths left. Without a conflict it is the same as Commit.
func (tx *Transaction) ContinueCommit(ctx context.Context) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	if tx.conflict == nil {
		return tx.commit(ctx)
	}

	tree := tx.resolvedTree
	if tree != "" {
		if tx.checkedOut {
			tx.hard = true
		}
	} else {
		if !tx.checkedOut {
			return tx.conflictError()
		}
		wt := tx.engine.worktree
		paths, err := wt.Conflicts(ctx)
		if err != nil {
			return err
		}
		if len(paths) > 0 {
			return pstackerrors.NewConflictsPendingError(tx.branch, tx.conflict.Patch, paths)
		}
		if tree, err = wt.WriteTree(ctx); err != nil {
			return err
		}
		tx.worktreeTree = tree
	}

	name := tx.conflict.Patch
	old, err := tx.engine.store.ReadCommit(tx.stack.Commit(name))
	if err != nil {
		return err
	}
	commit, err := tx.rewrite(old, tree, tx.conflict.Parent)
	if err != nil {
		return err
	}
	if err := tx.stack.SetCommit(name, commit); err != nil {
		return err
	}
	tx.conflict = nil
	tx.resolvedTree = ""
	tx.engine.splog.Debug("resolved %s as %s", name, output.ShortID(commit))
	return tx.commit(ctx)
}

// CommitUpToConflict commits everything before the conflicted patch and
// returns that patch to the front of the unapplied list. The working tree is
// reset to the new head.
func (tx *Transaction) CommitUpToConflict(ctx context.Context) error {
	if err := tx.checkOpen(); err != nil {
		return err
	}
	if tx.conflict == nil {
		return tx.commit(ctx)
	}
	if err := tx.stack.Move(tx.conflict.Patch, stack.ListUnapplied, 0); err != nil {
		return err
	}
	tx.conflict = nil
	tx.resolvedTree = ""
	if tx.checkedOut {
		tx.hard = true
	}
	return tx.commit(ctx)
}

// Abort discards the transaction. Objects it wrote are left for garbage
// collection; the working tree is not touched.
func (tx *Transaction) Abort(ctx context.Context) error {
	if tx.status != StatusOpen {
		return nil
	}
	if tx.pendingBlob != "" {
		if err := tx.engine.store.CompareAndSwapRef(ctx, PendingRef(tx.branch), tx.pendingBlob, ""); err != nil {
			return tx.engine.translateRefError(tx.branch, err)
		}
		tx.pendingBlob = ""
	}
	tx.finish(StatusAborted)
	tx.engine.splog.Debug("aborted %q on %s", tx.label, tx.branch)
	return nil
}

// Release drops a halted transaction from the engine without touching its
// persisted state, so a later Resume picks it up from the refs
func (tx *Transaction) Release() {
	if tx.status == StatusOpen && tx.pendingBlob != "" {
		tx.engine.release(tx)
	}
}

func (tx *Transaction) finish(status Status) {
	tx.status = status
	tx.engine.release(tx)
}

func (tx *Transaction) commit(ctx context.Context) error {
	e := tx.engine
	s := tx.stack
	s.UpdateHead()
	if err := s.Validate(e.parentOf); err != nil {
		return fmt.Errorf("refusing to commit inconsistent stack: %w", err)
	}

	stateID, err := e.writeState(s, tx.baseState, tx.label)
	if err != nil {
		return err
	}

	// Fail before touching the working tree if someone else already committed
	for ref, expected := range map[string]string{
		git.BranchRef(tx.branch): tx.baseHead,
		StateRef(tx.branch):      tx.baseState,
		PendingRef(tx.branch):    tx.pendingBlob,
	} {
		actual, err := e.store.ReadRef(ref)
		if err != nil {
			return err
		}
		if actual != expected {
			tx.finish(StatusAborted)
			return pstackerrors.NewConcurrentModificationError(tx.branch, ref)
		}
	}

	headTree, err := e.store.CommitTree(s.Head)
	if err != nil {
		return err
	}
	moved := false
	if tx.checkedOut && (tx.hard || tx.worktreeTree != headTree) {
		if err := e.worktree.Checkout(ctx, tx.worktreeTree, headTree, tx.hard); err != nil {
			return err
		}
		moved = true
	}

	updates := []git.RefUpdate{
		{Name: git.BranchRef(tx.branch), Old: tx.baseHead, New: s.Head},
		{Name: StateRef(tx.branch), Old: tx.baseState, New: stateID},
	}
	if tx.pendingBlob != "" {
		updates = append(updates, git.RefUpdate{Name: PendingRef(tx.branch), Old: tx.pendingBlob})
	}
	if err := e.store.UpdateRefs(ctx, "pstack: "+tx.label, updates...); err != nil {
		// The refs did not move, so neither may the working tree
		if moved {
			if rbErr := e.worktree.Checkout(ctx, headTree, tx.worktreeTree, false); rbErr != nil {
				e.splog.Warn("Failed to restore the working tree: %v", rbErr)
			}
		}
		tx.finish(StatusAborted)
		if errors.Is(err, pstackerrors.ErrRefMismatch) {
			return e.translateRefError(tx.branch, err)
		}
		return fmt.Errorf("failed to update the refs of %s: %w", tx.branch, err)
	}

	tx.worktreeTree = headTree
	tx.pendingBlob = ""
	tx.finish(StatusCommitted)
	e.splog.Debug("committed %q on %s as %s", tx.label, tx.branch, output.ShortID(stateID))
	return nil
}
