package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/stack"
)

// LogEntry is one committed state of a stack, newest first in Log
type LogEntry struct {
	ID    string
	Prev  string
	Label string
	When  time.Time
}

// UndoOptions controls how Undo, Redo and Reset treat the working tree
type UndoOptions struct {
	// Hard discards local changes in the working tree
	Hard bool
}

var (
	undoLabel = regexp.MustCompile(`^undo (\d+)$`)
	redoLabel = regexp.MustCompile(`^redo (\d+)$`)
)

// Log returns the state history of branch's stack, newest first. limit <= 0 means no limit.
func (e *Engine) Log(_ context.Context, branch string, limit int) ([]LogEntry, error) {
	id, err := e.stateID(branch)
	if err != nil {
		return nil, err
	}
	var entries []LogEntry
	for id != "" && (limit <= 0 || len(entries) < limit) {
		c, err := e.store.ReadCommit(id)
		if err != nil {
			return nil, fmt.Errorf("failed to read state %s: %w", id, err)
		}
		entry := LogEntry{ID: id, Prev: prevState(c), Label: c.Subject(), When: c.Committer.When}
		entries = append(entries, entry)
		id = entry.Prev
	}
	return entries, nil
}

// State returns the stack recorded in a state commit
func (e *Engine) State(_ context.Context, id string) (*stack.Stack, error) {
	st, err := e.readState(id)
	if err != nil {
		return nil, err
	}
	return st.Stack, nil
}

// Undo restores the stack to how it was n operations ago. Undos and redos
// count as operations of their own, so undoing an undo is a redo.
func (e *Engine) Undo(ctx context.Context, branch string, n int, opts UndoOptions) (*stack.Stack, error) {
	if n < 1 {
		return nil, fmt.Errorf("undo needs a positive count, got %d", n)
	}
	target, err := e.walkUndo(branch, n)
	if err != nil {
		return nil, err
	}
	return e.restore(ctx, branch, target, fmt.Sprintf("undo %d", n), opts)
}

// Redo reverts the last n undos. It fails unless the latest operations were undos.
func (e *Engine) Redo(ctx context.Context, branch string, n int, opts UndoOptions) (*stack.Stack, error) {
	if n < 1 {
		return nil, fmt.Errorf("redo needs a positive count, got %d", n)
	}
	target, err := e.walkUndo(branch, -n)
	if err != nil {
		return nil, err
	}
	return e.restore(ctx, branch, target, fmt.Sprintf("redo %d", n), opts)
}

// Reset restores the stack recorded in the state commit id
func (e *Engine) Reset(ctx context.Context, branch, id string, opts UndoOptions) (*stack.Stack, error) {
	st, err := e.readState(id)
	if err != nil {
		return nil, err
	}
	if st.Stack.Branch != branch {
		return nil, fmt.Errorf("state %s belongs to branch %s, not %s", output.ShortID(id), st.Stack.Branch, branch)
	}
	return e.restore(ctx, branch, id, "reset "+output.ShortID(id), opts)
}

// walkUndo finds the state that undoing steps operations leads to; negative steps redo.
//
// Walking back from the newest state, an "undo k" entry cancels out k earlier
// entries, so when undoing it adds k more steps to walk, and when redoing it
// is one of the undos being reverted. A "redo k" entry while redoing means k
// undos were already reverted. Any other entry ends a run of undos, so there
// is nothing left to redo.
func (e *Engine) walkUndo(branch string, steps int) (string, error) {
	id, err := e.stateID(branch)
	if err != nil {
		return "", err
	}
	exhausted := pstackerrors.ErrNothingToUndo
	if steps < 0 {
		exhausted = pstackerrors.ErrNothingToRedo
	}

	for steps != 0 {
		c, err := e.store.ReadCommit(id)
		if err != nil {
			return "", err
		}
		label := c.Subject()
		if m := undoLabel.FindStringSubmatch(label); m != nil {
			k, _ := strconv.Atoi(m[1])
			if steps > 0 {
				steps += k
			} else {
				steps++
			}
		} else if steps > 0 {
			steps--
		} else if m := redoLabel.FindStringSubmatch(label); m != nil {
			k, _ := strconv.Atoi(m[1])
			steps -= k
		} else {
			return "", fmt.Errorf("%w on %s", exhausted, branch)
		}

		id = prevState(c)
		if id == "" {
			return "", fmt.Errorf("%w on %s: not enough history", exhausted, branch)
		}
	}
	return id, nil
}

// restore commits the stack of state id as a new state labelled label
func (e *Engine) restore(ctx context.Context, branch, id, label string, opts UndoOptions) (*stack.Stack, error) {
	target, err := e.readState(id)
	if err != nil {
		return nil, err
	}
	tx, err := e.begin(ctx, branch, label, true)
	if err != nil {
		return nil, err
	}
	tx.stack = target.Stack.Clone()
	tx.hard = opts.Hard && tx.checkedOut
	if err := tx.commit(ctx); err != nil {
		_ = tx.Abort(ctx)
		return nil, err
	}
	e.splog.Debug("%s: %s restored to %s", label, branch, output.ShortID(id))
	return tx.stack, nil
}
