// Package errors provides sentinel errors and custom error types for pstack.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrConflictsPending indicates that a push produced conflicts that are not resolved yet
	ErrConflictsPending = errors.New("conflicts pending")

	// ErrConcurrentModification indicates that another process updated the stack first
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrInvalidPatchName indicates a patch name that cannot be used as a ref component
	ErrInvalidPatchName = errors.New("invalid patch name")

	// ErrNoSuchPatch indicates that a patch does not exist or is not in the expected list
	ErrNoSuchPatch = errors.New("no such patch")

	// ErrDuplicateName indicates that a patch name is already taken or already applied
	ErrDuplicateName = errors.New("duplicate patch name")

	// ErrAlreadyOpen indicates that a transaction is already active for the stack
	ErrAlreadyOpen = errors.New("transaction already open")

	// ErrNothingToUndo indicates that the stack log has no earlier state
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates that the stack log has no undone state to restore
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNotInitialized indicates that the branch has no stack yet
	ErrNotInitialized = errors.New("stack not initialized")

	// ErrAlreadyInitialized indicates that the branch already has a stack
	ErrAlreadyInitialized = errors.New("stack already initialized")

	// ErrExternalModification indicates that the branch head moved outside pstack
	ErrExternalModification = errors.New("branch head modified outside the stack")

	// ErrTransactionClosed indicates an operation on a committed or aborted transaction
	ErrTransactionClosed = errors.New("transaction is closed")

	// ErrNoPendingOperation indicates that there is no halted operation to continue or abort
	ErrNoPendingOperation = errors.New("no halted operation")

	// ErrSquashConflict indicates that patches could not be combined without conflicts
	ErrSquashConflict = errors.New("patches do not squash cleanly")

	// ErrRefMismatch indicates that a ref did not have its expected value
	ErrRefMismatch = errors.New("ref does not match expected value")
)

// PatchError describes a caller error about a specific patch.
// It unwraps to one of ErrInvalidPatchName, ErrNoSuchPatch or ErrDuplicateName.
type PatchError struct {
	Patch  string
	Reason string
	Err    error
}

func (e *PatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %q %s", e.Err, e.Patch, e.Reason)
	}
	return fmt.Sprintf("%s: %q", e.Err, e.Patch)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// NewNoSuchPatchError creates a PatchError wrapping ErrNoSuchPatch
func NewNoSuchPatchError(patch, reason string) *PatchError {
	return &PatchError{Patch: patch, Reason: reason, Err: ErrNoSuchPatch}
}

// NewDuplicateNameError creates a PatchError wrapping ErrDuplicateName
func NewDuplicateNameError(patch, reason string) *PatchError {
	return &PatchError{Patch: patch, Reason: reason, Err: ErrDuplicateName}
}

// NewInvalidPatchNameError creates a PatchError wrapping ErrInvalidPatchName
func NewInvalidPatchNameError(patch, reason string) *PatchError {
	return &PatchError{Patch: patch, Reason: reason, Err: ErrInvalidPatchName}
}

// SquashConflictError reports the patch that conflicted while squashing.
// Nothing is left to resolve; the squash did not happen.
type SquashConflictError struct {
	Patch string
	Paths []string
}

func (e *SquashConflictError) Error() string {
	return fmt.Sprintf("%s: %s conflicts in %s", ErrSquashConflict, e.Patch, strings.Join(e.Paths, ", "))
}

func (e *SquashConflictError) Is(target error) bool {
	return target == ErrSquashConflict
}

// NewSquashConflictError creates a SquashConflictError
func NewSquashConflictError(patch string, paths []string) *SquashConflictError {
	return &SquashConflictError{Patch: patch, Paths: paths}
}

// ConflictsPendingError reports the patch that stopped with conflicts and the conflicted paths
type ConflictsPendingError struct {
	Branch string
	Patch  string
	Paths  []string
}

func (e *ConflictsPendingError) Error() string {
	msg := fmt.Sprintf("patch %s on %s has unresolved conflicts", e.Patch, e.Branch)
	if len(e.Paths) > 0 {
		msg += ": " + strings.Join(e.Paths, ", ")
	}
	return msg
}

// Is returns true if the target error is ErrConflictsPending
func (e *ConflictsPendingError) Is(target error) bool {
	return target == ErrConflictsPending
}

// NewConflictsPendingError creates a new ConflictsPendingError
func NewConflictsPendingError(branch, patch string, paths []string) *ConflictsPendingError {
	return &ConflictsPendingError{Branch: branch, Patch: patch, Paths: paths}
}

// ConcurrentModificationError is returned when the final ref update lost a race
type ConcurrentModificationError struct {
	Branch string
	Ref    string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("stack %s was modified concurrently (%s changed); reopen and retry", e.Branch, e.Ref)
}

// Is returns true if the target error is ErrConcurrentModification
func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

// NewConcurrentModificationError creates a new ConcurrentModificationError
func NewConcurrentModificationError(branch, ref string) *ConcurrentModificationError {
	return &ConcurrentModificationError{Branch: branch, Ref: ref}
}

// AlreadyOpenError is returned when a second transaction is started on a stack.
// Halted is set when the active transaction is a persisted one waiting for conflict resolution.
type AlreadyOpenError struct {
	Branch string
	Halted bool
}

func (e *AlreadyOpenError) Error() string {
	if e.Halted {
		return fmt.Sprintf("stack %s has a halted operation with unresolved conflicts", e.Branch)
	}
	return fmt.Sprintf("a transaction is already open on stack %s", e.Branch)
}

// Is matches ErrAlreadyOpen, and ErrConflictsPending for halted transactions
func (e *AlreadyOpenError) Is(target error) bool {
	if target == ErrAlreadyOpen {
		return true
	}
	return e.Halted && target == ErrConflictsPending
}

// NewAlreadyOpenError creates a new AlreadyOpenError
func NewAlreadyOpenError(branch string, halted bool) *AlreadyOpenError {
	return &AlreadyOpenError{Branch: branch, Halted: halted}
}

// RefMismatchError reports a failed compare-and-swap on a ref
type RefMismatchError struct {
	Ref      string
	Expected string
	Actual   string
}

func (e *RefMismatchError) Error() string {
	return fmt.Sprintf("ref %s is at %s, expected %s", e.Ref, orNone(e.Actual), orNone(e.Expected))
}

// Is returns true if the target error is ErrRefMismatch
func (e *RefMismatchError) Is(target error) bool {
	return target == ErrRefMismatch
}

// NewRefMismatchError creates a new RefMismatchError
func NewRefMismatchError(ref, expected, actual string) *RefMismatchError {
	return &RefMismatchError{Ref: ref, Expected: expected, Actual: actual}
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
