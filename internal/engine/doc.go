// Package engine owns the patch stack of each branch and every change to it.
//
// All mutations happen inside a Transaction. A transaction works on an
// in-memory candidate stack, writing new commits as it goes but touching no
// refs. Commit then writes a state commit recording the candidate, moves the
// working tree and updates the branch ref and the stack's state ref in one
// atomic compare-and-swap. A push that conflicts halts the transaction: the
// candidate is persisted under refs/pstack/pending/ so a later process can
// continue it once the conflict is resolved, or abort it.
//
// The chain of state commits doubles as the stack log, which Undo, Redo and
// Reset walk to restore earlier states.
package engine
