// Package git is the version-store adapter for pstack.
//
// It exposes the primitives the stack engine is built on:
//   - Immutable objects (blobs, trees, commits) read and written through go-git
//   - Mutable refs with an atomic multi-ref compare-and-swap
//   - A three-way tree merge that never touches the working tree
//   - A working-tree materializer for checkouts and conflict stages
//
// A Repository is either backed by a repository on disk, in which case the git
// binary is used for content merges, ref transactions and index updates, or by
// go-git memory storage for tests.
//
// This package should be the only place where git commands are executed.
package git
