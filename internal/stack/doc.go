// Package stack holds the patch stack model: the ordered applied, unapplied and
// hidden patch lists of a branch, their validation, serialization and the
// pop/push planning used by every reordering operation.
//
// Nothing in this package touches the repository.
package stack
