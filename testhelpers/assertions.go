// Package testhelpers provides testing utilities for pstack,
// including a scene system, in-memory and on-disk repositories, and custom assertions.
package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectCommits asserts the subjects of the commits reachable from rev, newest first
func ExpectCommits(t *testing.T, repo *GitRepo, rev string, expected []string) {
	t.Helper()
	messages, err := repo.ListCommitMessages(rev)
	require.NoError(t, err)
	require.Equal(t, expected, messages)
}

// ExpectCleanStatus asserts that no tracked file is modified
func ExpectCleanStatus(t *testing.T, repo *GitRepo) {
	t.Helper()
	status, err := repo.Status()
	require.NoError(t, err)
	require.Empty(t, status)
}

// ExpectFile asserts the content of a file in the work tree
func ExpectFile(t *testing.T, repo *GitRepo, name, expected string) {
	t.Helper()
	content, err := repo.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, expected, content)
}
