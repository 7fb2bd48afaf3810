package stack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	pstackerrors "stackit.dev/pstack/internal/errors"
	"stackit.dev/pstack/internal/stack"
)

// newStack builds a stack whose patch commits are named "c-<patch>"
func newStack(t *testing.T, applied, unapplied, hidden []string) *stack.Stack {
	t.Helper()
	s := stack.New("main", "base")
	for _, name := range applied {
		require.NoError(t, s.Insert(name, "c-"+name, stack.ListApplied, -1))
	}
	for _, name := range unapplied {
		require.NoError(t, s.Insert(name, "c-"+name, stack.ListUnapplied, -1))
	}
	for _, name := range hidden {
		require.NoError(t, s.Insert(name, "c-"+name, stack.ListHidden, -1))
	}
	return s
}

// chainParents treats "c-<x>" as based on the previous applied patch of s
func chainParents(s *stack.Stack) func(string) (string, error) {
	parents := make(map[string]string)
	prev := s.Base
	for _, name := range s.Applied {
		parents[s.Patches[name]] = prev
		prev = s.Patches[name]
	}
	return func(commit string) (string, error) { return parents[commit], nil }
}

func TestStack(t *testing.T) {
	t.Run("head follows the top applied patch", func(t *testing.T) {
		s := stack.New("main", "base")
		require.Equal(t, "base", s.Head)
		require.Empty(t, s.Top())

		require.NoError(t, s.Insert("a", "c-a", stack.ListApplied, -1))
		require.NoError(t, s.Insert("b", "c-b", stack.ListApplied, -1))
		require.Equal(t, "b", s.Top())
		require.Equal(t, "c-b", s.Head)

		require.NoError(t, s.Move("b", stack.ListUnapplied, 0))
		require.Equal(t, "c-a", s.Head)
		require.NoError(t, s.Remove("a"))
		require.Equal(t, "base", s.Head)
	})

	t.Run("locate reports list and position", func(t *testing.T) {
		s := newStack(t, []string{"a", "b"}, []string{"c"}, []string{"d"})

		l, i, err := s.Locate("b")
		require.NoError(t, err)
		require.Equal(t, stack.ListApplied, l)
		require.Equal(t, 1, i)

		l, _, err = s.Locate("d")
		require.NoError(t, err)
		require.Equal(t, stack.ListHidden, l)

		_, _, err = s.Locate("zzz")
		require.ErrorIs(t, err, pstackerrors.ErrNoSuchPatch)
	})

	t.Run("duplicate and invalid names are rejected without changes", func(t *testing.T) {
		s := newStack(t, []string{"a"}, nil, nil)
		before := s.Clone()

		require.ErrorIs(t, s.Insert("a", "x", stack.ListUnapplied, -1), pstackerrors.ErrDuplicateName)
		require.ErrorIs(t, s.Insert("bad name", "x", stack.ListUnapplied, -1), pstackerrors.ErrInvalidPatchName)
		require.ErrorIs(t, s.Rename("a", "a..b"), pstackerrors.ErrInvalidPatchName)
		require.Equal(t, before, s)
	})

	t.Run("rename keeps position and commit", func(t *testing.T) {
		s := newStack(t, []string{"a", "b"}, nil, nil)
		require.NoError(t, s.Rename("a", "first"))
		require.Equal(t, []string{"first", "b"}, s.Applied)
		require.Equal(t, "c-a", s.Commit("first"))
		require.False(t, s.Exists("a"))
	})

	t.Run("reorder requires the same set of applied patches", func(t *testing.T) {
		s := newStack(t, []string{"a", "b", "c"}, []string{"d"}, nil)

		require.Error(t, s.ReorderApplied([]string{"a", "b"}))
		require.ErrorIs(t, s.ReorderApplied([]string{"a", "b", "d"}), pstackerrors.ErrNoSuchPatch)
		require.ErrorIs(t, s.ReorderApplied([]string{"a", "a", "b"}), pstackerrors.ErrDuplicateName)

		require.NoError(t, s.ReorderApplied([]string{"c", "a", "b"}))
		require.Equal(t, []string{"c", "a", "b"}, s.Applied)
		require.Equal(t, "c-b", s.Head)
	})

	t.Run("validate checks partition and parent chain", func(t *testing.T) {
		s := newStack(t, []string{"a", "b"}, []string{"c"}, nil)
		require.NoError(t, s.Validate(chainParents(s)))

		broken := s.Clone()
		broken.Applied = []string{"b", "a"}
		broken.UpdateHead()
		require.Error(t, broken.Validate(chainParents(s)))

		dup := s.Clone()
		dup.Unapplied = append(dup.Unapplied, "a")
		require.Error(t, dup.Validate(nil))

		stale := s.Clone()
		stale.Head = "elsewhere"
		require.Error(t, stale.Validate(nil))
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := newStack(t, []string{"a"}, nil, nil)
		c := s.Clone()
		require.NoError(t, c.Insert("b", "c-b", stack.ListApplied, -1))
		require.Equal(t, []string{"a"}, s.Applied)
		require.False(t, s.Exists("b"))
	})
}

func TestSerialization(t *testing.T) {
	t.Run("marshal is deterministic and parse restores the stack", func(t *testing.T) {
		s := newStack(t, []string{"a", "b"}, []string{"c"}, []string{"d"})
		data, err := s.Marshal()
		require.NoError(t, err)

		parsed, err := stack.Parse(data)
		require.NoError(t, err)
		require.Equal(t, s.Applied, parsed.Applied)
		require.Equal(t, s.Unapplied, parsed.Unapplied)
		require.Equal(t, s.Hidden, parsed.Hidden)
		require.Equal(t, s.Patches, parsed.Patches)
		require.Equal(t, s.Head, parsed.Head)

		again, err := parsed.Marshal()
		require.NoError(t, err)
		require.Equal(t, data, again)
	})

	t.Run("format carries version and ordered entries", func(t *testing.T) {
		s := newStack(t, []string{"a"}, nil, nil)
		data, err := s.Marshal()
		require.NoError(t, err)
		require.JSONEq(t, `{"version":1,"branch":"main","base":"base","head":"c-a",
			"applied":[{"name":"a","commit":"c-a"}],"unapplied":[],"hidden":[]}`, string(data))
	})

	t.Run("parse rejects bad input", func(t *testing.T) {
		_, err := stack.Parse([]byte("not json"))
		require.Error(t, err)

		_, err = stack.Parse([]byte(`{"version":2}`))
		require.Error(t, err)

		_, err = stack.Parse([]byte(`{"version":1,"base":"b","head":"b",
			"applied":[],"unapplied":[{"name":"a","commit":"x"}],"hidden":[{"name":"a","commit":"x"}]}`))
		require.Error(t, err)
	})
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		current    []string
		target     []string
		wantPops   []string
		wantPushes []string
	}{
		{"no change", []string{"a", "b"}, []string{"a", "b"}, []string{}, []string{}},
		{"push more", []string{"a"}, []string{"a", "b", "c"}, []string{}, []string{"b", "c"}},
		{"pop to prefix", []string{"a", "b", "c"}, []string{"a"}, []string{"c", "b"}, []string{}},
		{"swap top two", []string{"a", "b", "c"}, []string{"a", "c", "b"}, []string{"c", "b"}, []string{"c", "b"}},
		{"sink to bottom", []string{"a", "b", "c"}, []string{"c", "a", "b"}, []string{"c", "b", "a"}, []string{"c", "a", "b"}},
		{"from empty", nil, []string{"a"}, nil, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pops, pushes := stack.Plan(tt.current, tt.target)
			require.Equal(t, tt.wantPops, pops)
			require.Equal(t, tt.wantPushes, pushes)
		})
	}
}

func TestNames(t *testing.T) {
	t.Run("validate follows ref component rules", func(t *testing.T) {
		for _, good := range []string{"fix-bug", "a.b", "v1_2", "UPPER"} {
			require.NoError(t, stack.ValidateName(good), good)
		}
		for _, bad := range []string{"", "a/b", "a b", ".hidden", "-flag", "x.lock", "a..b", "a~1", "x^", "a:b", "q?", "s*", "[x", "@", "a@{1}", "end."} {
			require.ErrorIs(t, stack.ValidateName(bad), pstackerrors.ErrInvalidPatchName, bad)
		}
	})

	t.Run("make patch name from message", func(t *testing.T) {
		none := func(string) bool { return false }
		require.Equal(t, "fix-the-parser", stack.MakePatchName("Fix the parser!\n\nLong body", none))
		require.Equal(t, "patch", stack.MakePatchName("???", none))
		require.Equal(t, "a-very-long-subject-line-that", stack.MakePatchName("A very long subject line that goes on and on", none))

		taken := map[string]bool{"fix": true, "fix-1": true}
		require.Equal(t, "fix-2", stack.MakePatchName("fix", func(n string) bool { return taken[n] }))
	})
}
