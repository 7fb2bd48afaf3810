package stack

import (
	"fmt"
	"slices"

	pstackerrors "stackit.dev/pstack/internal/errors"
)

// List identifies which of the three patch lists a patch is in
type List int

const (
	ListApplied List = iota
	ListUnapplied
	ListHidden
)

func (l List) String() string {
	switch l {
	case ListApplied:
		return "applied"
	case ListUnapplied:
		return "unapplied"
	case ListHidden:
		return "hidden"
	default:
		return fmt.Sprintf("List(%d)", int(l))
	}
}

// Stack is the patch series of one branch.
//
// Every patch is in exactly one of Applied, Unapplied or Hidden. Applied is
// ordered bottom to top: the first applied patch's commit has Base as parent,
// each later one has the previous patch's commit as parent, and Head is the
// commit of the top applied patch, or Base when nothing is applied.
type Stack struct {
	Branch    string
	Base      string
	Head      string
	Applied   []string
	Unapplied []string
	Hidden    []string
	Patches   map[string]string
}

// New returns an empty stack on branch with base as both base and head
func New(branch, base string) *Stack {
	return &Stack{
		Branch:  branch,
		Base:    base,
		Head:    base,
		Patches: make(map[string]string),
	}
}

// Clone returns a deep copy
func (s *Stack) Clone() *Stack {
	patches := make(map[string]string, len(s.Patches))
	for name, commit := range s.Patches {
		patches[name] = commit
	}
	return &Stack{
		Branch:    s.Branch,
		Base:      s.Base,
		Head:      s.Head,
		Applied:   slices.Clone(s.Applied),
		Unapplied: slices.Clone(s.Unapplied),
		Hidden:    slices.Clone(s.Hidden),
		Patches:   patches,
	}
}

func (s *Stack) list(l List) *[]string {
	switch l {
	case ListApplied:
		return &s.Applied
	case ListUnapplied:
		return &s.Unapplied
	default:
		return &s.Hidden
	}
}

// Exists reports whether name is a patch of the stack
func (s *Stack) Exists(name string) bool {
	_, ok := s.Patches[name]
	return ok
}

// Commit returns the content commit of a patch, or ""
func (s *Stack) Commit(name string) string {
	return s.Patches[name]
}

// Locate returns the list a patch is in and its index there
func (s *Stack) Locate(name string) (List, int, error) {
	for _, l := range []List{ListApplied, ListUnapplied, ListHidden} {
		if i := slices.Index(*s.list(l), name); i >= 0 {
			return l, i, nil
		}
	}
	return 0, -1, pstackerrors.NewNoSuchPatchError(name, "")
}

// IsApplied reports whether name is applied
func (s *Stack) IsApplied(name string) bool {
	return slices.Contains(s.Applied, name)
}

// Top returns the top applied patch, or "" when nothing is applied
func (s *Stack) Top() string {
	if len(s.Applied) == 0 {
		return ""
	}
	return s.Applied[len(s.Applied)-1]
}

// All returns every patch name: applied, then unapplied, then hidden
func (s *Stack) All() []string {
	all := make([]string, 0, len(s.Patches))
	all = append(all, s.Applied...)
	all = append(all, s.Unapplied...)
	all = append(all, s.Hidden...)
	return all
}

// Insert adds a new patch to list l at pos; pos < 0 or past the end appends
func (s *Stack) Insert(name, commit string, l List, pos int) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if s.Exists(name) {
		return pstackerrors.NewDuplicateNameError(name, "already exists")
	}
	s.Patches[name] = commit
	insertAt(s.list(l), name, pos)
	s.UpdateHead()
	return nil
}

// Remove deletes a patch from the stack
func (s *Stack) Remove(name string) error {
	l, i, err := s.Locate(name)
	if err != nil {
		return err
	}
	list := s.list(l)
	*list = slices.Delete(*list, i, i+1)
	delete(s.Patches, name)
	s.UpdateHead()
	return nil
}

// Move moves a patch to list l at pos; pos < 0 or past the end appends
func (s *Stack) Move(name string, l List, pos int) error {
	from, i, err := s.Locate(name)
	if err != nil {
		return err
	}
	list := s.list(from)
	*list = slices.Delete(*list, i, i+1)
	insertAt(s.list(l), name, pos)
	s.UpdateHead()
	return nil
}

// Rename changes a patch's name in place
func (s *Stack) Rename(oldName, newName string) error {
	l, i, err := s.Locate(oldName)
	if err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if s.Exists(newName) {
		return pstackerrors.NewDuplicateNameError(newName, "already exists")
	}
	(*s.list(l))[i] = newName
	s.Patches[newName] = s.Patches[oldName]
	delete(s.Patches, oldName)
	return nil
}

// SetCommit records a new content commit for a patch
func (s *Stack) SetCommit(name, commit string) error {
	if !s.Exists(name) {
		return pstackerrors.NewNoSuchPatchError(name, "")
	}
	s.Patches[name] = commit
	s.UpdateHead()
	return nil
}

// ReorderApplied replaces the applied order. The new order must name exactly
// the currently applied patches. Callers are responsible for rewriting the
// commits so the parent chain holds again.
func (s *Stack) ReorderApplied(order []string) error {
	if len(order) != len(s.Applied) {
		return fmt.Errorf("reorder names %d patches, %d are applied", len(order), len(s.Applied))
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] {
			return pstackerrors.NewDuplicateNameError(name, "listed twice")
		}
		seen[name] = true
		if !s.IsApplied(name) {
			return pstackerrors.NewNoSuchPatchError(name, "is not applied")
		}
	}
	s.Applied = slices.Clone(order)
	s.UpdateHead()
	return nil
}

// UpdateHead recomputes Head from the top applied patch
func (s *Stack) UpdateHead() {
	if top := s.Top(); top != "" {
		s.Head = s.Patches[top]
		return
	}
	s.Head = s.Base
}

// Validate checks the partition invariant and, when parentOf is not nil,
// that the applied commits form a chain starting at Base.
func (s *Stack) Validate(parentOf func(commit string) (string, error)) error {
	seen := make(map[string]bool, len(s.Patches))
	for _, name := range s.All() {
		if seen[name] {
			return fmt.Errorf("patch %q is in more than one list", name)
		}
		seen[name] = true
		if err := ValidateName(name); err != nil {
			return err
		}
		if s.Patches[name] == "" {
			return fmt.Errorf("patch %q has no commit", name)
		}
	}
	if len(seen) != len(s.Patches) {
		return fmt.Errorf("stack records %d patches but lists %d", len(s.Patches), len(seen))
	}

	expectedHead := s.Base
	if top := s.Top(); top != "" {
		expectedHead = s.Patches[top]
	}
	if s.Head != expectedHead {
		return fmt.Errorf("head %s does not match top of stack %s", s.Head, expectedHead)
	}

	if parentOf == nil {
		return nil
	}
	parent := s.Base
	for _, name := range s.Applied {
		commit := s.Patches[name]
		actual, err := parentOf(commit)
		if err != nil {
			return fmt.Errorf("failed to read parent of %s: %w", name, err)
		}
		if actual != parent {
			return fmt.Errorf("patch %q is based on %s, expected %s", name, actual, parent)
		}
		parent = commit
	}
	return nil
}

func insertAt(list *[]string, name string, pos int) {
	if pos < 0 || pos > len(*list) {
		pos = len(*list)
	}
	*list = slices.Insert(*list, pos, name)
}
