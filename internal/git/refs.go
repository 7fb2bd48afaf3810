package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"

	pstackerrors "stackit.dev/pstack/internal/errors"
)

// RefUpdate is one compare-and-swap step of an atomic ref transaction.
// Old == "" requires the ref to be absent; New == "" deletes the ref.
type RefUpdate struct {
	Name string
	Old  string
	New  string
}

func (u RefUpdate) String() string {
	return fmt.Sprintf("%s %s -> %s", u.Name, orZero(u.Old), orZero(u.New))
}

// ReadRef returns the object id a ref points to, or "" when the ref does not exist
func (r *Repository) ReadRef(name string) (string, error) {
	ref, err := r.storer.Reference(plumbing.ReferenceName(name))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read ref %s: %w", name, err)
	}
	if ref.Type() == plumbing.SymbolicReference {
		resolved, err := storer.ResolveReference(r.storer, ref.Name())
		if err != nil {
			if errors.Is(err, plumbing.ErrReferenceNotFound) {
				return "", nil
			}
			return "", fmt.Errorf("failed to resolve ref %s: %w", name, err)
		}
		return resolved.Hash().String(), nil
	}
	return ref.Hash().String(), nil
}

// ListRefs returns all refs under prefix mapped to their object ids
func (r *Repository) ListRefs(prefix string) (map[string]string, error) {
	iter, err := r.storer.IterReferences()
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}
	defer iter.Close()

	result := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name().String()
		if strings.HasPrefix(name, prefix) {
			result[name] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate refs: %w", err)
	}
	return result, nil
}

// CompareAndSwapRef moves a single ref from old to new
func (r *Repository) CompareAndSwapRef(ctx context.Context, name, old, new string) error {
	return r.UpdateRefs(ctx, "", RefUpdate{Name: name, Old: old, New: new})
}

// UpdateRefs applies all updates atomically: either every ref matches its expected
// old value and all are moved, or nothing changes. A mismatch is reported as a
// *errors.RefMismatchError naming the first ref that differed.
func (r *Repository) UpdateRefs(ctx context.Context, message string, updates ...RefUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if r.runner == nil {
		return r.updateRefsInMemory(updates)
	}

	var input strings.Builder
	input.WriteString("start\n")
	for _, u := range updates {
		switch {
		case u.New == "" && u.Old == "":
			fmt.Fprintf(&input, "verify %s %s\n", u.Name, ZeroID)
		case u.New == "":
			fmt.Fprintf(&input, "delete %s %s\n", u.Name, u.Old)
		default:
			fmt.Fprintf(&input, "update %s %s %s\n", u.Name, u.New, orZero(u.Old))
		}
	}
	input.WriteString("prepare\ncommit\n")

	args := []string{"update-ref", "--stdin"}
	if message != "" {
		args = append(args, "-m", message)
	}
	_, err := r.runner.RunWithInput(ctx, input.String(), args...)
	if err == nil {
		return nil
	}

	// Distinguish a lost race from any other failure
	if mismatch := r.findMismatch(updates); mismatch != nil {
		return mismatch
	}
	return fmt.Errorf("failed to update refs: %w", err)
}

func (r *Repository) updateRefsInMemory(updates []RefUpdate) error {
	r.refLock.Lock()
	defer r.refLock.Unlock()

	if mismatch := r.findMismatch(updates); mismatch != nil {
		return mismatch
	}
	for _, u := range updates {
		name := plumbing.ReferenceName(u.Name)
		if u.New == "" {
			if u.Old == "" {
				continue
			}
			if err := r.storer.RemoveReference(name); err != nil {
				return fmt.Errorf("failed to delete ref %s: %w", u.Name, err)
			}
			continue
		}
		if err := r.storer.SetReference(plumbing.NewHashReference(name, plumbing.NewHash(u.New))); err != nil {
			return fmt.Errorf("failed to update ref %s: %w", u.Name, err)
		}
	}
	return nil
}

func (r *Repository) findMismatch(updates []RefUpdate) error {
	for _, u := range updates {
		actual, err := r.ReadRef(u.Name)
		if err != nil {
			return err
		}
		if actual != u.Old {
			return pstackerrors.NewRefMismatchError(u.Name, u.Old, actual)
		}
	}
	return nil
}

// SortedRefNames returns the keys of a ref map in order
func SortedRefNames(refs map[string]string) []string {
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orZero(id string) string {
	if id == "" {
		return ZeroID
	}
	return id
}
