package git

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ChangeAction classifies a path in a tree diff
type ChangeAction string

const (
	ChangeAdded    ChangeAction = "A"
	ChangeDeleted  ChangeAction = "D"
	ChangeModified ChangeAction = "M"
)

// FileChange is one changed path between two trees
type FileChange struct {
	Path   string
	Action ChangeAction
	From   TreeFile
	To     TreeFile
}

// DiffTrees lists the paths that differ between two trees, sorted by path
func (r *Repository) DiffTrees(from, to string) ([]FileChange, error) {
	if from == to {
		return nil, nil
	}
	fromFiles, err := r.TreeFiles(from)
	if err != nil {
		return nil, err
	}
	toFiles, err := r.TreeFiles(to)
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for path, f := range fromFiles {
		t, ok := toFiles[path]
		switch {
		case !ok:
			changes = append(changes, FileChange{Path: path, Action: ChangeDeleted, From: f})
		case t != f:
			changes = append(changes, FileChange{Path: path, Action: ChangeModified, From: f, To: t})
		}
	}
	for path, t := range toFiles {
		if _, ok := fromFiles[path]; !ok {
			changes = append(changes, FileChange{Path: path, Action: ChangeAdded, To: t})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// UnifiedDiff renders the changes between two trees as a unified diff
func (r *Repository) UnifiedDiff(from, to string) (string, error) {
	changes, err := r.DiffTrees(from, to)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, c := range changes {
		before, err := r.blobText(c.From)
		if err != nil {
			return "", err
		}
		after, err := r.blobText(c.To)
		if err != nil {
			return "", err
		}

		fromName, toName := "a/"+c.Path, "b/"+c.Path
		switch c.Action {
		case ChangeAdded:
			fromName = "/dev/null"
		case ChangeDeleted:
			toName = "/dev/null"
		}

		fmt.Fprintf(&out, "diff --git a/%s b/%s\n", c.Path, c.Path)
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        splitLines(before),
			B:        splitLines(after),
			FromFile: fromName,
			ToFile:   toName,
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("failed to diff %s: %w", c.Path, err)
		}
		if text == "" {
			// Mode-only change
			fmt.Fprintf(&out, "old mode %o\nnew mode %o\n", uint32(c.From.Mode), uint32(c.To.Mode))
			continue
		}
		out.WriteString(text)
	}
	return out.String(), nil
}

func (r *Repository) blobText(f TreeFile) (string, error) {
	if !f.Exists() {
		return "", nil
	}
	data, err := r.ReadBlob(f.ID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return difflib.SplitLines(strings.TrimSuffix(text, "\n"))
}
