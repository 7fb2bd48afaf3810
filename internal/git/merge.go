package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// Conflict records the competing versions of one path after a failed merge.
// A zero TreeFile means the side does not have the path.
type Conflict struct {
	Path   string
	Base   TreeFile
	Ours   TreeFile
	Theirs TreeFile
}

// MergeResult is the outcome of a three-way tree merge. When Clean is false,
// Tree holds conflicted paths with standard conflict markers.
type MergeResult struct {
	Clean     bool
	Tree      string
	Conflicts []Conflict
}

// ConflictPaths returns the conflicted paths in order
func (m *MergeResult) ConflictPaths() []string {
	paths := make([]string, 0, len(m.Conflicts))
	for _, c := range m.Conflicts {
		paths = append(paths, c.Path)
	}
	return paths
}

// errMergeTreeUnsupported reports a git too old for merge-tree --merge-base
var errMergeTreeUnsupported = errors.New("git merge-tree does not support --merge-base")

// scratchSignature is used for the throwaway commits handed to git merge-tree
var scratchSignature = Signature{Name: "pstack", Email: "pstack@localhost", When: time.Unix(0, 0).UTC()}

// Merge computes the three-way merge of ours and theirs against base. All three are
// tree ids. The working tree and index are never touched.
func (r *Repository) Merge(ctx context.Context, base, ours, theirs string) (*MergeResult, error) {
	switch {
	case ours == theirs, base == theirs:
		return &MergeResult{Clean: true, Tree: ours}, nil
	case base == ours:
		return &MergeResult{Clean: true, Tree: theirs}, nil
	}

	baseFiles, err := r.TreeFiles(base)
	if err != nil {
		return nil, err
	}
	ourFiles, err := r.TreeFiles(ours)
	if err != nil {
		return nil, err
	}
	theirFiles, err := r.TreeFiles(theirs)
	if err != nil {
		return nil, err
	}

	merged, contested := mergePaths(baseFiles, ourFiles, theirFiles)
	if len(contested) == 0 {
		tree, err := r.BuildTree(merged)
		if err != nil {
			return nil, err
		}
		return &MergeResult{Clean: true, Tree: tree}, nil
	}

	if r.runner != nil && !r.noMergeTree.Load() {
		result, err := r.mergeTree(ctx, base, ours, theirs)
		if !errors.Is(err, errMergeTreeUnsupported) {
			return result, err
		}
		r.noMergeTree.Store(true)
	}
	if r.runner != nil {
		return r.fileMerge(ctx, merged, contested, baseFiles, ourFiles, theirFiles)
	}
	return r.markerMerge(merged, contested, baseFiles, ourFiles, theirFiles)
}

// mergePaths resolves every path whose content changed on at most one side.
// Paths changed differently on both sides are returned as contested.
func mergePaths(base, ours, theirs map[string]TreeFile) (map[string]TreeFile, []string) {
	paths := make(map[string]struct{}, len(ours)+len(theirs))
	for p := range base {
		paths[p] = struct{}{}
	}
	for p := range ours {
		paths[p] = struct{}{}
	}
	for p := range theirs {
		paths[p] = struct{}{}
	}

	merged := make(map[string]TreeFile, len(paths))
	var contested []string
	for p := range paths {
		b, o, t := base[p], ours[p], theirs[p]
		var result TreeFile
		switch {
		case o == t:
			result = o
		case b == o:
			result = t
		case b == t:
			result = o
		default:
			contested = append(contested, p)
			continue
		}
		if result.Exists() {
			merged[p] = result
		}
	}
	sort.Strings(contested)
	return merged, contested
}

// mergeTree runs git merge-tree on throwaway commits wrapping the three trees
func (r *Repository) mergeTree(ctx context.Context, base, ours, theirs string) (*MergeResult, error) {
	commits := make([]string, 0, 3)
	for _, tree := range []string{base, ours, theirs} {
		id, err := r.WriteCommit(CommitData{
			Tree:      tree,
			Message:   "pstack merge input\n",
			Author:    scratchSignature,
			Committer: scratchSignature,
		})
		if err != nil {
			return nil, err
		}
		commits = append(commits, id)
	}

	out, err := r.runner.RunRaw(ctx, "merge-tree", "--write-tree", "-z", "--merge-base="+commits[0], commits[1], commits[2])
	if err != nil {
		switch exitCode(err) {
		case 1:
			out = commandStdout(err)
		case 129:
			return nil, errMergeTreeUnsupported
		default:
			return nil, fmt.Errorf("merge-tree failed: %w", err)
		}
	}
	return parseMergeTreeOutput(out, err == nil)
}

// parseMergeTreeOutput parses `git merge-tree --write-tree -z` output:
// the tree id, then "<mode> <oid> <stage>\t<path>" records up to an empty record.
func parseMergeTreeOutput(out string, clean bool) (*MergeResult, error) {
	records := strings.Split(out, "\x00")
	if len(records) == 0 || strings.TrimSpace(records[0]) == "" {
		return nil, fmt.Errorf("unexpected merge-tree output %q", out)
	}
	result := &MergeResult{Clean: clean, Tree: strings.TrimSpace(records[0])}
	if clean {
		return result, nil
	}

	byPath := make(map[string]*Conflict)
	var order []string
	for _, rec := range records[1:] {
		if rec == "" {
			break
		}
		info, path, ok := strings.Cut(rec, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(info)
		if len(fields) != 3 {
			continue
		}
		mode, err := strconv.ParseUint(fields[0], 8, 32)
		if err != nil {
			return nil, fmt.Errorf("bad mode in merge-tree output %q: %w", rec, err)
		}
		file := TreeFile{Mode: filemode.FileMode(mode), ID: fields[1]}
		c, seen := byPath[path]
		if !seen {
			c = &Conflict{Path: path}
			byPath[path] = c
			order = append(order, path)
		}
		switch fields[2] {
		case "1":
			c.Base = file
		case "2":
			c.Ours = file
		case "3":
			c.Theirs = file
		}
	}
	sort.Strings(order)
	for _, p := range order {
		result.Conflicts = append(result.Conflicts, *byPath[p])
	}
	return result, nil
}

// fileMerge merges each contested path with git merge-file. Paths that
// exist on all three sides get a line-level merge; the rest keep whole-file
// markers like markerMerge.
func (r *Repository) fileMerge(ctx context.Context, merged map[string]TreeFile, contested []string, base, ours, theirs map[string]TreeFile) (*MergeResult, error) {
	dir, err := os.MkdirTemp("", "pstack-merge-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	result := &MergeResult{}
	for _, p := range contested {
		c := Conflict{Path: p, Base: base[p], Ours: ours[p], Theirs: theirs[p]}
		if !c.Ours.Exists() || !c.Theirs.Exists() || !lineMergeable(c.Ours.Mode) || c.Ours.Mode != c.Theirs.Mode {
			content, err := r.markerContent(c)
			if err != nil {
				return nil, err
			}
			if err := r.storeConflict(merged, c, content); err != nil {
				return nil, err
			}
			result.Conflicts = append(result.Conflicts, c)
			continue
		}

		files := make([]string, 0, 3)
		for i, f := range []TreeFile{c.Ours, c.Base, c.Theirs} {
			var data []byte
			if f.Exists() {
				if data, err = r.ReadBlob(f.ID); err != nil {
					return nil, err
				}
			}
			name := filepath.Join(dir, strconv.Itoa(i))
			if err := os.WriteFile(name, data, 0o600); err != nil {
				return nil, err
			}
			files = append(files, name)
		}
		out, err := r.runner.RunRaw(ctx, "merge-file", "-p", "-L", "ours", "-L", "base", "-L", "theirs", files[0], files[1], files[2])
		if err != nil {
			// the exit code counts the conflicts; anything negative is a failure
			if code := exitCode(err); code < 1 || code > 127 {
				return nil, fmt.Errorf("merge-file failed for %s: %w", p, err)
			}
			if err := r.storeConflict(merged, c, []byte(commandStdout(err))); err != nil {
				return nil, err
			}
			result.Conflicts = append(result.Conflicts, c)
			continue
		}
		id, err := r.WriteBlob([]byte(out))
		if err != nil {
			return nil, err
		}
		merged[p] = TreeFile{Mode: c.Ours.Mode, ID: id}
	}

	tree, err := r.BuildTree(merged)
	if err != nil {
		return nil, err
	}
	result.Tree = tree
	result.Clean = len(result.Conflicts) == 0
	return result, nil
}

func lineMergeable(mode filemode.FileMode) bool {
	return mode == filemode.Regular || mode == filemode.Executable
}

// storeConflict records content as the conflicted version of c's path
func (r *Repository) storeConflict(merged map[string]TreeFile, c Conflict, content []byte) error {
	id, err := r.WriteBlob(content)
	if err != nil {
		return err
	}
	mode := c.Ours.Mode
	if !c.Ours.Exists() {
		mode = c.Theirs.Mode
	}
	merged[c.Path] = TreeFile{Mode: mode, ID: id}
	return nil
}

// markerMerge writes whole-file conflict markers for contested paths.
// It is used when no git binary is attached.
func (r *Repository) markerMerge(merged map[string]TreeFile, contested []string, base, ours, theirs map[string]TreeFile) (*MergeResult, error) {
	result := &MergeResult{}
	for _, p := range contested {
		c := Conflict{Path: p, Base: base[p], Ours: ours[p], Theirs: theirs[p]}
		content, err := r.markerContent(c)
		if err != nil {
			return nil, err
		}
		if err := r.storeConflict(merged, c, content); err != nil {
			return nil, err
		}
		result.Conflicts = append(result.Conflicts, c)
	}
	tree, err := r.BuildTree(merged)
	if err != nil {
		return nil, err
	}
	result.Tree = tree
	return result, nil
}

func (r *Repository) markerContent(c Conflict) ([]byte, error) {
	var buf bytes.Buffer
	read := func(f TreeFile) error {
		if !f.Exists() {
			return nil
		}
		data, err := r.ReadBlob(f.ID)
		if err != nil {
			return err
		}
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
		return nil
	}
	buf.WriteString("<<<<<<< ours\n")
	if err := read(c.Ours); err != nil {
		return nil, err
	}
	buf.WriteString("=======\n")
	if err := read(c.Theirs); err != nil {
		return nil, err
	}
	buf.WriteString(">>>>>>> theirs\n")
	return buf.Bytes(), nil
}
