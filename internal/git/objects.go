package git

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// EmptyTreeID is the id of the tree with no entries
const EmptyTreeID = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// ZeroID is the all-zero object id, used for "does not exist" in ref updates
var ZeroID = plumbing.ZeroHash.String()

// Signature identifies the author or committer of a commit
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a decoded commit object
type Commit struct {
	ID        string
	Tree      string
	Parents   []string
	Message   string
	Author    Signature
	Committer Signature
}

// Parent returns the first parent, or "" for root commits
func (c *Commit) Parent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// Subject returns the first line of the commit message
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return subject
}

// CommitData describes a commit to be written
type CommitData struct {
	Tree      string
	Parents   []string
	Message   string
	Author    Signature
	Committer Signature
}

// TreeFile is one file entry of a flattened tree
type TreeFile struct {
	Mode filemode.FileMode
	ID   string
}

// Exists reports whether the entry refers to a file
func (f TreeFile) Exists() bool {
	return f.ID != ""
}

// ReadCommit reads and decodes a commit object
func (r *Repository) ReadCommit(id string) (*Commit, error) {
	r.objLock.Lock()
	defer r.objLock.Unlock()
	c, err := object.GetCommit(r.storer, plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", id, err)
	}
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		ID:        c.Hash.String(),
		Tree:      c.TreeHash.String(),
		Parents:   parents,
		Message:   c.Message,
		Author:    Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer: Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
	}, nil
}

// CommitTree returns the tree id of a commit
func (r *Repository) CommitTree(id string) (string, error) {
	c, err := r.ReadCommit(id)
	if err != nil {
		return "", err
	}
	return c.Tree, nil
}

// WriteCommit encodes and stores a commit object, returning its id
func (r *Repository) WriteCommit(data CommitData) (string, error) {
	c := &object.Commit{
		Author:    object.Signature{Name: data.Author.Name, Email: data.Author.Email, When: data.Author.When},
		Committer: object.Signature{Name: data.Committer.Name, Email: data.Committer.Email, When: data.Committer.When},
		Message:   data.Message,
		TreeHash:  plumbing.NewHash(data.Tree),
	}
	for _, p := range data.Parents {
		c.ParentHashes = append(c.ParentHashes, plumbing.NewHash(p))
	}

	obj := r.storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode commit: %w", err)
	}
	hash, err := r.storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to write commit: %w", err)
	}
	return hash.String(), nil
}

// WriteBlob stores content as a blob object, returning its id
func (r *Repository) WriteBlob(content []byte) (string, error) {
	obj := r.storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))
	w, err := obj.Writer()
	if err != nil {
		return "", fmt.Errorf("failed to open blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	hash, err := r.storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return hash.String(), nil
}

// ReadBlob returns the content of a blob object
func (r *Repository) ReadBlob(id string) ([]byte, error) {
	r.objLock.Lock()
	defer r.objLock.Unlock()
	blob, err := object.GetBlob(r.storer, plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// TreeFiles flattens a tree into a map of path to file entry
func (r *Repository) TreeFiles(tree string) (map[string]TreeFile, error) {
	files := make(map[string]TreeFile)
	if tree == "" || tree == EmptyTreeID {
		return files, nil
	}
	r.objLock.Lock()
	defer r.objLock.Unlock()
	t, err := object.GetTree(r.storer, plumbing.NewHash(tree))
	if err != nil {
		return nil, fmt.Errorf("failed to read tree %s: %w", tree, err)
	}
	walker := object.NewTreeWalker(t, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to walk tree %s: %w", tree, err)
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		files[name] = TreeFile{Mode: entry.Mode, ID: entry.Hash.String()}
	}
	return files, nil
}

// BuildTree writes the nested tree objects for a flattened file map and returns the root tree id
func (r *Repository) BuildTree(files map[string]TreeFile) (string, error) {
	return r.buildTree(files, "")
}

func (r *Repository) buildTree(files map[string]TreeFile, prefix string) (string, error) {
	direct := make(map[string]TreeFile)
	subdirs := make(map[string]map[string]TreeFile)
	for path, f := range files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		dir, sub, nested := strings.Cut(rest, "/")
		if !nested {
			direct[rest] = f
			continue
		}
		if subdirs[dir] == nil {
			subdirs[dir] = make(map[string]TreeFile)
		}
		subdirs[dir][prefix+dir+"/"+sub] = f
	}

	entries := make([]object.TreeEntry, 0, len(direct)+len(subdirs))
	for name, f := range direct {
		if _, clash := subdirs[name]; clash {
			return "", fmt.Errorf("path %s%s is both a file and a directory", prefix, name)
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: f.Mode, Hash: plumbing.NewHash(f.ID)})
	}
	for name, sub := range subdirs {
		id, err := r.buildTree(sub, prefix+name+"/")
		if err != nil {
			return "", err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: plumbing.NewHash(id)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})

	t := &object.Tree{Entries: entries}
	obj := r.storer.NewEncodedObject()
	if err := t.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode tree: %w", err)
	}
	hash, err := r.storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to write tree: %w", err)
	}
	return hash.String(), nil
}

// git orders directories as if their name ended in a slash
func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}
