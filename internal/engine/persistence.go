package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"

	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/internal/stack"
)

const (
	// stateFile is the name of the stack document in a state commit's tree
	stateFile = "stack.json"

	// patchesMessage is the message of the commits that keep patch commits reachable
	patchesMessage = "pstack patches"

	// maxParents bounds the parents of a single keep-alive commit
	maxParents = 16

	pendingVersion = 1
)

// state is a decoded state commit.
//
// A state commit's tree holds stack.json and its message is the label of the
// operation that produced it. Its last parent is a commit whose parents are
// the branch head and every patch commit, so nothing the stack refers to is
// ever garbage collected. When there is an earlier state it is the first parent.
type state struct {
	ID    string
	Prev  string
	Label string
	When  time.Time
	Stack *stack.Stack
}

func (e *Engine) writeState(s *stack.Stack, prev, label string) (string, error) {
	data, err := s.Marshal()
	if err != nil {
		return "", err
	}
	blob, err := e.store.WriteBlob(data)
	if err != nil {
		return "", fmt.Errorf("failed to write stack document: %w", err)
	}
	tree, err := e.store.BuildTree(map[string]git.TreeFile{
		stateFile: {Mode: filemode.Regular, ID: blob},
	})
	if err != nil {
		return "", fmt.Errorf("failed to write state tree: %w", err)
	}

	keep := []string{s.Head}
	seen := map[string]bool{s.Head: true}
	for _, name := range s.All() {
		if commit := s.Commit(name); !seen[commit] {
			seen[commit] = true
			keep = append(keep, commit)
		}
	}
	patches, err := e.writeKeepAlive(keep)
	if err != nil {
		return "", err
	}

	parents := []string{patches}
	if prev != "" {
		parents = []string{prev, patches}
	}
	sig := e.signature()
	id, err := e.store.WriteCommit(git.CommitData{
		Tree:      tree,
		Parents:   parents,
		Message:   label + "\n",
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return "", fmt.Errorf("failed to write state commit: %w", err)
	}
	return id, nil
}

// writeKeepAlive writes an empty-tree commit with ids as parents, nesting
// groups of maxParents when there are too many for one commit
func (e *Engine) writeKeepAlive(ids []string) (string, error) {
	for len(ids) > maxParents {
		var groups []string
		for start := 0; start < len(ids); start += maxParents {
			end := min(start+maxParents, len(ids))
			id, err := e.writeKeepAlive(ids[start:end])
			if err != nil {
				return "", err
			}
			groups = append(groups, id)
		}
		ids = groups
	}

	empty, err := e.store.BuildTree(nil)
	if err != nil {
		return "", err
	}
	sig := e.signature()
	id, err := e.store.WriteCommit(git.CommitData{
		Tree:      empty,
		Parents:   ids,
		Message:   patchesMessage + "\n",
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		return "", fmt.Errorf("failed to write patches commit: %w", err)
	}
	return id, nil
}

// readState decodes the state commit id
func (e *Engine) readState(id string) (*state, error) {
	commit, err := e.store.ReadCommit(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", id, err)
	}
	files, err := e.store.TreeFiles(commit.Tree)
	if err != nil {
		return nil, err
	}
	f, ok := files[stateFile]
	if !ok {
		return nil, fmt.Errorf("state %s has no %s", id, stateFile)
	}
	data, err := e.store.ReadBlob(f.ID)
	if err != nil {
		return nil, err
	}
	s, err := stack.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", id, err)
	}
	return &state{
		ID:    id,
		Prev:  prevState(commit),
		Label: commit.Subject(),
		When:  commit.Committer.When,
		Stack: s,
	}, nil
}

func prevState(commit *git.Commit) string {
	if len(commit.Parents) == 2 {
		return commit.Parents[0]
	}
	return ""
}

// pendingTransaction is the persisted form of a halted transaction
type pendingTransaction struct {
	Version      int             `json:"version"`
	Branch       string          `json:"branch"`
	Label        string          `json:"label"`
	BaseState    string          `json:"baseState"`
	BaseHead     string          `json:"baseHead"`
	Stack        json.RawMessage `json:"stack"`
	Conflict     *conflict       `json:"conflict"`
	CheckedOut   bool            `json:"checkedOut"`
	WorktreeTree string          `json:"worktreeTree,omitempty"`
}

// conflict records the patch a push stopped at
type conflict struct {
	Patch string `json:"patch"`
	// Parent is the commit the patch was being pushed onto
	Parent string `json:"parent"`
	// Tree is the merge result with conflict markers
	Tree  string   `json:"tree"`
	Paths []string `json:"paths"`
}

func (tx *Transaction) encodePending() ([]byte, error) {
	s, err := tx.stack.Marshal()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(pendingTransaction{
		Version:      pendingVersion,
		Branch:       tx.branch,
		Label:        tx.label,
		BaseState:    tx.baseState,
		BaseHead:     tx.baseHead,
		Stack:        s,
		Conflict:     tx.conflict,
		CheckedOut:   tx.checkedOut,
		WorktreeTree: tx.worktreeTree,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode halted transaction: %w", err)
	}
	return append(data, '\n'), nil
}

func decodePending(data []byte) (*pendingTransaction, *stack.Stack, error) {
	var p pendingTransaction
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("failed to decode halted transaction: %w", err)
	}
	if p.Version != pendingVersion {
		return nil, nil, fmt.Errorf("unsupported halted transaction version %d", p.Version)
	}
	s, err := stack.Parse(p.Stack)
	if err != nil {
		return nil, nil, err
	}
	return &p, s, nil
}
