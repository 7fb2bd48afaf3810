package stack

import (
	"encoding/json"
	"fmt"
)

// FormatVersion is the version of the stack.json format written by Marshal
const FormatVersion = 1

type patchEntry struct {
	Name   string `json:"name"`
	Commit string `json:"commit"`
}

type stackFile struct {
	Version   int          `json:"version"`
	Branch    string       `json:"branch"`
	Base      string       `json:"base"`
	Head      string       `json:"head"`
	Applied   []patchEntry `json:"applied"`
	Unapplied []patchEntry `json:"unapplied"`
	Hidden    []patchEntry `json:"hidden"`
}

// Marshal serializes the stack. The output depends only on the stack's
// content, so equal stacks always produce byte-identical data.
func (s *Stack) Marshal() ([]byte, error) {
	entries := func(names []string) []patchEntry {
		out := make([]patchEntry, 0, len(names))
		for _, name := range names {
			out = append(out, patchEntry{Name: name, Commit: s.Patches[name]})
		}
		return out
	}
	data, err := json.MarshalIndent(stackFile{
		Version:   FormatVersion,
		Branch:    s.Branch,
		Base:      s.Base,
		Head:      s.Head,
		Applied:   entries(s.Applied),
		Unapplied: entries(s.Unapplied),
		Hidden:    entries(s.Hidden),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stack: %w", err)
	}
	return append(data, '\n'), nil
}

// Parse decodes a stack serialized by Marshal and checks its partition invariant
func Parse(data []byte) (*Stack, error) {
	var f stackFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse stack: %w", err)
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported stack format version %d", f.Version)
	}

	s := New(f.Branch, f.Base)
	s.Head = f.Head
	load := func(entries []patchEntry) ([]string, error) {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if _, dup := s.Patches[e.Name]; dup {
				return nil, fmt.Errorf("patch %q listed twice", e.Name)
			}
			s.Patches[e.Name] = e.Commit
			names = append(names, e.Name)
		}
		return names, nil
	}
	var err error
	if s.Applied, err = load(f.Applied); err != nil {
		return nil, err
	}
	if s.Unapplied, err = load(f.Unapplied); err != nil {
		return nil, err
	}
	if s.Hidden, err = load(f.Hidden); err != nil {
		return nil, err
	}
	if err := s.Validate(nil); err != nil {
		return nil, fmt.Errorf("invalid stack: %w", err)
	}
	return s, nil
}
