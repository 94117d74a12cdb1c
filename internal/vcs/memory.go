package vcs

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// MemoryRepo is a pure in-memory Port with no filesystem checkout,
// for exercising the versioning core without a real repository. Commits
// form a single linear lineage, appended oldest first.
type MemoryRepo struct {
	head     string
	current  string
	commits  map[string]Commit
	trees    map[string]map[string]string // hash -> path -> content
	failures map[string]error
}

var _ Port = (*MemoryRepo)(nil)

// NewMemoryRepo returns an empty repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		commits:  make(map[string]Commit),
		trees:    make(map[string]map[string]string),
		failures: make(map[string]error),
	}
}

// AddCommit appends a commit with the given full file tree. The first
// commit added is the root; every later commit's first parent is the
// previous head. Returns the hash for convenience.
func (m *MemoryRepo) AddCommit(hash, author, message string, when time.Time, files map[string]string) string {
	c := Commit{Hash: hash, Author: author, Message: message, When: when}
	if m.head != "" {
		c.Parents = []string{m.head}
	}
	m.commits[hash] = c

	tree := make(map[string]string, len(files))
	for p, content := range files {
		tree[p] = content
	}
	m.trees[hash] = tree

	m.head = hash
	m.current = hash
	return hash
}

// FailCheckout makes Checkout of the given hash return err, for
// exercising build failure cleanup.
func (m *MemoryRepo) FailCheckout(hash string, err error) {
	m.failures[hash] = err
}

// CheckedOut returns the hash the working tree currently reflects.
func (m *MemoryRepo) CheckedOut() string {
	return m.current
}

// Tree returns the file tree of a commit.
func (m *MemoryRepo) Tree(hash string) map[string]string {
	return m.trees[hash]
}

func (m *MemoryRepo) Head(context.Context) (Commit, error) {
	c, ok := m.commits[m.head]
	if !ok {
		return Commit{}, fmt.Errorf("repository has no commits")
	}
	return c, nil
}

func (m *MemoryRepo) Commit(_ context.Context, hash string) (Commit, error) {
	c, ok := m.commits[hash]
	if !ok {
		return Commit{}, fmt.Errorf("unknown commit %s", hash)
	}
	return c, nil
}

func (m *MemoryRepo) Diff(_ context.Context, from, to string) ([]Change, error) {
	fromTree, ok := m.trees[from]
	if !ok {
		return nil, fmt.Errorf("unknown commit %s", from)
	}
	toTree, ok := m.trees[to]
	if !ok {
		return nil, fmt.Errorf("unknown commit %s", to)
	}

	var changes []Change
	for p, content := range fromTree {
		if toContent, ok := toTree[p]; !ok {
			changes = append(changes, Change{Path: p, Kind: Deleted})
		} else if toContent != content {
			changes = append(changes, Change{Path: p, Kind: Modified})
		}
	}
	for p := range toTree {
		if _, ok := fromTree[p]; !ok {
			changes = append(changes, Change{Path: p, Kind: Added})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func (m *MemoryRepo) Checkout(_ context.Context, hash string) error {
	if err := m.failures[hash]; err != nil {
		return err
	}
	if _, ok := m.commits[hash]; !ok {
		return fmt.Errorf("unknown commit %s", hash)
	}
	m.current = hash
	return nil
}
