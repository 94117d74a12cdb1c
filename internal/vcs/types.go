// Package vcs abstracts the version-control access the versioning core
// needs: commit enumeration, parent linkage, tree diffs, and working
// tree checkout. The Port interface keeps the core testable with an
// in-memory repository that never touches a real checkout.
package vcs

import (
	"context"
	"time"
)

// ChangeKind classifies one path in a diff.
type ChangeKind int

const (
	Added ChangeKind = iota
	Deleted
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one changed path in a diff between two trees.
type Change struct {
	Path string
	Kind ChangeKind
}

// Commit is a commit's metadata. Parents lists parent hashes in order;
// the first entry is the first parent.
type Commit struct {
	Hash    string
	Author  string
	Message string
	When    time.Time
	Parents []string
}

// Port is the version-control access point.
type Port interface {
	// Head returns the commit the working tree currently reflects.
	Head(ctx context.Context) (Commit, error)

	// Commit returns metadata for the given hash.
	Commit(ctx context.Context, hash string) (Commit, error)

	// Diff returns the changes that transform from's tree into to's
	// tree: Added paths exist only in to, Deleted paths only in from.
	Diff(ctx context.Context, from, to string) ([]Change, error)

	// Checkout moves the working tree to the given commit in place.
	Checkout(ctx context.Context, hash string) error
}
