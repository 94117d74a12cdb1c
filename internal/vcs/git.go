package vcs

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// GitRepo implements Port over a local git clone.
type GitRepo struct {
	repo *git.Repository
	path string
}

var _ Port = (*GitRepo)(nil)

// Open opens the repository rooted at path.
func Open(path string) (*GitRepo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", path, err)
	}
	return &GitRepo{repo: repo, path: path}, nil
}

// Path returns the repository's working tree root.
func (r *GitRepo) Path() string {
	return r.path
}

func (r *GitRepo) Head(ctx context.Context) (Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Commit{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	return r.Commit(ctx, ref.Hash().String())
}

func (r *GitRepo) Commit(_ context.Context, hash string) (Commit, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return Commit{}, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	return toCommit(c), nil
}

func (r *GitRepo) Diff(_ context.Context, from, to string) ([]Change, error) {
	fromTree, err := r.tree(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.tree(to)
	if err != nil {
		return nil, err
	}

	diff, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
	}

	changes := make([]Change, 0, len(diff))
	for _, ch := range diff {
		action, err := ch.Action()
		if err != nil {
			return nil, fmt.Errorf("diff %s..%s: %w", from, to, err)
		}
		switch action {
		case merkletrie.Insert:
			changes = append(changes, Change{Path: ch.To.Name, Kind: Added})
		case merkletrie.Delete:
			changes = append(changes, Change{Path: ch.From.Name, Kind: Deleted})
		case merkletrie.Modify:
			changes = append(changes, Change{Path: ch.From.Name, Kind: Modified})
		}
	}
	return changes, nil
}

func (r *GitRepo) Checkout(_ context.Context, hash string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(hash),
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("checkout %s: %w", hash, err)
	}
	return nil
}

func (r *GitRepo) tree(hash string) (*object.Tree, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", hash, err)
	}
	return tree, nil
}

func toCommit(c *object.Commit) Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = h.String()
	}
	return Commit{
		Hash:    c.Hash.String(),
		Author:  c.Author.Name,
		Message: c.Message,
		When:    c.Committer.When,
		Parents: parents,
	}
}
