// Package repoinfo keeps per-repository metadata next to the graphs it
// describes. Metadata lives in a redis hash keyed "{repo}_info" on the
// same server that stores the graphs, so a repository and its
// checkpoint can never drift onto separate backends.
package repoinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldRepoURL = "repo_url"
	fieldCommit  = "commit"
)

// Info is the recorded metadata of one tracked repository.
type Info struct {
	RepoURL string
	Commit  string
}

// Store reads and writes repository metadata hashes.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// infoKey shares the repository's redis cluster hash tag with the
// graphs named after it, so metadata and graphs land on one slot.
func infoKey(repo string) string {
	return "{" + repo + "}_info"
}

// SaveRepoInfo records where a repository was cloned from.
func (s *Store) SaveRepoInfo(ctx context.Context, repo, url string) error {
	if err := s.rdb.HSet(ctx, infoKey(repo), fieldRepoURL, url).Err(); err != nil {
		return fmt.Errorf("save info of %s: %w", repo, err)
	}
	return nil
}

// GetRepoInfo returns the recorded metadata of a repository, or nil
// when nothing has been recorded for it.
func (s *Store) GetRepoInfo(ctx context.Context, repo string) (*Info, error) {
	fields, err := s.rdb.HGetAll(ctx, infoKey(repo)).Result()
	if err != nil {
		return nil, fmt.Errorf("read info of %s: %w", repo, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &Info{
		RepoURL: fields[fieldRepoURL],
		Commit:  fields[fieldCommit],
	}, nil
}

// SetRepoCommit moves the repository's checkpoint to the given commit.
func (s *Store) SetRepoCommit(ctx context.Context, repo, commit string) error {
	if err := s.rdb.HSet(ctx, infoKey(repo), fieldCommit, commit).Err(); err != nil {
		return fmt.Errorf("set checkpoint of %s: %w", repo, err)
	}
	return nil
}

// GetRepoCommit returns the repository's current checkpoint, or the
// empty string when no checkpoint has been recorded.
func (s *Store) GetRepoCommit(ctx context.Context, repo string) (string, error) {
	commit, err := s.rdb.HGet(ctx, infoKey(repo), fieldCommit).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read checkpoint of %s: %w", repo, err)
	}
	return commit, nil
}

// Delete removes a repository's metadata hash.
func (s *Store) Delete(ctx context.Context, repo string) error {
	if err := s.rdb.Del(ctx, infoKey(repo)).Err(); err != nil {
		return fmt.Errorf("delete info of %s: %w", repo, err)
	}
	return nil
}
