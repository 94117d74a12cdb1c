package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/internal/vcs"
)

// scenario is a four-commit linear history:
//
//	root: a.py
//	c2:   a.py (modified)
//	c3:   a.py b.py c.py README.md venv/x.py
//	head: a.py c.py README.md venv/x.py  (b.py removed)
type scenario struct {
	repo  *vcs.MemoryRepo
	store *fakeStore
	live  *fakeGraph
}

func newScenario() *scenario {
	repo := vcs.NewMemoryRepo()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.AddCommit("root", "ann", "initial", t0, map[string]string{
		"a.py": "def a(): pass",
	})
	repo.AddCommit("c2", "ann", "tweak a", t0.Add(time.Hour), map[string]string{
		"a.py": "def a(): return 1",
	})
	repo.AddCommit("c3", "ben", "add b and c", t0.Add(2*time.Hour), map[string]string{
		"a.py":      "def a(): return 1",
		"b.py":      "def b(): pass",
		"c.py":      "def c(): pass",
		"README.md": "docs",
		"venv/x.py": "ignored",
	})
	repo.AddCommit("head", "ben", "drop b", t0.Add(3*time.Hour), map[string]string{
		"a.py":      "def a(): return 1",
		"c.py":      "def c(): pass",
		"README.md": "docs",
		"venv/x.py": "ignored",
	})

	return &scenario{
		repo:  repo,
		store: newFakeStore(),
		live:  newFakeGraph("myrepo", "a.py", "c.py"),
	}
}

func (s *scenario) builder() *Builder {
	return NewBuilder("/nowhere", s.repo, s.store, fakeAnalyzer{}, IgnorePredicate([]string{"venv/**"}))
}

func TestBuildRecordsHistory(t *testing.T) {
	ctx := context.Background()
	s := newScenario()

	require.NoError(t, s.builder().Build(ctx, s.live))

	// Lineage recorded.
	assert.Len(t, s.store.commits, 4)
	assert.Equal(t, "c3", s.store.parents["head"])
	assert.Equal(t, "c2", s.store.parents["c3"])
	assert.Equal(t, "root", s.store.parents["c2"])
	assert.Equal(t, "ben", s.store.commits["head"].Author)
	assert.Equal(t,
		time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC).Unix(),
		s.store.commits["head"].Date)

	// Backward payloads: moving head -> c3 restores b.py, c3 -> c2
	// removes the files c3 introduced, c2 -> root changes nothing
	// structurally.
	tr := s.store.parentTransitions[edgeKey("head", "c3")]
	require.Equal(t, []string{opAddFile}, tr.Queries)
	assert.Equal(t, "b.py", tr.Params[0]["path"])

	tr = s.store.parentTransitions[edgeKey("c3", "c2")]
	require.Equal(t, []string{opDeleteFiles}, tr.Queries)
	assert.ElementsMatch(t, []any{"b.py", "c.py"}, tr.Params[0]["paths"])

	_, ok := s.store.parentTransitions[edgeKey("c2", "root")]
	assert.False(t, ok, "modified-only step must record no transition")

	// Forward payloads mirror the backward ones in the other direction.
	tr = s.store.childTransitions[edgeKey("c3", "c2")]
	require.Equal(t, []string{opAddFile, opAddFile}, tr.Queries)
	assert.Equal(t, "b.py", tr.Params[0]["path"])
	assert.Equal(t, "c.py", tr.Params[1]["path"])

	tr = s.store.childTransitions[edgeKey("head", "c3")]
	require.Equal(t, []string{opDeleteFiles}, tr.Queries)
	assert.ElementsMatch(t, []any{"b.py"}, tr.Params[0]["paths"])

	_, ok = s.store.childTransitions[edgeKey("c2", "root")]
	assert.False(t, ok)

	// The live graph is untouched, the scratch copy is gone and the
	// working tree is back on HEAD.
	assert.ElementsMatch(t, []string{"a.py", "c.py"}, s.live.paths())
	assert.False(t, s.live.deleted)
	require.Len(t, s.live.clones, 1)
	assert.Equal(t, "myrepo_tmp", s.live.clones[0].name)
	assert.True(t, s.live.clones[0].deleted)
	assert.Equal(t, "head", s.repo.CheckedOut())
}

func TestBuildTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newScenario()
	b := s.builder()

	require.NoError(t, b.Build(ctx, s.live))
	first := s.store.parentTransitions[edgeKey("c3", "c2")]

	require.NoError(t, b.Build(ctx, s.live))
	second := s.store.parentTransitions[edgeKey("c3", "c2")]

	assert.Equal(t, first, second)
	assert.Len(t, s.store.commits, 4)
	assert.ElementsMatch(t, []string{"a.py", "c.py"}, s.live.paths())
}

func TestBuildCheckoutFailureCleansUp(t *testing.T) {
	ctx := context.Background()
	s := newScenario()
	boom := errors.New("checkout refused")
	s.repo.FailCheckout("c3", boom)

	err := s.builder().Build(ctx, s.live)
	require.ErrorIs(t, err, boom)

	// Scratch deleted and working tree restored despite the failure.
	require.Len(t, s.live.clones, 1)
	assert.True(t, s.live.clones[0].deleted)
	assert.Equal(t, "head", s.repo.CheckedOut())
	assert.False(t, s.live.deleted)
}

func TestBuildSingleCommit(t *testing.T) {
	ctx := context.Background()
	repo := vcs.NewMemoryRepo()
	repo.AddCommit("only", "ann", "initial", time.Now(), map[string]string{"a.py": "x"})

	store := newFakeStore()
	live := newFakeGraph("solo", "a.py")
	b := NewBuilder("/nowhere", repo, store, fakeAnalyzer{}, nil)

	require.NoError(t, b.Build(ctx, live))
	assert.Len(t, store.commits, 1)
	assert.Empty(t, store.parents)
	assert.Empty(t, store.parentTransitions)
}

func TestBuildEmptyRepo(t *testing.T) {
	ctx := context.Background()
	repo := vcs.NewMemoryRepo()
	live := newFakeGraph("empty")
	b := NewBuilder("/nowhere", repo, newFakeStore(), fakeAnalyzer{}, nil)

	err := b.Build(ctx, live)
	require.Error(t, err)
	assert.Empty(t, live.clones)
}
