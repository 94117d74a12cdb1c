package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// builtScenario records the scenario's history and seeds the checkpoint
// at HEAD, the state 'switch' operates on in practice.
func builtScenario(t *testing.T) (*scenario, *fakeCheckpoints) {
	t.Helper()
	s := newScenario()
	require.NoError(t, s.builder().Build(context.Background(), s.live))

	cps := newFakeCheckpoints()
	require.NoError(t, cps.SetRepoCommit(context.Background(), "myrepo", "head"))
	return s, cps
}

func TestSwitchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, cps := builtScenario(t)
	sw := NewSwitcher("myrepo", s.live, s.store, cps)

	// Backward to the root commit: b.py comes back, then everything c3
	// introduced goes away.
	cs, err := sw.Switch(ctx, "root")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.py"}, s.live.paths())
	assert.Len(t, cs.Deletions.Nodes, 2)
	assert.Empty(t, cs.Additions.Nodes)

	at, err := cps.GetRepoCommit(ctx, "myrepo")
	require.NoError(t, err)
	assert.Equal(t, "root", at)

	// Forward again: the graph returns to its HEAD shape.
	cs, err = sw.Switch(ctx, "head")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.py", "c.py"}, s.live.paths())
	assert.Len(t, cs.Deletions.Nodes, 1)

	at, err = cps.GetRepoCommit(ctx, "myrepo")
	require.NoError(t, err)
	assert.Equal(t, "head", at)
}

func TestSwitchIntermediateCommits(t *testing.T) {
	ctx := context.Background()
	s, cps := builtScenario(t)
	sw := NewSwitcher("myrepo", s.live, s.store, cps)

	_, err := sw.Switch(ctx, "c2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.py"}, s.live.paths())

	_, err = sw.Switch(ctx, "c3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.py", "b.py", "c.py"}, s.live.paths())
}

func TestSwitchSameCommit(t *testing.T) {
	ctx := context.Background()
	s, cps := builtScenario(t)
	sw := NewSwitcher("myrepo", s.live, s.store, cps)

	cs, err := sw.Switch(ctx, "head")
	require.NoError(t, err)
	assert.Empty(t, cs.Deletions.Nodes)
	assert.ElementsMatch(t, []string{"a.py", "c.py"}, s.live.paths())
}

func TestSwitchValidation(t *testing.T) {
	ctx := context.Background()
	s, cps := builtScenario(t)

	_, err := NewSwitcher("myrepo", s.live, s.store, cps).Switch(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSwitcher("", s.live, s.store, cps).Switch(ctx, "head")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSwitchUnknownCommit(t *testing.T) {
	ctx := context.Background()
	s, cps := builtScenario(t)
	sw := NewSwitcher("myrepo", s.live, s.store, cps)

	_, err := sw.Switch(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	// Failed switches leave the checkpoint alone.
	at, err := cps.GetRepoCommit(ctx, "myrepo")
	require.NoError(t, err)
	assert.Equal(t, "head", at)
}

func TestSwitchWithoutCheckpoint(t *testing.T) {
	ctx := context.Background()
	s := newScenario()
	require.NoError(t, s.builder().Build(ctx, s.live))

	sw := NewSwitcher("myrepo", s.live, s.store, newFakeCheckpoints())
	_, err := sw.Switch(ctx, "root")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSwitchReplayFailureKeepsCheckpoint(t *testing.T) {
	ctx := context.Background()
	s, cps := builtScenario(t)

	// Corrupt one recorded payload so replay fails mid-switch.
	tr := s.store.parentTransitions[edgeKey("c3", "c2")]
	tr.Queries = []string{"NO_SUCH_OP"}
	tr.Params = []map[string]any{nil}
	s.store.parentTransitions[edgeKey("c3", "c2")] = tr

	sw := NewSwitcher("myrepo", s.live, s.store, cps)
	_, err := sw.Switch(ctx, "root")
	require.Error(t, err)

	at, err := cps.GetRepoCommit(ctx, "myrepo")
	require.NoError(t, err)
	assert.Equal(t, "head", at)
}
