package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

const treeJSON = `{
  "100": {"name": "Jewel Socket", "x": 0, "y": 0},
  "101": {"name": "Heart of Flame", "x": 300, "y": 400, "is_notable": true},
  "104": {"name": "Strength", "x": -500, "y": 0, "stats": ["+10 to Strength"]}
}`

const weightsJSON = `{
  "notables": [
    {"id": "a", "name": "Alpha", "spawn_weight": 100},
    {"id": "b", "name": "Bravo", "spawn_weight": 300}
  ],
  "keystones": [],
  "small_passive": {"id": "small_tribute", "name": "Tribute"}
}`

func writeDatasets(t *testing.T, dir, tree, weights string) (string, string) {
	t.Helper()
	treePath := filepath.Join(dir, "passive_tree.json")
	weightsPath := filepath.Join(dir, "spawn_weights.json")
	require.NoError(t, os.WriteFile(treePath, []byte(tree), 0o644))
	require.NoError(t, os.WriteFile(weightsPath, []byte(weights), 0o644))
	return treePath, weightsPath
}

func newTestProvider(t *testing.T) (*Provider, string, string) {
	t.Helper()
	treePath, weightsPath := writeDatasets(t, t.TempDir(), treeJSON, weightsJSON)
	p, err := NewProvider(Config{TreePath: treePath, WeightsPath: weightsPath})
	require.NoError(t, err)
	return p, treePath, weightsPath
}

func TestNewProviderRequiresPaths(t *testing.T) {
	_, err := NewProvider(Config{WeightsPath: "w.json"})
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = NewProvider(Config{TreePath: "t.json"})
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestSnapshotBeforeLoad(t *testing.T) {
	p, _, _ := newTestProvider(t)

	_, err := p.Snapshot()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoad(t *testing.T) {
	p, treePath, weightsPath := newTestProvider(t)

	snap, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, 3, snap.Graph.Len())
	assert.Equal(t, 2, snap.Mapper.Selector().Len())
	assert.False(t, snap.LoadedAt.IsZero())

	cur, err := p.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, cur)

	tree, weights := p.Paths()
	assert.Equal(t, treePath, tree)
	assert.Equal(t, weightsPath, weights)

	res, err := snap.Mapper.Analyze(100, 1000, "Ulaman", 1500)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NotableCount)
	assert.Equal(t, 8, res.TotalTribute)
}

func TestLoadMissingFile(t *testing.T) {
	p, err := NewProvider(Config{
		TreePath:    filepath.Join(t.TempDir(), "absent.json"),
		WeightsPath: filepath.Join(t.TempDir(), "absent.json"),
	})
	require.NoError(t, err)

	_, err = p.Load()
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReloadFailureKeepsPrevious(t *testing.T) {
	p, _, weightsPath := newTestProvider(t)

	first, err := p.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(weightsPath, []byte(`{"notables": [{"id": "x", "name": "X", "spawn_weight": -1}]}`), 0o644))
	_, err = p.Load()
	assert.ErrorIs(t, err, timeless.ErrInvalidWeights)

	cur, err := p.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, cur)
}

func TestReloadBumpsGenerationAndNotifies(t *testing.T) {
	p, _, weightsPath := newTestProvider(t)

	var seen []uint64
	p.OnReload(func(s *Snapshot) {
		seen = append(seen, s.Generation)
	})

	_, err := p.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(weightsPath, []byte(`{
	  "notables": [{"id": "c", "name": "Charlie", "spawn_weight": 5}],
	  "small_passive": {"id": "s", "name": "Small"}
	}`), 0o644))

	snap, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, 1, snap.Mapper.Selector().Len())
	assert.Equal(t, []uint64{1, 2}, seen)
}
