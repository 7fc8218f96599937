package timeless

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
)

const testTree = `{
  "100": {"name": "Jewel Socket", "x": 0, "y": 0},
  "101": {"name": "Heart of Flame", "x": 300, "y": 400, "is_notable": true},
  "102": {"name": "Cold Blooded", "x": 600, "y": 0, "is_notable": true},
  "103": {"name": "Resolute Technique", "x": 0, "y": 900, "is_keystone": true},
  "104": {"name": "Strength", "x": -500, "y": 0, "stats": ["+10 to STRENGTH"]},
  "105": {"name": "Life", "x": 0, "y": -700, "stats": ["5% increased maximum Life"]},
  "106": {"name": "Ascendant", "x": 10, "y": 0, "is_ascendancy": true, "is_notable": true},
  "107": {"name": "Far Notable", "x": 9000, "y": 0, "is_notable": true}
}`

const testWeights = `{
  "notables": [
    {"id": "a", "name": "Alpha", "spawn_weight": 100},
    {"id": "b", "name": "Bravo", "spawn_weight": 300},
    {"id": "z", "name": "Zulu", "spawn_weight": 0},
    {"id": "c", "name": "Charlie", "spawn_weight": 600}
  ],
  "keystones": [
    {"leader": "Amanamu", "keystone_name": "Sacrifice of Flesh", "id": "ks_flesh"},
    {"leader": "Kurgal", "name": "Sacrifice of Mind"}
  ],
  "small_passive": {"id": "small_tribute", "name": "Tribute"}
}`

func testGraph(t *testing.T) *passivetree.Graph {
	t.Helper()
	g, err := passivetree.LoadGraph(strings.NewReader(testTree))
	require.NoError(t, err)
	return g
}

func testTable(t *testing.T) *WeightTable {
	t.Helper()
	wt, err := LoadWeightTable(strings.NewReader(testWeights))
	require.NoError(t, err)
	return wt
}

func testMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(testGraph(t), testTable(t))
	require.NoError(t, err)
	return m
}
