package cmd

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/seedstore"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

func TestAnalyzeCmd(t *testing.T) {
	env := newTestEnv(t)

	t.Run("json", func(t *testing.T) {
		out, err := env.run(t, "analyze", "100", "1000", "--tribute", "amanamu", "--json")
		require.NoError(t, err)

		var res timeless.AnalysisResult
		decodeJSON(t, out, &res)
		assert.Equal(t, uint32(100), res.Socket.ID)
		assert.Equal(t, timeless.Leader("Amanamu"), res.Tribute)
		assert.Equal(t, 1500.0, res.Radius)
		assert.Equal(t, 13, res.TotalTribute)
		assert.True(t, res.KeystoneReplaced)

		var ids []uint32
		for _, n := range res.Nodes {
			ids = append(ids, n.OriginalNodeID)
		}
		assert.Equal(t, []uint32{101, 104, 102, 105, 103}, ids)
		assert.Equal(t, "Bravo", res.Nodes[0].NewName)
		assert.Equal(t, "Charlie", res.Nodes[2].NewName)
	})

	t.Run("table", func(t *testing.T) {
		out, err := env.run(t, "analyze", "100", "1000")
		require.NoError(t, err)
		assert.Contains(t, out, "Heart of Flame")
		assert.Contains(t, out, "Bravo")
		assert.Contains(t, out, "tribute: 13")
	})

	t.Run("seed out of range", func(t *testing.T) {
		_, err := env.run(t, "analyze", "100", "5")
		require.ErrorIs(t, err, coreerrors.ErrSeedOutOfRange)
		assert.Equal(t, 2, exitCode(err))

		_, err = env.run(t, "analyze", "100", "5", "--any-seed")
		assert.NoError(t, err)
	})

	t.Run("unknown tribute", func(t *testing.T) {
		_, err := env.run(t, "analyze", "100", "1000", "-t", "Kurgl")
		require.ErrorIs(t, err, timeless.ErrUnknownTribute)
		assert.Equal(t, 2, exitCode(err))
		assert.Equal(t, "use --tribute Kurgal", coreerrors.Hint(err))
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := env.run(t, "analyze", "abc", "1000")
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))

		_, err = env.run(t, "analyze", "100", "1000", "--radius", "-5")
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))
	})

	t.Run("unknown socket", func(t *testing.T) {
		_, err := env.run(t, "analyze", "999", "1000")
		require.ErrorIs(t, err, passivetree.ErrSocketNotFound)
		assert.Equal(t, 2, exitCode(err))
	})
}

func TestCompareCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "compare", "100", "79", "1000", "30977", "--json")
	require.NoError(t, err)

	var got []seedSummary
	decodeJSON(t, out, &got)
	require.Len(t, got, 3)

	var seeds []uint32
	for _, s := range got {
		seeds = append(seeds, s.Seed)
		assert.Equal(t, 2, s.NotableCount)
	}
	assert.ElementsMatch(t, []uint32{79, 1000, 30977}, seeds)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].TotalTribute > got[j].TotalTribute
	}))
	for _, s := range got {
		if s.Seed == 1000 {
			assert.Equal(t, map[string]int{"Bravo": 1, "Charlie": 1}, s.Notables)
		}
	}

	_, err = env.run(t, "compare", "100", "1000", "12")
	assert.ErrorIs(t, err, coreerrors.ErrSeedOutOfRange)
}

func TestTopNotable(t *testing.T) {
	assert.Equal(t, "-", topNotable(nil))
	assert.Equal(t, "Bravo x2", topNotable(map[string]int{"Alpha": 1, "Bravo": 2}))
	assert.Equal(t, "Alpha x1", topNotable(map[string]int{"Charlie": 1, "Alpha": 1}))
}

func TestDistributionCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "distribution", "100", "1000", "--json")
	require.NoError(t, err)
	var dist map[string]int
	decodeJSON(t, out, &dist)
	assert.Equal(t, map[string]int{"Bravo": 1, "Charlie": 1}, dist)

	out, err = env.run(t, "distribution", "100", "1000")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`Bravo\s+1`), out)
}

func TestSocketsCmd(t *testing.T) {
	env := newTestEnv(t)

	socketIDs := func(sums []passivetree.RadiusSummary) []uint32 {
		var ids []uint32
		for _, s := range sums {
			ids = append(ids, s.Socket.ID)
		}
		return ids
	}

	t.Run("all", func(t *testing.T) {
		out, err := env.run(t, "sockets", "--json")
		require.NoError(t, err)
		var sums []passivetree.RadiusSummary
		decodeJSON(t, out, &sums)
		assert.Equal(t, []uint32{100, 200}, socketIDs(sums))
	})

	t.Run("match glob", func(t *testing.T) {
		out, err := env.run(t, "sockets", "--match", "*FLAME*", "--json")
		require.NoError(t, err)
		var sums []passivetree.RadiusSummary
		decodeJSON(t, out, &sums)
		assert.Equal(t, []uint32{100}, socketIDs(sums))
	})

	t.Run("no match", func(t *testing.T) {
		out, err := env.run(t, "sockets", "--match", "nothing*", "--json")
		require.NoError(t, err)
		assert.JSONEq(t, "[]", out)
	})

	t.Run("bad glob", func(t *testing.T) {
		_, err := env.run(t, "sockets", "--match", "[")
		assert.Error(t, err)
	})

	t.Run("best", func(t *testing.T) {
		out, err := env.run(t, "sockets", "--best", "far notable", "--json")
		require.NoError(t, err)
		var got struct {
			Found   bool                `json:"found"`
			Socket  *passivetree.Socket `json:"socket"`
			Matches []string            `json:"matches"`
		}
		decodeJSON(t, out, &got)
		assert.True(t, got.Found)
		require.NotNil(t, got.Socket)
		assert.Equal(t, uint32(200), got.Socket.ID)
		assert.Equal(t, []string{"Far Notable"}, got.Matches)

		out, err = env.run(t, "sockets", "--best", "Nowhere")
		require.NoError(t, err)
		assert.Contains(t, out, "no socket covers")
	})
}

func TestRadiusCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "radius", "100", "--json")
	require.NoError(t, err)
	var sum passivetree.RadiusSummary
	decodeJSON(t, out, &sum)
	assert.Equal(t, "Very Large", sum.RadiusName)
	assert.Equal(t, 1, sum.Keystones)
	assert.Equal(t, 2, sum.Notables)
	assert.Equal(t, 2, sum.SmallPassives)
	assert.Equal(t, []string{"Heart of Flame", "Cold Blooded"}, sum.NotableNames)

	out, err = env.run(t, "radius", "100", "-r", "small")
	require.NoError(t, err)
	assert.Contains(t, out, "radius 800 (Small)")
	assert.Contains(t, out, "keystones: 0")
}

func TestFindCmd(t *testing.T) {
	env := newTestEnv(t)

	t.Run("exact name", func(t *testing.T) {
		out, err := env.run(t, "find", "101", "alpha", "--limit", "5", "--json")
		require.NoError(t, err)
		var got findResult
		decodeJSON(t, out, &got)
		assert.Equal(t, []uint32{87, 109, 118, 137, 165}, got.Seeds)
		assert.Equal(t, uint32(79), got.SeedMin)
		assert.Equal(t, uint32(30977), got.SeedMax)
	})

	t.Run("glob", func(t *testing.T) {
		out, err := env.run(t, "find", "102", "*RAVO", "--min", "79", "--max", "79", "--json")
		require.NoError(t, err)
		var got findResult
		decodeJSON(t, out, &got)
		assert.Equal(t, []uint32{79}, got.Seeds)
	})

	t.Run("none found", func(t *testing.T) {
		out, err := env.run(t, "find", "101", "Alpha", "--min", "79", "--max", "79")
		require.NoError(t, err)
		assert.Contains(t, out, "no seed in [79, 79]")
	})

	t.Run("suggestion", func(t *testing.T) {
		_, err := env.run(t, "find", "101", "Alph")
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))
		assert.Contains(t, err.Error(), `did you mean "Alpha"?`)
	})

	t.Run("zero weight notable", func(t *testing.T) {
		_, err := env.run(t, "find", "101", "Zulu")
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))
	})

	t.Run("empty range", func(t *testing.T) {
		_, err := env.run(t, "find", "101", "Alpha", "--min", "500", "--max", "100")
		require.Error(t, err)
		assert.Equal(t, 2, exitCode(err))
	})
}

func TestAuditCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "audit", "101", "102", "--seed", "1000", "--json")
	require.NoError(t, err)
	var report timeless.AuditReport
	decodeJSON(t, out, &report)
	assert.Equal(t, uint32(1000), report.Seed)
	assert.Equal(t, 2, report.Samples)
	require.Len(t, report.Rows, 3)

	observed := map[string]int{}
	for _, r := range report.Rows {
		observed[r.Notable.Name] = r.Observed
	}
	assert.Equal(t, map[string]int{"Alpha": 0, "Bravo": 1, "Charlie": 1}, observed)

	out, err = env.run(t, "audit", "--json")
	require.NoError(t, err)
	decodeJSON(t, out, &report)
	assert.Equal(t, uint32(79), report.Seed)
	assert.Equal(t, 3, report.Samples)

	out, err = env.run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "chi-square")
}

func TestHistoryCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "analyze", "100", "1000", "--save")
	require.NoError(t, err)
	m := regexp.MustCompile(`saved as (\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	_, err = env.run(t, "find", "101", "Alpha", "--limit", "2", "--save")
	require.NoError(t, err)

	out, err = env.run(t, "history", "--json")
	require.NoError(t, err)
	var listing struct {
		Analyses []seedstore.AnalysisRecord `json:"analyses"`
		Searches []seedstore.SearchRecord   `json:"searches"`
	}
	decodeJSON(t, out, &listing)
	require.Len(t, listing.Analyses, 1)
	assert.Equal(t, id, listing.Analyses[0].ID)
	assert.Equal(t, 13, listing.Analyses[0].TotalTribute)
	require.Len(t, listing.Searches, 1)
	assert.Equal(t, "Alpha", listing.Searches[0].Notable)
	assert.Equal(t, []uint32{87, 109}, listing.Searches[0].Seeds)

	out, err = env.run(t, "history", "show", id, "--json")
	require.NoError(t, err)
	var rec seedstore.AnalysisRecord
	decodeJSON(t, out, &rec)
	require.NotNil(t, rec.Result)
	assert.Len(t, rec.Result.Nodes, 5)

	_, err = env.run(t, "history", "show", "no-such-id")
	require.ErrorIs(t, err, seedstore.ErrNotFound)
	assert.Equal(t, 2, exitCode(err))
}

func TestStatusCmd(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "analyze", "100", "1000", "--save")
	require.NoError(t, err)

	out, err := env.run(t, "status", "--json", "--init")
	require.NoError(t, err)
	var report statusReport
	decodeJSON(t, out, &report)

	assert.True(t, report.Dataset.Loaded)
	assert.Equal(t, 9, report.Dataset.Nodes)
	assert.Equal(t, 2, report.Dataset.Sockets)
	assert.Equal(t, 3, report.Dataset.Notables)
	require.NotNil(t, report.Store)
	assert.Equal(t, 2, report.Store.SchemaVersion)
	assert.Equal(t, "ok", report.Store.Integrity)
	assert.Equal(t, 1, report.Store.Analyses)

	require.NotNil(t, report.Dirs)
	_, err = os.Stat(report.Dirs.DatasetDir())
	assert.NoError(t, err, "--init creates the dataset directory")

	t.Run("missing datasets are reported", func(t *testing.T) {
		dir := t.TempDir()
		out, err := executeCommand(t, "--project", env.project,
			"--tree", filepath.Join(dir, "nope.json"), "--weights", env.weights, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "not loaded:")
		assert.Contains(t, out, "nope.json")
	})
}
