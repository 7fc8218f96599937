package seedstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/database"
	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/storage"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	mgr := database.NewManager(&storage.Dirs{Data: t.TempDir()})
	t.Cleanup(func() { mgr.CloseAll() })

	pool, err := mgr.Open(ctx, "timeless", database.DefaultPoolConfig())
	require.NoError(t, err)

	s, err := New(ctx, Config{Pool: pool})
	require.NoError(t, err)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func sampleResult(seed uint32) *timeless.AnalysisResult {
	return &timeless.AnalysisResult{
		Socket:   passivetree.Socket{ID: 100, Name: "Jewel Socket"},
		Seed:     seed,
		Tribute:  timeless.Kurgal,
		Keystone: "Sacrifice of Mind",
		Radius:   1500,
		Nodes: []timeless.TransformedNode{
			{OriginalNodeID: 101, OriginalName: "Heart of Flame", OriginalCategory: passivetree.CategoryNotable, NewName: "Bravo", NewID: "b", Distance: 500},
			{OriginalNodeID: 104, OriginalName: "Strength", OriginalCategory: passivetree.CategorySmall, NewName: "Tribute", NewID: "small_tribute", Distance: 500, TributeValue: 8},
		},
		TotalTribute: 8,
		NotableCount: 1,
		SmallCount:   1,
	}
}

func TestNewRequiresPool(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mgr := database.NewManager(&storage.Dirs{Data: t.TempDir()})
	t.Cleanup(func() { mgr.CloseAll() })

	pool, err := mgr.Open(ctx, "twice", database.DefaultPoolConfig())
	require.NoError(t, err)

	_, err = New(ctx, Config{Pool: pool})
	require.NoError(t, err)
	_, err = New(ctx, Config{Pool: pool})
	require.NoError(t, err)

	version, err := pool.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.SaveAnalysis(ctx, sampleResult(1000))
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
	assert.Equal(t, uint32(100), rec.SocketID)
	assert.Equal(t, "Kurgal", rec.Tribute)

	got, err := s.LoadAnalysis(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, uint32(1000), got.Seed)
	assert.Equal(t, 8, got.TotalTribute)
	require.NotNil(t, got.Result)
	assert.Equal(t, sampleResult(1000), got.Result)
}

func TestLoadAnalysisNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentAnalysesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, seed := range []uint32{79, 500, 30977} {
		_, err := s.SaveAnalysis(ctx, sampleResult(seed))
		require.NoError(t, err)
	}

	recs, err := s.RecentAnalyses(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, uint32(30977), recs[0].Seed)
	assert.Equal(t, uint32(79), recs[2].Seed)
	assert.Nil(t, recs[0].Result, "listings omit the result blob")

	recs, err = s.RecentAnalyses(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestSaveAndListSearches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSearch(ctx, 101, "Alpha", 79, 30977, []uint32{87, 109, 118})
	require.NoError(t, err)
	_, err = s.SaveSearch(ctx, 102, "Zulu", 79, 200, nil)
	require.NoError(t, err)

	recs, err := s.RecentSearches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Zulu", recs[0].Notable)
	assert.Empty(t, recs[0].Seeds)
	assert.NotNil(t, recs[0].Seeds)

	assert.Equal(t, uint32(101), recs[1].NodeID)
	assert.Equal(t, []uint32{87, 109, 118}, recs[1].Seeds)
	assert.Equal(t, uint32(30977), recs[1].SeedMax)
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	a := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC).Format(timeLayout)
	b := time.Date(2026, 1, 1, 0, 0, 5, 500, time.UTC).Format(timeLayout)
	assert.Less(t, a, b)
}

func TestSaveRetriesWhileLocked(t *testing.T) {
	ctx := context.Background()
	dirs := &storage.Dirs{Data: t.TempDir()}

	cfg := database.DefaultPoolConfig()
	cfg.BusyTimeout = 0

	mgr := database.NewManager(dirs)
	t.Cleanup(func() { mgr.CloseAll() })
	pool, err := mgr.Open(ctx, "locked", cfg)
	require.NoError(t, err)
	s, err := New(ctx, Config{Pool: pool, Retry: &coreerrors.RetryPolicy{
		MaxAttempts:  50,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
	}})
	require.NoError(t, err)

	other := database.NewManager(dirs)
	t.Cleanup(func() { other.CloseAll() })
	holder, err := other.Open(ctx, "locked", cfg)
	require.NoError(t, err)

	tx, err := holder.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `INSERT INTO seed_searches (id, created_at, node_id, notable, seed_min, seed_max, seeds)
		VALUES ('held', '2026-01-01T00:00:00.000000000Z', 1, 'x', 0, 0, '[]')`)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(100 * time.Millisecond)
		tx.Commit()
	}()

	_, err = s.SaveAnalysis(ctx, sampleResult(1000))
	<-done
	require.NoError(t, err)

	searches, err := s.RecentSearches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, searches, 1)
}

func TestSaveDoesNotRetryPermanentErrors(t *testing.T) {
	s := newTestStore(t)
	s.retry = &coreerrors.RetryPolicy{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}
	require.NoError(t, s.pool.Close())

	start := time.Now()
	_, err := s.SaveSearch(context.Background(), 1, "Alpha", 79, 100, nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveAnalysis(ctx, sampleResult(1000))
	require.NoError(t, err)
	_, err = s.SaveSearch(ctx, 101, "Alpha", 79, 200, []uint32{87})
	require.NoError(t, err)
	_, err = s.SaveSearch(ctx, 101, "Bravo", 79, 200, nil)
	require.NoError(t, err)

	st, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.SchemaVersion)
	assert.Zero(t, st.Pending)
	assert.Equal(t, "ok", st.Integrity)
	assert.Equal(t, 1, st.Analyses)
	assert.Equal(t, 2, st.Searches)
	assert.Contains(t, st.Path, "timeless.db")
}
