// Package seedstore keeps a history of jewel analyses and seed searches in
// sqlite.
package seedstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/database"
	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

const defaultListLimit = 20

// Fixed-width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AnalysisRecord is a saved analysis. Result is only populated by
// LoadAnalysis; listings carry the indexed columns.
type AnalysisRecord struct {
	ID           string                   `json:"id"`
	CreatedAt    time.Time                `json:"created_at"`
	SocketID     uint32                   `json:"socket_id"`
	Seed         uint32                   `json:"seed"`
	Tribute      string                   `json:"tribute"`
	Radius       float64                  `json:"radius"`
	TotalTribute int                      `json:"total_tribute"`
	NotableCount int                      `json:"notable_count"`
	Result       *timeless.AnalysisResult `json:"result,omitempty"`
}

// SearchRecord is a saved seed search for one notable at one node.
type SearchRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	NodeID    uint32    `json:"node_id"`
	Notable   string    `json:"notable"`
	SeedMin   uint32    `json:"seed_min"`
	SeedMax   uint32    `json:"seed_max"`
	Seeds     []uint32  `json:"seeds"`
}

type Config struct {
	Pool   *database.Pool
	Logger *slog.Logger

	// Retry governs writes that hit a locked database. Nil uses
	// coreerrors.DefaultRetryPolicy.
	Retry *coreerrors.RetryPolicy
}

type Store struct {
	pool   *database.Pool
	logger *slog.Logger
	retry  *coreerrors.RetryPolicy
	now    func() time.Time
}

// New migrates the pool's schema and returns a store over it.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Pool == nil {
		return nil, errors.New("seedstore: nil pool")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := database.NewMigrator(cfg.Pool, migrations()).Migrate(ctx); err != nil {
		return nil, fmt.Errorf("seedstore migrate: %w", err)
	}

	return &Store{
		pool:   cfg.Pool,
		logger: logger.With("component", "seedstore"),
		retry:  cfg.Retry,
		now:    time.Now,
	}, nil
}

// SaveAnalysis stores res under a fresh id.
func (s *Store) SaveAnalysis(ctx context.Context, res *timeless.AnalysisResult) (*AnalysisRecord, error) {
	blob, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}

	rec := &AnalysisRecord{
		ID:           uuid.New().String(),
		CreatedAt:    s.now().UTC(),
		SocketID:     res.Socket.ID,
		Seed:         res.Seed,
		Tribute:      string(res.Tribute),
		Radius:       res.Radius,
		TotalTribute: res.TotalTribute,
		NotableCount: res.NotableCount,
		Result:       res,
	}

	err = s.exec(ctx, `
		INSERT INTO analyses (id, created_at, socket_id, seed, tribute, radius, total_tribute, notable_count, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.CreatedAt.Format(timeLayout), rec.SocketID, rec.Seed, rec.Tribute,
		rec.Radius, rec.TotalTribute, rec.NotableCount, string(blob))
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	s.logger.Debug("analysis saved", "id", rec.ID, "socket", rec.SocketID, "seed", rec.Seed)
	return rec, nil
}

// LoadAnalysis returns the saved analysis with its full result.
func (s *Store) LoadAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, created_at, socket_id, seed, tribute, radius, total_tribute, notable_count, result
		FROM analyses WHERE id = ?
	`, id)

	var (
		rec     AnalysisRecord
		created string
		blob    string
	)
	err := row.Scan(&rec.ID, &created, &rec.SocketID, &rec.Seed, &rec.Tribute,
		&rec.Radius, &rec.TotalTribute, &rec.NotableCount, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load analysis: %w", err)
	}

	if rec.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	rec.Result = &timeless.AnalysisResult{}
	if err := json.Unmarshal([]byte(blob), rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshal analysis %s: %w", id, err)
	}
	return &rec, nil
}

// RecentAnalyses lists saved analyses newest first. A limit of zero or less
// uses the default page size.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, socket_id, seed, tribute, radius, total_tribute, notable_count
		FROM analyses ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var (
			rec     AnalysisRecord
			created string
		)
		if err := rows.Scan(&rec.ID, &created, &rec.SocketID, &rec.Seed, &rec.Tribute,
			&rec.Radius, &rec.TotalTribute, &rec.NotableCount); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSearch stores the seeds found for notable at nodeID.
func (s *Store) SaveSearch(ctx context.Context, nodeID uint32, notable string, lo, hi uint32, seeds []uint32) (*SearchRecord, error) {
	if seeds == nil {
		seeds = []uint32{}
	}
	blob, err := json.Marshal(seeds)
	if err != nil {
		return nil, fmt.Errorf("marshal seeds: %w", err)
	}

	rec := &SearchRecord{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
		NodeID:    nodeID,
		Notable:   notable,
		SeedMin:   lo,
		SeedMax:   hi,
		Seeds:     seeds,
	}

	err = s.exec(ctx, `
		INSERT INTO seed_searches (id, created_at, node_id, notable, seed_min, seed_max, seeds)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.CreatedAt.Format(timeLayout), rec.NodeID, rec.Notable, rec.SeedMin, rec.SeedMax, string(blob))
	if err != nil {
		return nil, fmt.Errorf("insert seed search: %w", err)
	}

	s.logger.Debug("seed search saved", "id", rec.ID, "node", nodeID, "notable", notable, "hits", len(seeds))
	return rec, nil
}

// RecentSearches lists saved seed searches newest first.
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]SearchRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, node_id, notable, seed_min, seed_max, seeds
		FROM seed_searches ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query seed searches: %w", err)
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var (
			rec     SearchRecord
			created string
			blob    string
		)
		if err := rows.Scan(&rec.ID, &created, &rec.NodeID, &rec.Notable, &rec.SeedMin, &rec.SeedMax, &blob); err != nil {
			return nil, fmt.Errorf("scan seed search: %w", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &rec.Seeds); err != nil {
			return nil, fmt.Errorf("unmarshal seeds %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Status describes the history database.
type Status struct {
	Path          string `json:"path"`
	SchemaVersion int    `json:"schema_version"`
	Pending       int    `json:"pending_migrations"`
	Integrity     string `json:"integrity"`
	Analyses      int    `json:"analyses"`
	Searches      int    `json:"searches"`
}

// Status reports the schema version, sqlite's integrity check and the
// number of saved records. A failed integrity check is reported in
// Integrity, not as an error.
func (s *Store) Status(ctx context.Context) (*Status, error) {
	m := database.NewMigrator(s.pool, migrations())
	version, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema version: %w", err)
	}
	pending, err := m.PendingMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending migrations: %w", err)
	}

	st := &Status{
		Path:          s.pool.Path(),
		SchemaVersion: version,
		Pending:       len(pending),
		Integrity:     "ok",
	}
	if err := s.pool.IntegrityCheck(ctx); err != nil {
		st.Integrity = err.Error()
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&st.Analyses); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM seed_searches`).Scan(&st.Searches); err != nil {
		return nil, fmt.Errorf("count seed searches: %w", err)
	}
	return st, nil
}

// exec runs a write, retrying while sqlite reports the database as locked.
func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	attempt := 0
	return coreerrors.Retry(ctx, s.retry, func() error {
		attempt++
		_, err := s.pool.Exec(ctx, query, args...)
		if err != nil && coreerrors.IsRetryable(err) {
			s.logger.Debug("database busy", "attempt", attempt, "error", err)
		}
		return err
	})
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
