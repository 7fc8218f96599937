// Package calculator serves jewel analyses over the current dataset snapshot
// with caching, bounded parallel fan-out and optional persistence.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/dataset"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/seedstore"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

const (
	DefaultAnalysisEntries = 256
	DefaultConcurrency     = 4
)

// ErrNoStore is returned by persistence calls when no recorder is configured.
var ErrNoStore = errors.New("seed history is disabled")

// Snapshots yields the dataset snapshot to compute against.
type Snapshots interface {
	Snapshot() (*dataset.Snapshot, error)
}

// Recorder persists analyses and seed searches.
type Recorder interface {
	SaveAnalysis(ctx context.Context, res *timeless.AnalysisResult) (*seedstore.AnalysisRecord, error)
	SaveSearch(ctx context.Context, nodeID uint32, notable string, lo, hi uint32, seeds []uint32) (*seedstore.SearchRecord, error)
}

type Config struct {
	Snapshots Snapshots
	Recorder  Recorder // optional
	Logger    *slog.Logger

	AnalysisEntries int
	Radius          *RadiusCacheConfig
	Concurrency     int
}

// Request identifies one jewel placement.
type Request struct {
	SocketID uint32
	Seed     uint32
	Tribute  string
	Radius   float64
}

// FindRequest describes a seed scan at one node.
type FindRequest struct {
	NodeID  uint32
	Label   string // recorded with the search
	Match   func(timeless.Notable) bool
	SeedMin uint32
	SeedMax uint32
	Limit   int
	Save    bool
}

type resultKey struct {
	generation uint64
	socketID   uint32
	seed       uint32
	leader     timeless.Leader
	radius     float64
}

type Service struct {
	snapshots   Snapshots
	recorder    Recorder
	logger      *slog.Logger
	radius      *RadiusCache
	results     *lru.Cache[resultKey, *timeless.AnalysisResult]
	resultStats *CacheStats
	concurrency int
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Snapshots == nil {
		return nil, errors.New("calculator: nil snapshot source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	entries := cfg.AnalysisEntries
	if entries <= 0 {
		entries = DefaultAnalysisEntries
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	radius, err := NewRadiusCache(cfg.Radius)
	if err != nil {
		return nil, fmt.Errorf("radius cache: %w", err)
	}

	s := &Service{
		snapshots:   cfg.Snapshots,
		recorder:    cfg.Recorder,
		logger:      logger.With("component", "calculator"),
		radius:      radius,
		resultStats: NewCacheStats(),
		concurrency: concurrency,
	}
	s.results, err = lru.NewWithEvict[resultKey, *timeless.AnalysisResult](entries, s.onEvict)
	if err != nil {
		radius.Close()
		return nil, fmt.Errorf("result cache: %w", err)
	}

	if p, ok := cfg.Snapshots.(interface{ OnReload(func(*dataset.Snapshot)) }); ok {
		p.OnReload(s.purge)
	}
	return s, nil
}

func (s *Service) onEvict(resultKey, *timeless.AnalysisResult) {
	s.resultStats.RecordEviction()
}

// purge drops entries of older generations. Keys already carry the
// generation, so this only releases memory.
func (s *Service) purge(snap *dataset.Snapshot) {
	s.results.Purge()
	s.radius.Clear()
	s.logger.Debug("caches purged", "generation", snap.Generation)
}

func (s *Service) snapshot() (*dataset.Snapshot, error) {
	return s.snapshots.Snapshot()
}

// Analyze runs the seed mapper for req. Results are cached per dataset
// generation and shared between callers; they must not be modified.
func (s *Service) Analyze(ctx context.Context, req Request) (*timeless.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.analyze(snap, req)
}

func (s *Service) analyze(snap *dataset.Snapshot, req Request) (*timeless.AnalysisResult, error) {
	leader, err := timeless.ResolveTribute(req.Tribute)
	if err != nil {
		return nil, err
	}

	key := resultKey{snap.Generation, req.SocketID, req.Seed, leader, req.Radius}
	if res, ok := s.results.Get(key); ok {
		s.resultStats.RecordHit()
		return res, nil
	}
	s.resultStats.RecordMiss()

	socket, err := passivetree.SocketOf(snap.Graph, req.SocketID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates(snap, req.SocketID, req.Radius)
	if err != nil {
		return nil, err
	}

	res := snap.Mapper.Transform(leader, socket, candidates, req.Seed, req.Radius)
	s.results.Add(key, res)
	s.resultStats.RecordSet()
	return res, nil
}

func (s *Service) candidates(snap *dataset.Snapshot, socketID uint32, radius float64) ([]passivetree.Candidate, error) {
	if c, ok := s.radius.Get(snap.Generation, socketID, radius); ok {
		return c, nil
	}
	c, err := passivetree.NodesWithinRadius(snap.Graph, socketID, radius)
	if err != nil {
		return nil, err
	}
	s.radius.Set(snap.Generation, socketID, radius, c)
	return c, nil
}

// NotableDistribution tallies the notables req places.
func (s *Service) NotableDistribution(ctx context.Context, req Request) (map[string]int, error) {
	res, err := s.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.NotableDistribution(), nil
}

// CompareSeeds analyzes every seed against one snapshot in parallel.
// Results keep the order of seeds.
func (s *Service) CompareSeeds(ctx context.Context, socketID uint32, seeds []uint32, tribute string, radius float64) ([]*timeless.AnalysisResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]*timeless.AnalysisResult, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.analyze(snap, Request{SocketID: socketID, Seed: seed, Tribute: tribute, Radius: radius})
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("seeds compared", "socket", socketID, "seeds", len(seeds), "elapsed", time.Since(start))
	return out, nil
}

// FindSeeds scans [SeedMin, SeedMax] for seeds whose pick at NodeID
// satisfies Match. The range is split across workers; the merged result is
// ascending and holds at most Limit seeds when Limit is positive.
func (s *Service) FindSeeds(ctx context.Context, req FindRequest) ([]uint32, error) {
	if req.Match == nil {
		return nil, errors.New("calculator: nil match")
	}
	if req.SeedMin > req.SeedMax {
		return nil, fmt.Errorf("calculator: seed range [%d, %d] is empty", req.SeedMin, req.SeedMax)
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	chunks := splitRange(req.SeedMin, req.SeedMax, s.concurrency)
	parts := make([][]uint32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = snap.Mapper.FindSeeds(req.NodeID, req.Match, c[0], c[1], req.Limit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var seeds []uint32
	for _, p := range parts {
		seeds = append(seeds, p...)
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	if req.Limit > 0 && len(seeds) > req.Limit {
		seeds = seeds[:req.Limit]
	}

	if req.Save {
		if _, err := s.SaveSearch(ctx, req.NodeID, req.Label, req.SeedMin, req.SeedMax, seeds); err != nil {
			return seeds, err
		}
	}
	return seeds, nil
}

// splitRange cuts [lo, hi] into at most n contiguous ascending chunks.
func splitRange(lo, hi uint32, n int) [][2]uint32 {
	span := uint64(hi) - uint64(lo) + 1
	if n <= 0 {
		n = 1
	}
	if uint64(n) > span {
		n = int(span)
	}
	step := span / uint64(n)
	rem := span % uint64(n)

	out := make([][2]uint32, 0, n)
	start := uint64(lo)
	for i := 0; i < n; i++ {
		size := step
		if uint64(i) < rem {
			size++
		}
		out = append(out, [2]uint32{uint32(start), uint32(start + size - 1)})
		start += size
	}
	return out
}

// Save records res in the seed history.
func (s *Service) Save(ctx context.Context, res *timeless.AnalysisResult) (*seedstore.AnalysisRecord, error) {
	if s.recorder == nil {
		return nil, ErrNoStore
	}
	return s.recorder.SaveAnalysis(ctx, res)
}

// SaveSearch records a seed search in the seed history.
func (s *Service) SaveSearch(ctx context.Context, nodeID uint32, label string, lo, hi uint32, seeds []uint32) (*seedstore.SearchRecord, error) {
	if s.recorder == nil {
		return nil, ErrNoStore
	}
	return s.recorder.SaveSearch(ctx, nodeID, label, lo, hi, seeds)
}

// Sockets lists every jewel socket in the current tree.
func (s *Service) Sockets() ([]passivetree.Socket, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return passivetree.JewelSockets(snap.Graph), nil
}

// SummarizeRadius counts what radius covers around socketID.
func (s *Service) SummarizeRadius(socketID uint32, radius float64) (*passivetree.RadiusSummary, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return passivetree.SummarizeRadius(snap.Graph, socketID, radius)
}

// BestSocket finds the socket whose radius covers most of targets.
func (s *Service) BestSocket(targets []string, radius float64) (passivetree.Socket, []string, bool, error) {
	snap, err := s.snapshot()
	if err != nil {
		return passivetree.Socket{}, nil, false, err
	}
	socket, found, ok := passivetree.BestSocketForNotables(snap.Graph, targets, radius)
	return socket, found, ok, nil
}

// Audit checks the selector's output frequencies against declared weights.
// With no node ids, every notable node in the tree is sampled.
func (s *Service) Audit(seed uint32, nodeIDs []uint32) (*timeless.AuditReport, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if len(nodeIDs) == 0 {
		snap.Graph.Each(func(n *passivetree.Node) bool {
			if n.IsNotable && !n.IsKeystone && !n.IsAscendancy {
				nodeIDs = append(nodeIDs, n.ID)
			}
			return true
		})
	}
	return timeless.AuditWeights(snap.Mapper.Selector(), seed, nodeIDs), nil
}

// CacheStats reports the result and radius caches.
func (s *Service) CacheStats() (results, radius StatsSnapshot) {
	return s.resultStats.ToSnapshot(), s.radius.Stats()
}

func (s *Service) Close() {
	s.radius.Close()
	s.results.Purge()
}
