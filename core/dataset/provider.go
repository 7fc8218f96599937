// Package dataset loads the passive tree and spawn weight exports and keeps
// an immutable snapshot of them that readers can use without locking.
package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

var (
	// ErrNotLoaded is returned by Snapshot before the first successful Load.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrNoPath indicates a dataset path was left empty.
	ErrNoPath = errors.New("dataset path not configured")
)

// Snapshot is one consistent pair of datasets plus the mapper built over
// them. Generation increases by one with every successful load.
type Snapshot struct {
	Graph      *passivetree.Graph
	Weights    *timeless.WeightTable
	Mapper     *timeless.Mapper
	Generation uint64
	LoadedAt   time.Time
}

type Config struct {
	TreePath    string
	WeightsPath string
	Logger      *slog.Logger
}

type Provider struct {
	treePath    string
	weightsPath string
	logger      *slog.Logger

	current atomic.Pointer[Snapshot]
	gen     atomic.Uint64
	loadMu  sync.Mutex

	listenerMu sync.RWMutex
	listeners  []func(*Snapshot)
}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.TreePath == "" {
		return nil, fmt.Errorf("%w: tree", ErrNoPath)
	}
	if cfg.WeightsPath == "" {
		return nil, fmt.Errorf("%w: weights", ErrNoPath)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		treePath:    cfg.TreePath,
		weightsPath: cfg.WeightsPath,
		logger:      logger.With("component", "dataset"),
	}, nil
}

// Load reads both files and publishes a new snapshot. On failure the
// previous snapshot, if any, stays current.
func (p *Provider) Load() (*Snapshot, error) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	start := time.Now()

	graph, err := passivetree.LoadGraphFile(p.treePath)
	if err != nil {
		return nil, err
	}
	weights, err := timeless.LoadWeightTableFile(p.weightsPath)
	if err != nil {
		return nil, err
	}
	mapper, err := timeless.NewMapper(graph, weights)
	if err != nil {
		return nil, fmt.Errorf("build mapper: %w", err)
	}

	snap := &Snapshot{
		Graph:      graph,
		Weights:    weights,
		Mapper:     mapper,
		Generation: p.gen.Add(1),
		LoadedAt:   time.Now(),
	}
	p.current.Store(snap)

	p.logger.Info("dataset loaded",
		"generation", snap.Generation,
		"nodes", graph.Len(),
		"notables", mapper.Selector().Len(),
		"elapsed", time.Since(start),
	)
	p.notify(snap)
	return snap, nil
}

// Snapshot returns the current snapshot.
func (p *Provider) Snapshot() (*Snapshot, error) {
	snap := p.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// OnReload registers fn to run after every successful load.
func (p *Provider) OnReload(fn func(*Snapshot)) {
	p.listenerMu.Lock()
	p.listeners = append(p.listeners, fn)
	p.listenerMu.Unlock()
}

func (p *Provider) notify(snap *Snapshot) {
	p.listenerMu.RLock()
	listeners := p.listeners
	p.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Paths returns the tree and weights file paths.
func (p *Provider) Paths() (tree, weights string) {
	return p.treePath, p.weightsPath
}
