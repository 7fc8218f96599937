package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/calculator"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/config"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/database"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/dataset"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/seedstore"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/storage"
)

// app wires config, datasets, seed history and the calculator for one
// command invocation.
type app struct {
	cfg      *config.Config
	dirs     *storage.Dirs
	provider *dataset.Provider
	calc     *calculator.Service
	store    *seedstore.Store
	db       *database.Manager
	logger   *slog.Logger
}

func loadConfig() (*config.Config, *storage.Dirs, error) {
	dirs, err := storage.ResolveDirs()
	if err != nil {
		return nil, nil, err
	}
	mgr := config.NewManager(dirs).WithProjectRoot(flagProject)
	if err := mgr.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg := *mgr.Get()
	if flagTree != "" {
		cfg.Data.TreePath = flagTree
	}
	if flagWeights != "" {
		cfg.Data.WeightsPath = flagWeights
	}
	return &cfg, dirs, nil
}

// openStore opens the seed history database named by store.name.
func openStore(ctx context.Context, cfg *config.Config, dirs *storage.Dirs, logger *slog.Logger) (*database.Manager, *seedstore.Store, error) {
	db := database.NewManager(dirs)
	pool, err := db.Open(ctx, cfg.Store.Name, database.DefaultPoolConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open seed history: %w", err)
	}
	store, err := seedstore.New(ctx, seedstore.Config{Pool: pool, Logger: logger})
	if err != nil {
		db.CloseAll()
		return nil, nil, err
	}
	return db, store, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, dirs, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	provider, err := dataset.NewProvider(dataset.Config{
		TreePath:    cfg.Data.TreePath,
		WeightsPath: cfg.Data.WeightsPath,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	if _, err := provider.Load(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, dirs: dirs, provider: provider, logger: logger}

	var recorder calculator.Recorder
	if cfg.Store.Enabled {
		a.db, a.store, err = openStore(cmd.Context(), cfg, dirs, logger)
		if err != nil {
			logger.Warn("seed history unavailable", "error", err)
		} else {
			recorder = a.store
		}
	}

	a.calc, err = calculator.NewService(calculator.Config{
		Snapshots:       provider,
		Recorder:        recorder,
		Logger:          logger,
		AnalysisEntries: cfg.Cache.AnalysisEntries,
		Radius: &calculator.RadiusCacheConfig{
			MaxCost: cfg.Cache.RadiusMaxCost,
			TTL:     cfg.RadiusTTLDuration(),
		},
		Concurrency: cfg.Compare.Concurrency,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.calc != nil {
		results, radius := a.calc.CacheStats()
		a.logger.Debug("cache stats",
			"result_hits", results.Hits, "result_misses", results.Misses,
			"radius_hits", radius.Hits, "radius_misses", radius.Misses)
		a.calc.Close()
	}
	if a.db != nil {
		if err := a.db.CloseAll(); err != nil {
			a.logger.Warn("close seed history", "error", err)
		}
	}
}
