// Package config loads the layered poe2-mcp configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/storage"
)

type Manager struct {
	configPtr   atomic.Pointer[Config]
	dirs        *storage.Dirs
	projectRoot string
	watchers    []func(*Config)
	watcherMu   sync.RWMutex
}

type Config struct {
	Data    DataConfig    `yaml:"data"`
	Jewel   JewelConfig   `yaml:"jewel"`
	Cache   CacheConfig   `yaml:"cache"`
	Store   StoreConfig   `yaml:"store"`
	Compare CompareConfig `yaml:"compare"`
}

type DataConfig struct {
	TreePath    string `yaml:"tree_path"`
	WeightsPath string `yaml:"weights_path"`
	Watch       bool   `yaml:"watch"`
	Debounce    string `yaml:"debounce"`
}

type JewelConfig struct {
	DefaultRadius    float64 `yaml:"default_radius"`
	DefaultTribute   string  `yaml:"default_tribute"`
	SeedMin          uint32  `yaml:"seed_min"`
	SeedMax          uint32  `yaml:"seed_max"`
	EnforceSeedRange bool    `yaml:"enforce_seed_range"`
}

type CacheConfig struct {
	AnalysisEntries int    `yaml:"analysis_entries"`
	RadiusMaxCost   int64  `yaml:"radius_max_cost"`
	RadiusTTL       string `yaml:"radius_ttl"`
}

type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

type CompareConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

func NewManager(dirs *storage.Dirs) *Manager {
	m := &Manager{
		dirs:        dirs,
		projectRoot: ".",
	}
	m.configPtr.Store(DefaultConfig(dirs))
	return m
}

// WithProjectRoot sets the directory searched for .poe2/ config files.
func (m *Manager) WithProjectRoot(root string) *Manager {
	m.projectRoot = root
	return m
}

// DefaultConfig returns the built-in defaults. Dataset paths point into
// the data directory when dirs is non-nil.
func DefaultConfig(dirs *storage.Dirs) *Config {
	cfg := &Config{
		Data: DataConfig{
			Debounce: "250ms",
		},
		Jewel: JewelConfig{
			DefaultRadius:    1500,
			DefaultTribute:   "Amanamu",
			SeedMin:          79,
			SeedMax:          30977,
			EnforceSeedRange: true,
		},
		Cache: CacheConfig{
			AnalysisEntries: 256,
			RadiusMaxCost:   1 << 20,
			RadiusTTL:       "10m",
		},
		Store: StoreConfig{
			Enabled: true,
			Name:    "timeless",
		},
		Compare: CompareConfig{
			Concurrency: 4,
		},
	}
	if dirs != nil {
		cfg.Data.TreePath = dirs.DataDir("datasets", "passive_tree.json")
		cfg.Data.WeightsPath = dirs.DataDir("datasets", "spawn_weights.json")
	}
	return cfg
}

func (m *Manager) Get() *Config {
	return m.configPtr.Load()
}

func (m *Manager) Load() error {
	cfg := DefaultConfig(m.dirs)

	if err := m.loadProjectConfig(cfg); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	if err := m.loadUserConfig(cfg); err != nil {
		return fmt.Errorf("user config: %w", err)
	}

	if err := m.loadLocalConfig(cfg); err != nil {
		return fmt.Errorf("local config: %w", err)
	}

	m.applyEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	m.configPtr.Store(cfg)
	m.notifyWatchers(cfg)

	return nil
}

func (m *Manager) loadProjectConfig(cfg *Config) error {
	projectDirs := storage.ResolveProjectDirs(m.projectRoot)
	return m.loadYAMLFile(projectDirs.Config, cfg)
}

func (m *Manager) loadUserConfig(cfg *Config) error {
	if m.dirs == nil {
		return nil
	}
	return m.loadYAMLFile(m.dirs.UserConfig(), cfg)
}

func (m *Manager) loadLocalConfig(cfg *Config) error {
	projectDirs := storage.ResolveProjectDirs(m.projectRoot)
	return m.loadYAMLFile(projectDirs.LocalConfig(), cfg)
}

func (m *Manager) loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("POE2_TREE_PATH"); v != "" {
		cfg.Data.TreePath = v
	}
	if v := os.Getenv("POE2_WEIGHTS_PATH"); v != "" {
		cfg.Data.WeightsPath = v
	}
	if v := os.Getenv("POE2_DEFAULT_RADIUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Jewel.DefaultRadius = f
		}
	}
	if v := os.Getenv("POE2_DEFAULT_TRIBUTE"); v != "" {
		cfg.Jewel.DefaultTribute = v
	}
	if v := os.Getenv("POE2_CACHE_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.AnalysisEntries = n
		}
	}
	if v := os.Getenv("POE2_STORE_ENABLED"); v != "" {
		cfg.Store.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("POE2_COMPARE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compare.Concurrency = n
		}
	}
}

// Validate rejects settings the calculator cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Jewel.DefaultRadius <= 0:
		return fmt.Errorf("%w: jewel.default_radius must be positive", ErrInvalidConfig)
	case c.Jewel.SeedMin > c.Jewel.SeedMax:
		return fmt.Errorf("%w: jewel.seed_min exceeds jewel.seed_max", ErrInvalidConfig)
	case c.Cache.AnalysisEntries <= 0:
		return fmt.Errorf("%w: cache.analysis_entries must be positive", ErrInvalidConfig)
	case c.Cache.RadiusMaxCost <= 0:
		return fmt.Errorf("%w: cache.radius_max_cost must be positive", ErrInvalidConfig)
	case c.Compare.Concurrency <= 0:
		return fmt.Errorf("%w: compare.concurrency must be positive", ErrInvalidConfig)
	}
	if _, err := parseDuration(c.Data.Debounce); err != nil {
		return fmt.Errorf("%w: data.debounce: %v", ErrInvalidConfig, err)
	}
	if _, err := parseDuration(c.Cache.RadiusTTL); err != nil {
		return fmt.Errorf("%w: cache.radius_ttl: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DebounceDuration returns data.debounce parsed; empty means no debounce.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := parseDuration(c.Data.Debounce)
	return d
}

// RadiusTTLDuration returns cache.radius_ttl parsed; empty means no expiry.
func (c *Config) RadiusTTLDuration() time.Duration {
	d, _ := parseDuration(c.Cache.RadiusTTL)
	return d
}

// SeedInRange reports whether seed lies in [seed_min, seed_max].
func (c *Config) SeedInRange(seed uint32) bool {
	return seed >= c.Jewel.SeedMin && seed <= c.Jewel.SeedMax
}

func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
