package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/dataset"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/seedstore"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/storage"
)

var (
	statusInit bool
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, dataset and seed history status",
	Long: `Report where poe2 looks for its files, whether the datasets load, and
the state of the seed history database.

Use --init to create the standard directories.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusInit, "init", false, "Create the standard directories")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}

type datasetStatus struct {
	TreePath    string    `json:"tree_path"`
	WeightsPath string    `json:"weights_path"`
	Loaded      bool      `json:"loaded"`
	Error       string    `json:"error,omitempty"`
	Nodes       int       `json:"nodes,omitempty"`
	Notables    int       `json:"notables,omitempty"`
	Sockets     int       `json:"sockets,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
}

type statusReport struct {
	Dirs     *storage.Dirs     `json:"dirs"`
	Dataset  datasetStatus     `json:"dataset"`
	Store    *seedstore.Status `json:"store,omitempty"`
	StoreErr string            `json:"store_error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, dirs, err := loadConfig()
	if err != nil {
		return err
	}
	if statusInit {
		if err := dirs.EnsureAll(); err != nil {
			return fmt.Errorf("create directories: %w", err)
		}
	}

	report := statusReport{Dirs: dirs}
	report.Dataset = probeDataset(cfg.Data.TreePath, cfg.Data.WeightsPath)

	if cfg.Store.Enabled {
		db, store, err := openStore(cmd.Context(), cfg, dirs, slog.Default())
		if err != nil {
			report.StoreErr = err.Error()
		} else {
			defer db.CloseAll()
			if report.Store, err = store.Status(cmd.Context()); err != nil {
				report.StoreErr = err.Error()
			}
		}
	} else {
		report.StoreErr = "disabled"
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		return writeJSON(out, report)
	}

	p := newPainter(out)
	fmt.Fprintln(out, p.paint(colorBold, "Directories"))
	fmt.Fprintf(out, "  config: %s\n  data:   %s\n  cache:  %s\n  logs:   %s\n",
		dirs.Config, dirs.Data, dirs.Cache, dirs.LogDir())

	fmt.Fprintln(out, p.paint(colorBold, "Dataset"))
	ds := report.Dataset
	fmt.Fprintf(out, "  tree:    %s\n  weights: %s\n", ds.TreePath, ds.WeightsPath)
	if ds.Loaded {
		fmt.Fprintf(out, "  %s %d nodes, %d sockets, %d notables in the spawn pool\n",
			p.paint(colorGreen, "loaded:"), ds.Nodes, ds.Sockets, ds.Notables)
	} else {
		fmt.Fprintf(out, "  %s %s\n", p.paint(colorYellow, "not loaded:"), ds.Error)
	}

	fmt.Fprintln(out, p.paint(colorBold, "Seed history"))
	if report.Store == nil {
		fmt.Fprintf(out, "  %s %s\n", p.paint(colorYellow, "unavailable:"), report.StoreErr)
		return nil
	}
	st := report.Store
	fmt.Fprintf(out, "  path:      %s\n  schema:    v%d (%d pending)\n  integrity: %s\n  records:   %d analyses, %d searches\n",
		st.Path, st.SchemaVersion, st.Pending, st.Integrity, st.Analyses, st.Searches)
	return nil
}

func probeDataset(tree, weights string) datasetStatus {
	ds := datasetStatus{TreePath: tree, WeightsPath: weights}
	provider, err := dataset.NewProvider(dataset.Config{TreePath: tree, WeightsPath: weights, Logger: slog.Default()})
	if err != nil {
		ds.Error = err.Error()
		return ds
	}
	ds.TreePath, ds.WeightsPath = provider.Paths()

	snap, err := provider.Load()
	if err != nil {
		ds.Error = err.Error()
		return ds
	}
	ds.Loaded = true
	ds.Nodes = snap.Graph.Len()
	ds.Notables = snap.Mapper.Selector().Len()
	ds.Sockets = len(passivetree.JewelSockets(snap.Graph))
	ds.LoadedAt = snap.LoadedAt
	return ds
}
