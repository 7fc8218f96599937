// Package cmd implements the poe2 command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
)

var (
	flagProject string
	flagTree    string
	flagWeights string
	flagVerbose bool
	flagLogJSON bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "poe2",
	Short: "poe2 - Timeless jewel seed calculator",
	Long: `poe2 predicts which passive tree nodes a timeless jewel transforms.

Given a jewel socket, a seed and a tribute, it reports every node inside the
jewel's radius and what each becomes, exactly as the game computes it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), flagVerbose, flagLogJSON))
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProject, "project", ".", "Project root searched for .poe2/config.yaml")
	pf.StringVar(&flagTree, "tree", "", "Passive tree export (overrides data.tree_path)")
	pf.StringVar(&flagWeights, "weights", "", "Spawn weight export (overrides data.weights_path)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flagLogJSON, "log-json", false, "Write logs as JSON")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable coloured output")
}

func newLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func reportError(w io.Writer, err error) {
	tier := coreerrors.GetTier(err)
	fmt.Fprintf(w, "error: %v\n", err)
	if hint := coreerrors.Hint(err); hint != "" {
		fmt.Fprintf(w, "hint: %s\n", hint)
	}
	if tier == coreerrors.TierTransient {
		fmt.Fprintln(w, "this may succeed if you try again")
	}
	var te *coreerrors.TieredError
	if errors.As(err, &te) && len(te.Context) > 0 {
		for k, v := range te.Context {
			fmt.Fprintf(w, "  %s: %s\n", k, v)
		}
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if coreerrors.GetTier(err) == coreerrors.TierUserFixable {
		return 2
	}
	return 1
}

// Exit terminates the process with the status for err.
func Exit(err error) {
	os.Exit(exitCode(err))
}
