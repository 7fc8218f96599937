package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/calculator"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/dataset"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

var (
	analyzeTribute string
	analyzeRadius  string
	analyzeJSON    bool
	analyzeSave    bool
	analyzeAnySeed bool
	analyzeWatch   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <socket-id> <seed>",
	Short: "Show what a jewel transforms around a socket",
	Long: `Analyze one jewel placement: every node inside the radius and what it becomes.

Examples:
  poe2 analyze 26725 12345 --tribute Kurgal
  poe2 analyze 26725 12345 --radius large --json
  poe2 analyze 26725 12345 --watch`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeTribute, "tribute", "t", "", "Tribute leader (default jewel.default_tribute)")
	analyzeCmd.Flags().StringVarP(&analyzeRadius, "radius", "r", "", "Radius in tree units or size name (small, medium, large, very_large)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Record the analysis in the seed history")
	analyzeCmd.Flags().BoolVar(&analyzeAnySeed, "any-seed", false, "Accept seeds outside the in-game range")
	analyzeCmd.Flags().BoolVarP(&analyzeWatch, "watch", "w", false, "Re-run whenever the datasets change (default data.watch)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	socketID, err := parseUint32("socket id", args[0])
	if err != nil {
		return err
	}
	seed, err := parseUint32("seed", args[1])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := checkSeed(a, seed, analyzeAnySeed); err != nil {
		return err
	}
	radius, err := parseRadius(a, analyzeRadius)
	if err != nil {
		return err
	}

	req := calculator.Request{
		SocketID: socketID,
		Seed:     seed,
		Tribute:  tributeOrDefault(a, analyzeTribute),
		Radius:   radius,
	}
	res, err := a.calc.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := emitAnalysis(cmd, a, res); err != nil {
		return err
	}

	watch := a.cfg.Data.Watch
	if cmd.Flags().Changed("watch") {
		watch = analyzeWatch
	}
	if !watch {
		return nil
	}
	return followAnalysis(cmd, a, req, out)
}

func emitAnalysis(cmd *cobra.Command, a *app, res *timeless.AnalysisResult) error {
	out := cmd.OutOrStdout()
	if analyzeSave {
		rec, err := a.calc.Save(cmd.Context(), res)
		if err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
		a.logger.Info("analysis saved", "id", rec.ID)
		if !analyzeJSON {
			fmt.Fprintf(out, "saved as %s\n\n", rec.ID)
		}
	}

	if analyzeJSON {
		return writeJSON(out, res)
	}
	printAnalysis(out, newPainter(out), res)
	return nil
}

// followAnalysis re-runs req after every dataset reload until interrupted.
func followAnalysis(cmd *cobra.Command, a *app, req calculator.Request, out io.Writer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a.provider.OnReload(func(snap *dataset.Snapshot) {
		res, err := a.calc.Analyze(ctx, req)
		if err != nil {
			a.logger.Warn("re-analysis failed", "generation", snap.Generation, "error", err)
			return
		}
		fmt.Fprintf(out, "\n== datasets reloaded (generation %d) ==\n", snap.Generation)
		if err := emitAnalysis(cmd, a, res); err != nil {
			a.logger.Warn("write analysis", "error", err)
		}
	})

	return a.provider.Watch(ctx, a.cfg.DebounceDuration())
}

func printAnalysis(w io.Writer, p painter, res *timeless.AnalysisResult) {
	fmt.Fprintf(w, "%s socket %d (%s), seed %d, %s, radius %g (%s)\n",
		p.paint(colorBold, "Jewel:"), res.Socket.ID, res.Socket.Name, res.Seed,
		res.Tribute, res.Radius, passivetree.RadiusName(res.Radius))
	fmt.Fprintln(w, strings.Repeat("-", 60))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tCATEGORY\tDISTANCE\tORIGINAL\tBECOMES\tTRIBUTE")
	for _, n := range res.Nodes {
		becomes := n.NewName
		switch n.OriginalCategory {
		case passivetree.CategoryKeystone:
			becomes = p.paint(colorYellow, becomes)
		case passivetree.CategoryNotable:
			becomes = p.paint(colorCyan, becomes)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.0f\t%s\t%s\t%d\n",
			n.OriginalNodeID, n.OriginalCategory, n.Distance, n.OriginalName, becomes, n.TributeValue)
	}
	tw.Flush()

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "notables: %d  small: %d  tribute: %s  keystone replaced: %t\n",
		res.NotableCount, res.SmallCount, p.paint(colorGreen, fmt.Sprint(res.TotalTribute)), res.KeystoneReplaced)
}
