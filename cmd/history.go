package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/seedstore"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analyses and seed searches",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of records per list")
}

var errHistoryDisabled = coreerrors.NewTieredError(coreerrors.TierUserFixable,
	"seed history is not available (store.enabled is false or the database could not be opened)", nil)

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return errHistoryDisabled
	}

	ctx := cmd.Context()
	analyses, err := a.store.RecentAnalyses(ctx, historyLimit)
	if err != nil {
		return err
	}
	searches, err := a.store.RecentSearches(ctx, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return writeJSON(out, map[string]any{
			"analyses": analyses,
			"searches": searches,
		})
	}

	p := newPainter(out)
	fmt.Fprintln(out, p.paint(colorBold, "Analyses"))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSOCKET\tSEED\tTRIBUTE\tRADIUS\tTOTAL")
	for _, r := range analyses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%g\t%d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.SocketID, r.Seed, r.Tribute, r.Radius, r.TotalTribute)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, p.paint(colorBold, "Searches"))
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tNODE\tNOTABLE\tRANGE\tFOUND")
	for _, r := range searches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d-%d\t%d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.NodeID, r.Notable, r.SeedMin, r.SeedMax, len(r.Seeds))
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return errHistoryDisabled
	}

	rec, err := a.store.LoadAnalysis(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, seedstore.ErrNotFound) {
			return coreerrors.NewTieredError(coreerrors.TierUserFixable,
				fmt.Sprintf("no saved analysis with id %q", args[0]), err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return writeJSON(out, rec)
	}
	fmt.Fprintf(out, "saved %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printAnalysis(out, newPainter(out), rec.Result)
	return nil
}
