package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	compareTribute string
	compareRadius  string
	compareJSON    bool
	compareAnySeed bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <socket-id> <seed> [seed...]",
	Short: "Compare several seeds on one socket",
	Long: `Analyze each seed on the same socket and rank them by total tribute.

Examples:
  poe2 compare 26725 100 200 300 --tribute Ulaman`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&compareTribute, "tribute", "t", "", "Tribute leader (default jewel.default_tribute)")
	compareCmd.Flags().StringVarP(&compareRadius, "radius", "r", "", "Radius in tree units or size name")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Output as JSON")
	compareCmd.Flags().BoolVar(&compareAnySeed, "any-seed", false, "Accept seeds outside the in-game range")
}

type seedSummary struct {
	Seed         uint32         `json:"seed"`
	TotalTribute int            `json:"total_tribute"`
	NotableCount int            `json:"notable_count"`
	Notables     map[string]int `json:"notables"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	socketID, err := parseUint32("socket id", args[0])
	if err != nil {
		return err
	}
	seeds := make([]uint32, 0, len(args)-1)
	for _, s := range args[1:] {
		seed, err := parseUint32("seed", s)
		if err != nil {
			return err
		}
		seeds = append(seeds, seed)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	for _, seed := range seeds {
		if err := checkSeed(a, seed, compareAnySeed); err != nil {
			return err
		}
	}
	radius, err := parseRadius(a, compareRadius)
	if err != nil {
		return err
	}

	results, err := a.calc.CompareSeeds(cmd.Context(), socketID, seeds, tributeOrDefault(a, compareTribute), radius)
	if err != nil {
		return err
	}

	summaries := make([]seedSummary, len(results))
	for i, r := range results {
		summaries[i] = seedSummary{
			Seed:         r.Seed,
			TotalTribute: r.TotalTribute,
			NotableCount: r.NotableCount,
			Notables:     r.NotableDistribution(),
		}
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalTribute > summaries[j].TotalTribute
	})

	out := cmd.OutOrStdout()
	if compareJSON {
		return writeJSON(out, summaries)
	}

	p := newPainter(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tTRIBUTE\tNOTABLES\tTOP NOTABLE")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.Seed, p.paint(colorGreen, fmt.Sprint(s.TotalTribute)), s.NotableCount, topNotable(s.Notables))
	}
	return tw.Flush()
}

// topNotable names the most frequent notable, ties broken by name.
func topNotable(dist map[string]int) string {
	best, count := "", 0
	for name, n := range dist {
		if n > count || (n == count && name < best) {
			best, count = name, n
		}
	}
	if best == "" {
		return "-"
	}
	return fmt.Sprintf("%s x%d", best, count)
}
