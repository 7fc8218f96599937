package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/calculator"
)

var (
	distTribute string
	distRadius  string
	distJSON    bool
	distAnySeed bool
)

var distributionCmd = &cobra.Command{
	Use:   "distribution <socket-id> <seed>",
	Short: "Count the notables a jewel places",
	Args:  cobra.ExactArgs(2),
	RunE:  runDistribution,
}

func init() {
	rootCmd.AddCommand(distributionCmd)

	distributionCmd.Flags().StringVarP(&distTribute, "tribute", "t", "", "Tribute leader (default jewel.default_tribute)")
	distributionCmd.Flags().StringVarP(&distRadius, "radius", "r", "", "Radius in tree units or size name")
	distributionCmd.Flags().BoolVar(&distJSON, "json", false, "Output as JSON")
	distributionCmd.Flags().BoolVar(&distAnySeed, "any-seed", false, "Accept seeds outside the in-game range")
}

func runDistribution(cmd *cobra.Command, args []string) error {
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

	if err := checkSeed(a, seed, distAnySeed); err != nil {
		return err
	}
	radius, err := parseRadius(a, distRadius)
	if err != nil {
		return err
	}

	dist, err := a.calc.NotableDistribution(cmd.Context(), calculator.Request{
		SocketID: socketID,
		Seed:     seed,
		Tribute:  tributeOrDefault(a, distTribute),
		Radius:   radius,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if distJSON {
		return writeJSON(out, dist)
	}

	names := make([]string, 0, len(dist))
	for name := range dist {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if dist[names[i]] != dist[names[j]] {
			return dist[names[i]] > dist[names[j]]
		}
		return names[i] < names[j]
	})

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NOTABLE\tCOUNT")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%d\n", name, dist[name])
	}
	return tw.Flush()
}
