package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
)

var (
	socketsRadius string
	socketsMatch  string
	socketsBest   []string
	socketsJSON   bool
)

var socketsCmd = &cobra.Command{
	Use:   "sockets",
	Short: "List jewel sockets",
	Long: `List every jewel socket with what its radius covers.

Examples:
  poe2 sockets --radius large
  poe2 sockets --match "*flame*"
  poe2 sockets --best "Heart of Flame" --best "Cold Blooded"`,
	Args: cobra.NoArgs,
	RunE: runSockets,
}

func init() {
	rootCmd.AddCommand(socketsCmd)

	socketsCmd.Flags().StringVarP(&socketsRadius, "radius", "r", "", "Radius in tree units or size name")
	socketsCmd.Flags().StringVarP(&socketsMatch, "match", "m", "", "Only sockets whose radius holds a notable matching this glob (case-insensitive)")
	socketsCmd.Flags().StringSliceVar(&socketsBest, "best", nil, "Find the socket covering the most of these notable names")
	socketsCmd.Flags().BoolVar(&socketsJSON, "json", false, "Output as JSON")
}

// compileNameGlob compiles a case-insensitive glob over notable names.
func compileNameGlob(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return g, nil
}

func runSockets(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	radius, err := parseRadius(a, socketsRadius)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(socketsBest) > 0 {
		return printBestSocket(cmd, a, radius)
	}

	var match glob.Glob
	if socketsMatch != "" {
		if match, err = compileNameGlob(socketsMatch); err != nil {
			return err
		}
	}

	sockets, err := a.calc.Sockets()
	if err != nil {
		return err
	}

	var summaries []*passivetree.RadiusSummary
	for _, s := range sockets {
		sum, err := a.calc.SummarizeRadius(s.ID, radius)
		if err != nil {
			return err
		}
		if match != nil && !anyMatch(match, sum.NotableNames) {
			continue
		}
		summaries = append(summaries, sum)
	}

	if socketsJSON {
		if summaries == nil {
			summaries = []*passivetree.RadiusSummary{}
		}
		return writeJSON(out, summaries)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOCKET\tX\tY\tKEYSTONES\tNOTABLES\tSMALL")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%.0f\t%.0f\t%d\t%d\t%d\n",
			s.Socket.ID, s.Socket.X, s.Socket.Y, s.Keystones, s.Notables, s.SmallPassives)
	}
	return tw.Flush()
}

func anyMatch(g glob.Glob, names []string) bool {
	for _, n := range names {
		if g.Match(strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func printBestSocket(cmd *cobra.Command, a *app, radius float64) error {
	socket, found, ok, err := a.calc.BestSocket(socketsBest, radius)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if socketsJSON {
		return writeJSON(out, struct {
			Found   bool                `json:"found"`
			Socket  *passivetree.Socket `json:"socket,omitempty"`
			Matches []string            `json:"matches"`
		}{ok, socketPtr(socket, ok), nonNil(found)})
	}

	if !ok {
		fmt.Fprintln(out, "no socket covers any of the requested notables")
		return nil
	}
	fmt.Fprintf(out, "socket %d covers %d of %d: %s\n", socket.ID, len(found), len(socketsBest), strings.Join(found, ", "))
	return nil
}

func socketPtr(s passivetree.Socket, ok bool) *passivetree.Socket {
	if !ok {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
