package cmd

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/calculator"
	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

var (
	findMin   uint32
	findMax   uint32
	findLimit int
	findSave  bool
	findJSON  bool
)

var findCmd = &cobra.Command{
	Use:   "find <node-id> <notable>",
	Short: "Find seeds that turn a node into a notable",
	Long: `Scan a seed range for seeds whose pick at the node is the named notable.

The notable is matched by case-insensitive name; a pattern containing *, ?, [
or { is matched as a glob.

Examples:
  poe2 find 40480 "Heart of Flame"
  poe2 find 40480 "*flame*" --limit 20 --save`,
	Args: cobra.ExactArgs(2),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().Uint32Var(&findMin, "min", 0, "Lowest seed to scan (default jewel.seed_min)")
	findCmd.Flags().Uint32Var(&findMax, "max", 0, "Highest seed to scan (default jewel.seed_max)")
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "Stop after this many seeds (0 for all)")
	findCmd.Flags().BoolVar(&findSave, "save", false, "Record the search in the seed history")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "Output as JSON")
}

type findResult struct {
	NodeID  uint32   `json:"node_id"`
	Notable string   `json:"notable"`
	SeedMin uint32   `json:"seed_min"`
	SeedMax uint32   `json:"seed_max"`
	Seeds   []uint32 `json:"seeds"`
}

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// notableMatcher builds the match function for pattern and checks that at
// least one notable in the pool satisfies it.
func notableMatcher(pool []timeless.Notable, pattern string) (func(timeless.Notable) bool, error) {
	var match func(timeless.Notable) bool
	if isGlobPattern(pattern) {
		g, err := compileNameGlob(pattern)
		if err != nil {
			return nil, coreerrors.NewTieredError(coreerrors.TierUserFixable, err.Error(), nil)
		}
		match = func(n timeless.Notable) bool { return g.Match(strings.ToLower(n.Name)) }
	} else {
		match = timeless.NameEquals(pattern)
	}

	for _, n := range pool {
		if match(n) {
			return match, nil
		}
	}

	msg := fmt.Sprintf("no notable in the spawn pool matches %q", pattern)
	if s := closestNotable(pool, pattern); s != "" {
		msg += fmt.Sprintf("; did you mean %q?", s)
	}
	return nil, coreerrors.NewTieredError(coreerrors.TierUserFixable, msg, nil)
}

func closestNotable(pool []timeless.Notable, name string) string {
	if isGlobPattern(name) {
		return ""
	}
	name = strings.ToLower(name)
	best, bestDist := "", len(name)/2+1
	for _, n := range pool {
		if d := levenshtein.ComputeDistance(name, strings.ToLower(n.Name)); d < bestDist {
			best, bestDist = n.Name, d
		}
	}
	return best
}

func runFind(cmd *cobra.Command, args []string) error {
	nodeID, err := parseUint32("node id", args[0])
	if err != nil {
		return err
	}
	pattern := args[1]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	lo, hi := a.cfg.Jewel.SeedMin, a.cfg.Jewel.SeedMax
	if cmd.Flags().Changed("min") {
		lo = findMin
	}
	if cmd.Flags().Changed("max") {
		hi = findMax
	}
	if lo > hi {
		return coreerrors.NewTieredError(coreerrors.TierUserFixable,
			fmt.Sprintf("--min %d is above --max %d", lo, hi), nil)
	}

	snap, err := a.provider.Snapshot()
	if err != nil {
		return err
	}
	match, err := notableMatcher(snap.Mapper.Selector().Notables(), pattern)
	if err != nil {
		return err
	}

	seeds, err := a.calc.FindSeeds(cmd.Context(), calculator.FindRequest{
		NodeID:  nodeID,
		Label:   pattern,
		Match:   match,
		SeedMin: lo,
		SeedMax: hi,
		Limit:   findLimit,
		Save:    findSave,
	})
	if err != nil {
		return err
	}
	if seeds == nil {
		seeds = []uint32{}
	}

	out := cmd.OutOrStdout()
	if findJSON {
		return writeJSON(out, findResult{NodeID: nodeID, Notable: pattern, SeedMin: lo, SeedMax: hi, Seeds: seeds})
	}

	if len(seeds) == 0 {
		fmt.Fprintf(out, "no seed in [%d, %d] gives %q at node %d\n", lo, hi, pattern, nodeID)
		return nil
	}
	strs := make([]string, len(seeds))
	for i, s := range seeds {
		strs[i] = fmt.Sprint(s)
	}
	fmt.Fprintf(out, "%d seed(s) give %q at node %d: %s\n", len(seeds), pattern, nodeID, strings.Join(strs, " "))
	return nil
}
