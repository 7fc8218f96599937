package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	coreerrors "github.com/tyniaiworkspace-dev/poe2-mcp/core/errors"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// painter colours text only when writing to a terminal.
type painter struct {
	enabled bool
}

func newPainter(w io.Writer) painter {
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		return painter{}
	}
	f, ok := w.(*os.File)
	return painter{enabled: ok && term.IsTerminal(int(f.Fd()))}
}

func (p painter) paint(color, s string) string {
	if !p.enabled {
		return s
	}
	return color + s + colorReset
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, coreerrors.NewTieredError(coreerrors.TierUserFixable,
			fmt.Sprintf("invalid %s %q", name, s), err)
	}
	return uint32(v), nil
}

// checkSeed enforces the configured seed range unless disabled.
func checkSeed(a *app, seed uint32, anySeed bool) error {
	if anySeed || !a.cfg.Jewel.EnforceSeedRange || a.cfg.SeedInRange(seed) {
		return nil
	}
	return fmt.Errorf("seed %d outside [%d, %d]: %w",
		seed, a.cfg.Jewel.SeedMin, a.cfg.Jewel.SeedMax, coreerrors.ErrSeedOutOfRange)
}

// parseRadius accepts a number of tree units or a size name. Empty means
// the configured default.
func parseRadius(a *app, s string) (float64, error) {
	if s == "" {
		return a.cfg.Jewel.DefaultRadius, nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v <= 0 {
			return 0, coreerrors.NewTieredError(coreerrors.TierUserFixable,
				fmt.Sprintf("radius must be positive, got %s", s), nil)
		}
		return v, nil
	}
	return float64(passivetree.ParseRadiusSize(s)), nil
}

func tributeOrDefault(a *app, s string) string {
	if s == "" {
		return a.cfg.Jewel.DefaultTribute
	}
	return s
}
