package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	radiusSize string
	radiusJSON bool
)

var radiusCmd = &cobra.Command{
	Use:   "radius <socket-id>",
	Short: "Summarize what a socket's radius covers",
	Args:  cobra.ExactArgs(1),
	RunE:  runRadius,
}

func init() {
	rootCmd.AddCommand(radiusCmd)

	radiusCmd.Flags().StringVarP(&radiusSize, "radius", "r", "", "Radius in tree units or size name")
	radiusCmd.Flags().BoolVar(&radiusJSON, "json", false, "Output as JSON")
}

func runRadius(cmd *cobra.Command, args []string) error {
	socketID, err := parseUint32("socket id", args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	radius, err := parseRadius(a, radiusSize)
	if err != nil {
		return err
	}

	sum, err := a.calc.SummarizeRadius(socketID, radius)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if radiusJSON {
		return writeJSON(out, sum)
	}

	p := newPainter(out)
	fmt.Fprintf(out, "socket %d, radius %g (%s)\n", sum.Socket.ID, sum.Radius, sum.RadiusName)
	fmt.Fprintf(out, "  keystones: %d %s\n", sum.Keystones, p.paint(colorYellow, strings.Join(sum.KeystoneNames, ", ")))
	fmt.Fprintf(out, "  notables:  %d %s\n", sum.Notables, p.paint(colorCyan, strings.Join(sum.NotableNames, ", ")))
	fmt.Fprintf(out, "  small:     %d\n", sum.SmallPassives)
	return nil
}
