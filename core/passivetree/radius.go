package passivetree

import (
	"math"
	"sort"
	"strings"
)

// RadiusSize is a named jewel radius in tree units.
type RadiusSize float64

const (
	RadiusSmall     RadiusSize = 800
	RadiusMedium    RadiusSize = 1000
	RadiusLarge     RadiusSize = 1075
	RadiusVeryLarge RadiusSize = 1500
)

var radiusNames = []struct {
	size RadiusSize
	name string
}{
	{RadiusSmall, "Small"},
	{RadiusMedium, "Medium"},
	{RadiusLarge, "Large"},
	{RadiusVeryLarge, "Very Large"},
}

// ParseRadiusSize maps a size name to its radius. Unknown names fall back to
// Medium.
func ParseRadiusSize(name string) RadiusSize {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "small":
		return RadiusSmall
	case "large":
		return RadiusLarge
	case "very large", "very_large", "verylarge":
		return RadiusVeryLarge
	default:
		return RadiusMedium
	}
}

// RadiusName returns the display name of a radius, or "Custom" when it is not
// within one unit of a named size.
func RadiusName(radius float64) string {
	for _, r := range radiusNames {
		if math.Abs(radius-float64(r.size)) < 1 {
			return r.name
		}
	}
	return "Custom"
}

// Candidate is a node inside a socket's radius.
type Candidate struct {
	Node     *Node
	Distance float64
}

// Distance returns the planar euclidean distance between two nodes.
func Distance(a, b *Node) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// NodesWithinRadius returns every positioned, non-ascendancy node other than
// the socket whose distance to the socket is at most radius. Results are
// ordered by distance, then by node id.
func NodesWithinRadius(g *Graph, socketID uint32, radius float64) ([]Candidate, error) {
	socket, ok := g.Node(socketID)
	if !ok {
		return nil, &SocketNotFoundError{SocketID: socketID}
	}

	var out []Candidate
	g.Each(func(n *Node) bool {
		if n.ID == socketID || !n.HasPosition || n.IsAscendancy {
			return true
		}
		if d := Distance(socket, n); d <= radius {
			out = append(out, Candidate{Node: n, Distance: d})
		}
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Node.ID < out[j].Node.ID
	})
	return out, nil
}
