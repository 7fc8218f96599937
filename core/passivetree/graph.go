// Package passivetree models the passive skill tree graph and answers the
// geometric questions a jewel socket asks of it.
package passivetree

import (
	"fmt"
	"sort"
)

// Category is the transformation class of a node. It depends only on the
// node's own flags.
type Category int

const (
	CategorySmall Category = iota
	CategoryNotable
	CategoryKeystone
)

func (c Category) String() string {
	switch c {
	case CategoryKeystone:
		return "keystone"
	case CategoryNotable:
		return "notable"
	default:
		return "small"
	}
}

// MarshalText renders the category by name in JSON and YAML output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names MarshalText produces.
func (c *Category) UnmarshalText(b []byte) error {
	switch string(b) {
	case "keystone":
		*c = CategoryKeystone
	case "notable":
		*c = CategoryNotable
	case "small":
		*c = CategorySmall
	default:
		return fmt.Errorf("unknown node category %q", b)
	}
	return nil
}

// Node is one passive skill. Nodes with no coordinates at all have
// HasPosition false and never appear in radius results.
type Node struct {
	ID           uint32   `json:"id"`
	Name         string   `json:"name"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	HasPosition  bool     `json:"-"`
	IsNotable    bool     `json:"is_notable"`
	IsKeystone   bool     `json:"is_keystone"`
	IsAscendancy bool     `json:"is_ascendancy"`
	GroupID      *int     `json:"group_id,omitempty"`
	Stats        []string `json:"stats"`
}

// Category classifies the node. Keystone wins over notable.
func (n *Node) Category() Category {
	switch {
	case n.IsKeystone:
		return CategoryKeystone
	case n.IsNotable:
		return CategoryNotable
	default:
		return CategorySmall
	}
}

// Graph is an immutable view of the tree. It is safe to share between
// goroutines once built.
type Graph struct {
	nodes map[uint32]*Node
	ids   []uint32
}

// NewGraph builds a graph from the given nodes. The slice is copied.
func NewGraph(nodes []Node) (*Graph, error) {
	g := &Graph{
		nodes: make(map[uint32]*Node, len(nodes)),
		ids:   make([]uint32, 0, len(nodes)),
	}
	for i := range nodes {
		n := nodes[i]
		if _, ok := g.nodes[n.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
		}
		g.nodes[n.ID] = &n
		g.ids = append(g.ids, n.ID)
	}
	sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })
	return g, nil
}

// Node looks up a node by id.
func (g *Graph) Node(id uint32) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.ids)
}

// Each visits nodes in ascending id order until fn returns false.
func (g *Graph) Each(fn func(*Node) bool) {
	for _, id := range g.ids {
		if !fn(g.nodes[id]) {
			return
		}
	}
}
