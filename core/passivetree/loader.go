package passivetree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

type rawNode struct {
	Name         string   `json:"name"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	IsNotable    bool     `json:"is_notable"`
	IsKeystone   bool     `json:"is_keystone"`
	IsAscendancy bool     `json:"is_ascendancy"`
	GroupID      *int     `json:"group_id"`
	Stats        []string `json:"stats"`
}

// LoadGraph decodes a tree export: a JSON object keyed by node id (as a
// string) whose values carry name, x, y, the category flags, group_id and
// stats. A missing coordinate defaults to 0; a node missing both has no
// position.
func LoadGraph(r io.Reader) (*Graph, error) {
	var raw map[string]rawNode
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	nodes := make([]Node, 0, len(raw))
	for key, rn := range raw {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNodeID, key)
		}
		nodes = append(nodes, rn.toNode(uint32(id)))
	}
	return NewGraph(nodes)
}

// LoadGraphFile reads a tree export from disk.
func LoadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := LoadGraph(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func (rn rawNode) toNode(id uint32) Node {
	n := Node{
		ID:           id,
		Name:         rn.Name,
		HasPosition:  rn.X != nil || rn.Y != nil,
		IsNotable:    rn.IsNotable,
		IsKeystone:   rn.IsKeystone,
		IsAscendancy: rn.IsAscendancy,
		GroupID:      rn.GroupID,
		Stats:        rn.Stats,
	}
	if rn.X != nil {
		n.X = *rn.X
	}
	if rn.Y != nil {
		n.Y = *rn.Y
	}
	return n
}
