package timeless

import (
	"strings"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
)

// Seed bounds of the jewel as it drops in game. The mapper itself accepts any
// uint32; callers decide whether to enforce the range.
const (
	MinSeed uint32 = 79
	MaxSeed uint32 = 30977
)

const (
	smallTribute     = 5
	attributeTribute = 8
)

var attributeKeywords = []string{"strength", "dexterity", "intelligence"}

// TransformedNode is one node inside the radius and what it becomes.
type TransformedNode struct {
	OriginalNodeID   uint32               `json:"original_node_id"`
	OriginalName     string               `json:"original_name"`
	OriginalCategory passivetree.Category `json:"original_category"`
	NewName          string               `json:"new_name"`
	NewID            string               `json:"new_id"`
	Distance         float64              `json:"distance"`
	X                float64              `json:"x"`
	Y                float64              `json:"y"`
	TributeValue     int                  `json:"tribute_value"`
}

// AnalysisResult is the full outcome of socketing one jewel. It is built once
// and never modified afterwards.
type AnalysisResult struct {
	Socket           passivetree.Socket `json:"socket"`
	Seed             uint32             `json:"seed"`
	Tribute          Leader             `json:"tribute"`
	Keystone         string             `json:"keystone"`
	Radius           float64            `json:"radius"`
	Nodes            []TransformedNode  `json:"nodes"`
	TotalTribute     int                `json:"total_tribute"`
	NotableCount     int                `json:"notable_count"`
	SmallCount       int                `json:"small_count"`
	KeystoneReplaced bool               `json:"keystone_replaced"`
}

// NotableDistribution tallies the replacement notable names.
func (r *AnalysisResult) NotableDistribution() map[string]int {
	dist := make(map[string]int)
	for _, n := range r.Nodes {
		if n.OriginalCategory == passivetree.CategoryNotable {
			dist[n.NewName]++
		}
	}
	return dist
}

// Mapper composes the radius query, the notable selector and the faction
// rules. It keeps no state between calls and may be shared by goroutines.
type Mapper struct {
	graph    *passivetree.Graph
	weights  *WeightTable
	selector *Selector
}

// NewMapper binds the two read-only datasets. Neither is copied.
func NewMapper(graph *passivetree.Graph, weights *WeightTable) (*Mapper, error) {
	sel, err := NewSelector(weights.Notables)
	if err != nil {
		return nil, err
	}
	return &Mapper{graph: graph, weights: weights, selector: sel}, nil
}

// Graph returns the tree the mapper reads.
func (m *Mapper) Graph() *passivetree.Graph { return m.graph }

// Selector returns the notable selector built from the weight table.
func (m *Mapper) Selector() *Selector { return m.selector }

// Analyze reports every node a jewel with the given seed and tribute
// transforms around socketID.
func (m *Mapper) Analyze(socketID, seed uint32, tribute string, radius float64) (*AnalysisResult, error) {
	leader, err := ResolveTribute(tribute)
	if err != nil {
		return nil, err
	}
	socket, err := passivetree.SocketOf(m.graph, socketID)
	if err != nil {
		return nil, err
	}
	candidates, err := passivetree.NodesWithinRadius(m.graph, socketID, radius)
	if err != nil {
		return nil, err
	}
	return m.Transform(leader, socket, candidates, seed, radius), nil
}

// Transform applies the jewel to an already computed candidate list.
func (m *Mapper) Transform(leader Leader, socket passivetree.Socket, candidates []passivetree.Candidate, seed uint32, radius float64) *AnalysisResult {
	res := &AnalysisResult{
		Socket:   socket,
		Seed:     seed,
		Tribute:  leader,
		Keystone: leader.Keystone(),
		Radius:   radius,
		Nodes:    make([]TransformedNode, 0, len(candidates)),
	}

	for _, c := range candidates {
		n := c.Node
		tn := TransformedNode{
			OriginalNodeID:   n.ID,
			OriginalName:     n.Name,
			OriginalCategory: n.Category(),
			Distance:         c.Distance,
			X:                n.X,
			Y:                n.Y,
		}

		switch tn.OriginalCategory {
		case passivetree.CategoryKeystone:
			tn.NewName = res.Keystone
			tn.NewID = m.weights.keystoneID(leader)
			res.KeystoneReplaced = true
		case passivetree.CategoryNotable:
			pick := m.selector.Select(n.ID, seed)
			tn.NewName = pick.Name
			tn.NewID = pick.ID
			res.NotableCount++
		default:
			tn.NewName = m.weights.SmallPassive.Name
			tn.NewID = m.weights.SmallPassive.ID
			tn.TributeValue = tributeValue(n.Stats)
			res.SmallCount++
		}

		res.TotalTribute += tn.TributeValue
		res.Nodes = append(res.Nodes, tn)
	}
	return res
}

// NotableDistribution analyzes the request and tallies the notables it places.
func (m *Mapper) NotableDistribution(socketID, seed uint32, tribute string, radius float64) (map[string]int, error) {
	res, err := m.Analyze(socketID, seed, tribute, radius)
	if err != nil {
		return nil, err
	}
	return res.NotableDistribution(), nil
}

// CompareSeeds analyzes each seed independently, in input order.
func (m *Mapper) CompareSeeds(socketID uint32, seeds []uint32, tribute string, radius float64) ([]*AnalysisResult, error) {
	out := make([]*AnalysisResult, 0, len(seeds))
	for _, seed := range seeds {
		res, err := m.Analyze(socketID, seed, tribute, radius)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// FindSeeds scans seeds in [lo, hi] in ascending order and returns those
// whose pick at nodeID satisfies match, stopping after limit hits. A limit of
// zero or less means no limit.
func (m *Mapper) FindSeeds(nodeID uint32, match func(Notable) bool, lo, hi uint32, limit int) []uint32 {
	var out []uint32
	for seed := uint64(lo); seed <= uint64(hi); seed++ {
		if match(m.selector.Select(nodeID, uint32(seed))) {
			out = append(out, uint32(seed))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// NameEquals matches a notable by case-insensitive name.
func NameEquals(name string) func(Notable) bool {
	return func(n Notable) bool {
		return strings.EqualFold(n.Name, name)
	}
}

func tributeValue(stats []string) int {
	for _, s := range stats {
		lower := strings.ToLower(s)
		for _, kw := range attributeKeywords {
			if strings.Contains(lower, kw) {
				return attributeTribute
			}
		}
	}
	return smallTribute
}
