package timeless

import (
	"fmt"
	"math"
	"sort"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/prng"
)

// Notable identifies a replacement notable.
type Notable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnknownNotable is returned when the eligible pool is empty.
var UnknownNotable = Notable{ID: "unknown_notable", Name: "Unknown Notable"}

// Selector picks a notable for a (node, seed) pair, weighted by spawn
// weight. It holds only immutable data and is safe for concurrent use.
type Selector struct {
	notables   []Notable
	weights    []uint32
	cumulative []uint32
	total      uint32
}

// NewSelector builds the cumulative index over entries with a positive
// weight. Zero-weight entries are dropped from the pool entirely.
func NewSelector(entries []NotableEntry) (*Selector, error) {
	s := &Selector{}
	var running uint64
	for _, e := range entries {
		if e.SpawnWeight < 0 {
			return nil, fmt.Errorf("%w: notable %q has negative weight %d", ErrInvalidWeights, e.ID, e.SpawnWeight)
		}
		if e.SpawnWeight == 0 {
			continue
		}
		running += uint64(e.SpawnWeight)
		if running > math.MaxUint32 {
			return nil, fmt.Errorf("%w: total weight exceeds %d", ErrInvalidWeights, uint32(math.MaxUint32))
		}
		s.notables = append(s.notables, Notable{ID: e.ID, Name: e.Name})
		s.weights = append(s.weights, uint32(e.SpawnWeight))
		s.cumulative = append(s.cumulative, uint32(running))
	}
	s.total = uint32(running)
	return s, nil
}

// Select rolls a fresh generator seeded with (nodeID, seed) against the total
// weight and returns the first notable whose cumulative weight exceeds the
// roll.
func (s *Selector) Select(nodeID, seed uint32) Notable {
	if len(s.notables) == 0 {
		return UnknownNotable
	}
	return s.notables[s.pick(nodeID, seed)]
}

// pick returns the pool index chosen for (nodeID, seed). The pool must be
// non-empty.
func (s *Selector) pick(nodeID, seed uint32) int {
	roll := prng.New(nodeID, seed).Range(s.total)
	i := sort.Search(len(s.cumulative), func(i int) bool {
		return s.cumulative[i] > roll
	})
	if i == len(s.cumulative) {
		i = len(s.cumulative) - 1
	}
	return i
}

// Empty reports whether no notable has a positive weight.
func (s *Selector) Empty() bool {
	return len(s.notables) == 0
}

// Len returns the size of the eligible pool.
func (s *Selector) Len() int {
	return len(s.notables)
}

// Total returns the summed weight of the eligible pool.
func (s *Selector) Total() uint32 {
	return s.total
}

// Share returns the selection probability of the notable at pool index i.
func (s *Selector) Share(i int) float64 {
	if s.total == 0 || i < 0 || i >= len(s.weights) {
		return 0
	}
	return float64(s.weights[i]) / float64(s.total)
}

// Notables returns the eligible pool in dataset order.
func (s *Selector) Notables() []Notable {
	out := make([]Notable, len(s.notables))
	copy(out, s.notables)
	return out
}
