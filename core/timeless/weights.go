package timeless

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// NotableEntry is one notable the jewel can place, with its spawn weight.
type NotableEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SpawnWeight int64  `json:"spawn_weight"`
}

// KeystoneEntry pairs a faction leader with the keystone they grant. Exports
// name the keystone either keystone_name or name.
type KeystoneEntry struct {
	ID           string `json:"id,omitempty"`
	Leader       string `json:"leader"`
	KeystoneName string `json:"keystone_name,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Keystone returns the keystone name under whichever key the export used.
func (k KeystoneEntry) Keystone() string {
	if k.KeystoneName != "" {
		return k.KeystoneName
	}
	return k.Name
}

// SmallPassiveTemplate is what every small passive in radius becomes.
type SmallPassiveTemplate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultSmallPassive is used when the dataset carries no template.
var DefaultSmallPassive = SmallPassiveTemplate{ID: "abyss_small_tribute", Name: "Tribute"}

// WeightTable is the spawn weight dataset. It is read-only once loaded.
type WeightTable struct {
	Notables     []NotableEntry       `json:"notables"`
	Keystones    []KeystoneEntry      `json:"keystones"`
	SmallPassive SmallPassiveTemplate `json:"small_passive"`
}

// LoadWeightTable decodes a spawn weight export.
func LoadWeightTable(r io.Reader) (*WeightTable, error) {
	var wt WeightTable
	if err := json.NewDecoder(r).Decode(&wt); err != nil {
		return nil, fmt.Errorf("decode spawn weights: %w", err)
	}
	for _, n := range wt.Notables {
		if n.SpawnWeight < 0 {
			return nil, fmt.Errorf("%w: notable %q has negative weight %d", ErrInvalidWeights, n.ID, n.SpawnWeight)
		}
	}
	if wt.SmallPassive.Name == "" {
		wt.SmallPassive.Name = DefaultSmallPassive.Name
	}
	if wt.SmallPassive.ID == "" {
		wt.SmallPassive.ID = DefaultSmallPassive.ID
	}
	return &wt, nil
}

// LoadWeightTableFile reads a spawn weight export from disk.
func LoadWeightTableFile(path string) (*WeightTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wt, err := LoadWeightTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wt, nil
}

// keystoneID finds the dataset id for the leader's keystone.
func (wt *WeightTable) keystoneID(leader Leader) string {
	for _, k := range wt.Keystones {
		if k.Leader == string(leader) && k.ID != "" {
			return k.ID
		}
	}
	return fmt.Sprintf("abyss_keystone_%d", leader.position())
}
