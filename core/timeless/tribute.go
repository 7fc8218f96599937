package timeless

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Leader is the canonical name of an abyss faction leader, the tribute
// inscribed on the jewel.
type Leader string

const (
	Amanamu Leader = "Amanamu"
	Ulaman  Leader = "Ulaman"
	Kurgal  Leader = "Kurgal"
	Tacati  Leader = "Tacati"
	Doryani Leader = "Doryani"
)

var factions = []struct {
	leader   Leader
	keystone string
}{
	{Amanamu, "Sacrifice of Flesh"},
	{Ulaman, "Sacrifice of Loyalty"},
	{Kurgal, "Sacrifice of Mind"},
	{Tacati, "Sacrifice of Blood"},
	{Doryani, "Sacrifice of Sight"},
}

// Keys are lowercase. "tecrod" is a historical spelling that maps to Tacati.
var leaderAliases = map[string]Leader{
	"amanamu": Amanamu,
	"ulaman":  Ulaman,
	"kurgal":  Kurgal,
	"tacati":  Tacati,
	"tecrod":  Tacati,
	"doryani": Doryani,
}

// maxSuggestDistance bounds how far a typo may be from a leader name before
// no suggestion is offered.
const maxSuggestDistance = 3

// ResolveTribute normalizes a tribute name through the alias table.
func ResolveTribute(name string) (Leader, error) {
	if l, ok := leaderAliases[strings.ToLower(name)]; ok {
		return l, nil
	}
	if l := Leader(name); l.position() > 0 {
		return l, nil
	}
	return "", &UnknownTributeError{Name: name, Suggestion: suggestLeader(name)}
}

// Leaders returns the canonical leaders in faction table order.
func Leaders() []Leader {
	out := make([]Leader, len(factions))
	for i, f := range factions {
		out[i] = f.leader
	}
	return out
}

// Keystone returns the keystone this leader grants, or "" for a name outside
// the faction table.
func (l Leader) Keystone() string {
	for _, f := range factions {
		if f.leader == l {
			return f.keystone
		}
	}
	return ""
}

// position is the 1-based index in the faction table, 0 when absent.
func (l Leader) position() int {
	for i, f := range factions {
		if f.leader == l {
			return i + 1
		}
	}
	return 0
}

func suggestLeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, f := range factions {
		d := levenshtein.ComputeDistance(name, strings.ToLower(string(f.leader)))
		if d < bestDist {
			best, bestDist = string(f.leader), d
		}
	}
	return best
}

func leaderList() string {
	names := make([]string, len(factions))
	for i, f := range factions {
		names[i] = string(f.leader)
	}
	return strings.Join(names, ", ")
}
