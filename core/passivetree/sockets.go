package passivetree

import "strings"

// JewelSocketName is the node name the tree export gives jewel sockets.
const JewelSocketName = "Jewel Socket"

// Socket is the reference to the node a jewel sits in.
type Socket struct {
	ID      uint32  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Name    string  `json:"name"`
	GroupID *int    `json:"group_id,omitempty"`
}

// SocketOf builds the socket reference for id.
func SocketOf(g *Graph, id uint32) (Socket, error) {
	n, ok := g.Node(id)
	if !ok {
		return Socket{}, &SocketNotFoundError{SocketID: id}
	}
	name := n.Name
	if name == "" {
		name = JewelSocketName
	}
	return Socket{ID: n.ID, X: n.X, Y: n.Y, Name: name, GroupID: n.GroupID}, nil
}

// JewelSockets lists every jewel socket in ascending id order.
func JewelSockets(g *Graph) []Socket {
	var out []Socket
	g.Each(func(n *Node) bool {
		if n.Name == JewelSocketName {
			out = append(out, Socket{ID: n.ID, X: n.X, Y: n.Y, Name: n.Name, GroupID: n.GroupID})
		}
		return true
	})
	return out
}

// RadiusSummary counts what a radius around a socket covers.
type RadiusSummary struct {
	Socket        Socket      `json:"socket"`
	Radius        float64     `json:"radius"`
	RadiusName    string      `json:"radius_name"`
	Nodes         []Candidate `json:"-"`
	Keystones     int         `json:"keystones"`
	Notables      int         `json:"notables"`
	SmallPassives int         `json:"small_passives"`
	KeystoneNames []string    `json:"keystone_names"`
	NotableNames  []string    `json:"notable_names"`
}

// SummarizeRadius runs a radius query and tallies the result by category.
func SummarizeRadius(g *Graph, socketID uint32, radius float64) (*RadiusSummary, error) {
	socket, err := SocketOf(g, socketID)
	if err != nil {
		return nil, err
	}
	nodes, err := NodesWithinRadius(g, socketID, radius)
	if err != nil {
		return nil, err
	}

	s := &RadiusSummary{
		Socket:     socket,
		Radius:     radius,
		RadiusName: RadiusName(radius),
		Nodes:      nodes,
	}
	for _, c := range nodes {
		switch c.Node.Category() {
		case CategoryKeystone:
			s.Keystones++
			if c.Node.Name != "" {
				s.KeystoneNames = append(s.KeystoneNames, c.Node.Name)
			}
		case CategoryNotable:
			s.Notables++
			if c.Node.Name != "" {
				s.NotableNames = append(s.NotableNames, c.Node.Name)
			}
		default:
			s.SmallPassives++
		}
	}
	return s, nil
}

// BestSocketForNotables finds the socket whose radius covers the most of the
// target notable names. Ties keep the lowest socket id.
func BestSocketForNotables(g *Graph, targets []string, radius float64) (Socket, []string, bool) {
	want := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		want[strings.ToLower(t)] = struct{}{}
	}

	var (
		best    Socket
		matches []string
		found   bool
	)
	for _, socket := range JewelSockets(g) {
		nodes, err := NodesWithinRadius(g, socket.ID, radius)
		if err != nil {
			continue
		}
		var hit []string
		for _, c := range nodes {
			if c.Node.Name == "" {
				continue
			}
			if _, ok := want[strings.ToLower(c.Node.Name)]; ok {
				hit = append(hit, c.Node.Name)
			}
		}
		if len(hit) > len(matches) {
			best, matches, found = socket, hit, true
		}
	}
	return best, matches, found
}
