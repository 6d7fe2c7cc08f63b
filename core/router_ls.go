package core

import (
	"maps"

	"github.com/encodeous/routesim/state"
)

// LinkState floods versioned link-cost vectors and runs Dijkstra over the resulting database
type LinkState struct{}

type LinkStateEntry struct {
	Cost    map[state.NodeId]state.Cost
	Version uint64
}

type LSState struct {
	Self state.NodeId
	// Db holds the newest known link-cost vector of every owner. Db[Self] is authoritative.
	Db map[state.NodeId]*LinkStateEntry
	// Routes mirrors what has been installed with the host
	Routes map[state.NodeId]state.Route
}

func (s *LSState) Table() map[state.NodeId]state.Route {
	return maps.Clone(s.Routes)
}

func (s *LSState) Version(owner state.NodeId) uint64 {
	entry, ok := s.Db[owner]
	if !ok {
		return 0
	}
	return entry.Version
}

func (LinkState) Init(h Host) *LSState {
	self := h.Self()
	nodes := h.Nodes()
	s := &LSState{
		Self:   self,
		Db:     make(map[state.NodeId]*LinkStateEntry, len(nodes)),
		Routes: make(map[state.NodeId]state.Route, len(nodes)),
	}
	for _, n := range nodes {
		entry := &LinkStateEntry{Cost: infVector(nodes)}
		if n == self {
			for _, dest := range nodes {
				entry.Cost[dest] = h.LinkCost(dest)
			}
		}
		entry.Cost[n] = 0
		s.Db[n] = entry
		if n != self {
			s.Routes[n] = state.Unreachable
		}
	}
	return s
}

// linkCost is the cost of u -> v. The local row always uses live link costs.
func (LinkState) linkCost(h Host, s *LSState, u, v state.NodeId) state.Cost {
	if u == s.Self {
		return h.LinkCost(v)
	}
	entry, ok := s.Db[u]
	if !ok {
		return state.INF
	}
	if u == v {
		return 0
	}
	return costOf(entry.Cost, v)
}

// ShortestPaths runs Dijkstra from the local node. When several unvisited nodes share the minimum
// tentative distance, the one first in host enumeration order is visited. pred[v] is the node
// before v on its shortest path.
func (ls LinkState) ShortestPaths(h Host, s *LSState) (map[state.NodeId]state.Cost, map[state.NodeId]state.NodeId) {
	self := s.Self
	nodes := h.Nodes()
	dist := make(map[state.NodeId]state.Cost, len(nodes))
	pred := make(map[state.NodeId]state.NodeId, len(nodes))
	visited := make(map[state.NodeId]bool, len(nodes))

	for _, n := range nodes {
		dist[n] = h.LinkCost(n)
		pred[n] = self
	}
	dist[self] = 0

	for range nodes {
		var u state.NodeId
		found := false
		minCost := state.INF
		for _, candidate := range nodes {
			if !visited[candidate] && dist[candidate] < minCost {
				u = candidate
				minCost = dist[candidate]
				found = true
			}
		}
		if !found {
			break // every remaining node is unreachable
		}
		visited[u] = true

		for _, v := range nodes {
			if visited[v] {
				continue
			}
			w := ls.linkCost(h, s, u, v)
			if w == state.INF {
				continue
			}
			alt := AddCost(dist[u], w)
			if alt < dist[v] {
				dist[v] = alt
				pred[v] = u
			}
		}
	}
	return dist, pred
}

// firstHop walks the predecessor chain of dest back to the local node
func (LinkState) firstHop(self, dest state.NodeId, pred map[state.NodeId]state.NodeId, limit int) (state.NodeId, bool) {
	nh := dest
	cur := dest
	for steps := 0; pred[cur] != self; steps++ {
		p, ok := pred[cur]
		if !ok || steps > limit {
			return "", false
		}
		nh = p
		cur = p
	}
	return nh, true
}

func (ls LinkState) recompute(h Host, s *LSState) bool {
	updated := false
	nodes := h.Nodes()
	dist, pred := ls.ShortestPaths(h, s)

	for _, dest := range nodes {
		if dest == s.Self {
			continue
		}
		route := state.Unreachable
		if dist[dest] != state.INF {
			nh, ok := ls.firstHop(s.Self, dest, pred, len(nodes))
			if ok && h.LinkCost(nh) != state.INF {
				route = state.Route{Nh: state.Via(nh), Cost: dist[dest]}
			}
		}
		old, ok := s.Routes[dest]
		if ok && old == route {
			continue
		}
		s.Routes[dest] = route
		h.SetRoute(dest, route.Nh, route.Cost)
		h.Log(installEvent(route.Cost), "shortest path updated", "dest", dest, "nh", route.Nh, "cost", route.Cost)
		updated = true
	}
	return updated
}

func (LinkState) database(h Host, s *LSState) *LSMessage {
	nodes := h.Nodes()
	msg := &LSMessage{Ads: make([]LinkStateAd, 0, len(nodes))}
	for _, owner := range nodes {
		entry, ok := s.Db[owner]
		if !ok {
			continue
		}
		ad := LinkStateAd{
			Owner:   owner,
			Version: entry.Version,
			Cost:    make([]CostEntry, 0, len(nodes)),
		}
		for _, dest := range nodes {
			ad.Cost = append(ad.Cost, CostEntry{Node: dest, Cost: costOf(entry.Cost, dest)})
		}
		msg.Ads = append(msg.Ads, ad)
	}
	return msg
}

// broadcast floods the whole database. The per-owner version stops the flood.
func (ls LinkState) broadcast(h Host, s *LSState) {
	payload := Encode(ls.database(h, s))
	for _, n := range liveNeighbours(h) {
		h.Log(Broadcast, "flooding link-state database", "to", n)
		h.SendMessage(n, payload)
	}
}

func (ls LinkState) OnLinkChange(h Host, s *LSState, neigh state.NodeId, cost state.Cost) bool {
	own := s.Db[s.Self]
	own.Cost[neigh] = cost
	own.Version++

	updated := ls.recompute(h, s)
	ls.broadcast(h, s)
	return updated
}

func (ls LinkState) OnMessage(h Host, s *LSState, sender state.NodeId, payload []byte) bool {
	msg, err := DecodeLS(payload)
	if err != nil {
		h.Log(MalformedMessage, "dropped link-state database", "from", sender, "err", err)
		return false
	}

	fresh := false
	for _, ad := range msg.Ads {
		if ad.Owner == s.Self {
			continue // our own entry is never taken from the network
		}
		local, ok := s.Db[ad.Owner]
		if !ok {
			h.Log(ForeignLinkState, "link state for unknown owner", "from", sender, "owner", ad.Owner)
			continue
		}
		if ad.Version <= local.Version {
			continue
		}
		cost := make(map[state.NodeId]state.Cost, len(ad.Cost))
		for _, e := range ad.Cost {
			cost[e.Node] = e.Cost
		}
		s.Db[ad.Owner] = &LinkStateEntry{Cost: cost, Version: ad.Version}
		fresh = true
	}
	if !fresh {
		h.Log(StaleLinkStateDropped, "no newer link state", "from", sender)
		return false
	}

	updated := ls.recompute(h, s)
	ls.broadcast(h, s)
	return updated
}
