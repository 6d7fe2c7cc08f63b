package core

import (
	"github.com/encodeous/routesim/state"
)

// DistanceVector is Bellman-Ford with poisoned reverse
type DistanceVector struct{}

type DVState struct {
	Self state.NodeId
	// Distance is the believed cost to each destination
	Distance map[state.NodeId]state.Cost
	// NeighbourCost is the last vector advertised by each neighbour, indexed [neighbour][dest]
	NeighbourCost map[state.NodeId]map[state.NodeId]state.Cost
	NextHop       map[state.NodeId]state.NextHop
	// Links remembers the last cost reported for each local link
	Links map[state.NodeId]state.Cost
}

func (s *DVState) distance(dest state.NodeId) state.Cost {
	if dest == s.Self {
		return 0
	}
	return costOf(s.Distance, dest)
}

func (s *DVState) neighbourCost(neigh, dest state.NodeId) state.Cost {
	if neigh == dest {
		// a direct link needs no advertisement
		return 0
	}
	return costOf(s.NeighbourCost[neigh], dest)
}

func (s *DVState) Table() map[state.NodeId]state.Route {
	tbl := make(map[state.NodeId]state.Route, len(s.Distance))
	for dest, cost := range s.Distance {
		if dest == s.Self {
			continue
		}
		tbl[dest] = state.Route{Nh: s.NextHop[dest], Cost: cost}
	}
	return tbl
}

func (DistanceVector) Init(h Host) *DVState {
	self := h.Self()
	nodes := h.Nodes()
	s := &DVState{
		Self:          self,
		Distance:      infVector(nodes),
		NeighbourCost: make(map[state.NodeId]map[state.NodeId]state.Cost, len(nodes)),
		NextHop:       make(map[state.NodeId]state.NextHop, len(nodes)),
		Links:         make(map[state.NodeId]state.Cost, len(nodes)),
	}
	for _, i := range nodes {
		s.NextHop[i] = state.NoHop
		row := infVector(nodes)
		row[i] = 0
		s.NeighbourCost[i] = row
	}
	s.Distance[self] = 0
	return s
}

// recompute relaxes every destination over the live link costs and the neighbours' vectors.
// Ties go to the neighbour that comes first in host enumeration order.
func (DistanceVector) recompute(h Host, s *DVState) bool {
	updated := false
	self := h.Self()
	nodes := h.Nodes()

	for _, dest := range nodes {
		if dest == self {
			continue
		}
		best := state.INF
		nh := state.NoHop
		for _, n := range nodes {
			if n == self {
				continue
			}
			costViaN := AddCost(h.LinkCost(n), s.neighbourCost(n, dest))
			if costViaN < best {
				best = costViaN
				nh = state.Via(n)
			}
		}

		if best != s.distance(dest) || s.NextHop[dest] != nh {
			s.Distance[dest] = best
			s.NextHop[dest] = nh
			h.SetRoute(dest, nh, best)
			h.Log(installEvent(best), "distance vector updated", "dest", dest, "nh", nh, "cost", best)
			updated = true
		}
	}
	return updated
}

// vectorFor is the distance vector as seen by neigh: destinations routed through neigh are poisoned
func (DistanceVector) vectorFor(h Host, s *DVState, neigh state.NodeId) *DVMessage {
	msg := &DVMessage{Vector: make([]CostEntry, 0, len(s.Distance))}
	for _, dest := range h.Nodes() {
		cost := s.distance(dest)
		if s.NextHop[dest].Is(neigh) {
			cost = state.INF
		}
		msg.Vector = append(msg.Vector, CostEntry{Node: dest, Cost: cost})
	}
	return msg
}

func (dv DistanceVector) broadcast(h Host, s *DVState) {
	for _, n := range liveNeighbours(h) {
		h.Log(Broadcast, "sending distance vector", "to", n)
		h.SendMessage(n, Encode(dv.vectorFor(h, s, n)))
	}
}

func (dv DistanceVector) OnLinkChange(h Host, s *DVState, neigh state.NodeId, cost state.Cost) bool {
	prev := costOf(s.Links, neigh)
	s.Links[neigh] = cost

	if dv.recompute(h, s) {
		dv.broadcast(h, s)
		return true
	}
	if prev == state.INF && cost != state.INF {
		// a new neighbour has never seen our vector
		h.Log(NeighbourSync, "sending distance vector to new neighbour", "to", neigh)
		h.SendMessage(neigh, Encode(dv.vectorFor(h, s, neigh)))
	}
	return false
}

func (dv DistanceVector) OnMessage(h Host, s *DVState, sender state.NodeId, payload []byte) bool {
	msg, err := DecodeDV(payload)
	if err != nil {
		h.Log(MalformedMessage, "dropped distance vector", "from", sender, "err", err)
		return false
	}

	row := infVector(h.Nodes())
	for _, e := range msg.Vector {
		row[e.Node] = e.Cost
	}
	s.NeighbourCost[sender] = row

	if dv.recompute(h, s) {
		dv.broadcast(h, s)
		return true
	}
	return false
}
