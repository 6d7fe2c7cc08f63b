package core

import (
	"slices"

	"github.com/encodeous/routesim/state"
)

// PathVector advertises explicit paths and never selects a path that already runs through itself
type PathVector struct{}

type PVState struct {
	Self state.NodeId
	// NeighbourCost is indexed [via][dest]. The row of Self holds the selected routes.
	NeighbourCost map[state.NodeId]map[state.NodeId]state.Cost
	// Paths is indexed [via][dest]. A path starts at via and ends at dest.
	Paths map[state.NodeId]map[state.NodeId][]state.NodeId
	Links map[state.NodeId]state.Cost
}

func (s *PVState) cost(via, dest state.NodeId) state.Cost {
	return costOf(s.NeighbourCost[via], dest)
}

func (s *PVState) path(via, dest state.NodeId) []state.NodeId {
	return s.Paths[via][dest]
}

// Path is the selected path to dest, starting with the local node
func (s *PVState) Path(dest state.NodeId) []state.NodeId {
	return slices.Clone(s.path(s.Self, dest))
}

func (s *PVState) Table() map[state.NodeId]state.Route {
	tbl := make(map[state.NodeId]state.Route)
	for dest, cost := range s.NeighbourCost[s.Self] {
		if dest == s.Self {
			continue
		}
		p := s.path(s.Self, dest)
		if cost == state.INF || len(p) < 2 {
			tbl[dest] = state.Unreachable
			continue
		}
		tbl[dest] = state.Route{Nh: state.Via(p[1]), Cost: cost}
	}
	return tbl
}

func (PathVector) Init(h Host) *PVState {
	nodes := h.Nodes()
	s := &PVState{
		Self:          h.Self(),
		NeighbourCost: make(map[state.NodeId]map[state.NodeId]state.Cost, len(nodes)),
		Paths:         make(map[state.NodeId]map[state.NodeId][]state.NodeId, len(nodes)),
		Links:         make(map[state.NodeId]state.Cost, len(nodes)),
	}
	for _, n := range nodes {
		row := infVector(nodes)
		row[n] = 0
		s.NeighbourCost[n] = row
		s.Paths[n] = map[state.NodeId][]state.NodeId{n: {n}}
	}
	return s
}

func (pv PathVector) recompute(h Host, s *PVState) bool {
	updated := false
	self := s.Self
	nodes := h.Nodes()

	for _, dest := range nodes {
		if dest == self {
			continue
		}
		bestCost := state.INF
		bestNh := state.NoHop
		var bestPath []state.NodeId

		for _, neigh := range nodes {
			if neigh == self {
				continue
			}
			link := h.LinkCost(neigh)
			if link == state.INF {
				continue
			}
			adv := s.path(neigh, dest)
			if len(adv) == 0 || adv[0] != neigh {
				continue // neigh has no path of its own to dest
			}
			if slices.Contains(adv, self) {
				h.Log(LoopRejected, "path runs through self", "dest", dest, "via", neigh, "path", adv)
				continue
			}
			costViaNeigh := AddCost(link, s.cost(neigh, dest))
			if costViaNeigh < bestCost {
				bestCost = costViaNeigh
				bestNh = state.Via(neigh)
				bestPath = append([]state.NodeId{self}, adv...)
			}
		}

		if bestCost != s.cost(self, dest) || !slices.Equal(bestPath, s.path(self, dest)) {
			s.NeighbourCost[self][dest] = bestCost
			s.Paths[self][dest] = bestPath
			h.SetRoute(dest, bestNh, bestCost)
			h.Log(installEvent(bestCost), "path updated", "dest", dest, "path", bestPath, "cost", bestCost)
			updated = true
		}
	}
	return updated
}

// invalidate withdraws every route whose first hop is neigh
func (PathVector) invalidate(h Host, s *PVState, neigh state.NodeId) bool {
	updated := false
	for _, dest := range h.Nodes() {
		p := s.path(s.Self, dest)
		if len(p) < 2 || p[1] != neigh {
			continue
		}
		s.NeighbourCost[s.Self][dest] = state.INF
		s.Paths[s.Self][dest] = nil
		h.SetRoute(dest, state.NoHop, state.INF)
		h.Log(RouteWithdrawn, "invalidating path", "dest", dest, "via", neigh)
		updated = true
	}
	return updated
}

func (PathVector) advertisement(h Host, s *PVState) *PVMessage {
	nodes := h.Nodes()
	msg := &PVMessage{Routes: make([]PathEntry, 0, len(nodes))}
	for _, dest := range nodes {
		msg.Routes = append(msg.Routes, PathEntry{
			Dest: dest,
			Cost: s.cost(s.Self, dest),
			Path: s.path(s.Self, dest),
		})
	}
	return msg
}

func (pv PathVector) broadcast(h Host, s *PVState) {
	payload := Encode(pv.advertisement(h, s))
	for _, n := range liveNeighbours(h) {
		h.Log(Broadcast, "sending path vector", "to", n)
		h.SendMessage(n, payload)
	}
}

func (pv PathVector) OnLinkChange(h Host, s *PVState, neigh state.NodeId, cost state.Cost) bool {
	prev := costOf(s.Links, neigh)
	s.Links[neigh] = cost

	invalidated := false
	if cost == state.INF {
		invalidated = pv.invalidate(h, s, neigh)
	}
	updated := pv.recompute(h, s) || invalidated
	if updated {
		pv.broadcast(h, s)
	} else if prev == state.INF && cost != state.INF {
		h.Log(NeighbourSync, "sending path vector to new neighbour", "to", neigh)
		h.SendMessage(neigh, Encode(pv.advertisement(h, s)))
	}
	return updated
}

func (pv PathVector) OnMessage(h Host, s *PVState, sender state.NodeId, payload []byte) bool {
	msg, err := DecodePV(payload)
	if err != nil {
		h.Log(MalformedMessage, "dropped path vector", "from", sender, "err", err)
		return false
	}
	if sender == s.Self {
		return false
	}

	costs := infVector(h.Nodes())
	paths := make(map[state.NodeId][]state.NodeId, len(msg.Routes))
	for _, r := range msg.Routes {
		costs[r.Dest] = r.Cost
		paths[r.Dest] = r.Path
	}
	s.NeighbourCost[sender] = costs
	s.Paths[sender] = paths

	if pv.recompute(h, s) {
		pv.broadcast(h, s)
		return true
	}
	return false
}
