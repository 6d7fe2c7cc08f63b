package core

import (
	"slices"

	"github.com/encodeous/routesim/state"
)

// AddCost is saturating: anything plus INF is INF, and finite sums never pass INF.
func AddCost(a, b state.Cost) state.Cost {
	if a == state.INF || b == state.INF {
		return state.INF
	}
	return state.Cost(min(uint64(state.INF), uint64(a)+uint64(b)))
}

// costOf reads a cost vector, treating destinations it has never heard of as unreachable
func costOf(vec map[state.NodeId]state.Cost, dest state.NodeId) state.Cost {
	c, ok := vec[dest]
	if !ok {
		return state.INF
	}
	return c
}

func infVector(nodes []state.NodeId) map[state.NodeId]state.Cost {
	vec := make(map[state.NodeId]state.Cost, len(nodes))
	for _, n := range nodes {
		vec[n] = state.INF
	}
	return vec
}

// liveNeighbours are the nodes other than self with a finite link cost
func liveNeighbours(h Host) []state.NodeId {
	self := h.Self()
	return slices.DeleteFunc(slices.Clone(h.Nodes()), func(n state.NodeId) bool {
		return n == self || h.LinkCost(n) == state.INF
	})
}

func installEvent(cost state.Cost) RouterEvent {
	if cost == state.INF {
		return RouteWithdrawn
	}
	return RouteInstalled
}
