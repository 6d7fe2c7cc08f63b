package sim

import (
	"context"
	"log/slog"
	"maps"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
	"github.com/gaissmai/bart"
)

// node is the core.Host that a single router sees
type node struct {
	sim    *Simulation
	id     state.NodeId
	log    *slog.Logger
	router core.Router
	routes map[state.NodeId]state.Route
	// fib maps destination prefixes to the next hop, own prefixes map to the node itself
	fib bart.Table[state.NodeId]
}

func newNode(s *Simulation, id state.NodeId) *node {
	n := &node{
		sim:    s,
		id:     id,
		log:    s.log.With("node", string(id)),
		routes: make(map[state.NodeId]state.Route),
		fib:    bart.Table[state.NodeId]{},
	}
	for _, p := range s.topo.Prefixes(id) {
		n.fib.Insert(p, id)
	}
	return n
}

func (n *node) Self() state.NodeId {
	return n.id
}

func (n *node) Nodes() []state.NodeId {
	return n.sim.topo.Nodes()
}

func (n *node) LinkCost(other state.NodeId) state.Cost {
	return n.sim.topo.Cost(n.id, other)
}

func (n *node) SendMessage(to state.NodeId, payload []byte) {
	n.sim.send(n.id, to, payload)
}

func (n *node) SetRoute(dest state.NodeId, nh state.NextHop, cost state.Cost) {
	if dest == n.id {
		n.log.Warn("refusing to install a route to self", "nh", nh, "cost", cost)
		return
	}
	route := state.Route{Nh: nh, Cost: cost}
	n.routes[dest] = route
	for _, p := range n.sim.topo.Prefixes(dest) {
		if route.Reachable() {
			n.fib.Insert(p, nh.Id)
		} else {
			n.fib.Delete(p)
		}
	}
	if route.Reachable() {
		n.sim.stats.RoutesInstalled++
		perf.RoutesInstalled.Add(1)
	} else {
		n.sim.stats.RoutesWithdrawn++
		perf.RoutesWithdrawn.Add(1)
	}
	n.sim.publish(TraceEvent{Kind: TraceRouteChanged, Node: n.id, Peer: dest, Cost: cost, Route: route})
}

func (n *node) Log(event core.RouterEvent, desc string, args ...any) {
	level := slog.LevelDebug
	if event.IsWarning() {
		level = slog.LevelWarn
	}
	if !n.log.Enabled(context.Background(), level) {
		return
	}
	attrs := append([]any{"event", event.String(), "t", n.sim.now}, args...)
	n.log.Log(context.Background(), level, desc, attrs...)
}

func (n *node) table() map[state.NodeId]state.Route {
	return maps.Clone(n.routes)
}
