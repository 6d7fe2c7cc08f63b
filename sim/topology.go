package sim

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/encodeous/routesim/state"
)

type link struct {
	Cost    state.Cost
	Latency int64
}

// Topology is the set of nodes and the symmetric links between them
type Topology struct {
	nodes    []state.NodeId
	links    map[state.Pair[state.NodeId, state.NodeId]]*link
	prefixes map[state.NodeId][]netip.Prefix
}

func NewTopology(nodes ...state.NodeId) *Topology {
	return &Topology{
		nodes:    state.SortedNodes(nodes),
		links:    make(map[state.Pair[state.NodeId, state.NodeId]]*link),
		prefixes: make(map[state.NodeId][]netip.Prefix),
	}
}

// TopologyFromScenario builds the initial topology of a validated scenario
func TopologyFromScenario(cfg *state.ScenarioCfg) (*Topology, error) {
	t := NewTopology(cfg.NodeIds()...)
	for _, n := range cfg.Nodes {
		if err := t.AddPrefix(n.Id, n.Prefixes...); err != nil {
			return nil, err
		}
	}
	links, err := cfg.ExpandLinks()
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if err := t.AddLink(l.A, l.B, l.Cost, l.Latency); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Topology) Nodes() []state.NodeId {
	return t.nodes
}

func (t *Topology) Has(node state.NodeId) bool {
	_, found := slices.BinarySearch(t.nodes, node)
	return found
}

func (t *Topology) AddLink(a, b state.NodeId, cost state.Cost, latency int64) error {
	if err := t.checkLink(a, b); err != nil {
		return err
	}
	if latency < 0 {
		return fmt.Errorf("%w: negative latency on %s-%s", ErrInvalidLink, a, b)
	}
	t.links[state.MakeSortedPair(a, b)] = &link{Cost: cost, Latency: latency}
	return nil
}

func (t *Topology) AddPrefix(node state.NodeId, prefixes ...netip.Prefix) error {
	if !t.Has(node) {
		return fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}
	for _, p := range prefixes {
		if !p.IsValid() {
			return fmt.Errorf("invalid prefix for %s", node)
		}
		p = p.Masked()
		for owner, owned := range t.prefixes {
			if slices.Contains(owned, p) {
				return fmt.Errorf("%w: %s is owned by %s", ErrPrefixInUse, p, owner)
			}
		}
		t.prefixes[node] = append(t.prefixes[node], p)
	}
	return nil
}

func (t *Topology) Prefixes(node state.NodeId) []netip.Prefix {
	return t.prefixes[node]
}

func (t *Topology) checkLink(a, b state.NodeId) error {
	if a == b {
		return fmt.Errorf("%w: %s links to itself", ErrInvalidLink, a)
	}
	for _, n := range []state.NodeId{a, b} {
		if !t.Has(n) {
			return fmt.Errorf("%w: %s", ErrUnknownNode, n)
		}
	}
	return nil
}

// Cost is the live cost of a-b. A node reaches itself for free.
func (t *Topology) Cost(a, b state.NodeId) state.Cost {
	if a == b {
		return 0
	}
	l, ok := t.links[state.MakeSortedPair(a, b)]
	if !ok {
		return state.INF
	}
	return l.Cost
}

func (t *Topology) Latency(a, b state.NodeId) int64 {
	l, ok := t.links[state.MakeSortedPair(a, b)]
	if !ok {
		return state.DefaultLatency
	}
	return l.Latency
}

// setCost changes a link, creating it if needed
func (t *Topology) setCost(a, b state.NodeId, cost state.Cost) {
	p := state.MakeSortedPair(a, b)
	l, ok := t.links[p]
	if !ok {
		l = &link{Latency: state.DefaultLatency}
		t.links[p] = l
	}
	l.Cost = cost
}

// Links lists every configured link, sorted
func (t *Topology) Links() []state.Triple[state.NodeId, state.NodeId, state.Cost] {
	pairs := make([]state.Pair[state.NodeId, state.NodeId], 0, len(t.links))
	for p := range t.links {
		pairs = append(pairs, p)
	}
	state.SortPairs(pairs)
	out := make([]state.Triple[state.NodeId, state.NodeId, state.Cost], 0, len(pairs))
	for _, p := range pairs {
		out = append(out, state.Triple[state.NodeId, state.NodeId, state.Cost]{V1: p.V1, V2: p.V2, V3: t.links[p].Cost})
	}
	return out
}

// Neighbours of node with a live link
func (t *Topology) Neighbours(node state.NodeId) []state.NodeId {
	out := make([]state.NodeId, 0)
	for _, n := range t.nodes {
		if n != node && t.Cost(node, n) != state.INF {
			out = append(out, n)
		}
	}
	return out
}
