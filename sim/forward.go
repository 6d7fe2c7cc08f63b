package sim

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"

	"github.com/encodeous/routesim/state"
)

var (
	ErrNoRoute        = errors.New("no route")
	ErrForwardingLoop = errors.New("forwarding loop")
)

// Lookup is the longest-prefix match of addr in the forwarding table of node. A node that owns
// the prefix returns itself.
func (s *Simulation) Lookup(id state.NodeId, addr netip.Addr) (state.NodeId, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return "", false
	}
	return n.fib.Lookup(addr)
}

// Trace follows the forwarding tables hop by hop from node from until addr is delivered. The
// returned path starts at from and ends at the node owning addr.
func (s *Simulation) Trace(from state.NodeId, addr netip.Addr) ([]state.NodeId, error) {
	if !s.topo.Has(from) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	path := []state.NodeId{from}
	cur := from
	for {
		nh, ok := s.Lookup(cur, addr)
		if !ok {
			return path, fmt.Errorf("%w: %s has no route to %s", ErrNoRoute, cur, addr)
		}
		if nh == cur {
			return path, nil
		}
		if s.topo.Cost(cur, nh) == state.INF {
			return path, fmt.Errorf("%w: %s forwards %s over dead link to %s", ErrNoRoute, cur, addr, nh)
		}
		if slices.Contains(path, nh) {
			path = append(path, nh)
			return path, fmt.Errorf("%w: %v", ErrForwardingLoop, path)
		}
		path = append(path, nh)
		cur = nh
	}
}
