package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
)

var ErrRouteMismatch = errors.New("route does not match shortest path")

// ShortestPaths is the all-pairs shortest path cost over the live topology (Floyd-Warshall)
func (s *Simulation) ShortestPaths() map[state.NodeId]map[state.NodeId]state.Cost {
	nodes := s.topo.Nodes()
	d := make(map[state.NodeId]map[state.NodeId]state.Cost, len(nodes))
	for _, u := range nodes {
		d[u] = make(map[state.NodeId]state.Cost, len(nodes))
		for _, v := range nodes {
			d[u][v] = s.topo.Cost(u, v)
		}
	}
	for _, k := range nodes {
		for _, i := range nodes {
			if d[i][k] == state.INF {
				continue
			}
			for _, j := range nodes {
				if alt := core.AddCost(d[i][k], d[k][j]); alt < d[i][j] {
					d[i][j] = alt
				}
			}
		}
	}
	return d
}

// Verify checks every installed route against the true shortest paths. Each reachable destination
// must be installed at its shortest cost through a live neighbour that lies on a shortest path,
// and path-vector paths must be simple.
func (s *Simulation) Verify() error {
	if !s.started {
		return ErrNotStarted
	}
	sp := s.ShortestPaths()
	var errs []error
	for _, id := range s.topo.Nodes() {
		for _, dest := range s.topo.Nodes() {
			if dest == id {
				continue
			}
			if err := s.verifyRoute(sp, id, dest); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Simulation) verifyRoute(sp map[state.NodeId]map[state.NodeId]state.Cost, id, dest state.NodeId) error {
	want := sp[id][dest]
	got := s.Route(id, dest)
	if want == state.INF {
		if got.Reachable() {
			return fmt.Errorf("%w: %s -> %s is unreachable but has %s", ErrRouteMismatch, id, dest, got)
		}
		return nil
	}
	if !got.Reachable() || got.Cost != want {
		return fmt.Errorf("%w: %s -> %s wants cost %s, has %s", ErrRouteMismatch, id, dest, want, got)
	}
	nh := got.Nh.Id
	link := s.topo.Cost(id, nh)
	if link == state.INF || core.AddCost(link, sp[nh][dest]) != want {
		return fmt.Errorf("%w: %s -> %s next hop %s is not on a shortest path", ErrRouteMismatch, id, dest, nh)
	}
	if pv, ok := s.Router(id).State().(*core.PVState); ok {
		p := pv.Path(dest)
		if len(p) < 2 || p[0] != id || p[len(p)-1] != dest || p[1] != nh {
			return fmt.Errorf("%w: %s -> %s has path %v for next hop %s", ErrRouteMismatch, id, dest, p, nh)
		}
		if len(state.SortedNodes(p)) != len(p) {
			return fmt.Errorf("%w: %s -> %s path %v is not simple", ErrRouteMismatch, id, dest, p)
		}
	}
	return nil
}

// Unconverged lists the nodes whose tables disagree with Verify, sorted
func (s *Simulation) Unconverged() []state.NodeId {
	sp := s.ShortestPaths()
	out := make([]state.NodeId, 0)
	for _, id := range s.topo.Nodes() {
		for _, dest := range s.topo.Nodes() {
			if dest != id && s.verifyRoute(sp, id, dest) != nil {
				out = append(out, id)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}
