package sim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
)

// Inspect renders the neighbours, routes and forwarding entries of a node
func (s *Simulation) Inspect(id state.NodeId) string {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Sprintf("unknown node %s\n", id)
	}
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Node %s (%s)\n", id, s.proto))

	sb.WriteString("Neighbours:\n")
	neighs := s.topo.Neighbours(id)
	if len(neighs) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, neigh := range neighs {
		sb.WriteString(fmt.Sprintf(" - %s: cost=%s, latency=%d\n", neigh, s.topo.Cost(id, neigh), s.topo.Latency(id, neigh)))
	}

	var st core.TableState
	if n.router != nil {
		st = n.router.State()
	}
	sb.WriteString("Routes:\n")
	rt := make([]string, 0)
	for dest, r := range n.routes {
		line := fmt.Sprintf(" - %s: %s", dest, r)
		if pv, ok := st.(*core.PVState); ok && r.Reachable() {
			line += fmt.Sprintf(" path=%v", pv.Path(dest))
		}
		if ls, ok := st.(*core.LSState); ok {
			line += fmt.Sprintf(" version=%d", ls.Version(dest))
		}
		rt = append(rt, line)
	}
	if len(rt) == 0 {
		rt = append(rt, "  (none)")
	}
	slices.Sort(rt)
	sb.WriteString(strings.Join(rt, "\n") + "\n")

	sb.WriteString("Forwarding:\n")
	fwd := make([]string, 0)
	for _, dest := range s.topo.Nodes() {
		for _, p := range s.topo.Prefixes(dest) {
			nh, ok := n.fib.Get(p)
			if !ok {
				continue
			}
			if nh == id {
				fwd = append(fwd, fmt.Sprintf(" - %s: local", p))
			} else {
				fwd = append(fwd, fmt.Sprintf(" - %s: via %s", p, nh))
			}
		}
	}
	if len(fwd) == 0 {
		fwd = append(fwd, "  (none)")
	}
	slices.Sort(fwd)
	sb.WriteString(strings.Join(fwd, "\n") + "\n")
	return sb.String()
}
