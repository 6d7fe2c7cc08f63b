package state

import (
	"fmt"
	"net/netip"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

type NodeCfg struct {
	Id       NodeId
	Prefixes []netip.Prefix `yaml:",omitempty"`
}

// LinkCfg is an undirected link between two nodes
type LinkCfg struct {
	A       NodeId `yaml:"a"`
	B       NodeId `yaml:"b"`
	Cost    Cost   `yaml:"cost"`
	Latency int64  `yaml:"latency,omitempty"` // simulated delivery delay, defaults to DefaultLatency
}

// EventCfg changes the cost of the link A-B at simulated time At. A cost of inf takes the link down.
type EventCfg struct {
	At   int64  `yaml:"at"`
	A    NodeId `yaml:"a"`
	B    NodeId `yaml:"b"`
	Cost Cost   `yaml:"cost"`
}

type ScenarioCfg struct {
	Protocol    string     `yaml:"protocol"`
	Nodes       []NodeCfg  `yaml:"nodes"`
	Graph       []string   `yaml:"graph,omitempty"`        // see ParseGraph, every pairing gets DefaultCost
	DefaultCost *Cost      `yaml:"default_cost,omitempty"` // cost of links derived from Graph
	Links       []LinkCfg  `yaml:"links,omitempty"`        // explicit links, override Graph pairings
	Events      []EventCfg `yaml:"events,omitempty"`
	MaxSteps    int        `yaml:"max_steps,omitempty"`
	JitterSeed  uint64     `yaml:"jitter_seed,omitempty"`
	Jitter      int64      `yaml:"jitter,omitempty"` // maximum extra delivery delay, 0 disables reordering
}

func ParseScenario(data []byte) (*ScenarioCfg, error) {
	var cfg ScenarioCfg
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadScenario(path string) (*ScenarioCfg, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseScenario(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *ScenarioCfg) NodeIds() []NodeId {
	ids := make([]NodeId, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		ids = append(ids, n.Id)
	}
	return SortedNodes(ids)
}

func (c *ScenarioCfg) TryGetNode(node NodeId) *NodeCfg {
	idx := slices.IndexFunc(c.Nodes, func(cfg NodeCfg) bool {
		return cfg.Id == node
	})
	if idx == -1 {
		return nil
	}
	return &c.Nodes[idx]
}

func (c *ScenarioCfg) GetNode(node NodeId) NodeCfg {
	val := c.TryGetNode(node)
	if val == nil {
		panic("node " + string(node) + " not found")
	}
	return *val
}

func (c *ScenarioCfg) GetDefaultCost() Cost {
	if c.DefaultCost == nil {
		return DefaultLinkCost
	}
	return *c.DefaultCost
}

// ExpandLinks resolves Graph and Links into one sorted list of links with A < B.
func (c *ScenarioCfg) ExpandLinks() ([]LinkCfg, error) {
	nodes := make([]string, 0, len(c.Nodes))
	for _, n := range c.NodeIds() {
		nodes = append(nodes, string(n))
	}
	links := make(map[Pair[NodeId, NodeId]]LinkCfg)
	if len(c.Graph) != 0 {
		pairs, err := ParseGraph(c.Graph, nodes)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			links[p] = LinkCfg{A: p.V1, B: p.V2, Cost: c.GetDefaultCost()}
		}
	}
	for _, l := range c.Links {
		p := MakeSortedPair(l.A, l.B)
		l.A, l.B = p.V1, p.V2
		links[p] = l
	}
	out := make([]LinkCfg, 0, len(links))
	for _, l := range links {
		if l.Latency == 0 {
			l.Latency = DefaultLatency
		}
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b LinkCfg) int {
		if a.A != b.A {
			return strings.Compare(string(a.A), string(b.A))
		}
		return strings.Compare(string(a.B), string(b.B))
	})
	return out, nil
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	spl := strings.Split(strings.TrimSpace(s), ",")
	line := make([]string, 0)
	for _, s := range spl {
		x := strings.TrimSpace(s)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph expands the topology syntax of a scenario into undirected node pairs:

core = a, b, c

edge = d, e

core, edge // every core node links to every edge node, but not within a group

core, core // full mesh inside core

d, f // a single link

nodes is the set of terminal node names that groups evaluate down to.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[NodeId, NodeId], error) {
	parsedPairings := make([]Pair[string, string], 0)
	groups := make(map[string][]string)
	symbols := slices.Clone(nodes)

	// collect symbols first, so groups may be referenced before they are defined
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			if len(spl) != 2 {
				return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
			}
			grp := strings.TrimSpace(spl[0])
			if slices.Contains(nodes, grp) {
				return nil, fmt.Errorf("group name must not be a node name: %s", grp)
			}
			symbols = append(symbols, grp)
		}
	}
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)

	// group -> groups it references
	deps := make(map[string][]string)
	expansion := make(map[string][]string)

	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			grp := strings.TrimSpace(spl[0])
			if _, ok := groups[grp]; ok {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			lst, err := parseSymbolList(spl[1], symbols)
			if err != nil {
				return nil, err
			}
			grpDeps := make([]string, 0)
			for _, l := range lst {
				if slices.Contains(nodes, l) {
					expansion[grp] = append(expansion[grp], l)
				} else {
					grpDeps = append(grpDeps, l)
				}
			}
			slices.Sort(grpDeps)
			deps[grp] = slices.Compact(grpDeps)
			groups[grp] = lst
		} else {
			names, err := parseSymbolList(line, symbols)
			if err != nil {
				return nil, err
			}
			if len(names) < 2 {
				return nil, fmt.Errorf("invalid pairing, %v", names)
			}
			for i, name := range names {
				for _, prev := range names[:i] {
					parsedPairings = append(parsedPairings, MakeSortedPair(prev, name))
				}
			}
		}
	}
	SortPairs(parsedPairings)
	parsedPairings = slices.Compact(parsedPairings)

	// resolve groups in dependency order
	for len(deps) > 0 {
		var group string
		for k, v := range deps {
			if len(v) == 0 {
				group = k
				break
			}
		}
		if group == "" {
			cycle := make([]string, 0, len(deps))
			for node := range deps {
				cycle = append(cycle, node)
			}
			slices.Sort(cycle)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		delete(deps, group)

		for k, d := range deps {
			if !slices.Contains(d, group) {
				continue
			}
			expansion[k] = append(expansion[k], expansion[group]...)
			slices.Sort(expansion[k])
			expansion[k] = slices.Compact(expansion[k])
			deps[k] = slices.DeleteFunc(d, func(s string) bool {
				return s == group
			})
		}
	}

	expand := func(sym string) []NodeId {
		if slices.Contains(nodes, sym) {
			return []NodeId{NodeId(sym)}
		}
		out := make([]NodeId, 0, len(expansion[sym]))
		for _, e := range expansion[sym] {
			out = append(out, NodeId(e))
		}
		return out
	}

	pairings := make([]Pair[NodeId, NodeId], 0)
	for _, pair := range parsedPairings {
		for _, x := range expand(pair.V1) {
			for _, y := range expand(pair.V2) {
				if x != y {
					pairings = append(pairings, MakeSortedPair(x, y))
				}
			}
		}
	}
	SortPairs(pairings)
	return slices.Compact(pairings), nil
}
