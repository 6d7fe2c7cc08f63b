package state

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graph(lines string) []string {
	return strings.Split(strings.TrimSpace(lines), "\n")
}

var routers = []string{"r1", "r2", "r3", "r4", "h1", "h2"}

func link(a, b NodeId) Pair[NodeId, NodeId] {
	return MakeSortedPair(a, b)
}

func TestParseGraph_Chain(t *testing.T) {
	pairs, err := ParseGraph(graph(`
r1, r2
r2, r3
r3, r4`), routers)
	require.NoError(t, err)
	assert.Equal(t, []Pair[NodeId, NodeId]{link("r1", "r2"), link("r2", "r3"), link("r3", "r4")}, pairs)
}

func TestParseGraph_PairingListIsMesh(t *testing.T) {
	pairs, err := ParseGraph(graph(`r1, r2, r3`), routers)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Pair[NodeId, NodeId]{link("r1", "r2"), link("r1", "r3"), link("r2", "r3")}, pairs)
}

func TestParseGraph_Bridge(t *testing.T) {
	// every left router links to every right router, nothing inside a side
	pairs, err := ParseGraph(graph(`
left = r1, r2
right = r3, r4
left, right`), routers)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Pair[NodeId, NodeId]{
		link("r1", "r3"), link("r1", "r4"),
		link("r2", "r3"), link("r2", "r4"),
	}, pairs)
}

func TestParseGraph_CoreAndHosts(t *testing.T) {
	// groups may reference groups defined later
	pairs, err := ParseGraph(graph(`
backbone = core
core = r1, r2, r3
hosts = h1, h2
backbone, backbone
hosts, r3`), routers)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Pair[NodeId, NodeId]{
		link("r1", "r2"), link("r1", "r3"), link("r2", "r3"),
		link("h1", "r3"), link("h2", "r3"),
	}, pairs)
}

func TestParseGraph_DuplicatesCollapse(t *testing.T) {
	pairs, err := ParseGraph(graph(`
R1, r2
r2,,r1
edge = r1, r1, r2
edge, edge`), routers)
	require.NoError(t, err)
	assert.Equal(t, []Pair[NodeId, NodeId]{link("r1", "r2")}, pairs)
}

func TestParseGraph_Errors(t *testing.T) {
	cases := map[string]struct {
		graph string
		err   string
	}{
		"unknown router":   {"r1, r9", "r9 is not a valid node/group"},
		"lone router":      {"r2", "invalid pairing, [r2]"},
		"empty line":       {"r1, r2\n", "node/group list must not be empty"},
		"empty group":      {"edge =", "node/group list must not be empty"},
		"two equals":       {"edge = r1 = r2", "group definition must contain one '='"},
		"router as group":  {"r1 = r2, r3", "group name must not be a node name: r1"},
		"group twice":      {"edge = r1\nedge = r2", "duplicate group name: edge"},
		"self reference":   {"edge = edge\nedge, r1", "cycle detected in graph: [edge]"},
		"mutual reference": {"up = down\ndown = up\nup, r1", "cycle detected in graph: [down up]"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGraph(strings.Split(tc.graph, "\n"), routers)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestExpandLinks_BridgeCosts(t *testing.T) {
	ten := Cost(10)
	cfg := ScenarioCfg{
		Nodes:       []NodeCfg{{Id: "r1"}, {Id: "r2"}, {Id: "r3"}, {Id: "r4"}},
		Graph:       graph("left = r1, r2\nright = r3, r4\nleft, left\nright, right\nleft, right"),
		DefaultCost: &ten,
		Links: []LinkCfg{
			{A: "r1", B: "r2", Cost: 1},
			{A: "r4", B: "r3", Cost: 1, Latency: 2},
		},
	}
	links, err := cfg.ExpandLinks()
	require.NoError(t, err)
	assert.Equal(t, []LinkCfg{
		{A: "r1", B: "r2", Cost: 1, Latency: DefaultLatency},
		{A: "r1", B: "r3", Cost: 10, Latency: DefaultLatency},
		{A: "r1", B: "r4", Cost: 10, Latency: DefaultLatency},
		{A: "r2", B: "r3", Cost: 10, Latency: DefaultLatency},
		{A: "r2", B: "r4", Cost: 10, Latency: DefaultLatency},
		{A: "r3", B: "r4", Cost: 1, Latency: 2},
	}, links)
}

func TestExpandLinks_ExplicitOverridesGraph(t *testing.T) {
	five := Cost(5)
	cfg := ScenarioCfg{
		Nodes:       []NodeCfg{{Id: "c"}, {Id: "a"}, {Id: "b"}},
		Graph:       []string{"all = a, b, c", "all, all"},
		DefaultCost: &five,
		Links: []LinkCfg{
			{A: "c", B: "a", Cost: INF, Latency: 3},
		},
	}
	links, err := cfg.ExpandLinks()
	assert.NoError(t, err)
	assert.Equal(t, []LinkCfg{
		{A: "a", B: "b", Cost: 5, Latency: DefaultLatency},
		{A: "a", B: "c", Cost: INF, Latency: 3},
		{A: "b", B: "c", Cost: 5, Latency: DefaultLatency},
	}, links)
}

func TestExpandLinks_DefaultCost(t *testing.T) {
	cfg := ScenarioCfg{
		Nodes: []NodeCfg{{Id: "a"}, {Id: "b"}},
		Graph: []string{"a, b"},
	}
	links, err := cfg.ExpandLinks()
	assert.NoError(t, err)
	assert.Equal(t, []LinkCfg{{A: "a", B: "b", Cost: DefaultLinkCost, Latency: DefaultLatency}}, links)
}

func TestParseScenario(t *testing.T) {
	cfg, err := ParseScenario([]byte(`
protocol: pv
nodes:
  - id: a
    prefixes: [10.0.0.1/32]
  - id: b
links:
  - a: a
    b: b
    cost: 3
events:
  - at: 10
    a: a
    b: b
    cost: inf
max_steps: 500
`))
	assert.NoError(t, err)
	assert.Equal(t, "pv", cfg.Protocol)
	assert.Equal(t, []NodeId{"a", "b"}, cfg.NodeIds())
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.1/32")}, cfg.GetNode("a").Prefixes)
	assert.Equal(t, []LinkCfg{{A: "a", B: "b", Cost: 3}}, cfg.Links)
	assert.Equal(t, []EventCfg{{At: 10, A: "a", B: "b", Cost: INF}}, cfg.Events)
	assert.Equal(t, 500, cfg.MaxSteps)
	assert.Nil(t, cfg.TryGetNode("c"))
	assert.Panics(t, func() { cfg.GetNode("c") })
}

func TestParseScenario_BadCost(t *testing.T) {
	_, err := ParseScenario([]byte(`
nodes: [{id: a}, {id: b}]
links:
  - a: a
    b: b
    cost: cheap
`))
	assert.ErrorContains(t, err, "invalid cost")
}
