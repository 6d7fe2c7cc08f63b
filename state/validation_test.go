package state

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameValidator(t *testing.T) {
	for _, name := range []string{"a", "r10", "core-1", "edge_2", "pop.yyz", strings.Repeat("n", 100)} {
		assert.NoError(t, NameValidator(name), name)
	}
	for _, name := range []string{"", "Core", "r 1", "r1\n", "a/b", "β", strings.Repeat("n", 101)} {
		assert.Error(t, NameValidator(name), name)
	}
}

func TestProtocolValidator(t *testing.T) {
	for _, p := range Protocols {
		assert.NoError(t, ProtocolValidator(p))
	}
	assert.ErrorContains(t, ProtocolValidator("DV"), "unknown protocol")
	assert.ErrorContains(t, ProtocolValidator("rip"), "unknown protocol")
}

func validScenario() *ScenarioCfg {
	return &ScenarioCfg{
		Protocol: "dv",
		Nodes:    []NodeCfg{{Id: "a"}, {Id: "b"}, {Id: "c"}},
		Links: []LinkCfg{
			{A: "a", B: "b", Cost: 1},
			{A: "b", B: "c", Cost: 2},
		},
		Events: []EventCfg{{At: 5, A: "a", B: "c", Cost: 1}},
	}
}

func TestScenarioValidator_Valid(t *testing.T) {
	assert.NoError(t, ScenarioValidator(validScenario()))
}

func TestScenarioValidator_Invalid(t *testing.T) {
	sharePrefix := func(cfg *ScenarioCfg) {
		cfg.Nodes[0].Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/24")}
		cfg.Nodes[2].Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.0.7/24")}
	}
	cases := map[string]struct {
		mutate func(cfg *ScenarioCfg)
		err    string
	}{
		"protocol":       {func(cfg *ScenarioCfg) { cfg.Protocol = "ospf" }, "unknown protocol"},
		"no nodes":       {func(cfg *ScenarioCfg) { cfg.Nodes = nil }, "scenario has no nodes"},
		"bad name":       {func(cfg *ScenarioCfg) { cfg.Nodes[0].Id = "A B" }, "is not a valid name"},
		"duplicate node": {func(cfg *ScenarioCfg) { cfg.Nodes[2].Id = "a" }, "duplicate node: a"},
		"self link":      {func(cfg *ScenarioCfg) { cfg.Links[0].B = "a" }, "link from a to itself"},
		"unknown node":   {func(cfg *ScenarioCfg) { cfg.Links[1].B = "z" }, "node z not defined"},
		"duplicate link": {func(cfg *ScenarioCfg) { cfg.Links[1] = LinkCfg{A: "b", B: "a", Cost: 3} }, "duplicate link found: a, b"},
		"latency":        {func(cfg *ScenarioCfg) { cfg.Links[0].Latency = -1 }, "negative latency"},
		"event node":     {func(cfg *ScenarioCfg) { cfg.Events[0].B = "z" }, "node z not defined"},
		"event time":     {func(cfg *ScenarioCfg) { cfg.Events[0].At = -1 }, "scheduled before start"},
		"jitter":         {func(cfg *ScenarioCfg) { cfg.Jitter = -2 }, "jitter must not be negative"},
		"graph":          {func(cfg *ScenarioCfg) { cfg.Graph = []string{"a, q"} }, "q is not a valid node/group"},
		"shared prefix":  {sharePrefix, "prefix 10.0.0.0/24 of c is already owned by a"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validScenario()
			tc.mutate(cfg)
			assert.ErrorContains(t, ScenarioValidator(cfg), tc.err)
		})
	}
}

func TestScenarioValidator_NestedPrefixes(t *testing.T) {
	cfg := validScenario()
	cfg.Nodes[0].Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/16")}
	cfg.Nodes[1].Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.1.0/24"), netip.MustParsePrefix("10.0.1.1/32")}
	assert.NoError(t, ScenarioValidator(cfg))
}
