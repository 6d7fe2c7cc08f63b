package state

import (
	"fmt"
	"net/netip"
	"regexp"
	"slices"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

var Protocols = []string{"dv", "ls", "pv"}

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func ProtocolValidator(s string) error {
	if !slices.Contains(Protocols, s) {
		return fmt.Errorf("unknown protocol %q, expected one of %v", s, Protocols)
	}
	return nil
}

func ScenarioValidator(cfg *ScenarioCfg) error {
	if cfg.Protocol != "" {
		if err := ProtocolValidator(cfg.Protocol); err != nil {
			return err
		}
	}
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("scenario has no nodes")
	}
	seen := make(map[NodeId]struct{})
	owners := make(map[netip.Prefix]NodeId)
	for _, node := range cfg.Nodes {
		err := NameValidator(string(node.Id))
		if err != nil {
			return err
		}
		if _, ok := seen[node.Id]; ok {
			return fmt.Errorf("duplicate node: %s", node.Id)
		}
		seen[node.Id] = struct{}{}
		for _, p := range node.Prefixes {
			if !p.IsValid() {
				return fmt.Errorf("node %s has an invalid prefix", node.Id)
			}
			if owner, ok := owners[p.Masked()]; ok {
				return fmt.Errorf("prefix %s of %s is already owned by %s", p.Masked(), node.Id, owner)
			}
			owners[p.Masked()] = node.Id
		}
	}
	checkEdge := func(a, b NodeId) error {
		if a == b {
			return fmt.Errorf("link from %s to itself", a)
		}
		for _, n := range []NodeId{a, b} {
			if _, ok := seen[n]; !ok {
				return fmt.Errorf("node %s not defined", n)
			}
		}
		return nil
	}
	nodeRel := make([]Pair[NodeId, NodeId], 0)
	for _, link := range cfg.Links {
		if err := checkEdge(link.A, link.B); err != nil {
			return err
		}
		edge := MakeSortedPair(link.A, link.B)
		if slices.Contains(nodeRel, edge) {
			return fmt.Errorf("duplicate link found: %s, %s", edge.V1, edge.V2)
		}
		if link.Latency < 0 {
			return fmt.Errorf("link %s, %s has negative latency", edge.V1, edge.V2)
		}
		nodeRel = append(nodeRel, edge)
	}
	for _, ev := range cfg.Events {
		if err := checkEdge(ev.A, ev.B); err != nil {
			return err
		}
		if ev.At < 0 {
			return fmt.Errorf("event on %s, %s scheduled before start", ev.A, ev.B)
		}
	}
	if cfg.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative")
	}
	_, err := cfg.ExpandLinks()
	return err
}
