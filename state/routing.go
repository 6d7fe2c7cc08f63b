package state

import (
	"fmt"
	"slices"
)

type NodeId string

// NextHop is an optional reference to a neighbour. The zero value means no next hop.
type NextHop struct {
	Id    NodeId
	Valid bool
}

func Via(id NodeId) NextHop {
	return NextHop{Id: id, Valid: true}
}

var NoHop = NextHop{}

func (n NextHop) Is(id NodeId) bool {
	return n.Valid && n.Id == id
}

func (n NextHop) String() string {
	if !n.Valid {
		return "-"
	}
	return string(n.Id)
}

// Route is a forwarding entry as installed with the host
type Route struct {
	Nh   NextHop
	Cost Cost
}

// Unreachable is the withdrawn route
var Unreachable = Route{Nh: NoHop, Cost: INF}

func (r Route) Reachable() bool {
	return r.Nh.Valid && r.Cost != INF
}

func (r Route) String() string {
	return fmt.Sprintf("(nh: %s, cost: %s)", r.Nh, r.Cost)
}

// SortedNodes returns a sorted copy without duplicates
func SortedNodes(nodes []NodeId) []NodeId {
	out := slices.Clone(nodes)
	slices.Sort(out)
	return slices.Compact(out)
}
