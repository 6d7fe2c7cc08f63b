package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/encodeous/routesim/state"
)

type RouterEvent int

// trace events

const (
	RouteInstalled RouterEvent = iota
	RouteWithdrawn
	Broadcast
	LinkChanged
	StaleLinkStateDropped
	LoopRejected
	NeighbourSync
)

// warn events

const (
	MalformedMessage RouterEvent = iota + 1000
	ForeignLinkState
)

func (e RouterEvent) String() string {
	switch e {
	case RouteInstalled:
		return "ROUTE_INSTALLED"
	case RouteWithdrawn:
		return "ROUTE_WITHDRAWN"
	case Broadcast:
		return "BROADCAST"
	case LinkChanged:
		return "LINK_CHANGED"
	case StaleLinkStateDropped:
		return "STALE_LINK_STATE_DROPPED"
	case LoopRejected:
		return "LOOP_REJECTED"
	case NeighbourSync:
		return "NEIGHBOUR_SYNC"
	case MalformedMessage:
		return "MALFORMED_MESSAGE"
	case ForeignLinkState:
		return "FOREIGN_LINK_STATE"
	}
	return fmt.Sprintf("EVENT_%d", int(e))
}

// IsWarning reports whether the event signals bad input rather than normal churn
func (e RouterEvent) IsWarning() bool {
	return e >= 1000
}

// Host is the runtime that owns the topology and drives a node's router.
// Every call is made from within a handler of the node returned by Self.
type Host interface {
	Self() state.NodeId
	// Nodes enumerates every node in ascending order. The order is stable within an event.
	Nodes() []state.NodeId
	// LinkCost is the live cost of the local link to node, state.INF if there is no such link. LinkCost(Self()) is 0.
	LinkCost(node state.NodeId) state.Cost
	SendMessage(to state.NodeId, payload []byte)
	// SetRoute installs, updates or withdraws (state.NoHop, state.INF) the forwarding entry for dest.
	SetRoute(dest state.NodeId, nh state.NextHop, cost state.Cost)
	Log(event RouterEvent, desc string, args ...any)
}

// TableState is implemented by every engine's per-node state
type TableState interface {
	// Table returns the routes currently installed for every destination other than the node itself.
	Table() map[state.NodeId]state.Route
}

// Engine is one routing protocol. An engine holds no state of its own; every handler receives the
// node's state explicitly and reports whether any route changed.
type Engine[S TableState] interface {
	Init(h Host) S
	OnLinkChange(h Host, s S, neigh state.NodeId, cost state.Cost) bool
	OnMessage(h Host, s S, sender state.NodeId, payload []byte) bool
}

type Protocol string

const (
	DV Protocol = "dv"
	LS Protocol = "ls"
	PV Protocol = "pv"
)

var ErrUnknownProtocol = errors.New("unknown routing protocol")

func (p Protocol) String() string {
	switch p {
	case DV:
		return "distance-vector"
	case LS:
		return "link-state"
	case PV:
		return "path-vector"
	}
	return string(p)
}

// Router is a node's engine bound to that node's state
type Router interface {
	Protocol() Protocol
	OnLinkChange(neigh state.NodeId, cost state.Cost) bool
	OnMessage(sender state.NodeId, payload []byte) bool
	Table() map[state.NodeId]state.Route
	State() TableState
}

type boundRouter[S TableState] struct {
	proto  Protocol
	engine Engine[S]
	host   Host
	state  S
}

func (r *boundRouter[S]) Protocol() Protocol {
	return r.proto
}

func (r *boundRouter[S]) OnLinkChange(neigh state.NodeId, cost state.Cost) bool {
	r.host.Log(LinkChanged, "link cost changed", "neigh", neigh, "cost", cost)
	return r.engine.OnLinkChange(r.host, r.state, neigh, cost)
}

func (r *boundRouter[S]) OnMessage(sender state.NodeId, payload []byte) bool {
	return r.engine.OnMessage(r.host, r.state, sender, payload)
}

func (r *boundRouter[S]) Table() map[state.NodeId]state.Route {
	return r.state.Table()
}

func (r *boundRouter[S]) State() TableState {
	return r.state
}

// Bind initializes engine state for the node behind h
func Bind[S TableState](proto Protocol, engine Engine[S], h Host) Router {
	return &boundRouter[S]{
		proto:  proto,
		engine: engine,
		host:   h,
		state:  engine.Init(h),
	}
}

func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case DV, LS, PV:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
}

func NewRouter(proto Protocol, h Host) (Router, error) {
	switch proto {
	case DV:
		return Bind[*DVState](proto, DistanceVector{}, h), nil
	case LS:
		return Bind[*LSState](proto, LinkState{}, h), nil
	case PV:
		return Bind[*PVState](proto, PathVector{}, h), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProtocol, proto)
}
