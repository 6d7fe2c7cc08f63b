package sim

import (
	"fmt"

	"github.com/dustin/go-broadcast"
	"github.com/encodeous/routesim/state"
)

type TraceKind int

const (
	TraceLinkChanged TraceKind = iota
	TraceMessageSent
	TraceMessageDropped
	TraceMessageDelivered
	TraceRouteChanged
)

func (k TraceKind) String() string {
	switch k {
	case TraceLinkChanged:
		return "link"
	case TraceMessageSent:
		return "send"
	case TraceMessageDropped:
		return "drop"
	case TraceMessageDelivered:
		return "recv"
	case TraceRouteChanged:
		return "route"
	}
	return fmt.Sprintf("trace(%d)", int(k))
}

// TraceEvent is published on the trace broadcaster for everything the simulation does
type TraceEvent struct {
	At   int64
	Kind TraceKind
	Node state.NodeId
	// Peer is the other end of a link or message, or the destination of a route
	Peer  state.NodeId
	Cost  state.Cost
	Route state.Route
	Bytes int
}

func (e TraceEvent) String() string {
	switch e.Kind {
	case TraceLinkChanged:
		return fmt.Sprintf("t=%d link %s-%s cost %s", e.At, e.Node, e.Peer, e.Cost)
	case TraceMessageSent, TraceMessageDropped:
		return fmt.Sprintf("t=%d %s %s -> %s (%d bytes)", e.At, e.Kind, e.Node, e.Peer, e.Bytes)
	case TraceMessageDelivered:
		return fmt.Sprintf("t=%d %s %s <- %s (%d bytes)", e.At, e.Kind, e.Node, e.Peer, e.Bytes)
	case TraceRouteChanged:
		return fmt.Sprintf("t=%d route %s -> %s %s", e.At, e.Node, e.Peer, e.Route)
	}
	return fmt.Sprintf("t=%d %s", e.At, e.Kind)
}

// NewTrace creates a broadcaster for TraceEvents. Listeners must keep draining their channel or the simulation stalls.
func NewTrace() broadcast.Broadcaster {
	return broadcast.NewBroadcaster(1024)
}

func (s *Simulation) publish(ev TraceEvent) {
	if s.trace == nil {
		return
	}
	ev.At = s.now
	s.traced++
	s.trace.Submit(ev)
}

// Traced is the number of events published so far
func (s *Simulation) Traced() int {
	return s.traced
}
