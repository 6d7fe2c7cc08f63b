package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dustin/go-broadcast"
	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
)

var (
	ErrNotConverged = errors.New("simulation did not converge")
	ErrUnknownNode  = errors.New("unknown node")
	ErrInvalidLink  = errors.New("invalid link")
	ErrNotStarted   = errors.New("simulation not started")
	ErrPrefixInUse  = errors.New("prefix already owned")
)

type Stats struct {
	Steps             int
	MessagesSent      int
	MessagesDropped   int
	MessagesDelivered int
	BytesSent         int
	RoutesInstalled   int
	RoutesWithdrawn   int
}

// Simulation is a discrete-event host for one routing protocol. Handlers run one at a time and to
// completion; nothing in a Simulation is safe for concurrent use.
type Simulation struct {
	proto    core.Protocol
	topo     *Topology
	nodes    map[state.NodeId]*node
	queue    eventQueue
	now      int64
	seq      uint64
	stats    Stats
	started  bool
	maxSteps int
	log      *slog.Logger
	trace    broadcast.Broadcaster
	traced   int

	jitter  int64
	rng     *rand.Rand
	lastArr map[state.Pair[state.NodeId, state.NodeId]]int64
}

type Option func(*Simulation)

func WithLogger(log *slog.Logger) Option {
	return func(s *Simulation) {
		s.log = log
	}
}

// WithTrace publishes a TraceEvent for every link change, message and route change
func WithTrace(b broadcast.Broadcaster) Option {
	return func(s *Simulation) {
		s.trace = b
	}
}

func WithMaxSteps(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithJitter delays every delivery by up to max extra time units, drawn from a generator seeded
// with seed. Messages on the same directed link still arrive in the order they were sent.
func WithJitter(seed uint64, max int64) Option {
	return func(s *Simulation) {
		if max <= 0 {
			return
		}
		s.jitter = max
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func New(topo *Topology, proto core.Protocol, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		proto:    proto,
		topo:     topo,
		nodes:    make(map[state.NodeId]*node),
		maxSteps: state.MaxSteps,
		log:      slog.New(slog.DiscardHandler),
		lastArr:  make(map[state.Pair[state.NodeId, state.NodeId]]int64),
	}
	if _, err := core.ParseProtocol(string(proto)); err != nil {
		return nil, err
	}
	if len(topo.Nodes()) == 0 {
		return nil, fmt.Errorf("%w: topology has no nodes", ErrUnknownNode)
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, id := range topo.Nodes() {
		s.nodes[id] = newNode(s, id)
	}
	return s, nil
}

// Start initializes every router in enumeration order, then raises a link change on both ends of
// every configured link.
func (s *Simulation) Start() error {
	if s.started {
		return nil
	}
	s.log.Debug("init routers", "protocol", s.proto.String(), "nodes", len(s.nodes))
	for _, id := range s.topo.Nodes() {
		n := s.nodes[id]
		r, err := core.NewRouter(s.proto, n)
		if err != nil {
			return err
		}
		n.router = r
	}
	s.started = true
	for _, l := range s.topo.Links() {
		if l.V3 == state.INF {
			continue
		}
		s.notifyLink(l.V1, l.V2, l.V3)
	}
	return nil
}

func (s *Simulation) schedule(ev *event) {
	s.seq++
	ev.Seq = s.seq
	s.queue.push(ev)
}

func (s *Simulation) notifyLink(a, b state.NodeId, cost state.Cost) {
	s.publish(TraceEvent{Kind: TraceLinkChanged, Node: a, Peer: b, Cost: cost})
	s.schedule(&event{At: s.now, Kind: evLinkNotify, Node: a, Peer: b, Cost: cost})
	s.schedule(&event{At: s.now, Kind: evLinkNotify, Node: b, Peer: a, Cost: cost})
}

// ScheduleLinkChange sets the cost of a-b at simulated time at, creating the link if it does not exist
func (s *Simulation) ScheduleLinkChange(at int64, a, b state.NodeId, cost state.Cost) error {
	if err := s.topo.checkLink(a, b); err != nil {
		return err
	}
	if at < s.now {
		return fmt.Errorf("%w: change at %d is in the past (now %d)", ErrInvalidLink, at, s.now)
	}
	s.schedule(&event{At: at, Kind: evLinkChange, Node: a, Peer: b, Cost: cost})
	return nil
}

// SetLink changes a-b at the current time. The change takes effect when Run next processes events.
func (s *Simulation) SetLink(a, b state.NodeId, cost state.Cost) error {
	return s.ScheduleLinkChange(s.now, a, b, cost)
}

func (s *Simulation) send(from, to state.NodeId, payload []byte) {
	if !s.topo.Has(to) || s.topo.Cost(from, to) == state.INF {
		s.stats.MessagesDropped++
		s.nodes[from].log.Warn("dropping message to a node without a live link", "to", to)
		s.publish(TraceEvent{Kind: TraceMessageDropped, Node: from, Peer: to, Bytes: len(payload)})
		return
	}
	at := s.now + s.topo.Latency(from, to)
	if s.jitter > 0 {
		at += s.rng.Int64N(s.jitter + 1)
	}
	dir := state.Pair[state.NodeId, state.NodeId]{V1: from, V2: to}
	at = max(at, s.lastArr[dir])
	s.lastArr[dir] = at

	s.stats.MessagesSent++
	s.stats.BytesSent += len(payload)
	perf.MessagesSent.Add(1)
	perf.BytesSent.Add(float64(len(payload)))
	perf.MessageSize.Add(float64(len(payload)))
	s.publish(TraceEvent{Kind: TraceMessageSent, Node: from, Peer: to, Bytes: len(payload)})
	s.schedule(&event{At: at, Kind: evDeliver, Node: to, Peer: from, Payload: payload})
}

func (s *Simulation) dispatch(ev *event) {
	n := s.nodes[ev.Node]
	start := time.Now()
	switch ev.Kind {
	case evLinkChange:
		s.topo.setCost(ev.Node, ev.Peer, ev.Cost)
		perf.LinkChanges.Add(1)
		s.log.Debug("link changed", "t", s.now, "a", ev.Node, "b", ev.Peer, "cost", ev.Cost)
		s.notifyLink(ev.Node, ev.Peer, ev.Cost)
		return
	case evLinkNotify:
		n.router.OnLinkChange(ev.Peer, ev.Cost)
	case evDeliver:
		s.stats.MessagesDelivered++
		perf.MessagesDelivered.Add(1)
		s.publish(TraceEvent{Kind: TraceMessageDelivered, Node: ev.Node, Peer: ev.Peer, Bytes: len(ev.Payload)})
		n.router.OnMessage(ev.Peer, ev.Payload)
	}
	elapsed := time.Since(start)
	perf.HandlerLatency.Add(float64(elapsed.Microseconds()))
	if elapsed > time.Millisecond*4 {
		n.log.Warn("handler took a long time!", "elapsed", elapsed, "queued", s.queue.Len())
	}
}

// Step processes the next event. It reports false once the queue is empty, or when the
// simulation has not been started.
func (s *Simulation) Step() bool {
	if !s.started || len(s.queue) == 0 {
		return false
	}
	ev := s.queue.pop()
	s.now = ev.At
	s.stats.Steps++
	s.dispatch(ev)
	return true
}

// Run processes events until the queue drains, which means the routers have converged.
func (s *Simulation) Run(ctx context.Context) error {
	if !s.started {
		return ErrNotStarted
	}
	s.log.Debug("started simulation", "queued", s.queue.Len())
	steps := 0
	for len(s.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if steps >= s.maxSteps {
			return fmt.Errorf("%w: %d events still queued after %d steps", ErrNotConverged, s.queue.Len(), steps)
		}
		s.Step()
		steps++
	}
	s.log.Debug("simulation drained", "t", s.now, "steps", s.stats.Steps)
	return nil
}

func (s *Simulation) Now() int64 {
	return s.now
}

func (s *Simulation) Protocol() core.Protocol {
	return s.proto
}

func (s *Simulation) Topology() *Topology {
	return s.topo
}

func (s *Simulation) Stats() Stats {
	return s.stats
}

// Router is the router of node, nil before Start
func (s *Simulation) Router(id state.NodeId) core.Router {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return n.router
}

// Table is every route node has installed, keyed by destination
func (s *Simulation) Table(id state.NodeId) map[state.NodeId]state.Route {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return n.table()
}

// Route is the route node has installed for dest
func (s *Simulation) Route(id, dest state.NodeId) state.Route {
	n, ok := s.nodes[id]
	if !ok {
		return state.Unreachable
	}
	r, ok := n.routes[dest]
	if !ok {
		return state.Unreachable
	}
	return r
}
