package sim

import (
	"container/heap"

	"github.com/encodeous/routesim/state"
)

type eventKind int

const (
	// evLinkChange applies a cost to the topology and notifies both ends
	evLinkChange eventKind = iota
	// evLinkNotify runs OnLinkChange on Node
	evLinkNotify
	// evDeliver runs OnMessage on Node
	evDeliver
)

type event struct {
	At   int64
	Seq  uint64
	Kind eventKind
	// Node is the node whose handler runs. For evLinkChange it is one end of the link.
	Node    state.NodeId
	Peer    state.NodeId
	Cost    state.Cost
	Payload []byte
}

// eventQueue orders events by time, then by scheduling order
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].At != q[j].At {
		return q[i].At < q[j].At
	}
	return q[i].Seq < q[j].Seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

func (q *eventQueue) push(ev *event) {
	heap.Push(q, ev)
}

func (q *eventQueue) pop() *event {
	return heap.Pop(q).(*event)
}
