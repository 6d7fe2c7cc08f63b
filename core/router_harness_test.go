package core

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/encodeous/routesim/state"
	"github.com/google/go-cmp/cmp"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

type SentMessage struct {
	To      state.NodeId
	Payload []byte
}

// RouterHarness is a single-node Host that records everything the engine does
type RouterHarness struct {
	self    state.NodeId
	nodes   []state.NodeId
	links   map[state.NodeId]state.Cost
	routes  map[state.NodeId]state.Route
	actions []HarnessEvent
	sent    []SentMessage
}

func NewHarness(self state.NodeId, nodes ...state.NodeId) *RouterHarness {
	return &RouterHarness{
		self:   self,
		nodes:  state.SortedNodes(append(slices.Clone(nodes), self)),
		links:  make(map[state.NodeId]state.Cost),
		routes: make(map[state.NodeId]state.Route),
	}
}

func (h *RouterHarness) Self() state.NodeId {
	return h.self
}

func (h *RouterHarness) Nodes() []state.NodeId {
	return h.nodes
}

func (h *RouterHarness) LinkCost(node state.NodeId) state.Cost {
	if node == h.self {
		return 0
	}
	c, ok := h.links[node]
	if !ok {
		return state.INF
	}
	return c
}

func (h *RouterHarness) SetLink(node state.NodeId, cost state.Cost) {
	h.links[node] = cost
}

func (h *RouterHarness) SendMessage(to state.NodeId, payload []byte) {
	h.sent = append(h.sent, SentMessage{To: to, Payload: payload})
	h.actions = append(h.actions, MakeEvent("SEND", to))
}

func (h *RouterHarness) SetRoute(dest state.NodeId, nh state.NextHop, cost state.Cost) {
	h.routes[dest] = state.Route{Nh: nh, Cost: cost}
	h.actions = append(h.actions, MakeEvent("SET_ROUTE", dest, nh, cost))
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

// Route is what the engine last installed for dest
func (h *RouterHarness) Route(dest state.NodeId) state.Route {
	r, ok := h.routes[dest]
	if !ok {
		return state.Unreachable
	}
	return r
}

type HarnessEvents []HarnessEvent

func (e HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range e {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions drains everything except log lines
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}
	h.actions = make([]HarnessEvent, 0)
	return x
}

// GetLogs drains log lines only
func (h *RouterHarness) GetLogs() HarnessEvents {
	x := make([]HarnessEvent, 0)
	rest := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message == "LOG" {
			x = append(x, action)
		} else {
			rest = append(rest, action)
		}
	}
	h.actions = rest
	return x
}

// GetSent drains the messages sent since the last call
func (h *RouterHarness) GetSent() []SentMessage {
	out := h.sent
	h.sent = nil
	return out
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func vector(entries ...any) []CostEntry {
	out := make([]CostEntry, 0, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		var cost state.Cost
		switch c := entries[i+1].(type) {
		case int:
			cost = state.Cost(c)
		case state.Cost:
			cost = c
		}
		out = append(out, CostEntry{Node: state.NodeId(entries[i].(string)), Cost: cost})
	}
	return out
}

func path(nodes ...state.NodeId) []state.NodeId {
	return nodes
}

func lastTo(t *testing.T, sent []SentMessage, to state.NodeId) []byte {
	t.Helper()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].To == to {
			return sent[i].Payload
		}
	}
	t.Fatalf("no message sent to %s", to)
	return nil
}
