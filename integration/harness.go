//go:build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dustin/go-broadcast"
	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/sim"
	"github.com/encodeous/routesim/state"
	"github.com/stretchr/testify/require"
)

var protocols = []core.Protocol{core.DV, core.LS, core.PV}

func LoadScenario(t *testing.T, name string) *state.ScenarioCfg {
	t.Helper()
	cfg, err := state.LoadScenario(filepath.Join("testdata", name))
	require.NoError(t, err)
	return cfg
}

// Recorder collects every TraceEvent published by one simulation
type Recorder struct {
	trace  broadcast.Broadcaster
	ch     chan any
	want   chan int
	done   chan struct{}
	Events []sim.TraceEvent
}

func NewRecorder() *Recorder {
	r := &Recorder{
		trace: sim.NewTrace(),
		ch:    make(chan any, 1024),
		want:  make(chan int),
		done:  make(chan struct{}),
	}
	r.trace.Register(r.ch)
	go func() {
		defer close(r.done)
		total := -1
		for total < 0 || len(r.Events) < total {
			select {
			case ev := <-r.ch:
				r.Events = append(r.Events, ev.(sim.TraceEvent))
			case total = <-r.want:
			}
		}
	}()
	return r
}

func (r *Recorder) Option() sim.Option {
	return sim.WithTrace(r.trace)
}

// Stop waits for the n events published so far and shuts the broadcaster down
func (r *Recorder) Stop(t *testing.T, n int) []sim.TraceEvent {
	t.Helper()
	select {
	case r.want <- n:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not accept the event count")
	}
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("recorder got %d of %d events", len(r.Events), n)
	}
	r.trace.Unregister(r.ch)
	require.NoError(t, r.trace.Close())
	return r.Events
}

type Run struct {
	Sim    *sim.Simulation
	Events []sim.TraceEvent
}

// RunScenario runs cfg to completion under proto and checks the routes against shortest paths
func RunScenario(t *testing.T, cfg *state.ScenarioCfg, proto core.Protocol) Run {
	t.Helper()
	rec := NewRecorder()
	s, err := sim.FromScenario(cfg, proto, rec.Option())
	if err != nil {
		rec.Stop(t, 0)
		require.NoError(t, err)
	}
	err = s.Run(context.Background())
	events := rec.Stop(t, s.Traced())
	require.NoError(t, err, "%s did not converge", proto)
	require.NoError(t, s.Verify(), "%s converged to wrong routes", proto)
	return Run{Sim: s, Events: events}
}

// RouteChanges lists the route changes of node towards dest in order
func (r Run) RouteChanges(node, dest state.NodeId) []state.Route {
	out := make([]state.Route, 0)
	for _, ev := range r.Events {
		if ev.Kind == sim.TraceRouteChanged && ev.Node == node && ev.Peer == dest {
			out = append(out, ev.Route)
		}
	}
	return out
}

func (r Run) String() string {
	return fmt.Sprintf("%s t=%d events=%d", r.Sim.Protocol(), r.Sim.Now(), len(r.Events))
}
