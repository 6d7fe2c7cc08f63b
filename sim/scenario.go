package sim

import (
	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
)

// FromScenario validates cfg, then builds and starts a simulation with every scenario event
// scheduled. proto overrides the protocol named by the scenario when it is not empty. Options
// given here take precedence over the scenario's own settings.
func FromScenario(cfg *state.ScenarioCfg, proto core.Protocol, opts ...Option) (*Simulation, error) {
	if err := state.ScenarioValidator(cfg); err != nil {
		return nil, err
	}
	if proto == "" {
		proto = core.Protocol(cfg.Protocol)
	}
	proto, err := core.ParseProtocol(string(proto))
	if err != nil {
		return nil, err
	}
	topo, err := TopologyFromScenario(cfg)
	if err != nil {
		return nil, err
	}
	all := []Option{WithMaxSteps(cfg.MaxSteps), WithJitter(cfg.JitterSeed, cfg.Jitter)}
	s, err := New(topo, proto, append(all, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	for _, ev := range cfg.Events {
		if err := s.ScheduleLinkChange(ev.At, ev.A, ev.B, ev.Cost); err != nil {
			return nil, err
		}
	}
	return s, nil
}
