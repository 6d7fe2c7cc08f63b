package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/sim"
	"github.com/encodeous/routesim/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

func newLogger(prefix string, level slog.Level, logPath string) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: prefix,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

func commandLogger(cmd *cobra.Command, prefix string) *slog.Logger {
	level := slog.LevelInfo
	if ok, _ := cmd.Flags().GetBool("verbose"); ok {
		level = slog.LevelDebug
	}
	logPath, _ := cmd.Flags().GetString("log")
	logger, err := newLogger(prefix, level, logPath)
	if err != nil {
		panic(err)
	}
	return logger
}

func commandProtocol(cmd *cobra.Command) core.Protocol {
	p, _ := cmd.Flags().GetString("protocol")
	return core.Protocol(p)
}

// loadSimulation reads the scenario and builds a started simulation, panicking on any setup error
func loadSimulation(cmd *cobra.Command, proto core.Protocol, opts ...sim.Option) (*state.ScenarioCfg, *sim.Simulation) {
	cfg, err := state.LoadScenario(scenarioPath)
	if err != nil {
		panic(err)
	}
	if proto == "" {
		proto = core.Protocol(cfg.Protocol)
	}
	logger := commandLogger(cmd, string(proto))
	s, err := sim.FromScenario(cfg, proto, append([]sim.Option{sim.WithLogger(logger)}, opts...)...)
	if err != nil {
		panic(err)
	}
	return cfg, s
}

func printStats(s *sim.Simulation) {
	st := s.Stats()
	fmt.Printf("%s: t=%d steps=%d sent=%d delivered=%d dropped=%d bytes=%d installed=%d withdrawn=%d\n",
		s.Protocol(), s.Now(), st.Steps, st.MessagesSent, st.MessagesDelivered, st.MessagesDropped,
		st.BytesSent, st.RoutesInstalled, st.RoutesWithdrawn)
}
