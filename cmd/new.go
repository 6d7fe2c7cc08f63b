package cmd

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/encodeous/routesim/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a sample scenario",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(scenarioPath); err == nil {
			fmt.Printf("%s already exists, not overwriting\n", scenarioPath)
			os.Exit(1)
		}

		cost := state.Cost(1)
		proto := commandProtocol(cmd)
		if proto == "" {
			proto = "ls"
		}
		cfg := state.ScenarioCfg{
			Protocol: string(proto),
			Nodes: []state.NodeCfg{
				{Id: "a", Prefixes: []netip.Prefix{netip.MustParsePrefix("10.0.0.1/32")}},
				{Id: "b", Prefixes: []netip.Prefix{netip.MustParsePrefix("10.0.0.2/32")}},
				{Id: "c", Prefixes: []netip.Prefix{netip.MustParsePrefix("10.0.0.3/32")}},
				{Id: "d", Prefixes: []netip.Prefix{netip.MustParsePrefix("10.0.0.4/32")}},
			},
			Graph: []string{
				"Left = a, b",
				"Right = c, d",
				"Left, Right",
			},
			DefaultCost: &cost,
			Links: []state.LinkCfg{
				{A: "a", B: "b", Cost: 1, Latency: 2},
			},
			Events: []state.EventCfg{
				{At: 100, A: "a", B: "c", Cost: state.INF},
				{At: 200, A: "a", B: "c", Cost: 3},
			},
		}
		if err := state.ScenarioValidator(&cfg); err != nil {
			panic(err)
		}

		data, err := yaml.Marshal(&cfg)
		if err != nil {
			panic(err)
		}
		err = os.WriteFile(scenarioPath, data, 0600)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %s\n", scenarioPath)
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(newCmd)
}
