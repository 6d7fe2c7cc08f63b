package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var scenarioPath = "scenario.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Routing protocol simulator",
	Long: `routesim runs distance-vector, link-state and path-vector routers over a simulated topology.
Scenarios describe the nodes, links and link changes; every run is deterministic.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Create Scenarios",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", scenarioPath, "scenario file")
	rootCmd.PersistentFlags().StringP("protocol", "p", "", "routing protocol (dv, ls, pv), overrides the scenario")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log", "", "also write logs to this file")
}
