package cmd

import (
	"context"
	"fmt"

	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect [node...]",
	Aliases: []string{"i"},
	Short:   "Inspects the converged state of nodes",
	Run: func(cmd *cobra.Command, args []string) {
		_, s := loadSimulation(cmd, commandProtocol(cmd))
		err := s.Run(context.Background())
		if err != nil {
			fmt.Println("Error:", err.Error())
		}
		nodes := s.Topology().Nodes()
		if len(args) != 0 {
			nodes = nodes[:0:0]
			for _, arg := range args {
				nodes = append(nodes, state.NodeId(arg))
			}
		}
		for i, node := range nodes {
			if !s.Topology().Has(node) {
				fmt.Printf("Error: unknown node %s\n", node)
				continue
			}
			if i != 0 {
				fmt.Println()
			}
			fmt.Print(s.Inspect(node))
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
