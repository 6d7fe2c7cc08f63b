package cmd

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/encodeous/routesim/state"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Follows forwarding tables from a node towards an address",
	Run: func(cmd *cobra.Command, args []string) {
		from, _ := cmd.Flags().GetString("from")
		addrStr, _ := cmd.Flags().GetString("addr")
		addr, err := netip.ParseAddr(addrStr)
		if err != nil {
			panic(err)
		}

		_, s := loadSimulation(cmd, commandProtocol(cmd))
		err = s.Run(context.Background())
		if err != nil {
			fmt.Println("Error:", err.Error())
		}

		hops, err := s.Trace(state.NodeId(from), addr)
		strs := make([]string, 0, len(hops))
		for _, hop := range hops {
			strs = append(strs, string(hop))
		}
		if len(strs) != 0 {
			fmt.Println(strings.Join(strs, " -> "))
		}
		if err != nil {
			fmt.Println("Error:", err.Error())
			os.Exit(1)
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().String("from", "", "node the packet starts at")
	traceCmd.Flags().String("addr", "", "destination address")
	_ = traceCmd.MarkFlagRequired("from")
	_ = traceCmd.MarkFlagRequired("addr")
}
