package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/encodeous/routesim/core"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Checks that every protocol converges to shortest paths",
	Long:  `Runs the scenario once per protocol (or only the one given with -p) and compares every route table against shortest paths over the final topology.`,
	Run: func(cmd *cobra.Command, args []string) {
		protos := []core.Protocol{core.DV, core.LS, core.PV}
		if p := commandProtocol(cmd); p != "" {
			protos = []core.Protocol{p}
		}
		failed := false
		for _, proto := range protos {
			_, s := loadSimulation(cmd, proto)
			err := s.Run(context.Background())
			if err == nil {
				err = s.Verify()
			}
			if err != nil {
				failed = true
				fmt.Printf("%s: FAIL\n%v\n", proto, err)
				continue
			}
			fmt.Printf("%s: ok (t=%d, %d messages)\n", proto, s.Now(), s.Stats().MessagesSent)
		}
		if failed {
			os.Exit(1)
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
