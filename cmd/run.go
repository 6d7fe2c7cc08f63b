package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/dustin/go-broadcast"
	"github.com/encodeous/routesim/sim"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario until the routers converge",
	Long:  `Runs the scenario with every scheduled link change, then prints the statistics and the route table of every node.`,
	Run: func(cmd *cobra.Command, args []string) {
		if addr, _ := cmd.Flags().GetString("debug-addr"); addr != "" {
			go func() {
				log.Println(http.ListenAndServe(addr, nil))
			}()
		}

		opts := make([]sim.Option, 0)
		var trace broadcast.Broadcaster
		var ch chan any
		want := make(chan int)
		done := make(chan struct{})
		if ok, _ := cmd.Flags().GetBool("trace"); ok {
			trace = sim.NewTrace()
			ch = make(chan any, 1024)
			trace.Register(ch)
			opts = append(opts, sim.WithTrace(trace))

			// print as events happen, then drain whatever is left once the run ends
			go func() {
				defer close(done)
				printed, total := 0, -1
				for total < 0 || printed < total {
					select {
					case ev := <-ch:
						fmt.Println(ev.(sim.TraceEvent).String())
						printed++
					case total = <-want:
					}
				}
			}()
		}

		_, s := loadSimulation(cmd, commandProtocol(cmd), opts...)

		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			select {
			case <-c:
				cancel(errors.New("received shutdown signal"))
			case <-ctx.Done():
			}
		}()

		err := s.Run(ctx)
		if trace != nil {
			want <- s.Traced()
			<-done
			trace.Unregister(ch)
			_ = trace.Close()
		}
		printStats(s)
		if ok, _ := cmd.Flags().GetBool("tables"); ok {
			for _, n := range s.Topology().Nodes() {
				fmt.Print("\n" + s.Inspect(n))
			}
		}
		if err != nil {
			fmt.Println("Error:", err.Error())
			if errors.Is(err, sim.ErrNotConverged) {
				os.Exit(2)
			}
			os.Exit(1)
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("trace", false, "print every link change, message and route change")
	runCmd.Flags().BoolP("tables", "t", true, "print the route table of every node")
	runCmd.Flags().String("debug-addr", "", "serve /debug/metrics and pprof on this address")
}
