// Command mcsim runs a hard-coded Mixed-Criticality simulation scenario
// and prints summary statistics. It exists as a thin driver over the sim
// package; task-set file parsing is out of scope (spec.md §1), so there is
// no flag for loading one. Passing -listen additionally fans the event
// stream out to a monitor/stream.Hub served over WebSocket, for a live
// dashboard to watch alongside the printed summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joeycumines/go-mcsim/config"
	"github.com/joeycumines/go-mcsim/monitor"
	"github.com/joeycumines/go-mcsim/monitor/stream"
	"github.com/joeycumines/go-mcsim/sim"
	"github.com/joeycumines/go-mcsim/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	listen := flag.String("listen", "", "if set, serve the event stream as a WebSocket dashboard feed on this address (e.g. :8080; clients connect at path /ws), in addition to printing the summary")
	flag.Parse()

	var terminated, aborted, overruns int

	cfg := sim.Config{
		Tasks: []sim.TaskConfig{
			{
				Config: task.Config{
					Name:        "T1",
					PeriodMs:    10,
					DeadlineMs:  10,
					WCETMs:      2,
					WCETHiMs:    5,
					Criticality: task.HI,
					MC:          true,
				},
				ETM: "mc_acet",
			},
		},
		Processors:  []sim.ProcessorConfig{{Name: "cpu0", Speed: 1}},
		Scheduler:   "edfvd",
		HorizonMs:   200,
		CyclesPerMs: 1000,
		Seed:        42,
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	counter := counterSink{
		terminated: &terminated,
		aborted:    &aborted,
		overruns:   &overruns,
	}

	sinks := monitor.MultiSink{counter}

	var srv *http.Server
	if *listen != "" {
		hub := stream.NewHub()
		sinks = append(sinks, hub)

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		srv = &http.Server{Addr: *listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("mcsim: websocket server: %v", err)
			}
		}()
		defer srv.Close()
	}

	s, err := sim.New(cfg, sim.WithMonitor(sinks))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("terminated=%d aborted=%d overruns=%d\n", terminated, aborted, overruns)
	return nil
}

type counterSink struct {
	terminated, aborted, overruns *int
}

func (c counterSink) JobEvent(e monitor.JobEvent) {
	switch e.Kind {
	case monitor.JobTerminated:
		*c.terminated++
	case monitor.JobAborted:
		*c.aborted++
	case monitor.JobOverran:
		*c.overruns++
	}
}

func (c counterSink) SchedulerEvent(monitor.SchedulerEvent) {}
