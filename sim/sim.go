// Package sim is the composition root: it wires Task, Job, Processor,
// Scheduler, ETM and Monitor together into a runnable Simulation (spec.md
// §2 "Data flow"), grounded on eventloop.New/Loop's composition pattern
// (eventloop/loop.go).
package sim

import (
	"context"
	"sync/atomic"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/engine"
	"github.com/joeycumines/go-mcsim/etm"
	"github.com/joeycumines/go-mcsim/job"
	"github.com/joeycumines/go-mcsim/monitor"
	"github.com/joeycumines/go-mcsim/proc"
	"github.com/joeycumines/go-mcsim/sched"
	"github.com/joeycumines/go-mcsim/simerr"
	"github.com/joeycumines/go-mcsim/task"
)

// ProcessorConfig describes one processor (spec.md §3 "Processor").
type ProcessorConfig struct {
	Name  string
	Speed float64
}

// TaskConfig bundles a task's parameters with its ETM choice (spec.md §6
// "Plugin surfaces": an ETM plugin registers under a name string and a
// positional-constructor contract).
type TaskConfig struct {
	task.Config
	ETM        string
	ETMOptions etm.Options
}

// Config is the complete construction-time input for a Simulation
// (spec.md §6 "Configuration input").
type Config struct {
	Tasks       []TaskConfig
	Processors  []ProcessorConfig
	Scheduler   string // "edf" or "edfvd"
	HorizonMs   float64
	CyclesPerMs int64
	Seed        int64
}

// Simulation is the top-level object a caller drives through a single run.
type Simulation struct {
	eng   *engine.Engine
	rate  clock.Rate
	sink  monitor.Sink
	tasks []*task.Task
	procs []*proc.Processor
	models []etm.Model
	sched proc.Scheduler

	nextJobID atomic.Uint64
}

// New validates cfg and constructs a ready-to-run Simulation.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	resolved := resolveOptions(opts)

	if cfg.HorizonMs <= 0 {
		return nil, &simerr.ConfigurationError{Field: "horizon", Message: "must be positive"}
	}
	rate, ok := clock.NewRate(cfg.CyclesPerMs)
	if !ok {
		return nil, &simerr.ConfigurationError{Field: "cycles_per_ms", Message: "must be positive"}
	}
	if len(cfg.Processors) == 0 {
		return nil, &simerr.ConfigurationError{Field: "processors", Message: "must not be empty"}
	}

	s := &Simulation{rate: rate, sink: resolved.sink}

	eng, err := engine.New(rate.CeilFromMs(cfg.HorizonMs))
	if err != nil {
		return nil, err
	}
	s.eng = eng

	tasks := make([]*task.Task, 0, len(cfg.Tasks))
	for _, tc := range cfg.Tasks {
		t, err := task.New(tc.Config, rate)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	s.tasks = tasks

	switch cfg.Scheduler {
	case "edf":
		s.sched = sched.NewEDF()
	case "edfvd":
		edfvd, err := sched.NewEDFVD(tasks, s.sink)
		if err != nil {
			return nil, err
		}
		s.sched = edfvd
	default:
		return nil, &simerr.ConfigurationError{Field: "scheduler", Message: "unrecognised scheduler " + cfg.Scheduler}
	}

	procs := make([]*proc.Processor, 0, len(cfg.Processors))
	for i, pc := range cfg.Processors {
		if pc.Speed <= 0 {
			return nil, &simerr.ConfigurationError{Field: "processor.speed", Message: "must be positive"}
		}
		procs = append(procs, proc.New(pc.Name, i, pc.Speed, s.sched))
	}
	s.procs = procs

	if err := s.sched.Init(procs); err != nil {
		return nil, err
	}

	models := make([]etm.Model, len(tasks))
	for i, tc := range cfg.Tasks {
		m, err := etm.New(tc.ETM, s, tc.ETMOptions)
		if err != nil {
			return nil, err
		}
		if err := m.Init(); err != nil {
			return nil, err
		}
		models[i] = m
	}
	s.models = models

	for _, t := range tasks {
		if t.ProcIndex < 0 || t.ProcIndex >= len(procs) {
			return nil, &simerr.ConfigurationError{Field: "task.proc_index", Message: "out of range"}
		}
	}

	return s, nil
}

// Now returns the simulation's current simulated time, in cycles
// (etm.Clock).
func (s *Simulation) Now() clock.Cycles { return s.eng.Now() }

// BroadcastModeSwitch notifies every task's ETM of a mode switch, passing
// the SAME triggering job handle to all of them (job.ModeSwitchBroadcaster;
// spec.md §9's open question on unconditional broadcast).
func (s *Simulation) BroadcastModeSwitch(jh etm.JobHandle, level task.CritLevel) {
	for _, m := range s.models {
		if mc, ok := m.(etm.MCModel); ok {
			mc.OnModeSwitch(jh, level)
		}
	}
}

// Run spawns every task's periodic release process and drains the event
// queue until the horizon is reached (spec.md §4.1 "Termination").
func (s *Simulation) Run(ctx context.Context) error {
	for i, t := range s.tasks {
		s.spawnTaskLoop(i, t)
	}
	return s.eng.Run(ctx)
}

func (s *Simulation) spawnTaskLoop(idx int, t *task.Task) {
	cpu := s.procs[t.ProcIndex]
	model := s.models[idx]

	var release func(p *engine.Process)
	release = func(p *engine.Process) {
		for {
			id := s.nextJobID.Add(1)
			j := job.New(job.Config{
				ID:    id,
				Name:  t.Name,
				Task:  t,
				CPU:   cpu,
				ETM:   model,
				Sink:  s.sink,
				Eng:   s.eng,
				Bcast: s,
				Rate:  s.rate,
			})
			j.Spawn()
			p.Hold(t.Period)
		}
	}
	rp := s.eng.Spawn(t.Name+".release", release)
	s.eng.Activate(rp)
}
