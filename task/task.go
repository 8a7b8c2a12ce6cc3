// Package task implements the periodic task model (spec.md §3 "Task",
// §4.2) grounded on original_source/simso's GenericTask/Task pair (no
// Task.py survived distillation into the retrieval pack, so the fields
// below are reconstructed from what Job.py's task.* references require:
// period, deadline, wcet, wcet_hi, criticality_level, cpu, data; cpu is
// carried as ProcIndex, and Job.py's n_instr has no counterpart here).
package task

import (
	"fmt"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/simerr"
)

// CritLevel is a Mixed-Criticality classification, ordered LO < HI per
// original_source/simso/utils/MixedCriticality.py's total_ordering.
type CritLevel uint8

const (
	LO CritLevel = iota
	HI
)

func (l CritLevel) String() string {
	switch l {
	case LO:
		return "LO"
	case HI:
		return "HI"
	default:
		return "UNKNOWN"
	}
}

// ParseCritLevel parses a criticality level. It is case-sensitive, matching
// spec.md §6 ("Criticality level values: LO, HI (case-sensitive)").
func ParseCritLevel(s string) (CritLevel, error) {
	switch s {
	case "LO":
		return LO, nil
	case "HI":
		return HI, nil
	default:
		return 0, &simerr.ConfigurationError{Field: "criticality_level", Message: fmt.Sprintf("unrecognised value %q", s)}
	}
}

// Config is the construction-time, millisecond-denominated description of a
// task (spec.md §6 "Configuration input"). New converts it to cycles
// once, at construction, per the "canonical unit is integer cycles"
// design note (spec.md §9).
type Config struct {
	Name       string
	PeriodMs   float64
	DeadlineMs float64
	WCETMs     float64

	// ACETMs and ETStdDevMs configure the stochastic ETM; zero if unused.
	ACETMs     float64
	ETStdDevMs float64

	// WCETHiMs and Criticality configure an MC task. WCETHiMs is zero for a
	// non-MC task.
	WCETHiMs    float64
	Criticality CritLevel
	MC          bool

	// ProcIndex is the index, within the simulation's processor list, that
	// this task's jobs run on (spec.md §3 "affinity to one Processor").
	ProcIndex int

	// Data is an opaque user payload, carried through to every Job
	// released by this task (spec.md §3 "opaque user data").
	Data any
}

// Task is the immutable, per-run parameter set for one periodic task
// (spec.md §3 "Task (immutable during a run)"). All durations are in
// cycles.
type Task struct {
	Name        string
	Period      clock.Cycles
	Deadline    clock.Cycles
	WCET        clock.Cycles
	ACET        clock.Cycles
	ETStdDev    clock.Cycles
	WCETHi      clock.Cycles
	Criticality CritLevel
	MC          bool
	ProcIndex   int
	Data        any
}

// New validates cfg and converts it to cycles using rate: deadline and
// wcet must be positive, period must be at least the deadline, and an MC
// task's wcet_hi must be at least its wcet.
func New(cfg Config, rate clock.Rate) (*Task, error) {
	if cfg.DeadlineMs <= 0 {
		return nil, &simerr.ConfigurationError{Field: "deadline", Message: "must be positive"}
	}
	if cfg.WCETMs <= 0 {
		return nil, &simerr.ConfigurationError{Field: "wcet", Message: "must be positive"}
	}
	if cfg.PeriodMs < cfg.DeadlineMs {
		return nil, &simerr.ConfigurationError{Field: "period", Message: "must be >= deadline"}
	}
	if cfg.MC {
		if cfg.WCETHiMs < cfg.WCETMs {
			return nil, &simerr.ConfigurationError{Field: "wcet_hi", Message: "must be >= wcet"}
		}
	}

	t := &Task{
		Name:        cfg.Name,
		Period:      rate.CeilFromMs(cfg.PeriodMs),
		Deadline:    rate.CeilFromMs(cfg.DeadlineMs),
		WCET:        rate.CeilFromMs(cfg.WCETMs),
		ACET:        rate.CeilFromMs(cfg.ACETMs),
		ETStdDev:    rate.CeilFromMs(cfg.ETStdDevMs),
		Criticality: cfg.Criticality,
		MC:          cfg.MC,
		ProcIndex:   cfg.ProcIndex,
		Data:        cfg.Data,
	}
	if cfg.MC {
		t.WCETHi = rate.CeilFromMs(cfg.WCETHiMs)
	}
	return t, nil
}
