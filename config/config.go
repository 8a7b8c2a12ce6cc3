// Package config is a plain, dependency-free description of a simulation
// run. Task-set file parsing is explicitly out of scope (spec.md §1), so
// this package exists only to validate a Config before handing it to
// sim.New — it never reads a file or a flag set itself.
package config

import (
	"github.com/joeycumines/go-mcsim/sim"
	"github.com/joeycumines/go-mcsim/simerr"
)

// Config is an alias for sim.Config: the semantic shape is the same, this
// package only adds Validate.
type Config = sim.Config

// Validate performs the structural checks spec.md §7 attributes to
// ConfigurationError before any task/processor/scheduler object is built,
// so callers can fail fast with a field-level diagnostic.
func Validate(cfg Config) error {
	if len(cfg.Tasks) == 0 {
		return &simerr.ConfigurationError{Field: "tasks", Message: "must not be empty"}
	}
	if len(cfg.Processors) == 0 {
		return &simerr.ConfigurationError{Field: "processors", Message: "must not be empty"}
	}
	if cfg.CyclesPerMs <= 0 {
		return &simerr.ConfigurationError{Field: "cycles_per_ms", Message: "must be positive"}
	}
	if cfg.HorizonMs <= 0 {
		return &simerr.ConfigurationError{Field: "horizon_ms", Message: "must be positive"}
	}
	switch cfg.Scheduler {
	case "edf", "edfvd":
	default:
		return &simerr.ConfigurationError{Field: "scheduler", Message: "unrecognised scheduler " + cfg.Scheduler}
	}
	for i, t := range cfg.Tasks {
		switch t.ETM {
		case "wcet", "acet", "mc_acet", "apriori", "cache", "fixedpenalty":
		default:
			return &simerr.ConfigurationError{Field: "tasks[].etm", Message: "unrecognised execution-time model " + t.ETM}
		}
		if t.ProcIndex < 0 || t.ProcIndex >= len(cfg.Processors) {
			return &simerr.ConfigurationError{Field: "tasks[].proc_index", Message: "out of range"}
		}
		_ = i
	}
	return nil
}
