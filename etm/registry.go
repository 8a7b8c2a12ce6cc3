package etm

import (
	"fmt"
	"math/rand"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/simerr"
)

// Options carries the construction-time parameters an ETM variant needs
// beyond the shared Clock: an Apriori trace and/or a seeded PRNG for ACET.
// Mirrors the original's positional-constructor contract
// "(sim, task_list, options…)" (spec.md §6 "Plugin surfaces").
type Options struct {
	// Seed seeds the ACET variant's normal distribution draws. Required
	// for the replay-determinism property (spec.md §8).
	Seed int64
	// Trace is the Apriori variant's pre-recorded execution-time vector,
	// in cycles. Every entry must be strictly positive.
	Trace []clock.Cycles
	// Penalty is the additive per-job penalty, in cycles, for Cache and
	// FixedPenalty.
	Penalty clock.Cycles
}

// Factory constructs a Model given a Clock and Options.
type Factory func(clk Clock, opts Options) (Model, error)

var registry = map[string]Factory{
	"wcet": func(clk Clock, _ Options) (Model, error) {
		return NewWCET(clk), nil
	},
	"acet": func(clk Clock, opts Options) (Model, error) {
		return NewACET(clk, rand.New(rand.NewSource(opts.Seed))), nil
	},
	"mc_acet": func(clk Clock, opts Options) (Model, error) {
		return NewMCACET(clk, rand.New(rand.NewSource(opts.Seed))), nil
	},
	"apriori": func(clk Clock, opts Options) (Model, error) {
		return NewApriori(clk, opts.Trace)
	},
	"cache": func(clk Clock, opts Options) (Model, error) {
		return NewCache(clk, opts.Penalty), nil
	},
	"fixedpenalty": func(clk Clock, opts Options) (Model, error) {
		return NewFixedPenalty(clk, opts.Penalty), nil
	},
}

// New constructs the ETM registered under name (spec.md §6 "Recognised ETM
// identifiers: {wcet, acet, mc_acet, apriori, cache, fixedpenalty}").
func New(name string, clk Clock, opts Options) (Model, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, &simerr.ConfigurationError{Field: "etm", Message: fmt.Sprintf("unrecognised execution-time model %q", name)}
	}
	return factory(clk, opts)
}
