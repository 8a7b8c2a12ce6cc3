package sim

import "github.com/joeycumines/go-mcsim/monitor"

// options holds construction-time configuration resolved by New, patterned
// on the teacher's functional-options idiom
// (eventloop.LoopOption/resolveLoopOptions in eventloop/options.go).
type options struct {
	sink monitor.Sink
}

// Option configures a Simulation instance.
type Option interface {
	applySim(*options)
}

type optionFunc func(*options)

func (f optionFunc) applySim(o *options) { f(o) }

// WithMonitor installs sink as the simulation's event-stream destination
// (spec.md §6 "Event stream output"). The zero value uses monitor.NopSink.
func WithMonitor(sink monitor.Sink) Option {
	return optionFunc(func(o *options) { o.sink = sink })
}

func resolveOptions(opts []Option) *options {
	cfg := &options{sink: monitor.NopSink{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applySim(cfg)
	}
	return cfg
}
