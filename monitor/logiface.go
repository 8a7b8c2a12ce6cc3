package monitor

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// LogifaceSink adapts a *logiface.Logger[*stumpy.Event] to the Sink
// interface, the same way the teacher's own tests wire logiface loggers to
// a concrete writer (logiface-stumpy/example_test.go).
type LogifaceSink struct {
	logger *logiface.Logger[*stumpy.Event]
}

// NewLogifaceSink wraps logger as a Sink. A nil logger is valid and behaves
// like NopSink.
func NewLogifaceSink(logger *logiface.Logger[*stumpy.Event]) LogifaceSink {
	return LogifaceSink{logger: logger}
}

func (s LogifaceSink) JobEvent(e JobEvent) {
	if s.logger == nil {
		return
	}
	b := s.logger.Info().
		Int64(`at`, int64(e.At)).
		Str(`kind`, e.Kind.String()).
		Str(`task`, e.TaskName).
		Uint64(`job`, e.JobID).
		Int(`proc`, e.ProcID)
	if e.Criticality != "" {
		b = b.Str(`crit`, e.Criticality)
	}
	b.Log(`job event`)
}

func (s LogifaceSink) SchedulerEvent(e SchedulerEvent) {
	if s.logger == nil {
		return
	}
	b := s.logger.Info().
		Int64(`at`, int64(e.At)).
		Str(`kind`, e.Kind.String())
	if e.TaskName != "" {
		b = b.Str(`task`, e.TaskName).Uint64(`job`, e.JobID)
	}
	b.Log(`scheduler event`)
}
