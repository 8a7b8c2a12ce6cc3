// Package monitor defines the simulator's event-stream contract (spec.md
// §6 "External interfaces — event stream") and a production Sink
// implementation backed by structured logging.
//
// The shape mirrors the teacher's eventloop.Logger/LogEntry split
// (eventloop/logging.go): a small interface the core engine/job/sched
// packages depend on, kept free of any concrete logging backend, plus one
// real adapter.
package monitor

import "github.com/joeycumines/go-mcsim/clock"

// JobEventKind enumerates the per-job notifications the original simulator
// raises from Job.py's _on_activate/_on_execute/_on_stop_exec/
// _on_terminated/_on_abort.
type JobEventKind uint8

const (
	JobActivated JobEventKind = iota
	JobExecuted
	JobPreempted
	JobTerminated
	JobAborted
	JobOverran
)

func (k JobEventKind) String() string {
	switch k {
	case JobActivated:
		return "activated"
	case JobExecuted:
		return "executed"
	case JobPreempted:
		return "preempted"
	case JobTerminated:
		return "terminated"
	case JobAborted:
		return "aborted"
	case JobOverran:
		return "overran"
	default:
		return "unknown"
	}
}

// JobEvent is one notification about a single job's life cycle.
type JobEvent struct {
	At          clock.Cycles
	Kind        JobEventKind
	TaskName    string
	JobID       uint64
	ProcID      int
	Criticality string // "LO" or "HI"; empty for non-MC tasks
}

// SchedulerEventKind mirrors original_source/simso/core/SchedulerEvent.py's
// integer constants exactly, including their original ordering, so logged
// traces remain comparable to the original simulator's semantics.
type SchedulerEventKind uint8

const (
	BeginSchedule SchedulerEventKind = iota + 1
	EndSchedule
	BeginActivate
	EndActivate
	BeginTerminate
	EndTerminate
	ModeSwitchUp
	ModeSwitchDown
	DroppedJob
)

func (k SchedulerEventKind) String() string {
	switch k {
	case BeginSchedule:
		return "begin_schedule"
	case EndSchedule:
		return "end_schedule"
	case BeginActivate:
		return "begin_activate"
	case EndActivate:
		return "end_activate"
	case BeginTerminate:
		return "begin_terminate"
	case EndTerminate:
		return "end_terminate"
	case ModeSwitchUp:
		return "mode_switch_up"
	case ModeSwitchDown:
		return "mode_switch_down"
	case DroppedJob:
		return "dropped_job"
	default:
		return "unknown"
	}
}

// SchedulerEvent is one notification emitted by the active scheduling
// policy.
type SchedulerEvent struct {
	At   clock.Cycles
	Kind SchedulerEventKind
	// JobID and TaskName are populated for DroppedJob and the
	// activate/terminate pair; zero/empty otherwise.
	JobID    uint64
	TaskName string
}

// Sink receives every JobEvent and SchedulerEvent the simulation raises.
// Implementations must not block the calling goroutine for long, since
// notifications are delivered synchronously from inside the engine's single
// active goroutine (spec.md §5).
type Sink interface {
	JobEvent(JobEvent)
	SchedulerEvent(SchedulerEvent)
}

// NopSink discards every event. Useful in tests, and the sink sim.New
// installs when no WithMonitor option is given.
type NopSink struct{}

func (NopSink) JobEvent(JobEvent)             {}
func (NopSink) SchedulerEvent(SchedulerEvent) {}

// MultiSink fans out every event to each of its members, in order.
type MultiSink []Sink

func (m MultiSink) JobEvent(e JobEvent) {
	for _, s := range m {
		s.JobEvent(e)
	}
}

func (m MultiSink) SchedulerEvent(e SchedulerEvent) {
	for _, s := range m {
		s.SchedulerEvent(e)
	}
}
