package sched

import (
	"github.com/shopspring/decimal"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/monitor"
	"github.com/joeycumines/go-mcsim/proc"
	"github.com/joeycumines/go-mcsim/simerr"
	"github.com/joeycumines/go-mcsim/task"
)

// EDFVD is the uniprocessor EDF-with-Virtual-Deadlines Mixed-Criticality
// policy (spec.md §4.5 "EDF with Virtual Deadlines (uniprocessor)"),
// grounded on original_source/simso/schedulers/EDF_VD_mono.py.
//
// Utilization ratios are computed with shopspring/decimal rather than
// float64, so the "needs VD" comparison and the scaling coefficient are
// exact and reproducible bit-for-bit across platforms, which the
// replay-determinism property (spec.md §8) depends on.
type EDFVD struct {
	tasks []*task.Task
	sink  monitor.Sink

	ready []proc.JobHandle
	mode  task.CritLevel
}

// NewEDFVD constructs an EDF-VD scheduler over tasks, all of which must be
// Mixed-Criticality (spec.md §4.5 "At init, verify all tasks are MC").
func NewEDFVD(tasks []*task.Task, sink monitor.Sink) (*EDFVD, error) {
	for _, t := range tasks {
		if !t.MC {
			return nil, &simerr.ConfigurationError{Field: "scheduler", Message: "EDF-VD can only schedule Mixed-Criticality tasks"}
		}
	}
	return &EDFVD{tasks: tasks, sink: sink, mode: task.LO}, nil
}

func (s *EDFVD) Init(procs []*proc.Processor) error {
	if len(procs) != 1 {
		return &simerr.ConfigurationError{Field: "processors", Message: "EDF-VD is a uniprocessor policy"}
	}
	return nil
}

// utilizationAt computes system utilization at criticality level k for
// j-criticality tasks: U_k^j = sum over tasks t with crit(t)=j of
// wcet_k(t)/period(t), where wcet_LO=wcet and wcet_HI=wcet_hi.
func (s *EDFVD) utilizationAt(k, j task.CritLevel) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.tasks {
		if t.Criticality != j {
			continue
		}
		var wcet clock.Cycles
		if k == task.LO {
			wcet = t.WCET
		} else {
			wcet = t.WCETHi
		}
		sum = sum.Add(decimal.NewFromInt(int64(wcet)).Div(decimal.NewFromInt(int64(t.Period))))
	}
	return sum
}

// vdCoeff is the virtual-deadline scaling coefficient x = U_lo^hi / (1 -
// U_lo^lo) (spec.md §4.5).
func (s *EDFVD) vdCoeff() decimal.Decimal {
	uLoLo := s.utilizationAt(task.LO, task.LO)
	uLoHi := s.utilizationAt(task.LO, task.HI)
	return uLoHi.Div(decimal.NewFromInt(1).Sub(uLoLo))
}

// needsVD reports whether U_lo^lo + U_hi^hi > 1 (spec.md §4.5 "If ... the
// system needs virtual deadlines").
func (s *EDFVD) needsVD() bool {
	uLoLo := s.utilizationAt(task.LO, task.LO)
	uHiHi := s.utilizationAt(task.HI, task.HI)
	return uLoLo.Add(uHiHi).GreaterThan(decimal.NewFromInt(1))
}

func (s *EDFVD) OnActivate(job proc.JobHandle) {
	crit, _ := task.ParseCritLevel(job.Criticality())
	if crit < s.mode {
		s.sink.SchedulerEvent(monitor.SchedulerEvent{At: job.ActivationDate(), Kind: monitor.DroppedJob, JobID: job.ID(), TaskName: job.TaskName()})
		return
	}

	if crit == task.HI && s.mode == task.LO && s.needsVD() {
		x := s.vdCoeff()
		relative := job.Deadline() - job.ActivationDate()
		scaled := x.Mul(decimal.NewFromInt(int64(relative)))
		job.SetDeadline(job.ActivationDate() + clock.Cycles(scaled.IntPart()))
	}

	s.ready = append(s.ready, job)
}

func (s *EDFVD) OnTerminated(job proc.JobHandle) {
	s.ready = removeJob(s.ready, job)
}

func (s *EDFVD) Schedule(cpu *proc.Processor) proc.JobHandle {
	return pickEDF(s.ready)
}

func (s *EDFVD) CriticalityMode() string { return s.mode.String() }

func (s *EDFVD) SetCriticalityMode(level string) {
	parsed, err := task.ParseCritLevel(level)
	if err != nil {
		return
	}
	s.mode = parsed
}

func (s *EDFVD) MonitorModeSwitchUp(cpu *proc.Processor, when clock.Cycles) {
	s.sink.SchedulerEvent(monitor.SchedulerEvent{At: when, Kind: monitor.ModeSwitchUp})
}
