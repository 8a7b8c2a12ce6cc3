// Package proc implements the Processor (spec.md §4.4) and the dispatch
// protocol between a Processor and its Scheduler. Grounded on the
// processor/scheduler split implied throughout
// original_source/simso/core/Job.py (`task.cpu.activate/terminate`,
// `cpu.sched`) and original_source/simso/schedulers/EDF_VD_mono.py
// (`schedule`, `on_activate`, `on_terminated`).
package proc

import "github.com/joeycumines/go-mcsim/clock"

// JobHandle is the narrow view of a Job the processor and scheduler need:
// identity, the engine-level resume/preempt operations, and the
// scheduling-relevant fields (deadline, criticality). job.Job implements
// this, keeping proc and job free of a direct import cycle (job imports
// proc for the Processor type; proc never imports job).
type JobHandle interface {
	ID() uint64
	TaskName() string
	// Resume wakes the job at the current instant (engine.Activate).
	Resume()
	// Preempt cancels the job's outstanding Hold (engine.Interrupt).
	Preempt()
	// Deadline returns the job's current absolute deadline, in cycles.
	// EDF-VD mutates this for HI-crit jobs while in LO mode.
	Deadline() clock.Cycles
	SetDeadline(clock.Cycles)
	// ActivationDate returns the job's release time, in cycles.
	ActivationDate() clock.Cycles
	// Criticality is case-sensitive per spec.md §6 and returned as a
	// plain string ("LO"/"HI") to keep this interface free of a task
	// package import; Scheduler implementations that care parse it.
	Criticality() string
}

// Scheduler is the pluggable dispatch policy (spec.md §4.5).
type Scheduler interface {
	Init(procs []*Processor) error
	OnActivate(job JobHandle)
	OnTerminated(job JobHandle)
	// Schedule returns the job that should run on cpu, or nil if none
	// should.
	Schedule(cpu *Processor) JobHandle

	// CriticalityMode and SetCriticalityMode expose the MC mode switch
	// state (spec.md §4.5 "Additional MC entry points"). Non-MC
	// schedulers may implement these as no-ops returning "LO".
	CriticalityMode() string
	SetCriticalityMode(level string)
	// MonitorModeSwitchUp is the observability hook invoked once per
	// mode switch (spec.md §4.5).
	MonitorModeSwitchUp(cpu *Processor, when clock.Cycles)
}

// Processor holds at most one running Job and exposes the activation and
// reschedule requests a Task/Job drives it with (spec.md §4.4).
type Processor struct {
	Name  string
	Index int
	Speed float64

	sched      Scheduler
	running    JobHandle
	wasRunning JobHandle
}

// New constructs a Processor. speed must be positive.
func New(name string, index int, speed float64, sched Scheduler) *Processor {
	return &Processor{Name: name, Index: index, Speed: speed, sched: sched}
}

// Scheduler returns the policy object shared by every processor in the
// simulation, the same reference the original exposes as `cpu.sched`.
func (p *Processor) Scheduler() Scheduler { return p.sched }

// Running returns the job currently dispatched on this processor, or nil.
func (p *Processor) Running() JobHandle { return p.running }

// WasRunning returns the last job that ran here, set on every execute
// notification (spec.md §4.2 "cpu.was_running := self"); used by policies
// that care about cache affinity.
func (p *Processor) WasRunning() JobHandle { return p.wasRunning }

// SetWasRunning records job as the most recent job to execute on this
// processor. Called by job.Job's on_execute notification.
func (p *Processor) SetWasRunning(job JobHandle) { p.wasRunning = job }

// Activate informs the scheduler of a newly ready job and triggers a
// reschedule (spec.md §4.4 "activate(job) to inform the policy of a new
// ready job").
func (p *Processor) Activate(job JobHandle) {
	p.sched.OnActivate(job)
	p.Resched()
}

// Terminate informs the scheduler that job has left the ready set (spec.md
// §4.4 "terminate(job) to inform of completion") and triggers a
// reschedule.
func (p *Processor) Terminate(job JobHandle) {
	if p.running != nil && p.running.ID() == job.ID() {
		p.running = nil
	}
	p.sched.OnTerminated(job)
	p.Resched()
}

// Resched asks the scheduler to re-evaluate dispatch on this processor
// (spec.md §4.4 "Dispatch protocol"): if the chosen job differs from the
// one currently running, the old one is interrupted and the new one
// activated.
func (p *Processor) Resched() {
	chosen := p.sched.Schedule(p)
	if sameJob(chosen, p.running) {
		return
	}
	if p.running != nil {
		p.running.Preempt()
	}
	p.running = chosen
	if chosen != nil {
		chosen.Resume()
	}
}

func sameJob(a, b JobHandle) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
