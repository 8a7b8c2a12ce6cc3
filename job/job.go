// Package job implements the Job life-cycle coroutine (spec.md §4.2, §4.3),
// grounded directly on original_source/simso/core/Job.py's Job and MCJob
// classes, reimplemented atop engine.Process instead of a SimPy generator.
package job

import (
	"math"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/engine"
	"github.com/joeycumines/go-mcsim/etm"
	"github.com/joeycumines/go-mcsim/monitor"
	"github.com/joeycumines/go-mcsim/proc"
	"github.com/joeycumines/go-mcsim/task"
)

// ModeSwitchBroadcaster notifies every task's ETM of a criticality mode
// switch, passing the SAME triggering job handle to each one. This
// preserves the original's unconditional, job-identity-preserving
// broadcast (`for t in self._sim.task_list: t.etm.on_mode_switch(self,
// crit_level)`) per spec.md §9's open question: "preserve this behavior
// unless a policy states otherwise."
type ModeSwitchBroadcaster interface {
	BroadcastModeSwitch(job etm.JobHandle, level task.CritLevel)
}

// Job is one release of a Task: a cooperative process driving a life-cycle
// state machine against an ETM and a Processor (spec.md §3 "Job").
type Job struct {
	id   uint64
	name string

	task *task.Task
	cpu  *proc.Processor
	mdl  etm.Model
	sink monitor.Sink
	eng  *engine.Engine
	bc   ModeSwitchBroadcaster
	rate clock.Rate

	proc *engine.Process

	activationDate   clock.Cycles // cycles
	absoluteDead     clock.Cycles // cycles; mutable for VD scheduling
	origAbsoluteDead clock.Cycles // cycles; the real (unscaled) deadline, never mutated by SetDeadline
	startDate        clock.Cycles
	haveStart      bool
	endDate        clock.Cycles
	haveEnd        bool

	computationTime clock.Cycles
	haveLastExec    bool
	lastExec        clock.Cycles

	isPreempted    bool
	aborted        bool
	abortRequested bool

	doneCh chan struct{}
}

// Config is the construction-time input for a single Job release.
type Config struct {
	ID   uint64
	Name string
	Task *task.Task
	CPU  *proc.Processor
	ETM  etm.Model
	Sink monitor.Sink
	Eng  *engine.Engine
	Bcast ModeSwitchBroadcaster
	Rate  clock.Rate
}

// New constructs a released-but-not-yet-spawned Job. Spawn must be called
// once to start its coroutine.
func New(cfg Config) *Job {
	now := cfg.Eng.Now()
	return &Job{
		id:             cfg.ID,
		name:           cfg.Name,
		task:           cfg.Task,
		cpu:            cfg.CPU,
		mdl:            cfg.ETM,
		sink:           cfg.Sink,
		eng:            cfg.Eng,
		bc:             cfg.Bcast,
		rate:           cfg.Rate,
		activationDate:   now,
		absoluteDead:     now + cfg.Task.Deadline,
		origAbsoluteDead: now + cfg.Task.Deadline,
		doneCh:           make(chan struct{}),
	}
}

// --- identity & task-derived accessors (spec.md §4.2 "Derived quantities" & proc/etm JobHandle contracts) ---

func (j *Job) ID() uint64        { return j.id }
func (j *Job) TaskName() string  { return j.task.Name }
func (j *Job) Data() any         { return j.task.Data }
func (j *Job) WCET() clock.Cycles     { return j.task.WCET }
func (j *Job) WCETHi() clock.Cycles   { return j.task.WCETHi }
func (j *Job) ACET() clock.Cycles     { return j.task.ACET }
func (j *Job) ETStdDev() clock.Cycles { return j.task.ETStdDev }
func (j *Job) CPUSpeed() float64      { return j.cpu.Speed }
func (j *Job) Criticality() string    { return j.task.Criticality.String() }

// IsActive reports whether the job has neither terminated nor aborted.
func (j *Job) IsActive() bool { return !j.haveEnd }

// IsRunning reports whether this job is the one currently dispatched on
// its processor (spec.md §4.2 "is_running").
func (j *Job) IsRunning() bool {
	r := j.cpu.Running()
	return r != nil && r.ID() == j.id
}

// Aborted reports whether the job was aborted rather than terminating
// normally.
func (j *Job) Aborted() bool { return j.aborted }

// ActivationDate returns the release time, in cycles.
func (j *Job) ActivationDate() clock.Cycles { return j.activationDate }

// Deadline returns the job's current absolute deadline, in cycles. EDF-VD
// mutates this for HI-crit jobs while the system is in LO mode (spec.md
// §4.5).
func (j *Job) Deadline() clock.Cycles { return j.absoluteDead }

// SetDeadline overrides the absolute deadline; only a VD-aware scheduler
// should call this (spec.md §3 "absolute_deadline (ms, mutable only for VD
// scheduling)").
func (j *Job) SetDeadline(d clock.Cycles) { j.absoluteDead = d }

// EndDate returns the completion time, in cycles, and whether the job has
// completed.
func (j *Job) EndDate() (clock.Cycles, bool) { return j.endDate, j.haveEnd }

// StartDate returns the time the job began executing, in cycles, and
// whether it has started.
func (j *Job) StartDate() (clock.Cycles, bool) { return j.startDate, j.haveStart }

// ComputationTimeCycles is the Job's own wall-cycle accumulator: time
// spent Running, NOT scaled by processor speed (spec.md §4.2 "Stop-exec
// accounting" — kept distinct from the ETM's speed-scaled accumulator).
func (j *Job) ComputationTimeCycles() clock.Cycles {
	if !j.haveLastExec {
		return j.computationTime
	}
	return j.computationTime + (j.eng.Now() - j.lastExec)
}

// ActualComputationTimeCycles delegates to the ETM's speed-scaled
// accumulator (spec.md §9 "two deliberately distinct accumulators").
func (j *Job) ActualComputationTimeCycles() clock.Cycles {
	return j.mdl.GetExecuted(j)
}

// ResponseTime returns the job's response time in milliseconds, only
// meaningful once terminated.
func (j *Job) ResponseTime() (float64, bool) {
	if !j.haveEnd {
		return 0, false
	}
	return j.rate.ToMs(j.endDate) - j.rate.ToMs(j.activationDate), true
}

// Ret returns the remaining execution time in cycles (wcet - actual),
// matching Job.py's `ret` property generalized from ms to cycles (spec.md
// §4.2 "ret (ms) = wcet - actual_computation_time", expressed here in
// cycles since that is this module's canonical unit).
func (j *Job) Ret() clock.Cycles {
	return j.task.WCET - j.ActualComputationTimeCycles()
}

// Laxity returns the dynamic laxity, in cycles (spec.md §4.2 "laxity").
func (j *Job) Laxity() clock.Cycles {
	return (j.absoluteDead - j.Ret()) - j.eng.Now()
}

// ExceededDeadline reports whether the job was aborted or finished after
// its absolute deadline (spec.md §4.2 "exceeded_deadline").
func (j *Job) ExceededDeadline() bool {
	if j.aborted {
		return true
	}
	return j.haveEnd && j.absoluteDead < j.endDate
}

// Resume wakes the job at the current instant (proc.JobHandle).
func (j *Job) Resume() { j.eng.Activate(j.proc) }

// Preempt cancels the job's outstanding Hold (proc.JobHandle).
func (j *Job) Preempt() { j.eng.Interrupt(j.proc) }

// Done returns a channel closed once the job's process has fully
// terminated or aborted, useful for synchronizing test assertions.
func (j *Job) Done() <-chan struct{} { return j.doneCh }

// --- life cycle notifications (spec.md §4.2 transitions 1-5) ---

func (j *Job) onActivate() {
	j.sink.JobEvent(monitor.JobEvent{At: j.eng.Now(), Kind: monitor.JobActivated, TaskName: j.task.Name, JobID: j.id, ProcID: j.cpu.Index, Criticality: j.critString()})
	j.mdl.OnActivate(j)
}

func (j *Job) onExecute() {
	j.lastExec = j.eng.Now()
	j.haveLastExec = true
	j.mdl.OnExecute(j)
	j.isPreempted = false
	j.cpu.SetWasRunning(j)
	j.sink.JobEvent(monitor.JobEvent{At: j.eng.Now(), Kind: monitor.JobExecuted, TaskName: j.task.Name, JobID: j.id, ProcID: j.cpu.Index, Criticality: j.critString()})
}

func (j *Job) onStopExec() {
	if j.haveLastExec {
		j.computationTime += j.eng.Now() - j.lastExec
	}
	j.haveLastExec = false
}

func (j *Job) onPreempted() {
	j.onStopExec()
	j.mdl.OnPreempted(j)
	j.isPreempted = true
	j.sink.JobEvent(monitor.JobEvent{At: j.eng.Now(), Kind: monitor.JobPreempted, TaskName: j.task.Name, JobID: j.id, ProcID: j.cpu.Index, Criticality: j.critString()})
}

func (j *Job) onTerminated() {
	j.onStopExec()
	j.mdl.OnTerminated(j)
	j.endDate = j.eng.Now()
	j.haveEnd = true
	j.sink.JobEvent(monitor.JobEvent{At: j.eng.Now(), Kind: monitor.JobTerminated, TaskName: j.task.Name, JobID: j.id, ProcID: j.cpu.Index, Criticality: j.critString()})
	j.cpu.Terminate(j)
}

func (j *Job) onAbort() {
	j.onStopExec()
	j.mdl.OnAbort(j)
	j.endDate = j.eng.Now()
	j.haveEnd = true
	j.aborted = true
	j.sink.JobEvent(monitor.JobEvent{At: j.eng.Now(), Kind: monitor.JobAborted, TaskName: j.task.Name, JobID: j.id, ProcID: j.cpu.Index, Criticality: j.critString()})
	j.cpu.Terminate(j)
}

// Abort requests that the job transition to Aborted, e.g. on a
// deadline-overrun policy decision (spec.md §4.2 transition 5; spec.md §7
// "DeadlineOverrun"). It is safe to call whether the job is currently
// Running or Active/Waiting: it routes through the same Interrupt
// primitive preemption uses (engine.Interrupt, generalized to also wake a
// passivated process), so the job's own coroutine observes the request at
// its own next resumption and performs the Aborted transition itself —
// see runPlain/runMC. A no-op once the job has already terminated or
// aborted.
func (j *Job) Abort() {
	if j.haveEnd || j.abortRequested {
		return
	}
	j.abortRequested = true
	j.eng.Interrupt(j.proc)
}

func (j *Job) critString() string {
	if !j.task.MC {
		return ""
	}
	return j.task.Criticality.String()
}

// --- spawn & run loop ---

// Spawn starts the job's coroutine on eng and immediately activates it
// (spec.md §4.2 transition 1: "Created -> Active/Waiting on activate_job").
// It also spawns a companion deadline watchdog: the Task layer's
// deadline-overrun policy (spec.md §7 "DeadlineOverrun") that Aborts the
// job if it is still active at its own absolute deadline, whether it is
// currently running or merely waiting in the ready list (spec.md §8
// scenario 5, "starved by a higher-priority task").
// original_source/simso/core/Job.py's `abort()` docstring notes it is
// "currently only used by the Task"; Task.py itself did not survive
// distillation into the retrieval pack, so this watchdog is this module's
// own reconstruction of that caller, grounded directly on spec.md §4.2
// transition 5 and §8 scenario 5's worked numbers.
func (j *Job) Spawn() {
	j.proc = j.eng.Spawn(j.name, j.run)
	j.eng.Activate(j.proc)

	watchdog := j.eng.Spawn(j.name+".deadline-watchdog", j.runDeadlineWatchdog)
	j.eng.Activate(watchdog)
}

// runDeadlineWatchdog holds until this release's REAL absolute deadline,
// then aborts the job if it has not already terminated. It deliberately
// reads j.origAbsoluteDead, not j.absoluteDead: a VD-aware scheduler
// (sched.EDFVD) may rewrite absoluteDead for a HI-crit job during its own
// activation to a shortened virtual deadline, which is purely a
// scheduling-priority artifact (spec.md §4.5 "keep the original as
// reference"). A HI-crit job is entitled to run to its true deadline / the
// HI-mode wcet_hi (spec.md §4.3, §8 scenario 3: overrunning the virtual
// deadline while still on pace for the real one must not ABORT it), so the
// watchdog — the Task layer's deadline-overrun policy (spec.md §7
// "DeadlineOverrun") — must arm against the unscaled deadline regardless
// of what the active scheduler did to absoluteDead for priority purposes.
func (j *Job) runDeadlineWatchdog(p *engine.Process) {
	delta := j.origAbsoluteDead - j.eng.Now()
	if delta > 0 {
		p.Hold(delta)
	}
	if j.IsActive() {
		j.Abort()
	}
}

func (j *Job) run(p *engine.Process) {
	defer close(j.doneCh)

	j.startDate = j.eng.Now()
	j.haveStart = true
	j.onActivate()
	j.cpu.Activate(j)

	if j.task.MC {
		j.runMC(p)
		return
	}
	j.runPlain(p)
}

// runPlain is the non-MC loop, a direct translation of Job.activate_job
// (spec.md §4.2 transitions 2-4).
func (j *Job) runPlain(p *engine.Process) {
	for !j.haveEnd {
		p.Passivate()

		if p.Interrupted() {
			if j.abortRequested {
				j.onAbort()
				return
			}
			continue
		}

		j.onExecute()
		ret := j.mdl.GetRet(j)

		for ret > 0 {
			p.Hold(ret)

			if !p.Interrupted() {
				ret = j.mdl.GetRet(j)
				continue
			}
			if j.abortRequested {
				j.onAbort()
				return
			}
			j.onPreempted()
			break
		}

		if ret <= 0 {
			j.onTerminated()
		}
	}
}

// runMC is the MC loop, a direct translation of MCJob.activate_job
// (spec.md §4.3): every Hold races ret against rwcet, and exhausting rwcet
// without completion triggers a mode switch instead of termination.
func (j *Job) runMC(p *engine.Process) {
	mc, _ := j.mdl.(etm.MCModel)
	for !j.haveEnd {
		p.Passivate()

		if p.Interrupted() {
			if j.abortRequested {
				j.onAbort()
				return
			}
			continue
		}

		j.onExecute()
		ret := j.mdl.GetRet(j)
		rwcet := mc.GetRWCET(j)

		for ret > 0 {
			p.Hold(minCycles(ceilNonNeg(ret), ceilNonNeg(rwcet)))

			if !p.Interrupted() {
				ret = j.mdl.GetRet(j)
				rwcet = mc.GetRWCET(j)

				switch {
				case clock.IsCloseToZero(ret):
					// falls through to the ret<=0 check below
				case clock.IsCloseToZero(rwcet):
					j.onModeSwitch(task.HI)
					rwcet = mc.GetRWCET(j)
				}
				continue
			}
			if j.abortRequested {
				j.onAbort()
				return
			}
			j.onPreempted()
			break
		}

		if ret <= 0 {
			j.onTerminated()
		}
	}
}

func (j *Job) onModeSwitch(level task.CritLevel) {
	j.cpu.Scheduler().SetCriticalityMode(level.String())
	j.bc.BroadcastModeSwitch(j, level)
	j.sink.JobEvent(monitor.JobEvent{At: j.eng.Now(), Kind: monitor.JobOverran, TaskName: j.task.Name, JobID: j.id, ProcID: j.cpu.Index, Criticality: j.critString()})
	j.cpu.Scheduler().MonitorModeSwitchUp(j.cpu, j.eng.Now())
}

func ceilNonNeg(c clock.Cycles) clock.Cycles {
	if c < 0 {
		return 0
	}
	return c
}

func minCycles(a, b clock.Cycles) clock.Cycles {
	return clock.Cycles(math.Min(float64(a), float64(b)))
}
