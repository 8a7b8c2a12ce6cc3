// Package etm implements the Execution-Time Model family (spec.md §4.6):
// the per-job oracle that tells the Job life cycle how much simulated work
// remains. Grounded on original_source/simso/core/etm/*.py.
package etm

import (
	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/simerr"
	"github.com/joeycumines/go-mcsim/task"
)

// Clock is the minimal time source an ETM needs; sim.Simulation and
// engine.Engine both satisfy it.
type Clock interface {
	Now() clock.Cycles
}

// JobHandle is the narrow view of a Job an ETM needs. job.Job implements
// this without etm importing job, avoiding an import cycle (job already
// imports etm for the Model type).
type JobHandle interface {
	ID() uint64
	WCET() clock.Cycles     // LO-mode WCET, in cycles
	WCETHi() clock.Cycles   // HI-mode WCET, in cycles; zero if non-MC
	ACET() clock.Cycles     // mean execution time, in cycles; only used by ACET
	ETStdDev() clock.Cycles // stddev, in cycles; only used by ACET
	CPUSpeed() float64
}

// Model is the contract every ETM variant implements (spec.md §4.6).
type Model interface {
	Init() error
	OnActivate(job JobHandle)
	OnExecute(job JobHandle)
	OnPreempted(job JobHandle)
	OnTerminated(job JobHandle)
	OnAbort(job JobHandle)
	GetExecuted(job JobHandle) clock.Cycles
	GetRet(job JobHandle) clock.Cycles
	Update()
}

// MCModel is implemented by every Mixed-Criticality-capable ETM
// (original_source/simso/core/etm/AbstractExecutionTimeModel.py's
// MCAbstractExecutionTimeModel).
type MCModel interface {
	Model
	GetRWCET(job JobHandle) clock.Cycles
	OnModeSwitch(job JobHandle, level task.CritLevel)
}

// execState is the per-job bookkeeping shared by every variant: a target
// et (cycles), an executed-so-far accumulator, and an in-flight execution
// start timestamp. It retains the job handle itself (not only its ID) so
// Update can force-flush in-flight progress using the job's current
// processor speed, mirroring the original iterating
// `self.on_execute_date.keys()` directly over job objects.
type execState struct {
	handle       JobHandle
	et           clock.Cycles
	executed     clock.Cycles
	executing    bool
	executeStart clock.Cycles
}

func (s *execState) updateExecuted(now clock.Cycles, speed float64) {
	if s.executing {
		elapsed := now - s.executeStart
		s.executed += clock.Cycles(float64(elapsed) * speed)
		s.executing = false
	}
}

func (s *execState) getExecuted(now clock.Cycles, speed float64) clock.Cycles {
	if !s.executing {
		return s.executed
	}
	elapsed := now - s.executeStart
	return s.executed + clock.Cycles(float64(elapsed)*speed)
}

// lookupState returns the per-job bookkeeping for id, or panics with a
// simerr.ProtocolViolation if none exists. Every ETM variant's state map
// is purged on terminate/abort (spec.md §3 "ETM state" invariant: "for
// every job in any ETM map, the job is active"), so a lookup miss means a
// caller asked an ETM about a job outside its life cycle — spec.md §7's
// "ETM asked about an unknown job", which is fatal rather than silently
// tolerated.
func lookupState(state map[uint64]*execState, id uint64) *execState {
	s, ok := state[id]
	if !ok {
		panic(&simerr.ProtocolViolation{Component: "etm", Message: "queried state for unknown or inactive job"})
	}
	return s
}

func getRet(et, executed clock.Cycles) clock.Cycles {
	r := et - executed
	if r < 0 {
		return 0
	}
	return r
}
