// Package sched implements the pluggable scheduling policies of spec.md
// §4.5: a plain (non-MC) EDF policy and the EDF-VD Mixed-Criticality
// policy, grounded on original_source/simso/schedulers/EDF_VD_mono.py.
package sched

import (
	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/proc"
)

// EDF is the plain Earliest-Deadline-First policy used in spec.md §8
// scenario 2. It carries no Mixed-Criticality state; CriticalityMode
// always reports "LO".
type EDF struct {
	ready []proc.JobHandle
}

// NewEDF constructs a plain EDF scheduler.
func NewEDF() *EDF { return &EDF{} }

func (s *EDF) Init([]*proc.Processor) error { return nil }

func (s *EDF) OnActivate(job proc.JobHandle) {
	s.ready = append(s.ready, job)
}

func (s *EDF) OnTerminated(job proc.JobHandle) {
	s.ready = removeJob(s.ready, job)
}

func (s *EDF) Schedule(cpu *proc.Processor) proc.JobHandle {
	return pickEDF(s.ready)
}

func (s *EDF) CriticalityMode() string                          { return "LO" }
func (s *EDF) SetCriticalityMode(string)                        {}
func (s *EDF) MonitorModeSwitchUp(*proc.Processor, clock.Cycles) {}
