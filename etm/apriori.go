package etm

import (
	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/simerr"
	"github.com/joeycumines/go-mcsim/task"
)

// Apriori draws et round-robin from a pre-supplied positive trace
// (original_source/simso/core/etm/Apriori.py). The original always
// extends the MC abstract base, so Apriori is MC-capable unconditionally
// here too; a non-MC task simply never triggers a mode switch.
type Apriori struct {
	clk      Clock
	trace    []clock.Cycles
	idx      int // process-wide round-robin index, incremented unconditionally
	state    map[uint64]*execState
	currWCET map[uint64]clock.Cycles
}

// NewApriori validates trace (spec.md §7 "empty Apriori trace,
// non-positive trace value" are ConfigurationErrors) and constructs the
// model.
func NewApriori(clk Clock, trace []clock.Cycles) (*Apriori, error) {
	if len(trace) == 0 {
		return nil, &simerr.ConfigurationError{Field: "apriori.trace", Message: "must not be empty"}
	}
	for _, v := range trace {
		if v <= 0 {
			return nil, &simerr.ConfigurationError{Field: "apriori.trace", Message: "all execution times must be strictly positive"}
		}
	}
	cp := make([]clock.Cycles, len(trace))
	copy(cp, trace)
	return &Apriori{
		clk:      clk,
		trace:    cp,
		state:    make(map[uint64]*execState),
		currWCET: make(map[uint64]clock.Cycles),
	}, nil
}

func (m *Apriori) Init() error { return nil }

func (m *Apriori) OnActivate(job JobHandle) {
	m.state[job.ID()] = &execState{handle: job, et: m.trace[m.idx%len(m.trace)]}
	m.idx++
	m.currWCET[job.ID()] = job.WCET()
}

func (m *Apriori) OnExecute(job JobHandle) {
	s := lookupState(m.state, job.ID())
	s.executing = true
	s.executeStart = m.clk.Now()
}

func (m *Apriori) OnPreempted(job JobHandle) {
	lookupState(m.state, job.ID()).updateExecuted(m.clk.Now(), job.CPUSpeed())
}

func (m *Apriori) OnTerminated(job JobHandle) {
	m.OnPreempted(job)
	delete(m.state, job.ID())
	delete(m.currWCET, job.ID())
}

func (m *Apriori) OnAbort(job JobHandle) {
	m.OnPreempted(job)
	delete(m.state, job.ID())
	delete(m.currWCET, job.ID())
}

func (m *Apriori) GetExecuted(job JobHandle) clock.Cycles {
	return lookupState(m.state, job.ID()).getExecuted(m.clk.Now(), job.CPUSpeed())
}

func (m *Apriori) GetRet(job JobHandle) clock.Cycles {
	s := lookupState(m.state, job.ID())
	return getRet(s.et, m.GetExecuted(job))
}

func (m *Apriori) Update() {
	now := m.clk.Now()
	for _, s := range m.state {
		s.updateExecuted(now, s.handle.CPUSpeed())
	}
}

func (m *Apriori) GetRWCET(job JobHandle) clock.Cycles {
	return m.currWCET[job.ID()] - m.GetExecuted(job)
}

func (m *Apriori) OnModeSwitch(job JobHandle, level task.CritLevel) {
	if level == task.HI {
		m.currWCET[job.ID()] = job.WCETHi()
	} else {
		m.currWCET[job.ID()] = job.WCET()
	}
}
