package etm

import "github.com/joeycumines/go-mcsim/clock"

// WCET is the fixed-WCET execution-time model: every job runs for exactly
// its task's WCET (original_source/simso/core/etm/__init__.py registers
// this as "wcet"; WCET.py itself was not retrieved, so this is
// reconstructed directly from the shared ETM contract of
// AbstractExecutionTimeModel.py applied to a constant et).
type WCET struct {
	clk   Clock
	state map[uint64]*execState
}

func NewWCET(clk Clock) *WCET {
	return &WCET{clk: clk, state: make(map[uint64]*execState)}
}

func (m *WCET) Init() error { return nil }

func (m *WCET) OnActivate(job JobHandle) {
	m.state[job.ID()] = &execState{handle: job, et: job.WCET()}
}

func (m *WCET) OnExecute(job JobHandle) {
	s := lookupState(m.state, job.ID())
	s.executing = true
	s.executeStart = m.clk.Now()
}

func (m *WCET) OnPreempted(job JobHandle) {
	lookupState(m.state, job.ID()).updateExecuted(m.clk.Now(), job.CPUSpeed())
}

func (m *WCET) OnTerminated(job JobHandle) {
	m.OnPreempted(job)
	delete(m.state, job.ID())
}

func (m *WCET) OnAbort(job JobHandle) {
	m.OnPreempted(job)
	delete(m.state, job.ID())
}

func (m *WCET) GetExecuted(job JobHandle) clock.Cycles {
	return lookupState(m.state, job.ID()).getExecuted(m.clk.Now(), job.CPUSpeed())
}

func (m *WCET) GetRet(job JobHandle) clock.Cycles {
	s := lookupState(m.state, job.ID())
	return getRet(s.et, m.GetExecuted(job))
}

// Update force-flushes every in-flight execution timestamp into its
// executed accumulator, matching the original's update_executed: the
// execute timestamp is cleared, not re-armed, until the next OnExecute.
func (m *WCET) Update() {
	now := m.clk.Now()
	for _, s := range m.state {
		s.updateExecuted(now, s.handle.CPUSpeed())
	}
}
