package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/monitor"
	"github.com/joeycumines/go-mcsim/proc"
	"github.com/joeycumines/go-mcsim/task"
)

type fakeJob struct {
	id         uint64
	taskName   string
	deadline   clock.Cycles
	activation clock.Cycles
	crit       string
}

func (j *fakeJob) ID() uint64                  { return j.id }
func (j *fakeJob) TaskName() string             { return j.taskName }
func (j *fakeJob) Resume()                      {}
func (j *fakeJob) Preempt()                      {}
func (j *fakeJob) Deadline() clock.Cycles       { return j.deadline }
func (j *fakeJob) SetDeadline(d clock.Cycles)   { j.deadline = d }
func (j *fakeJob) ActivationDate() clock.Cycles { return j.activation }
func (j *fakeJob) Criticality() string          { return j.crit }

func TestPickEDF(t *testing.T) {
	assert.Nil(t, pickEDF(nil))

	a := &fakeJob{id: 1, deadline: 100}
	b := &fakeJob{id: 2, deadline: 50}
	c := &fakeJob{id: 3, deadline: 50}

	assert.Equal(t, proc.JobHandle(b), pickEDF([]proc.JobHandle{a, b, c})) // b wins: lower deadline, lower id than c
}

func TestEDF_Lifecycle(t *testing.T) {
	s := NewEDF()
	require.NoError(t, s.Init(nil))

	a := &fakeJob{id: 1, deadline: 100}
	b := &fakeJob{id: 2, deadline: 50}
	s.OnActivate(a)
	s.OnActivate(b)

	assert.Equal(t, proc.JobHandle(b), s.Schedule(nil))

	s.OnTerminated(b)
	assert.Equal(t, proc.JobHandle(a), s.Schedule(nil))

	assert.Equal(t, "LO", s.CriticalityMode())
}

func mcTask(t *testing.T, name string, period, deadline, wcet, wcetHi int64, crit task.CritLevel) *task.Task {
	rate, _ := clock.NewRate(1000)
	tk, err := task.New(task.Config{
		Name: name, PeriodMs: float64(period), DeadlineMs: float64(deadline),
		WCETMs: float64(wcet), WCETHiMs: float64(wcetHi), Criticality: crit, MC: true,
	}, rate)
	require.NoError(t, err)
	return tk
}

func TestNewEDFVD_RejectsNonMC(t *testing.T) {
	rate, _ := clock.NewRate(1000)
	nonMC, err := task.New(task.Config{Name: "T", PeriodMs: 10, DeadlineMs: 10, WCETMs: 1}, rate)
	require.NoError(t, err)

	_, err = NewEDFVD([]*task.Task{nonMC}, monitor.NopSink{})
	assert.Error(t, err)
}

func TestEDFVD_Init_RequiresUniprocessor(t *testing.T) {
	hi := mcTask(t, "T1", 10, 10, 2, 5, task.HI)
	s, err := NewEDFVD([]*task.Task{hi}, monitor.NopSink{})
	require.NoError(t, err)

	assert.Error(t, s.Init([]*proc.Processor{proc.New("a", 0, 1, s), proc.New("b", 1, 1, s)}))
	assert.NoError(t, s.Init([]*proc.Processor{proc.New("a", 0, 1, s)}))
}

func TestEDFVD_ScalesDeadlineWhenNeeded(t *testing.T) {
	// U_lo^lo = wcet_lo/period for the LO task; U_lo^hi and U_hi^hi as
	// configured so that U_lo^lo + U_hi^hi > 1, forcing VD scaling.
	lo := mcTask(t, "LO1", 20, 20, 10, 10, task.LO) // U_lo^lo contribution: 10/20=0.5
	hi := mcTask(t, "HI1", 20, 20, 4, 16, task.HI)  // U_lo^hi: 4/20=0.2; U_hi^hi: 16/20=0.8

	s, err := NewEDFVD([]*task.Task{lo, hi}, monitor.NopSink{})
	require.NoError(t, err)
	require.NoError(t, s.Init([]*proc.Processor{proc.New("cpu0", 0, 1, s)}))

	// U_lo^lo(0.5) + U_hi^hi(0.8) = 1.3 > 1: VD scaling is needed.
	assert.True(t, s.needsVD())

	// x = U_lo^hi / (1 - U_lo^lo) = 0.2 / 0.5 = 0.4
	x := s.vdCoeff()
	assert.Equal(t, "0.4", x.StringFixed(1))

	job := &fakeJob{id: 1, taskName: "HI1", deadline: 20000, activation: 0, crit: "HI"}
	s.OnActivate(job)

	// scaled = activation(0) + x(0.4) * (deadline(20000) - activation(0)) = 8000
	assert.Equal(t, clock.Cycles(8000), job.Deadline())
}

func TestEDFVD_DropsLowerCriticalityAfterModeSwitch(t *testing.T) {
	lo := mcTask(t, "LO1", 20, 20, 10, 10, task.LO)
	hi := mcTask(t, "HI1", 20, 20, 4, 16, task.HI)

	sink := &capturingSink{}
	s, err := NewEDFVD([]*task.Task{lo, hi}, sink)
	require.NoError(t, err)
	require.NoError(t, s.Init([]*proc.Processor{proc.New("cpu0", 0, 1, s)}))

	s.SetCriticalityMode("HI")
	job := &fakeJob{id: 1, taskName: "LO1", deadline: 20000, crit: "LO"}
	s.OnActivate(job)

	require.Len(t, sink.scheduler, 1)
	assert.Equal(t, monitor.DroppedJob, sink.scheduler[0].Kind)
	assert.Equal(t, proc.JobHandle(nil), s.Schedule(nil))
}

type capturingSink struct {
	scheduler []monitor.SchedulerEvent
}

func (c *capturingSink) JobEvent(monitor.JobEvent)             {}
func (c *capturingSink) SchedulerEvent(e monitor.SchedulerEvent) { c.scheduler = append(c.scheduler, e) }
