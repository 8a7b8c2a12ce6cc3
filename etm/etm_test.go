package etm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-mcsim/clock"
	"github.com/joeycumines/go-mcsim/simerr"
	"github.com/joeycumines/go-mcsim/task"
)

// fakeClock is a settable Clock for deterministic ETM tests.
type fakeClock struct{ now clock.Cycles }

func (c *fakeClock) Now() clock.Cycles { return c.now }

// fakeJob is a minimal JobHandle for ETM tests.
type fakeJob struct {
	id       uint64
	wcet     clock.Cycles
	wcetHi   clock.Cycles
	acet     clock.Cycles
	etStdDev clock.Cycles
	speed    float64
}

func (j fakeJob) ID() uint64            { return j.id }
func (j fakeJob) WCET() clock.Cycles    { return j.wcet }
func (j fakeJob) WCETHi() clock.Cycles  { return j.wcetHi }
func (j fakeJob) ACET() clock.Cycles    { return j.acet }
func (j fakeJob) ETStdDev() clock.Cycles { return j.etStdDev }
func (j fakeJob) CPUSpeed() float64     { return j.speed }

func TestWCET_Lifecycle(t *testing.T) {
	clk := &fakeClock{}
	m := NewWCET(clk)
	job := fakeJob{id: 1, wcet: 100, speed: 1}

	m.OnActivate(job)
	assert.Equal(t, clock.Cycles(100), m.GetRet(job))

	m.OnExecute(job)
	clk.now = 40
	assert.Equal(t, clock.Cycles(40), m.GetExecuted(job))
	assert.Equal(t, clock.Cycles(60), m.GetRet(job))

	m.OnPreempted(job)
	clk.now = 100 // time passes while preempted; executed must not advance
	assert.Equal(t, clock.Cycles(40), m.GetExecuted(job))

	m.OnExecute(job)
	clk.now = 160
	assert.Equal(t, clock.Cycles(100), m.GetExecuted(job))
	assert.Equal(t, clock.Cycles(0), m.GetRet(job))

	m.OnTerminated(job)
}

func TestWCET_CPUSpeedScaling(t *testing.T) {
	clk := &fakeClock{}
	m := NewWCET(clk)
	job := fakeJob{id: 1, wcet: 100, speed: 2}

	m.OnActivate(job)
	m.OnExecute(job)
	clk.now = 20
	assert.Equal(t, clock.Cycles(40), m.GetExecuted(job))
}

func TestWCET_Update(t *testing.T) {
	clk := &fakeClock{}
	m := NewWCET(clk)
	job := fakeJob{id: 1, wcet: 100, speed: 1}

	m.OnActivate(job)
	m.OnExecute(job)
	clk.now = 30
	m.Update()
	assert.Equal(t, clock.Cycles(30), m.GetExecuted(job))

	// Update flushes and clears the in-flight timestamp; advancing the
	// clock without a further OnExecute must not accrue more time.
	clk.now = 90
	assert.Equal(t, clock.Cycles(30), m.GetExecuted(job))
}

func TestACET_ClampedToWCET(t *testing.T) {
	clk := &fakeClock{}
	// A large positive stddev draw should clamp to WCET, never exceed it.
	rng := rand.New(rand.NewSource(1))
	m := NewACET(clk, rng)
	job := fakeJob{id: 1, wcet: 50, acet: 1000, etStdDev: 1000, speed: 1}

	m.OnActivate(job)
	m.OnExecute(job)
	clk.now = 1000
	assert.LessOrEqual(t, int64(m.state[1].et), int64(50))
}

func TestACET_DeterministicForSeed(t *testing.T) {
	clk1 := &fakeClock{}
	m1 := NewACET(clk1, rand.New(rand.NewSource(42)))
	clk2 := &fakeClock{}
	m2 := NewACET(clk2, rand.New(rand.NewSource(42)))

	job := fakeJob{id: 1, wcet: 100, acet: 50, etStdDev: 10, speed: 1}
	m1.OnActivate(job)
	m2.OnActivate(job)

	assert.Equal(t, m1.state[1].et, m2.state[1].et)
}

func TestMCACET_ModeSwitch(t *testing.T) {
	clk := &fakeClock{}
	m := NewMCACET(clk, rand.New(rand.NewSource(1)))
	job := fakeJob{id: 1, wcet: 20, wcetHi: 80, speed: 1}

	m.OnActivate(job)
	assert.Equal(t, clock.Cycles(20), m.GetRWCET(job))

	m.OnModeSwitch(job, task.HI)
	assert.Equal(t, clock.Cycles(80), m.GetRWCET(job))

	m.OnModeSwitch(job, task.LO)
	assert.Equal(t, clock.Cycles(20), m.GetRWCET(job))
}

func TestApriori_RoundRobinAndValidation(t *testing.T) {
	clk := &fakeClock{}

	_, err := NewApriori(clk, nil)
	assert.Error(t, err)

	_, err = NewApriori(clk, []clock.Cycles{10, 0})
	assert.Error(t, err)

	m, err := NewApriori(clk, []clock.Cycles{10, 20, 30})
	require.NoError(t, err)

	jobA := fakeJob{id: 1, wcet: 100, speed: 1}
	jobB := fakeJob{id: 2, wcet: 100, speed: 1}
	jobC := fakeJob{id: 3, wcet: 100, speed: 1}
	jobD := fakeJob{id: 4, wcet: 100, speed: 1}

	m.OnActivate(jobA)
	m.OnActivate(jobB)
	m.OnActivate(jobC)
	m.OnActivate(jobD)

	assert.Equal(t, clock.Cycles(10), m.GetRet(jobA))
	assert.Equal(t, clock.Cycles(20), m.GetRet(jobB))
	assert.Equal(t, clock.Cycles(30), m.GetRet(jobC))
	assert.Equal(t, clock.Cycles(10), m.GetRet(jobD)) // wraps around
}

func TestCache_AddsPenalty(t *testing.T) {
	clk := &fakeClock{}
	m := NewCache(clk, 15)
	job := fakeJob{id: 1, wcet: 50, speed: 1}

	m.OnActivate(job)
	assert.Equal(t, clock.Cycles(65), m.GetRet(job))
}

func TestFixedPenalty_AddsPenalty(t *testing.T) {
	clk := &fakeClock{}
	m := NewFixedPenalty(clk, 5)
	job := fakeJob{id: 1, wcet: 50, speed: 1}

	m.OnActivate(job)
	assert.Equal(t, clock.Cycles(55), m.GetRet(job))
}

// TestWCET_UnknownJob_PanicsWithProtocolViolation covers spec.md §7: an
// ETM asked about a job it never activated, or already purged on
// terminate/abort, is a fatal invariant violation, not a silent zero.
func TestWCET_UnknownJob_PanicsWithProtocolViolation(t *testing.T) {
	clk := &fakeClock{}
	m := NewWCET(clk)
	job := fakeJob{id: 1, wcet: 100, speed: 1}

	defer func() {
		r := recover()
		require.NotNil(t, r)
		var pv *simerr.ProtocolViolation
		require.ErrorAs(t, r.(error), &pv)
	}()
	m.GetRet(job)
}

func TestRegistry_New(t *testing.T) {
	clk := &fakeClock{}

	m, err := New("wcet", clk, Options{})
	require.NoError(t, err)
	assert.IsType(t, &WCET{}, m)

	m, err = New("apriori", clk, Options{Trace: []clock.Cycles{5}})
	require.NoError(t, err)
	assert.IsType(t, &Apriori{}, m)

	_, err = New("nonexistent", clk, Options{})
	assert.Error(t, err)
}
