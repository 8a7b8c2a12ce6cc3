package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobEventKind_String(t *testing.T) {
	cases := map[JobEventKind]string{
		JobActivated:  "activated",
		JobExecuted:   "executed",
		JobPreempted:  "preempted",
		JobTerminated: "terminated",
		JobAborted:    "aborted",
		JobOverran:    "overran",
		JobEventKind(99): "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestSchedulerEventKind_Ordering(t *testing.T) {
	// Values mirror original_source/simso/core/SchedulerEvent.py exactly.
	assert.Equal(t, SchedulerEventKind(1), BeginSchedule)
	assert.Equal(t, SchedulerEventKind(2), EndSchedule)
	assert.Equal(t, SchedulerEventKind(3), BeginActivate)
	assert.Equal(t, SchedulerEventKind(4), EndActivate)
	assert.Equal(t, SchedulerEventKind(5), BeginTerminate)
	assert.Equal(t, SchedulerEventKind(6), EndTerminate)
	assert.Equal(t, SchedulerEventKind(7), ModeSwitchUp)
	assert.Equal(t, SchedulerEventKind(8), ModeSwitchDown)
	assert.Equal(t, SchedulerEventKind(9), DroppedJob)
}

func TestNopSink(t *testing.T) {
	var s Sink = NopSink{}
	s.JobEvent(JobEvent{})
	s.SchedulerEvent(SchedulerEvent{})
}

type recordingSink struct {
	jobs  []JobEvent
	sched []SchedulerEvent
}

func (r *recordingSink) JobEvent(e JobEvent)             { r.jobs = append(r.jobs, e) }
func (r *recordingSink) SchedulerEvent(e SchedulerEvent) { r.sched = append(r.sched, e) }

func TestMultiSink_FanOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := MultiSink{a, b}

	m.JobEvent(JobEvent{JobID: 1})
	m.SchedulerEvent(SchedulerEvent{Kind: DroppedJob})

	assert.Len(t, a.jobs, 1)
	assert.Len(t, b.jobs, 1)
	assert.Len(t, a.sched, 1)
	assert.Len(t, b.sched, 1)
}
