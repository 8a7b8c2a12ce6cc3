// Package engine implements the simulator's discrete-event kernel: an
// integer-cycle virtual clock and the four cooperative primitives jobs use
// to drive it (spec §4.1, §5).
//
// The original simulator (original_source/simso) drives its Job processes
// with SimPy generator coroutines (`yield hold, self, d` / `yield
// passivate, self`). Go has no generator coroutines, so engine.Process
// reimplements the same handoff protocol with a goroutine per process and
// a pair of unbuffered channels: at any instant exactly one goroutine is
// "active" — either the Engine's Run loop, or the single Process it just
// resumed — mirroring the teacher's single-threaded reactor loop
// (eventloop.Loop.run/tick) even though OS goroutines are used for
// convenience. No mutex guards the event heap: the turn-taking protocol
// itself is the synchronization, exactly as spec §5 requires.
package engine

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/joeycumines/go-mcsim/clock"
)

// Runnable is the body of a cooperative process. It receives the Process
// handle it is running as, and must use Hold/Passivate to yield control
// back to the engine at every suspension point.
type Runnable func(p *Process)

// processState tracks where a Process is in its own lifecycle, for
// diagnostics and to reject invalid Activate/Interrupt calls.
type processState uint8

const (
	processCreated processState = iota
	processPassivated
	processHolding
	processDone
)

// Process is a cooperative coroutine, one per released Job (spec §3
// "Job") or per Task's release loop.
type Process struct {
	name   string
	engine *Engine

	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg

	state       processState
	token       uint64        // bumped on every new scheduled hold; invalidates stale heap entries
	scheduledAt clock.Cycles // set while state == processHolding; the cycle its Hold is due to expire

	interrupted   bool
	interruptLeft clock.Cycles
}

// Name returns the diagnostic name the process was spawned with.
func (p *Process) Name() string { return p.name }

// Interrupted reports whether the most recent resumption was due to an
// Interrupt rather than a Hold expiring or an Activate.
func (p *Process) Interrupted() bool { return p.interrupted }

// InterruptLeft returns the residual cycles of the Hold that was cancelled
// by the most recent Interrupt. It is only meaningful immediately after a
// resumption for which Interrupted() is true.
func (p *Process) InterruptLeft() clock.Cycles { return p.interruptLeft }

type resumeMsg struct {
	interrupted   bool
	interruptLeft clock.Cycles
}

type yieldKind uint8

const (
	yieldHold yieldKind = iota
	yieldPassivate
	yieldDone
)

type yieldMsg struct {
	kind yieldKind
	dur  clock.Cycles
}

// Hold suspends the calling process for exactly d cycles (spec §4.1). It
// must be called from within the process's own Runnable. If the Hold is
// cancelled by an Interrupt before it elapses, Hold returns early;
// p.Interrupted() and p.InterruptLeft() report the residual.
func (p *Process) Hold(d clock.Cycles) {
	if d < 0 {
		d = 0
	}
	p.yieldCh <- yieldMsg{kind: yieldHold, dur: d}
	msg := <-p.resumeCh
	p.interrupted = msg.interrupted
	p.interruptLeft = msg.interruptLeft
}

// Passivate suspends the calling process indefinitely, until another party
// calls Activate or Interrupt on it (spec §4.1).
func (p *Process) Passivate() {
	p.yieldCh <- yieldMsg{kind: yieldPassivate}
	msg := <-p.resumeCh
	p.interrupted = msg.interrupted
	p.interruptLeft = msg.interruptLeft
}

// event is one entry in the engine's event heap: either the expiry of a
// Hold, or an immediate (same-cycle) Activate/Interrupt resumption.
type event struct {
	at            clock.Cycles
	seq           uint64
	proc          *Process
	token         uint64
	interrupted   bool
	interruptLeft clock.Cycles
}

// eventHeap is a min-heap ordered by (at, seq), giving same-cycle events a
// stable FIFO tie-break (spec §4.1 "Ordering contract"), the same
// container/heap pattern the teacher uses for its timerHeap
// (eventloop/loop.go).
type eventHeap []event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Engine is the deterministic single-threaded discrete-event scheduler
// (spec §4.1).
type Engine struct {
	now     clock.Cycles
	horizon clock.Cycles
	heap    eventHeap
	seq     uint64
	state   *atomicState
	procs   []*Process
}

// New constructs an Engine with the given simulation horizon, in cycles.
func New(horizon clock.Cycles) (*Engine, error) {
	if horizon <= 0 {
		return nil, ErrHorizonNotPositive
	}
	return &Engine{
		horizon: horizon,
		state:   newAtomicState(StateIdle),
	}, nil
}

// Now returns the engine's current simulated time, in cycles.
func (e *Engine) Now() clock.Cycles { return e.now }

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state.Load() }

// Spawn creates a new cooperative process. The process does not begin
// executing body until it is first resumed via Activate.
func (e *Engine) Spawn(name string, body Runnable) *Process {
	p := &Process{
		name:     name,
		engine:   e,
		resumeCh: make(chan resumeMsg),
		yieldCh:  make(chan yieldMsg),
		state:    processCreated,
	}
	e.procs = append(e.procs, p)
	go func() {
		msg := <-p.resumeCh
		p.interrupted = msg.interrupted
		p.interruptLeft = msg.interruptLeft
		body(p)
		p.yieldCh <- yieldMsg{kind: yieldDone}
	}()
	return p
}

// Activate resumes a passivated or not-yet-started process at the current
// simulated instant, with Interrupted() false on resumption (spec §4.1).
// Activating a process that is currently holding or already finished is a
// no-op. Each Activate of a not-yet-started or passivated process queues
// its own resumption, so activating it twice resumes it twice.
func (e *Engine) Activate(p *Process) {
	if p.state == processHolding || p.state == processDone {
		return
	}
	e.seq++
	heap.Push(&e.heap, event{at: e.now, seq: e.seq, proc: p, token: p.token})
}

// Interrupt cancels any outstanding suspension on p — a Hold or a
// Passivate — and resumes it at the current simulated instant with
// Interrupted() true. For a held process, InterruptLeft() is the
// unelapsed residual of the cancelled Hold (spec §4.1); for a passivated
// process there is no residual to report, so InterruptLeft() is 0. This
// generalizes the Hold-only wording of spec §4.1 to match how the
// original simulator's underlying coroutine runtime actually behaves: a
// SimPy `Process.interrupt()` raises its Interrupt at whichever yield
// point the target is suspended at, not only a `hold` — required so an
// external abort decision (spec §4.2 transition 5, §7
// "DeadlineOverrun") can reach a job that is waiting in the ready list
// rather than currently running. It is a no-op if p has no outstanding
// suspension (e.g. it already terminated in the same cycle — spec §8
// boundary behavior).
func (e *Engine) Interrupt(p *Process) {
	switch p.state {
	case processHolding:
		residual := p.scheduledAt - e.now
		if residual < 0 {
			residual = 0
		}
		p.token++ // invalidate the pending heap entry for the old Hold
		e.seq++
		heap.Push(&e.heap, event{
			at:            e.now,
			seq:           e.seq,
			proc:          p,
			token:         p.token,
			interrupted:   true,
			interruptLeft: residual,
		})
	case processPassivated:
		p.token++
		e.seq++
		heap.Push(&e.heap, event{
			at:          e.now,
			seq:         e.seq,
			proc:        p,
			token:       p.token,
			interrupted: true,
		})
	default:
		// processCreated (never resumed yet) or processDone: nothing to
		// cancel.
	}
}

// scheduledAt is set on a Process whenever the engine schedules its Hold
// expiry, so Interrupt can compute the residual.
func (p *Process) setScheduledAt(at clock.Cycles) { p.scheduledAt = at }

// Run drains the event queue until the horizon is reached, no events
// remain, or ctx is cancelled / Shutdown is called (spec §4.1
// "Termination").
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.TryTransition(StateIdle, StateRunning) {
		if e.state.Load() == StateTerminated {
			return ErrTerminated
		}
		return ErrAlreadyRunning
	}
	defer e.state.Store(StateTerminated)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if e.state.Load() == StateTerminating {
			return nil
		}

		if len(e.heap) == 0 {
			return nil
		}

		ev := heap.Pop(&e.heap).(event)
		if ev.proc.token != ev.token {
			// Stale entry left behind by an Interrupt that cancelled this
			// Hold; silently discard it.
			continue
		}
		if ev.at > e.horizon {
			return nil
		}
		e.now = ev.at

		e.resume(ev.proc, ev.interrupted, ev.interruptLeft)
	}
}

// resume hands control to p for exactly one turn: it sends the resumption
// signal, then blocks until p reaches its next suspension point (Hold,
// Passivate, or completion), scheduling the next event as needed.
func (e *Engine) resume(p *Process, interrupted bool, interruptLeft clock.Cycles) {
	p.state = processCreated // transient, overwritten below once we see the yield
	p.resumeCh <- resumeMsg{interrupted: interrupted, interruptLeft: interruptLeft}

	msg := <-p.yieldCh
	switch msg.kind {
	case yieldHold:
		p.state = processHolding
		at := e.now + clock.CeilDuration(msg.dur)
		p.setScheduledAt(at)
		e.seq++
		heap.Push(&e.heap, event{at: at, seq: e.seq, proc: p, token: p.token})
	case yieldPassivate:
		p.state = processPassivated
	case yieldDone:
		p.state = processDone
	default:
		panic(fmt.Sprintf("engine: unknown yield kind %d", msg.kind))
	}
}

// Shutdown requests that Run stop at the start of its next iteration,
// without waiting for the event queue to drain.
func (e *Engine) Shutdown() {
	for {
		cur := e.state.Load()
		if cur == StateTerminated || cur == StateTerminating {
			return
		}
		if e.state.TryTransition(cur, StateTerminating) {
			return
		}
	}
}
