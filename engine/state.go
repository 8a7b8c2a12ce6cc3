package engine

import "sync/atomic"

// State is the lifecycle state of an Engine.
//
// State Machine:
//
//	StateIdle (0) -> StateRunning (1)        [Run()]
//	StateRunning (1) -> StateTerminating (2) [Shutdown()]
//	StateTerminating (2) -> StateTerminated (3) [Run() returns]
//	StateRunning (1) -> StateTerminated (3)  [horizon reached / event queue drained]
//
// Unlike the teacher's FastState (eventloop/state.go), there is no
// StateSleeping: the engine never blocks on real I/O, so "sleeping" has no
// analogue here. Transitions use CompareAndSwap the same way, since the
// engine's Run loop and a Shutdown call from another goroutine may race.
type State uint32

const (
	// StateIdle indicates the engine has been constructed but Run has not
	// been called.
	StateIdle State = iota
	// StateRunning indicates the engine is actively dispatching events.
	StateRunning
	// StateTerminating indicates Shutdown was requested but Run has not
	// yet observed it.
	StateTerminating
	// StateTerminated is the terminal state.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// atomicState is a small CAS-based state holder, patterned on
// eventloop.FastState.
type atomicState struct {
	v atomic.Uint32
}

func newAtomicState(initial State) *atomicState {
	s := &atomicState{}
	s.v.Store(uint32(initial))
	return s
}

func (s *atomicState) Load() State {
	return State(s.v.Load())
}

func (s *atomicState) Store(state State) {
	s.v.Store(uint32(state))
}

func (s *atomicState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
