package engine

import "errors"

// Sentinel errors returned by Run, patterned on the teacher's sentinel
// error block at the top of eventloop/loop.go.
var (
	// ErrAlreadyRunning is returned when Run is called on an engine that is
	// already running.
	ErrAlreadyRunning = errors.New("engine: already running")

	// ErrTerminated is returned when operations are attempted on an engine
	// that has already finished its run.
	ErrTerminated = errors.New("engine: already terminated")

	// ErrHorizonNotPositive is returned by New when the configured horizon
	// is not a positive number of cycles.
	ErrHorizonNotPositive = errors.New("engine: horizon must be positive")
)
