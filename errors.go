package zproc

import "github.com/pkg/errors"

// Sentinel errors a caller can match with errors.Is.
var (
	// ErrAlreadyRunning is returned by Run when a previous run bound to the
	// same Supervisor has not yet completed.
	ErrAlreadyRunning = errors.New("zproc: supervisor already running")

	// ErrNotStarted means no run is in flight. No function in this module
	// returns it: FeatureProcess.Stop/Kill and signal.Send with a NoHandle
	// pid are no-ops instead.
	ErrNotStarted = errors.New("zproc: no run in flight")

	// ErrConflictingBinding is returned when an Option set binds a second
	// producer or a second consumer to the same descriptor handle, or
	// passes Close for a handle that already has a binding.
	ErrConflictingBinding = errors.New("zproc: conflicting descriptor binding")

	// ErrEmptyArguments is returned by Run when argv has no elements.
	ErrEmptyArguments = errors.New("zproc: arguments must include argv[0]")
)
