package problem

import "errors"

// Sentinel error kinds. The Problem Builder and parameter validator wrap
// these with fmt.Errorf("...: %w", ErrX, ...) to add the violated-invariant
// detail; callers dispatch on errors.Is.
var (
	// ErrInvalidNetwork is raised by the Problem Builder when the network
	// snapshot violates a structural invariant (bad coordinates, negative
	// capacity, uncovered demand, unknown test type, staff_req > staff_count,
	// proc_time out of range).
	ErrInvalidNetwork = errors.New("invalid network")

	// ErrInvalidParameters is raised by the parameter validator before a
	// scenario is ever admitted.
	ErrInvalidParameters = errors.New("invalid parameters")
)
