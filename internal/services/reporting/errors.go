package reporting

import "errors"

var (
	// ErrNotFound means the referenced batch does not exist.
	ErrNotFound = errors.New("reporting: batch not found")
	// ErrStateTransition means the requested action is illegal for the
	// batch's current status, or a concurrent caller won the update.
	ErrStateTransition = errors.New("reporting: illegal state transition")
	// ErrBadAction means the action string is outside the known set.
	ErrBadAction = errors.New("reporting: bad action")
)
