package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned when no account exists for an identity.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDiscoveryNotFound is returned when an identity has no discovery
	// record yet.
	ErrDiscoveryNotFound = errors.New("discovery profile not found")
)

// StateError reports a service used outside its lifecycle, such as being
// built without its stores or called after Close. It is raised with panic
// and is not meant to be recovered.
type StateError struct {
	Op  string
	Msg string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid state in %s: %s", e.Op, e.Msg)
}

func stateViolation(op, msg string) {
	panic(&StateError{Op: op, Msg: msg})
}
