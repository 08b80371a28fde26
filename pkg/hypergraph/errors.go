package hypergraph

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDuplicateID       = errors.New("duplicate identifier")
	ErrUnknownID         = errors.New("unknown identifier")
	ErrVetoed            = errors.New("mutation vetoed")
	ErrReservedKey       = errors.New("reserved property key")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrGraphMismatch     = errors.New("element belongs to another graph")
	ErrNotIncident       = errors.New("element is not incident to vertex")
	errFactoryReturnedID = errors.New("factory returned element with wrong identifier")
)

// DuplicateIDError reports an explicit or generated identifier that is
// already registered for its element kind. It matches ErrDuplicateID.
type DuplicateIDError struct {
	Kind Kind
	ID   any
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate identifier: %s %v already exists", e.Kind, e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// VetoError is returned when an observer rejects a pending mutation.
//
// A veto is an expected outcome, not a failure of the engine. Callers tell it
// apart from hard errors with errors.Is(err, ErrVetoed). The observer's own
// error is reachable through errors.Is / errors.As as well.
type VetoError struct {
	Kind   Kind
	ID     any
	Label  string
	Reason error
}

func (e *VetoError) Error() string {
	return fmt.Sprintf("%s %v (%s) vetoed: %v", e.Kind, e.ID, e.Label, e.Reason)
}

func (e *VetoError) Unwrap() []error { return []error{ErrVetoed, e.Reason} }

func unknownID(kind Kind, id any) error {
	return fmt.Errorf("%w: %s %v", ErrUnknownID, kind, id)
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
