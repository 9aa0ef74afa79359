package domain

import "fmt"

// DuplicateIDError reports an id collision on create or rename.
type DuplicateIDError struct {
	Entity EntityType
	ID     string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// NotFoundError reports an operation on a missing entity.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidStateError reports an operation that is not legal in the entity's
// current state, such as cancelling a paid invoice.
type InvalidStateError struct {
	Message string
}

func (e InvalidStateError) Error() string {
	return e.Message
}

// UnknownOperationError reports a dispatch miss on an unrecognized operation kind.
type UnknownOperationError struct {
	Kind string
}

func (e UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Kind)
}
