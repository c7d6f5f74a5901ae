package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation a required parameter is missing or malformed.
	ErrValidation = errors.New("invalid parameters")
	// ErrNotFound the entity, or every entity in a collection, is absent.
	ErrNotFound = errors.New("not found")
	// ErrReferential the parent named by a create does not exist.
	ErrReferential = errors.New("referenced entity does not exist")
)

// ConflictError is returned when a create collides with an entity that
// already has the derived id. Existing holds that stored entity.
type ConflictError struct {
	Entity   string
	ID       string
	Existing interface{}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

func notFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
