package query

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a required field is absent.
var ErrMissingField = errors.New("missing required field")

// UnknownTypeError is returned when a discriminator names no known variant.
type UnknownTypeError struct {
	Family string
	Type   string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown %s type %q", e.Family, e.Type)
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
