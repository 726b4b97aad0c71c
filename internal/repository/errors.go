package repository

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("bot not found")

// ValidationError reports a rejected bot field. It is always returned to the
// single requester and never tears anything down.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
