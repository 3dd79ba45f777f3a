package essay

import (
	"fmt"

	"github.com/pkg/errors"
)

// ServiceError is a failed call to the generation backend. It ends the
// submission; no essay is produced.
type ServiceError struct {
	Attempt int
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service error on attempt %d: %v", e.Attempt, e.Err)
}

// Unwrap returns the backend error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Cause returns the backend error for github.com/pkg/errors.Cause.
func (e *ServiceError) Cause() error {
	return e.Err
}

// IsServiceError reports whether err came from the generation backend.
func IsServiceError(err error) (ok bool) {
	var se *ServiceError
	ok = errors.As(err, &se)
	return ok
}
