package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ErrImmutable marks an attempt to edit signed content. This is a
// policy violation, not a cryptographic failure.
var ErrImmutable = fmt.Errorf("signed content is immutable")

// ErrVerification is the uniform rejection for any signature or token
// check. Callers must not attach which specific check failed.
var ErrVerification = fmt.Errorf("verification failed")

// ErrInvalidInput marks malformed statement fields, rejected before any
// signing or verification is attempted.
var ErrInvalidInput = fmt.Errorf("invalid input")
