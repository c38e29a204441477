package apierr

import (
	"errors"
	"fmt"
)

// ValidationError marks bad caller input: empty required fields,
// out-of-range numbers, malformed dates. Handlers map it to 400,
// everything else to 404 (not found sentinels) or 500.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
