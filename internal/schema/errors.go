package schema

import "fmt"

// MissingFieldError reports a required key absent (or empty) from a row or
// creation payload.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// TypeMismatchError reports a value whose runtime type disagrees with the
// field's declared type.
type TypeMismatchError struct {
	Field string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q has wrong type", e.Field)
}

// ValidationError reports a creation payload failing a business rule that
// is not a plain missing/mistyped field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
