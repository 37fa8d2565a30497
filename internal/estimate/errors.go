package estimate

import (
	"errors"
	"fmt"
)

// Kind classifies why an input was rejected.
type Kind string

const (
	KindEmptyOrNonNumeric Kind = "EmptyOrNonNumeric"
	KindOutOfRange        Kind = "OutOfRange"
	KindUnknownValue      Kind = "UnknownValue"
	KindInvalidDate       Kind = "InvalidDate"
	KindInvalidInput      Kind = "InvalidInput"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports a rejected field. Message is safe to show next to
// the offending form field.
type ValidationError struct {
	Field   string
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Kind)
}

func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	}
	return false
}

func newValidationError(field string, kind Kind, message string) *ValidationError {
	return &ValidationError{Field: field, Kind: kind, Message: message}
}

// Details flattens a validation error into the field -> kind map used in
// HTTP error payloads. It returns nil for any other error.
func Details(err error) map[string]string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return map[string]string{ve.Field: string(ve.Kind)}
}
