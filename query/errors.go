package query

import (
	"errors"
	"fmt"
)

// Sentinel errors for query translation.
var (
	// ErrUnsupportedOperator indicates a filter operator the translators do not know.
	ErrUnsupportedOperator = errors.New("query: unsupported operator")
	// ErrInvalidOption indicates a malformed filter, sort or pagination option.
	ErrInvalidOption = errors.New("query: invalid option")
)

// UnsupportedOperatorError is returned when a predicate uses an unknown operator.
type UnsupportedOperatorError struct {
	Field string
	Op    Operator
}

// Error implements the error interface.
func (e *UnsupportedOperatorError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("query: unsupported operator %q on field %q", string(e.Op), e.Field)
	}
	return fmt.Sprintf("query: unsupported operator %q", string(e.Op))
}

// Is reports whether the target matches the sentinel error for UnsupportedOperatorError.
func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// InvalidOptionError is returned for malformed options.
type InvalidOptionError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *InvalidOptionError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("query: invalid option %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("query: invalid option %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for InvalidOptionError.
func (e *InvalidOptionError) Is(target error) bool {
	return target == ErrInvalidOption
}

// IsUnsupportedOperator reports whether the error is an UnsupportedOperatorError.
func IsUnsupportedOperator(err error) bool {
	var e *UnsupportedOperatorError
	return errors.As(err, &e)
}

// IsInvalidOption reports whether the error is an InvalidOptionError.
func IsInvalidOption(err error) bool {
	var e *InvalidOptionError
	return errors.As(err, &e)
}
