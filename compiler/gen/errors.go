package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Each error type of this package matches one of these with errors.Is.
var (
	ErrInvalidDefinition = errors.New("collectiongen: invalid definition")
	ErrMissingConfig     = errors.New("collectiongen: missing configuration")
	ErrGenerationFailed  = errors.New("collectiongen: generation failed")
	ErrWriteFailed       = errors.New("collectiongen: write failed")
)

// ValidationError reports a collection or field definition that cannot be
// generated. Field is empty for collection level problems.
type ValidationError struct {
	Collection string
	Field      string
	Value      any
	Message    string
	// Suggestions holds close matches for misspelled names, best first.
	Suggestions []string
	Cause       error
}

// NewValidationError returns a ValidationError without cause.
func NewValidationError(collection, field string, value any, message string) *ValidationError {
	return &ValidationError{Collection: collection, Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	msg := errMsg{head: "validation error"}
	msg.add(" on collection ", e.Collection)
	msg.add(" field ", e.Field)
	msg.detail(e.Message, e.Cause)
	if len(e.Suggestions) > 0 {
		msg.add(" (did you mean ", strings.Join(e.Suggestions, ", ")+"?)")
	}
	return msg.String()
}

func (e *ValidationError) Unwrap() error        { return e.Cause }
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidDefinition }

// ConfigError reports an invalid generation option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// NewConfigError returns a ConfigError. A nil value is left out of the message.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

func (e *ConfigError) Error() string {
	opt := fmt.Sprintf("%q", e.Option)
	if e.Value != nil {
		opt += fmt.Sprintf(" (value: %v)", e.Value)
	}
	return "collectiongen: config error for " + opt + ": " + e.Message
}

func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// GenerationError reports an artifact that could not be rendered.
// Phase is the artifact kind being rendered.
type GenerationError struct {
	Phase      string
	Collection string
	Message    string
	Cause      error
}

// NewGenerationError returns a GenerationError.
func NewGenerationError(phase, collection, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, Collection: collection, Message: message, Cause: cause}
}

func (e *GenerationError) Error() string {
	msg := errMsg{head: "generation error"}
	msg.add(" in phase ", e.Phase)
	if e.Collection != "" {
		msg.add(" (collection: ", e.Collection+")")
	}
	msg.detail(e.Message, e.Cause)
	return msg.String()
}

func (e *GenerationError) Unwrap() error        { return e.Cause }
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// IOError reports a file system operation of the Writer that failed.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

// NewIOError returns an IOError.
func NewIOError(op, path string, cause error) *IOError {
	return &IOError{Op: op, Path: path, Cause: cause}
}

func (e *IOError) Error() string {
	msg := errMsg{head: "io error"}
	msg.add(" during ", e.Op)
	msg.add(" ", e.Path)
	msg.detail("", e.Cause)
	return msg.String()
}

func (e *IOError) Unwrap() error        { return e.Cause }
func (e *IOError) Is(target error) bool { return target == ErrWriteFailed }

// errMsg assembles "collectiongen: <head><parts>" messages, skipping
// empty parts.
type errMsg struct {
	head string
	b    strings.Builder
}

func (m *errMsg) add(prefix, s string) {
	if s != "" {
		m.b.WriteString(prefix)
		m.b.WriteString(s)
	}
}

func (m *errMsg) detail(message string, cause error) {
	m.add(": ", message)
	if cause != nil {
		m.add(": ", cause.Error())
	}
}

func (m *errMsg) String() string { return "collectiongen: " + m.head + m.b.String() }

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool { return isA[*ValidationError](err) }

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool { return isA[*ConfigError](err) }

// IsGenerationError reports whether err wraps a *GenerationError.
func IsGenerationError(err error) bool { return isA[*GenerationError](err) }

// IsIOError reports whether err wraps an *IOError.
func IsIOError(err error) bool { return isA[*IOError](err) }

func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// ValidationErrors returns the ValidationErrors held by err in order,
// descending into joined and wrapped errors.
func ValidationErrors(err error) []*ValidationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *ValidationError:
		return []*ValidationError{e}
	case interface{ Unwrap() []error }:
		var out []*ValidationError
		for _, inner := range e.Unwrap() {
			out = append(out, ValidationErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return ValidationErrors(e.Unwrap())
	}
	return nil
}
