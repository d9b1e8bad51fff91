package collectiongen

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the runtime operations of generated collections.
// The typed errors below match them with errors.Is.
var (
	ErrNotFound     = errors.New("collectiongen: record not found")
	ErrConstraint   = errors.New("collectiongen: constraint failed")
	ErrAccessDenied = errors.New("collectiongen: access denied")
)

// NotFoundError is returned when no record of a collection has the
// requested id.
type NotFoundError struct {
	collection string
	id         any
}

// NewNotFoundError returns a NotFoundError. id may be nil when the lookup
// was not by id.
func NewNotFoundError(collection string, id any) *NotFoundError {
	return &NotFoundError{collection: collection, id: id}
}

func (e *NotFoundError) Error() string {
	if e.id == nil {
		return "collectiongen: " + e.collection + " not found"
	}
	return fmt.Sprintf("collectiongen: %s not found (id=%v)", e.collection, e.id)
}

func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

// Collection returns the collection slug.
func (e *NotFoundError) Collection() string { return e.collection }

// ID returns the requested id, or nil.
func (e *NotFoundError) ID() any { return e.id }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// ConstraintError is returned when a record value does not satisfy its
// field definition, or when the database rejects it.
type ConstraintError struct {
	Field string
	Msg   string
	Err   error
}

// NewConstraintError returns a ConstraintError with a formatted message.
func NewConstraintError(field, format string, args ...any) *ConstraintError {
	return &ConstraintError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConstraintError) Error() string {
	parts := []string{"collectiongen: constraint failed"}
	if e.Field != "" {
		parts[0] += fmt.Sprintf(" for field %q", e.Field)
	}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ConstraintError) Unwrap() error     { return e.Err }
func (e *ConstraintError) Is(err error) bool { return err == ErrConstraint }

// IsConstraintError reports whether err wraps a *ConstraintError.
func IsConstraintError(err error) bool { return as[*ConstraintError](err) }

// AccessError is returned when an access rule rejects an operation.
type AccessError struct {
	Collection string
	Op         string
	// Rule is the name of the rejecting rule, if it has one.
	Rule string
	// Anonymous reports whether the request carried no principal.
	Anonymous bool
}

// NewAccessError returns an AccessError.
func NewAccessError(collection, op, rule string, anonymous bool) *AccessError {
	return &AccessError{Collection: collection, Op: op, Rule: rule, Anonymous: anonymous}
}

func (e *AccessError) Error() string {
	msg := fmt.Sprintf("collectiongen: access denied for %s on %s", e.Op, e.Collection)
	if e.Rule != "" {
		msg += " (rule: " + e.Rule + ")"
	}
	return msg
}

func (e *AccessError) Is(err error) bool { return err == ErrAccessDenied }

// IsAccessError reports whether err wraps an *AccessError.
func IsAccessError(err error) bool { return as[*AccessError](err) }

// QueryError adds the collection and the read operation, such as "list",
// to a storage error.
type QueryError struct {
	Collection string
	Op         string
	Err        error
}

// NewQueryError returns a QueryError.
func NewQueryError(collection, op string, err error) *QueryError {
	return &QueryError{Collection: collection, Op: op, Err: err}
}

func (e *QueryError) Error() string {
	target := e.Collection
	if e.Op != "" {
		target += " (" + e.Op + ")"
	}
	return fmt.Sprintf("collectiongen: querying %s: %v", target, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsQueryError reports whether err wraps a *QueryError.
func IsQueryError(err error) bool { return as[*QueryError](err) }

// MutationError adds the collection and the write operation to a storage
// error.
type MutationError struct {
	Collection string
	Op         string
	Err        error
}

// NewMutationError returns a MutationError.
func NewMutationError(collection, op string, err error) *MutationError {
	return &MutationError{Collection: collection, Op: op, Err: err}
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("collectiongen: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// IsMutationError reports whether err wraps a *MutationError.
func IsMutationError(err error) bool { return as[*MutationError](err) }

func as[T error](err error) bool {
	var target T
	return err != nil && errors.As(err, &target)
}
