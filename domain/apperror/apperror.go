// Package apperror classifies failures raised by the audit and search use cases so that
// transports can translate them into a single status without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindTransientStore covers connection, timeout and transaction failures of the relational store.
	KindTransientStore Kind = "TRANSIENT_STORE"
	// KindValidation is reserved for malformed input that cannot be clamped.
	KindValidation Kind = "VALIDATION"
	// KindPartialFailure marks a single failed row inside a best-effort batch.
	KindPartialFailure Kind = "PARTIAL_FAILURE"
	// KindIndexUnavailable covers text index open, write and query failures.
	KindIndexUnavailable Kind = "INDEX_UNAVAILABLE"
	KindInternal         Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = e.Op + " [" + prefix + "]"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind only, so errors.Is(err, apperror.IndexUnavailable) works for any message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
	}
	return false
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks.
var (
	TransientStore   = &Error{Kind: KindTransientStore}
	Validation       = &Error{Kind: KindValidation}
	PartialFailure   = &Error{Kind: KindPartialFailure}
	IndexUnavailable = &Error{Kind: KindIndexUnavailable}
	Internal         = &Error{Kind: KindInternal}
)

func Store(op, message string, cause error) *Error {
	return Wrap(KindTransientStore, op, message, cause)
}

func Index(op, message string, cause error) *Error {
	return Wrap(KindIndexUnavailable, op, message, cause)
}

func Invalid(op, message string) *Error {
	return New(KindValidation, op, message)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Message returns the caller-facing message of err without the wrapped cause.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// IsInternal reports whether err must be surfaced as a generic internal failure.
func IsInternal(err error) bool {
	switch KindOf(err) {
	case KindValidation:
		return false
	default:
		return true
	}
}
