package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can pick a remediation
// (fix input, retry, page an operator) without string matching.
type Kind string

const (
	KindValidationFailed       Kind = "VALIDATION_FAILED"
	KindNotFound               Kind = "NOT_FOUND"
	KindPersistenceFailed      Kind = "PERSISTENCE_FAILED"
	KindIdentityProviderFailed Kind = "IDENTITY_PROVIDER_FAILED"
	KindRollbackFailed         Kind = "ROLLBACK_FAILED"
	KindConfigurationMissing   Kind = "CONFIGURATION_MISSING"
	KindTransient              Kind = "TRANSIENT"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrValidationFailed       = &Error{Kind: KindValidationFailed}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrPersistenceFailed      = &Error{Kind: KindPersistenceFailed}
	ErrIdentityProviderFailed = &Error{Kind: KindIdentityProviderFailed}
	ErrRollbackFailed         = &Error{Kind: KindRollbackFailed}
	ErrConfigurationMissing   = &Error{Kind: KindConfigurationMissing}
	ErrTransient              = &Error{Kind: KindTransient}
)

type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind. Only the Kind is
// compared so that errors.Is(err, ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NewValidationError(field, message string) error {
	return &Error{Kind: KindValidationFailed, Field: field, Message: message}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewPersistenceError(message string, err error) error {
	return &Error{Kind: KindPersistenceFailed, Message: message, Err: err}
}

func NewIdentityProviderError(message string, err error) error {
	return &Error{Kind: KindIdentityProviderFailed, Message: message, Err: err}
}

func NewRollbackFailedError(message string, err error) error {
	return &Error{Kind: KindRollbackFailed, Message: message, Err: err}
}

func NewConfigurationMissingError(field string) error {
	return &Error{Kind: KindConfigurationMissing, Field: field, Message: "setting is not configured"}
}

func NewTransientError(message string, err error) error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "" when
// err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
