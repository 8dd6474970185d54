// Package errs defines filedex's typed error kinds. Every kind is
// carried by one Error struct through its Kind field, following the
// Error()/Unwrap() shape the indexing and config packages of the
// teacher codebase this module grew out of use for their own error
// types.
package errs

import (
	"errors"
	"fmt"
)

// Kind names one of the error categories filedex can surface.
type Kind string

const (
	KindStoreInit        Kind = "StoreInit"
	KindStoreIo          Kind = "StoreIo"
	KindStoreMigration   Kind = "StoreMigration"
	KindQueryParse       Kind = "QueryParse"
	KindQueryCompile     Kind = "QueryCompile"
	KindWalk             Kind = "Walk"
	KindEncoding         Kind = "Encoding"
	KindWatchBackend     Kind = "WatchBackend"
	KindCancelled        Kind = "Cancelled"
	KindDeadlineExceeded Kind = "DeadlineExceeded"
)

// Error is a typed filedex error: a Kind, a human message, and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Message, e.Path, e.Cause)
		}
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == kind
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func WithPath(kind Kind, path, message string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Message: message, Cause: cause}
}

// MultiError aggregates independent per-file failures (e.g. from a
// directory walk) without aborting the caller.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %v", len(m.Errors), m.Errors[0])
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) HasErrors() bool { return len(m.Errors) > 0 }

// OrNil returns m as an error if it holds any errors, nil otherwise.
func (m *MultiError) OrNil() error {
	if m.HasErrors() {
		return m
	}
	return nil
}
