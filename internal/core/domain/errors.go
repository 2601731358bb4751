package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error. Callers switch on the kind (via
// KindOf) to decide how an error surfaces at the HTTP boundary, instead of
// type-asserting concrete error values.
type ErrorKind int

const (
	// KindUnhandled is the zero value: anything not produced by a domain
	// constructor below. HTTP boundary maps it to 500 with a generic body.
	KindUnhandled ErrorKind = iota

	// KindRemoteFetch: a single upstream read failed (bad status or
	// transport error). Carries the upstream status code.
	KindRemoteFetch

	// KindAggregation: the fetch+assemble pipeline failed as a whole,
	// wrapping the first fetch failure.
	KindAggregation

	// KindValidation: a write payload violated the document shape.
	// HTTP 400; Message is safe to return to the client verbatim.
	KindValidation

	// KindNotFound: no document with the requested id. HTTP 404.
	KindNotFound

	// KindConflict: create hit an existing id. HTTP 400 (kept from the
	// original API contract; deliberately not 409).
	KindConflict

	// KindStorage: the storage backend failed. Cause is wrapped, logged
	// server-side and never returned to the client.
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemoteFetch:
		return "remote_fetch"
	case KindAggregation:
		return "aggregation"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unhandled"
	}
}

// Error is the single error type crossing layer boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int   // upstream HTTP status, set for KindRemoteFetch only
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from anywhere in err's chain.
// Returns KindUnhandled for nil or foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnhandled
}

// AsError extracts the *Error from err's chain, or nil.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// RemoteFetchError reports a failed upstream read. status is the upstream
// response code, or 500 when no response was received at all.
func RemoteFetchError(status int, endpoint string, cause error) *Error {
	return &Error{
		Kind:    KindRemoteFetch,
		Message: fmt.Sprintf("failed to fetch data from %s", endpoint),
		Status:  status,
		Err:     cause,
	}
}

// AggregationError wraps the first failure of a fetch+assemble run.
func AggregationError(cause error) *Error {
	return &Error{
		Kind:    KindAggregation,
		Message: "failed to load users with posts and comments",
		Err:     cause,
	}
}

// ValidationError reports a document-shape violation. msg is returned to
// the client as-is in the {"error": msg} body.
func ValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFoundError reports a missing user document.
func NotFoundError(id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("User with ID %d not found", id),
	}
}

// ConflictError reports a create against an already-stored id.
func ConflictError(id int64) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("User with ID %d already exists", id),
	}
}

// StorageError wraps a storage backend failure. op names the failing
// operation for logs; the cause is never surfaced to clients.
func StorageError(op string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: op, Err: cause}
}
