// Package errors defines the engine-wide error taxonomy shared by
// services/calendar and services/booking. Domain-specific sentinel errors
// stay in their own packages; only the wrapping type and the kinds used to
// translate failures into wire responses live here.
package errors

import "errors"

// Kind classifies a failure the way the outer HTTP layer needs to, not the
// way the failing operation happened to produce it.
type Kind string

const (
	// KindValidation covers malformed input: invalid timezone, invalid
	// recurrence field, a window exceeding a configured limit, negative
	// duration.
	KindValidation Kind = "validation"
	// KindAuth covers missing/invalid credentials or insufficient policy.
	KindAuth Kind = "auth"
	// KindNotFound covers an unknown id or missing referent.
	KindNotFound Kind = "not_found"
	// KindConflict covers a uniqueness violation (duplicate external id,
	// duplicate calendar key).
	KindConflict Kind = "conflict"
	// KindStorage covers repository/transport failures. Not retried
	// inside the engine.
	KindStorage Kind = "storage"
	// KindInternal covers programmer error / invariant violation. Must be
	// logged at the point it surfaces.
	KindInternal Kind = "internal"
)

// Error wraps a failure with the operation that produced it and the kind
// the caller needs to map to a status code.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " error during " + e.Op
	}
	return string(e.Kind) + " error during " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the wrapped error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation wraps err as a KindValidation failure from operation op.
func Validation(op string, err error) *Error { return &Error{Kind: KindValidation, Op: op, Err: err} }

// Auth wraps err as a KindAuth failure from operation op.
func Auth(op string, err error) *Error { return &Error{Kind: KindAuth, Op: op, Err: err} }

// NotFound wraps err as a KindNotFound failure from operation op.
func NotFound(op string, err error) *Error { return &Error{Kind: KindNotFound, Op: op, Err: err} }

// Conflict wraps err as a KindConflict failure from operation op.
func Conflict(op string, err error) *Error { return &Error{Kind: KindConflict, Op: op, Err: err} }

// Storage wraps err as a KindStorage failure from operation op.
func Storage(op string, err error) *Error { return &Error{Kind: KindStorage, Op: op, Err: err} }

// Internal wraps err as a KindInternal failure from operation op.
func Internal(op string, err error) *Error { return &Error{Kind: KindInternal, Op: op, Err: err} }

// KindOf walks err's chain looking for an *Error and returns its Kind, or
// KindInternal if err does not carry one (an unexpected error surfacing
// without classification is itself a programmer error).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Shared sentinel errors referenced by multiple domain packages.
var (
	// ErrInvalidData indicates the provided data failed validation.
	ErrInvalidData = errors.New("invalid data provided")
	// ErrNotFound is a generic not-found sentinel for entities without a
	// more specific one.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict with existing data")
	// ErrUnauthorized indicates the operation is not permitted.
	ErrUnauthorized = errors.New("operation not authorized")
)
