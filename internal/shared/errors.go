package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports rejected user input. Fully recoverable by
// correcting the request; nothing has been persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports that a concurrent session already processed the
// record (zero rows affected on a conditional update). The caller should
// refresh and re-evaluate, not retry the same write.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s: %s", e.Resource, e.Reason)
}

// PermissionError reports a write that was silently filtered by the
// storage authorization layer: the statement succeeded but the re-read
// shows the row unchanged.
type PermissionError struct {
	Resource string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied writing %s: change was not persisted", e.Resource)
}

// UpstreamError wraps a storage or network failure. Retry is a caller
// decision; state is left consistent.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ConstraintViolation carries the violated constraint name so callers
// never have to string-match error messages.
type ConstraintViolation struct {
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint %q violated", e.Constraint)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// Postgres error classes worth distinguishing.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapDBError converts a pgx error into the typed taxonomy. Non-database
// errors pass through wrapped as UpstreamError.
func MapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return &ConstraintViolation{Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return &UpstreamError{Op: op, Err: err}
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
