package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden access")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict") // e.g., email already registered
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMissingReference = errors.New("referenced row does not exist") // foreign key violation
)

// Message shown for failures whose cause must not leak to the client.
const (
	MsgServerError      = "Server error"
	MsgStoreUnavailable = "Database connection failed. Please try again."
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage returns the text safe to send to the client for err.
// Domain errors carry their own message; anything that maps to 500 is
// replaced by a generic one.
func PublicMessage(err error) string {
	if HTTPStatusFromError(err) != http.StatusInternalServerError {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return ve.Message
		}
		var de *DomainError
		if errors.As(err, &de) {
			return de.Message
		}
		return err.Error()
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return MsgStoreUnavailable
	}
	return MsgServerError
}

// DomainError attaches a client-facing message to one of the sentinel errors.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Kind }

// NewError builds a DomainError, e.g. NewError(ErrForbidden, "Only managers can update status").
func NewError(kind error, message string) error {
	return &DomainError{Kind: kind, Message: message}
}
