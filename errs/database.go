package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrPolicyViolation    = errors.New("row-level security policy violation")
)

// Postgres SQLSTATE codes the API distinguishes.
const (
	CodeUniqueViolation       = "23505"
	CodeForeignKeyViolation   = "23503"
	CodeInsufficientPrivilege = "42501"
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// StorageCode extracts the SQLSTATE from a Postgres error, if there is one.
func StorageCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPolicyViolation reports whether err was raised by a row-level security policy.
func IsPolicyViolation(err error) bool {
	if errors.Is(err, ErrPolicyViolation) {
		return true
	}
	if StorageCode(err) == CodeInsufficientPrivilege {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "row-level security")
}

// NewPolicyViolationError is returned when an insert is rejected by row-level
// security. It stays a 500 but carries the storage code so the failure can be
// diagnosed from the response body.
func NewPolicyViolationError(entity string, cause error) *ApiErr {
	code := StorageCode(cause)
	if code == "" {
		code = CodeInsufficientPrivilege
	}
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrPolicyViolation,
		Message:    fmt.Sprintf("Failed to store %s", entity),
		Details:    causeText(cause),
		Code:       code,
		Cause:      cause,
	}
}

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)
	code := StorageCode(cause)

	if cause != nil {
		errStr := cause.Error()
		switch {
		case errors.Is(cause, gorm.ErrRecordNotFound) || errors.Is(cause, ErrNotFound):
			return &ApiErr{
				StatusCode: http.StatusNotFound,
				err:        fmt.Errorf("%s %w", entity, ErrNotFound),
				Details:    details,
				Cause:      cause,
			}
		case code == CodeUniqueViolation || strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint failed"):
			return &ApiErr{
				StatusCode: http.StatusConflict,
				err:        fmt.Errorf("%s %w", entity, ErrAlreadyExists),
				Details:    details,
				Code:       code,
				Cause:      cause,
			}
		case code == CodeForeignKeyViolation || strings.Contains(errStr, "foreign key constraint"):
			return &ApiErr{
				StatusCode: http.StatusBadRequest,
				err:        fmt.Errorf("invalid reference in %s", entity),
				Details:    "The referenced resource does not exist or cannot be linked",
				Code:       code,
				Cause:      cause,
			}
		case IsPolicyViolation(cause):
			return NewPolicyViolationError(entity, cause)
		case strings.Contains(errStr, "connection"):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        ErrDatabaseConnection,
				Details:    "Unable to connect to database",
				Code:       code,
				Cause:      cause,
			}
		}
	}

	// Generic database error
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Message:    causeText(cause),
		Details:    details,
		Code:       code,
		Cause:      cause,
	}
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
