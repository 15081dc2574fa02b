package updater

import (
	"errors"
	"fmt"
)

// Code classifies an updater failure. The API maps codes to HTTP statuses.
type Code string

// Error codes.
const (
	ErrCodeInvalidState   Code = "INVALID_STATE"
	ErrCodeCheckFailed    Code = "CHECK_FAILED"
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeNoUpdate       Code = "NO_UPDATE"
	ErrCodeApplyFailed    Code = "APPLY_FAILED"
	ErrCodeBackupFailed   Code = "BACKUP_FAILED"
	ErrCodeRollbackFailed Code = "ROLLBACK_FAILED"
	ErrCodeNoBackup       Code = "NO_BACKUP"
	ErrCodeDisabled       Code = "DISABLED"
)

// Error is an updater failure with a code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("updater %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("updater %s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// HasCode reports whether err wraps an updater Error with code.
func HasCode(err error, code Code) bool {
	var updateErr *Error
	return errors.As(err, &updateErr) && updateErr.Code == code
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
