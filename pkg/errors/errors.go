// Package errors implements the closed error taxonomy from spec.md §7:
// Validation, NotFound, Authorization, BusinessLogic, and two Storage
// kinds distinguished by a retryable flag. Every other package classifies
// failures by returning one of the sentinels below (optionally wrapped
// with WithCause/WithDetail), never a bare fmt.Errorf, so the HTTP
// boundary can map kind -> status without inspecting error strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation    = NewError("VALIDATION", "validation failed", http.StatusBadRequest).AsFatal()
	ErrNotFound      = NewError("NOT_FOUND", "resource not found", http.StatusNotFound).AsFatal()
	ErrAuthorization = NewError("AUTHORIZATION", "not authorized", http.StatusForbidden).AsFatal()
	ErrBusinessLogic = NewError("BUSINESS_LOGIC", "business rule violated", http.StatusUnprocessableEntity).AsFatal()
	ErrStorage       = NewError("STORAGE", "storage operation failed", http.StatusInternalServerError).AsRetryable()
	ErrInternal      = NewError("INTERNAL", "internal server error", http.StatusInternalServerError).AsFatal()
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Status    int
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the *same operation* may be retried.
// Only storage-kind errors are retryable per spec.md §4.1/§5; the
// four boundary kinds (validation, not-found, authorization,
// business-logic) are never retried because retrying does not change
// the input.
func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
	}
	return false
}

func (e *Error) IsFatal() bool {
	return !e.IsRetryable()
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	} else {
		details := make(map[string]interface{}, len(err.Details)+1)
		for k, v := range err.Details {
			details[k] = v
		}
		err.Details = details
	}
	err.Details[key] = value
	return &err
}

func (e *Error) WithDetails(details map[string]interface{}) *Error {
	err := *e
	err.Details = details
	return &err
}

func (e *Error) AsRetryable() *Error {
	err := *e
	retryable := true
	err.retryable = &retryable
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	retryable := false
	err.retryable = &retryable
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func IsNotFound(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrNotFound.Code
	}
	return false
}

func IsValidation(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrValidation.Code
	}
	return false
}

func IsBusinessLogic(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrBusinessLogic.Code
	}
	return false
}

func IsRetryable(err error) bool {
	var retryableErr RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.IsRetryable()
	}
	return false
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// ToErrorResponse builds the JSON body for the HTTP boundary. When
// redactDetail is true (production), every STORAGE-coded error, retryable
// or fatal, is reduced to a generic message with no Details. The wrapped
// Cause is never included in the response.
func ToErrorResponse(err error, redactDetail bool) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}

	if redactDetail && appErr.Code == ErrStorage.Code {
		response["error"] = "internal server error"
		return response
	}

	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}

	return response
}
