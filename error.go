package distill

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These are meant to be generic and map to the status codes returned by
// the HTTP layer. Providers classify their failures into one of these at
// their boundary so that raw transport errors never reach a client.
const (
	EINTERNAL      = "internal"
	EINVALID       = "invalid"
	ENOTFOUND      = "not_found"
	ETOOLARGE      = "too_large"
	ENOTCONFIGURED = "not_configured"
	EPROVIDER      = "provider"
	EEXTRACT       = "extraction_failed"
	ENOCONTENT     = "no_content"
	EUNAUTHORIZED  = "unauthorized"
	EFORBIDDEN     = "forbidden"
	EQUOTA         = "quota_exceeded"
	ERATELIMIT     = "rate_limited"
)

// Error represents an application-specific error.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message, safe to show to a client.
	Message string

	// Optional supplementary information, e.g. the stages that were tried.
	Details string

	// Upstream HTTP status when the error originates from a provider.
	Status int
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("distill error: code=%s message=%s details=%s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("distill error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ProviderErrorf returns an EPROVIDER error carrying the upstream status.
func ProviderErrorf(status int, format string, args ...any) *Error {
	return &Error{
		Code:    EPROVIDER,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorDetails unwraps an application error and returns its details, if any.
func ErrorDetails(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return ""
}

// ErrorStatus unwraps an application error and returns the upstream status, if any.
func ErrorStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
