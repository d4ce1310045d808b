package errors

import "fmt"

// ErrorCode identifies an application error class. Codes are stable strings
// so API consumers and log pipelines can match on them.
type ErrorCode string

const (
	// Generic codes
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"

	// Request / dispatch
	ErrBadRequest ErrorCode = "BAD_REQUEST"

	// Meeting mapping ownership
	ErrUnauthorizedCaller ErrorCode = "UNAUTHORIZED_CALLER"
	ErrOwnershipMismatch  ErrorCode = "OWNERSHIP_MISMATCH"

	// Token lifecycle
	ErrExchangeFailed ErrorCode = "EXCHANGE_FAILED"
	ErrRefreshFailed  ErrorCode = "REFRESH_FAILED"
	ErrNoCredential   ErrorCode = "NO_CREDENTIAL"

	// Provider calls
	ErrProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrRegistrationFailed  ErrorCode = "REGISTRATION_FAILED"
	ErrDownstream          ErrorCode = "DOWNSTREAM_ERROR"

	// Live broadcast orchestration
	ErrBroadcastHistoryFull ErrorCode = "BROADCAST_HISTORY_FULL"
	ErrLiveStatusUnknown    ErrorCode = "LIVE_STATUS_UNKNOWN"

	// Student join url lookup
	ErrMeetingNotStarted ErrorCode = "NOT_STARTED"
)

// AppError is the error type returned by services. Code selects the HTTP
// mapping in the base controller, Err carries the wrapped cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether err is an *AppError carrying the given code.
func Is(err error, code ErrorCode) bool {
	ae, ok := err.(*AppError)
	return ok && ae.Code == code
}
