package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUserID is returned when a user id cannot be embedded in a state token
	ErrInvalidUserID = errors.New("user id must be non-empty and must not contain \"::\"")

	// ErrMalformedState is returned when a state string has fewer than three parts
	ErrMalformedState = errors.New("malformed state")

	// ErrProviderNotConfigured is returned when no client settings exist for a provider
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// ErrorCode is the callback failure taxonomy.
// Values are stable: they are sent to the browser as ?error=<code>.
type ErrorCode string

const (
	CodeInvalidRequest       ErrorCode = "invalid_request"
	CodeInvalidState         ErrorCode = "invalid_state"
	CodeInvalidStateNotFound ErrorCode = "invalid_state_not_found"
	CodeInvalidStateMismatch ErrorCode = "invalid_state_mismatch"
	CodeBadRequest           ErrorCode = "bad_request"
	CodeUserUpdateError      ErrorCode = "user_update_error"
)

// CallbackError carries a failure code out of the callback flow
type CallbackError struct {
	Err  error
	Code ErrorCode
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

func callbackErr(code ErrorCode, err error) *CallbackError {
	return &CallbackError{Code: code, Err: err}
}

// CodeOf returns the callback code carried by err, or bad_request when err
// did not come from the callback flow.
func CodeOf(err error) ErrorCode {
	var cbErr *CallbackError
	if errors.As(err, &cbErr) {
		return cbErr.Code
	}
	return CodeBadRequest
}

// TokenError is a user-presentable token problem: nothing stored, or the
// provider refused a refresh. Callers surface Message as data.
type TokenError struct {
	Message string
}

func (e *TokenError) Error() string {
	return e.Message
}

const (
	msgNoAccessToken        = "No access token found"
	msgRefreshNoAccessToken = "Failed to refresh token - no access token in response"
)

// ErrNoAccessToken is returned when the user has nothing stored for a provider
var ErrNoAccessToken = &TokenError{Message: msgNoAccessToken}

// IsTokenError reports whether err is a TokenError
func IsTokenError(err error) bool {
	var tokenErr *TokenError
	return errors.As(err, &tokenErr)
}
