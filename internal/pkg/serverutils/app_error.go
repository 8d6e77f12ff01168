package serverutils

import "fmt"

// Machine-readable error codes. The auth callback surfaces these as
// `/?error=<code>` redirect parameters, everything else as JSON.
const (
	CodeInvalidState        = "invalid_state"
	CodeNoCode              = "no_code"
	CodeConfigMissing       = "config_missing"
	CodeTokenExchangeFailed = "token_exchange_failed"
	CodeNoAccessToken       = "no_access_token"
	CodeRefreshFailed       = "refresh_failed"
	CodeNoCredentials       = "no_credentials"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeCompletionFailed    = "completion_failed"
)

// AppError is the typed failure every component returns instead of raw
// upstream errors. Message is safe to show the caller; Err carries the
// detailed cause for logs only.
type AppError struct {
	HTTPCode int
	Code     string
	Message  string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(httpCode int, code, message string, err error) *AppError {
	return &AppError{
		HTTPCode: httpCode,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}
