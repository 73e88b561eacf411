package bank

import "errors"

// ErrorCode is the stable, machine-readable classification carried across the
// service boundary. The UI keys off these to tell "reconnect required" apart
// from "temporarily unavailable".
type ErrorCode string

const (
	CodeValidation       ErrorCode = "validation"
	CodeNotFound         ErrorCode = "not_found"
	CodeAlreadyConnected ErrorCode = "already_connected"
	CodeNotActive        ErrorCode = "not_active"
	CodeMissingToken     ErrorCode = "missing_token"
	CodeExpired          ErrorCode = "expired"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeProviderError    ErrorCode = "provider_error"
	CodeInternal         ErrorCode = "internal"
)

// Error is the tagged result every public operation returns on failure.
// Callers never see raw store or aggregator errors.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// AsError extracts the tagged error from err, mapping anything unclassified
// to CodeInternal so handlers always have a code to translate.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "internal error", Err: err}
}
