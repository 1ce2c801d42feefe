package blocktl

import (
	"errors"
	"fmt"
)

// Code classifies a failure. Codes are stable strings and safe to expose to
// API clients.
type Code string

const (
	// Availability
	CodeFeatureUnavailable    Code = "feature_unavailable"
	CodeNoAPIKey              Code = "no_api_key"
	CodeInvalidProvider       Code = "invalid_provider"
	CodeInsufficientProviders Code = "insufficient_providers"

	// Input
	CodeEmptyText             Code = "empty_text"
	CodePostNotFound          Code = "post_not_found"
	CodeNoBlocks              Code = "no_blocks"
	CodeInvalidBlockStructure Code = "invalid_block_structure"

	// Quota
	CodeDailyLimitExceeded   Code = "daily_limit_exceeded"
	CodeMonthlyLimitExceeded Code = "monthly_limit_exceeded"

	// Remote
	CodeAPIConnectionFailed Code = "api_connection_failed"
	CodeAPIError            Code = "api_error"
	CodeInvalidResponse     Code = "invalid_response"
	CodeEmptyTranslation    Code = "empty_translation"

	// Parsing
	CodeHTMLParseError Code = "html_parse_error"

	// Lookup
	CodeComparisonNotFound     Code = "comparison_not_found"
	CodeProviderResultNotFound Code = "provider_result_not_found"
	CodePendingNotFound        Code = "pending_not_found"
	CodeAlreadySelected        Code = "comparison_already_selected"

	// Licensing
	CodeExtensionUsed Code = "extension_used"

	// CodeStorage marks an unexpected failure of a backing store.
	CodeStorage Code = "storage_error"
)

var defaultMessages = map[Code]string{
	CodeFeatureUnavailable:     "translation feature is not available",
	CodeNoAPIKey:               "API key is not configured",
	CodeInvalidProvider:        "invalid provider",
	CodeInsufficientProviders:  "at least two providers with API keys are required",
	CodeEmptyText:              "text to translate is empty",
	CodePostNotFound:           "document not found",
	CodeNoBlocks:               "no blocks found",
	CodeInvalidBlockStructure:  "invalid block structure",
	CodeDailyLimitExceeded:     "daily usage limit reached",
	CodeMonthlyLimitExceeded:   "monthly usage limit reached",
	CodeAPIConnectionFailed:    "failed to connect to the API",
	CodeAPIError:               "API error",
	CodeInvalidResponse:        "invalid API response",
	CodeEmptyTranslation:       "translation result is empty",
	CodeHTMLParseError:         "failed to parse HTML",
	CodeComparisonNotFound:     "comparison not found",
	CodeProviderResultNotFound: "provider result not found",
	CodePendingNotFound:        "no pending translation",
	CodeAlreadySelected:        "comparison already selected",
	CodeExtensionUsed:          "expiry extension already used",
	CodeStorage:                "storage error",
}

// Error is the single failure type returned across package boundaries.
type Error struct {
	Code      Code
	Message   string
	Provider  string // Provider that produced the failure, if any
	Retryable bool   // Whether the operation can be retried
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Code]
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so the sentinels below work with
// errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrFeatureUnavailable     = &Error{Code: CodeFeatureUnavailable}
	ErrNoAPIKey               = &Error{Code: CodeNoAPIKey}
	ErrInvalidProvider        = &Error{Code: CodeInvalidProvider}
	ErrInsufficientProviders  = &Error{Code: CodeInsufficientProviders}
	ErrEmptyText              = &Error{Code: CodeEmptyText}
	ErrPostNotFound           = &Error{Code: CodePostNotFound}
	ErrNoBlocks               = &Error{Code: CodeNoBlocks}
	ErrInvalidBlockStructure  = &Error{Code: CodeInvalidBlockStructure}
	ErrDailyLimitExceeded     = &Error{Code: CodeDailyLimitExceeded}
	ErrMonthlyLimitExceeded   = &Error{Code: CodeMonthlyLimitExceeded}
	ErrAPIConnectionFailed    = &Error{Code: CodeAPIConnectionFailed}
	ErrAPIError               = &Error{Code: CodeAPIError}
	ErrInvalidResponse        = &Error{Code: CodeInvalidResponse}
	ErrEmptyTranslation       = &Error{Code: CodeEmptyTranslation}
	ErrHTMLParse              = &Error{Code: CodeHTMLParseError}
	ErrComparisonNotFound     = &Error{Code: CodeComparisonNotFound}
	ErrProviderResultNotFound = &Error{Code: CodeProviderResultNotFound}
	ErrPendingNotFound        = &Error{Code: CodePendingNotFound}
	ErrAlreadySelected        = &Error{Code: CodeAlreadySelected}
	ErrExtensionUsed          = &Error{Code: CodeExtensionUsed}
	ErrStorage                = &Error{Code: CodeStorage}
)

// NewError creates an Error with an explicit message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates an Error that carries cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// err is nil or carries no code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsQuotaError reports whether err is a daily or monthly limit failure.
func IsQuotaError(err error) bool {
	switch CodeOf(err) {
	case CodeDailyLimitExceeded, CodeMonthlyLimitExceeded:
		return true
	}
	return false
}

// IsAvailabilityError reports whether err is an expected availability failure
// (gate closed, missing key, unknown provider).
func IsAvailabilityError(err error) bool {
	switch CodeOf(err) {
	case CodeFeatureUnavailable, CodeNoAPIKey, CodeInvalidProvider, CodeInsufficientProviders:
		return true
	}
	return false
}
