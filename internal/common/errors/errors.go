// Package errors provides standardized error handling for the agent pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration errors (fatal at load time)
	ErrCodeConfigInvalid      ErrorCode = "CONFIG_INVALID"
	ErrCodeTierConfigInvalid  ErrorCode = "TIER_CONFIG_INVALID"
	ErrCodeBandConfigInvalid  ErrorCode = "BAND_CONFIG_INVALID"

	// Caller contract violations
	ErrCodeMissingFlightStats ErrorCode = "MISSING_FLIGHT_STATS"
	ErrCodeUnknownAgent       ErrorCode = "UNKNOWN_AGENT"

	// Upstream data source errors (recoverable)
	ErrCodeScheduleFetchFailed ErrorCode = "SCHEDULE_FETCH_FAILED"
	ErrCodeQuoteFetchFailed    ErrorCode = "QUOTE_FETCH_FAILED"
	ErrCodeWeatherFetchFailed  ErrorCode = "WEATHER_FETCH_FAILED"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeInvalidFlightDate   ErrorCode = "INVALID_FLIGHT_DATE"

	// Chat/messaging errors
	ErrCodeIntentUnrecognized ErrorCode = "INTENT_UNRECOGNIZED"
	ErrCodeRequestExpired     ErrorCode = "REQUEST_EXPIRED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigInvalidError creates a fatal configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid application configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTierConfigInvalidError creates a fatal tier pricing configuration error.
func NewTierConfigInvalidError(tierID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTierConfigInvalid,
		Message:   "Invalid coverage tier configuration",
		Details:   fmt.Sprintf("tierId: %s, %s", tierID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBandConfigInvalidError creates a fatal risk band configuration error.
func NewBandConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBandConfigInvalid,
		Message:   "Invalid risk band configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFlightStatsError creates a non-retryable caller contract error.
func NewMissingFlightStatsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingFlightStats,
		Message:   "Flight statistics argument is required",
		Details:   "assessment was invoked without flight statistics",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownAgentError creates a non-retryable routing error.
func NewUnknownAgentError(agent string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownAgent,
		Message:   "No handler registered for agent",
		Details:   fmt.Sprintf("agent: %s", agent),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScheduleFetchFailedError creates a retryable schedule source error.
func NewScheduleFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScheduleFetchFailed,
		Message:   "Flight schedule fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuoteFetchFailedError creates a retryable quote source error.
func NewQuoteFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuoteFetchFailed,
		Message:   "Flight quote fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherFetchFailedError creates a retryable weather source error.
func NewWeatherFetchFailedError(airportCode string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherFetchFailed,
		Message:   "Airport weather fetch failed",
		Details:   fmt.Sprintf("airport: %s, error: %s", airportCode, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError creates a retryable upstream timeout error.
func NewUpstreamTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("Upstream source '%s' timeout", source),
		Details:   "fetch exceeded the configured timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFlightDateError creates a non-retryable input error.
func NewInvalidFlightDateError(date string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFlightDate,
		Message:   "Invalid flight date",
		Details:   fmt.Sprintf("expected YYYY-MM-DD, got: %s", date),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentUnrecognizedError creates a non-retryable chat parsing error.
func NewIntentUnrecognizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentUnrecognized,
		Message:   "Could not recognize a flight query in the message",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestExpiredError creates a non-retryable correlation expiry error.
func NewRequestExpiredError(requestID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestExpired,
		Message:   "Pending request expired before a reply arrived",
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeScheduleFetchFailed,
		ErrCodeQuoteFetchFailed,
		ErrCodeWeatherFetchFailed:
		return 3

	case ErrCodeUpstreamTimeout:
		return 2

	default:
		return 0 // configuration and contract errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "FETCH") || strings.Contains(codeStr, "TIMEOUT"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "REQUEST"):
		return "CHAT"
	case strings.Contains(codeStr, "MISSING") || strings.Contains(codeStr, "UNKNOWN") || strings.Contains(codeStr, "INVALID"):
		return "CONTRACT"
	default:
		return "OTHER"
	}
}
