// internal/common/errors/errors_test.go
package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewUnknownAgentError("oracle")
	assert.Equal(t, "StandardError[UNKNOWN_AGENT]: No handler registered for agent", err.Error())
	assert.Contains(t, err.Details, "oracle")
	assert.False(t, err.Timestamp.IsZero())
}

func TestRetryability(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retries   int
		retryable bool
	}{
		{ErrCodeScheduleFetchFailed, 3, true},
		{ErrCodeQuoteFetchFailed, 3, true},
		{ErrCodeWeatherFetchFailed, 3, true},
		{ErrCodeUpstreamTimeout, 2, true},
		{ErrCodeConfigInvalid, 0, false},
		{ErrCodeMissingFlightStats, 0, false},
		{ErrCodeIntentUnrecognized, 0, false},
		{ErrCodeRequestExpired, 0, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.retries, GetRetryCount(tc.code))
			assert.Equal(t, tc.retryable, IsRetryableErrorCode(tc.code))
		})
	}
}

func TestConstructorsSetRetryableFlag(t *testing.T) {
	assert.True(t, NewScheduleFetchFailedError(assert.AnError).Retryable)
	assert.True(t, NewWeatherFetchFailedError("JFK", assert.AnError).Retryable)
	assert.False(t, NewMissingFlightStatsError().Retryable)
	assert.False(t, NewTierConfigInvalidError("basic", "payout").Retryable)
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category string
	}{
		{ErrCodeConfigInvalid, "CONFIGURATION"},
		{ErrCodeTierConfigInvalid, "CONFIGURATION"},
		{ErrCodeScheduleFetchFailed, "UPSTREAM"},
		{ErrCodeUpstreamTimeout, "UPSTREAM"},
		{ErrCodeIntentUnrecognized, "CHAT"},
		{ErrCodeRequestExpired, "CHAT"},
		{ErrCodeMissingFlightStats, "CONTRACT"},
		{ErrCodeUnknownAgent, "CONTRACT"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.category, GetErrorCategory(tc.code), string(tc.code))
	}
}
