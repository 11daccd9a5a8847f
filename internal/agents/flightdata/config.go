// internal/agents/flightdata/config.go
package flightdata

import "time"

// Config holds the flight data agent settings.
type Config struct {
	ScheduleBaseURL string
	QuoteBaseURL    string
	FetchTimeout    time.Duration
	CacheTTL        time.Duration
}
