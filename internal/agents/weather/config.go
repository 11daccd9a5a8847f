// internal/agents/weather/config.go
package weather

import "time"

// Config holds the weather agent settings.
type Config struct {
	BaseURL      string
	APIKey       string
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}
