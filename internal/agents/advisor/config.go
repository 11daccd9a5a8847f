// internal/agents/advisor/config.go
package advisor

import "time"

// Config holds the advisor agent settings.
type Config struct {
	// RequestTimeout bounds each downstream agent request.
	RequestTimeout time.Duration
}
