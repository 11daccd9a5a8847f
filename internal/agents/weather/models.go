// internal/agents/weather/models.go
package weather

// weatherPayload is the upstream current-conditions response shape.
type weatherPayload struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}
