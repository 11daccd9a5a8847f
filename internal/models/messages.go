// internal/models/messages.go
package models

import "time"

// ==========================
// 1. Flight Data Messages
// ==========================

// FlightStatsRequest asks the flight data agent for historical performance.
type FlightStatsRequest struct {
	AirlineCode  string `json:"airlineCode"`
	FlightNumber string `json:"flightNumber"`
	Date         string `json:"date"` // YYYY-MM-DD
}

// FlightStatistics is the resolved historical performance record for a flight.
// Counts come from the upstream statistics array and are best-effort; they are
// not independently validated against each other.
type FlightStatistics struct {
	AirlineCode            string  `json:"airlineCode"`
	FlightNumber           string  `json:"flightNumber"`
	Date                   string  `json:"date,omitempty"`
	OnTimePercent          float64 `json:"onTimePercent"`
	HasOnTimePercent       bool    `json:"hasOnTimePercent"`
	TotalHistoricalFlights int     `json:"totalHistoricalFlights"`
	OnTimeCount            int     `json:"onTimeCount"`
	DelayedCount           int     `json:"delayedCount"`
	CancelledCount         int     `json:"cancelledCount"`
	DivertedCount          int     `json:"divertedCount"`
	OriginCity             string  `json:"originCity,omitempty"`
	OriginCode             string  `json:"originCode,omitempty"`
	DestinationCity        string  `json:"destinationCity,omitempty"`
	DestinationCode        string  `json:"destinationCode,omitempty"`
	DepartureTime          string  `json:"departureTime,omitempty"`
	ArrivalTime            string  `json:"arrivalTime,omitempty"`
	SuggestedPremium       float64 `json:"suggestedPremium,omitempty"`
	DelayRiskLabel         string  `json:"delayRiskLabel,omitempty"` // LOW / MEDIUM / HIGH
}

// ==========================
// 2. Weather Messages
// ==========================

// WeatherCondition is the normalized weather condition enum.
type WeatherCondition string

const (
	ConditionClear        WeatherCondition = "clear"
	ConditionClouds       WeatherCondition = "clouds"
	ConditionRain         WeatherCondition = "rain"
	ConditionSnow         WeatherCondition = "snow"
	ConditionThunderstorm WeatherCondition = "thunderstorm"
	ConditionFog          WeatherCondition = "fog"
	ConditionMist         WeatherCondition = "mist"
	ConditionUnknown      WeatherCondition = "unknown"
)

// WeatherRequest asks the weather agent for current airport conditions.
type WeatherRequest struct {
	AirportCode string `json:"airportCode"`
	CityHint    string `json:"cityHint,omitempty"`
}

// WeatherSignal is the resolved weather reading for one airport.
type WeatherSignal struct {
	AirportCode        string           `json:"airportCode"`
	Condition          WeatherCondition `json:"condition"`
	TemperatureCelsius float64          `json:"temperatureCelsius,omitempty"`
	DelayRiskLabel     string           `json:"delayRiskLabel,omitempty"` // LOW / MODERATE / HIGH / SEVERE
	Narrative          string           `json:"narrative,omitempty"`
}

// ==========================
// 3. Recommendation Messages
// ==========================

// RecommendationRequest asks the advisor for a structured assessment directly,
// bypassing the chat surface.
type RecommendationRequest struct {
	AirlineCode  string `json:"airlineCode"`
	FlightNumber string `json:"flightNumber"`
	Date         string `json:"date,omitempty"` // YYYY-MM-DD, defaults to tomorrow
}

// ==========================
// 4. Chat Messages
// ==========================

// ChatMessage is a free-text message addressed to the advisor.
type ChatMessage struct {
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatReply is the advisor's rendered text reply.
type ChatReply struct {
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
