// internal/agents/advisor/handler_test.go
package advisor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"travelsure-agents/internal/common/config"
	"travelsure-agents/internal/common/logger"
	"travelsure-agents/internal/knowledge"
	"travelsure-agents/internal/models"
	"travelsure-agents/internal/pricing"
	"travelsure-agents/internal/risk"

	"travelsure-agents/internal/agents/flightdata"
	"travelsure-agents/internal/agents/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBus struct {
	mu       sync.Mutex
	handlers map[string]func(ctx context.Context, msg interface{}) (interface{}, error)
	requests []interface{}
}

func (s *stubBus) Request(ctx context.Context, to string, msg interface{}) (interface{}, error) {
	s.mu.Lock()
	s.requests = append(s.requests, msg)
	s.mu.Unlock()
	h, ok := s.handlers[to]
	if !ok {
		return nil, fmt.Errorf("no handler for %s", to)
	}
	return h(ctx, msg)
}

func testEngine(t *testing.T) *risk.Engine {
	t.Helper()
	table, err := pricing.NewTable([]config.TierConfig{
		{ID: "platinum", Name: "Platinum", DelayThresholdHours: 1, PayoutAmount: 1000, ClaimProbabilityBps: 4000, MarginBps: 800, MultiplierBps: 15000},
		{ID: "gold", Name: "Gold", DelayThresholdHours: 2, PayoutAmount: 500, ClaimProbabilityBps: 3500, MarginBps: 700, MultiplierBps: 15000},
		{ID: "silver", Name: "Silver", DelayThresholdHours: 3, PayoutAmount: 250, ClaimProbabilityBps: 3200, MarginBps: 600, MultiplierBps: 12000},
		{ID: "basic", Name: "Basic", DelayThresholdHours: 4, PayoutAmount: 100, ClaimProbabilityBps: 3000, MarginBps: 500, MultiplierBps: 10000},
	})
	require.NoError(t, err)

	engine, err := risk.NewEngine(config.RiskConfig{
		Bands: []config.BandConfig{
			{UpperBound: 0.10, TierID: "basic", Confidence: 0.90},
			{UpperBound: 0.20, TierID: "silver", Confidence: 0.85},
			{UpperBound: 0.35, TierID: "gold", Confidence: 0.80},
			{UpperBound: 1.0, TierID: "platinum", Confidence: 0.85},
		},
		Adjustments: config.AdjustmentsConfig{
			SevereWeather:    0.15,
			Rain:             0.05,
			CongestedAirport: 0.10,
			WinterSeason:     0.12,
			SummerSeason:     0.08,
			HolidayPeriod:    0.15,
			CancellationHist: 0.10,
		},
	}, table)
	require.NoError(t, err)
	return engine
}

func reliableStats() *models.FlightStatistics {
	return &models.FlightStatistics{
		AirlineCode:            "AA",
		FlightNumber:           "100",
		Date:                   "2026-03-15",
		OnTimePercent:          0.92,
		HasOnTimePercent:       true,
		TotalHistoricalFlights: 100,
		OriginCity:             "Boston",
		OriginCode:             "BOS",
		DestinationCity:        "San Francisco",
		DestinationCode:        "SFO",
	}
}

func newTestAdvisor(t *testing.T, bus *stubBus) *Handler {
	t.Helper()
	h := NewHandler(Config{RequestTimeout: time.Second}, bus, testEngine(t), knowledge.NewSeeded(), logger.NewNoOpLogger())
	h.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return h
}

func chat(text string) models.ChatMessage {
	return models.ChatMessage{SessionID: "s1", Text: text, Timestamp: time.Now()}
}

func TestGreetingReply(t *testing.T) {
	h := newTestAdvisor(t, &stubBus{})

	result, err := h.Execute(context.Background(), chat("Hello!"))
	require.NoError(t, err)

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "Hello")
	assert.Contains(t, reply.Text, "flight insurance advisor")
	assert.Equal(t, "s1", reply.SessionID)
}

func TestHelpReplyListsTiers(t *testing.T) {
	h := newTestAdvisor(t, &stubBus{})

	result, err := h.Execute(context.Background(), chat("help"))
	require.NoError(t, err)

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "platinum")
	assert.Contains(t, reply.Text, "basic")
}

func TestFAQReply(t *testing.T) {
	h := newTestAdvisor(t, &stubBus{})

	result, err := h.Execute(context.Background(), chat("when do I get the payout?"))
	require.NoError(t, err)

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "automatic")
}

func TestUnknownReply(t *testing.T) {
	h := newTestAdvisor(t, &stubBus{})

	result, err := h.Execute(context.Background(), chat("lorem ipsum dolor"))
	require.NoError(t, err)

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "not sure")
}

func TestQuoteReplyHappyPath(t *testing.T) {
	bus := &stubBus{handlers: map[string]func(ctx context.Context, msg interface{}) (interface{}, error){
		flightdata.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			return reliableStats(), nil
		},
		weather.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			req := msg.(models.WeatherRequest)
			return &models.WeatherSignal{
				AirportCode: req.AirportCode,
				Condition:   models.ConditionClear,
			}, nil
		},
	}}
	h := newTestAdvisor(t, bus)

	result, err := h.Execute(context.Background(), chat("insure AA 100 tomorrow"))
	require.NoError(t, err)

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "Flight AA 100 on 2026-03-15")
	assert.Contains(t, reply.Text, "Route: Boston (BOS) to San Francisco (SFO)")
	assert.Contains(t, reply.Text, "Recommendation: Basic")
	assert.Contains(t, reply.Text, "31.50")
	assert.Contains(t, reply.Text, "* Basic")
	assert.Contains(t, reply.Text, "Risk level: LOW")
}

func TestQuoteReplyWhenFlightDataFails(t *testing.T) {
	bus := &stubBus{handlers: map[string]func(ctx context.Context, msg interface{}) (interface{}, error){
		flightdata.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			return nil, fmt.Errorf("upstream down")
		},
	}}
	h := newTestAdvisor(t, bus)

	result, err := h.Execute(context.Background(), chat("insure AA 100 tomorrow"))
	require.NoError(t, err, "chat surface must not propagate fetch errors")

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "couldn't analyze flight AA 100")
}

func TestQuoteReplySurvivesWeatherFailure(t *testing.T) {
	bus := &stubBus{handlers: map[string]func(ctx context.Context, msg interface{}) (interface{}, error){
		flightdata.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			return reliableStats(), nil
		},
		weather.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			return nil, fmt.Errorf("weather down")
		},
	}}
	h := newTestAdvisor(t, bus)

	result, err := h.Execute(context.Background(), chat("insure AA 100 tomorrow"))
	require.NoError(t, err)

	reply := result.(models.ChatReply)
	assert.Contains(t, reply.Text, "Recommendation: Basic")
}

func TestDestinationWeatherPreferred(t *testing.T) {
	bus := &stubBus{handlers: map[string]func(ctx context.Context, msg interface{}) (interface{}, error){
		flightdata.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			stats := reliableStats()
			stats.OnTimePercent = 0.78 // base band: gold
			return stats, nil
		},
		weather.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			req := msg.(models.WeatherRequest)
			condition := models.ConditionClear
			if req.AirportCode == "SFO" {
				condition = models.ConditionThunderstorm
			}
			return &models.WeatherSignal{AirportCode: req.AirportCode, Condition: condition}, nil
		},
	}}
	h := newTestAdvisor(t, bus)

	result, err := h.Execute(context.Background(), models.RecommendationRequest{
		AirlineCode: "AA", FlightNumber: "100", Date: "2026-03-20",
	})
	require.NoError(t, err)

	assessment := result.(*risk.Assessment)
	// Destination thunderstorm (+0.15) lifts 0.22 into the platinum band.
	assert.Equal(t, "platinum", assessment.RecommendedTierID)
	assert.True(t, assessment.Escalated)
}

func TestRecommendationRequestDefaultsDate(t *testing.T) {
	bus := &stubBus{handlers: map[string]func(ctx context.Context, msg interface{}) (interface{}, error){
		flightdata.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			req := msg.(models.FlightStatsRequest)
			assert.Equal(t, "2026-03-15", req.Date)
			return reliableStats(), nil
		},
		weather.AgentName: func(ctx context.Context, msg interface{}) (interface{}, error) {
			return nil, fmt.Errorf("unused")
		},
	}}
	h := newTestAdvisor(t, bus)

	result, err := h.Execute(context.Background(), models.RecommendationRequest{
		AirlineCode: "AA", FlightNumber: "100",
	})
	require.NoError(t, err)

	assessment := result.(*risk.Assessment)
	assert.Equal(t, "basic", assessment.RecommendedTierID)
	assert.Len(t, assessment.PricedTiers, 4)
}

func TestExecuteRejectsUnexpectedMessage(t *testing.T) {
	h := newTestAdvisor(t, &stubBus{})

	_, err := h.Execute(context.Background(), 42)
	assert.Error(t, err)
}
