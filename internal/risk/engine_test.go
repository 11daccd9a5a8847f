// internal/risk/engine_test.go
package risk

import (
	"testing"

	"travelsure-agents/internal/common/config"
	"travelsure-agents/internal/common/errors"
	"travelsure-agents/internal/models"
	"travelsure-agents/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceTable(t *testing.T) *pricing.Table {
	t.Helper()
	table, err := pricing.NewTable([]config.TierConfig{
		{ID: "platinum", Name: "Platinum", DelayThresholdHours: 1, PayoutAmount: 1000, ClaimProbabilityBps: 4000, MarginBps: 800, MultiplierBps: 15000},
		{ID: "gold", Name: "Gold", DelayThresholdHours: 2, PayoutAmount: 500, ClaimProbabilityBps: 3500, MarginBps: 700, MultiplierBps: 15000},
		{ID: "silver", Name: "Silver", DelayThresholdHours: 3, PayoutAmount: 250, ClaimProbabilityBps: 3200, MarginBps: 600, MultiplierBps: 12000},
		{ID: "basic", Name: "Basic", DelayThresholdHours: 4, PayoutAmount: 100, ClaimProbabilityBps: 3000, MarginBps: 500, MultiplierBps: 10000},
	})
	require.NoError(t, err)
	return table
}

func referenceRiskConfig() config.RiskConfig {
	return config.RiskConfig{
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
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(referenceRiskConfig(), referenceTable(t))
	require.NoError(t, err)
	return engine
}

func statsWithOnTime(pct float64) *models.FlightStatistics {
	return &models.FlightStatistics{
		AirlineCode:            "AA",
		FlightNumber:           "100",
		OnTimePercent:          pct,
		HasOnTimePercent:       true,
		TotalHistoricalFlights: 120,
	}
}

func protectionRank(tierID string) int {
	switch tierID {
	case "platinum":
		return 3
	case "gold":
		return 2
	case "silver":
		return 1
	default:
		return 0
	}
}

func TestAssessNilFlightFailsFast(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Assess(nil, nil, Context{})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeMissingFlightStats, stdErr.Code)
}

func TestReliableFlightClearWeather(t *testing.T) {
	engine := newTestEngine(t)

	flight := statsWithOnTime(0.92)
	weather := &models.WeatherSignal{Condition: models.ConditionClear}

	got, err := engine.Assess(flight, weather, Context{})
	require.NoError(t, err)

	assert.Equal(t, "basic", got.RecommendedTierID)
	assert.Equal(t, LevelLow, got.RiskLevel)
	assert.False(t, got.Escalated)
	assert.GreaterOrEqual(t, got.Confidence, 0.90)
	assert.LessOrEqual(t, got.Confidence, 0.95)
	assert.Len(t, got.PricedTiers, 4)

	// On-time summary plus the favorable weather note, nothing else.
	require.Len(t, got.RiskFactors, 2)
	assert.Contains(t, got.RiskFactors[0], "On-time performance")
	assert.Contains(t, got.RiskFactors[1], "Weather")
}

func TestRiskySignalsEscalateTier(t *testing.T) {
	engine := newTestEngine(t)

	flight := statsWithOnTime(0.78) // base band: gold
	flight.OriginCode = "JFK"
	flight.DestinationCode = "SFO"
	flight.CancelledCount = 3
	weather := &models.WeatherSignal{Condition: models.ConditionThunderstorm}

	rctx := Context{CongestionSet: map[string]bool{"JFK": true}}

	got, err := engine.Assess(flight, weather, rctx)
	require.NoError(t, err)

	// 0.22 base + 0.15 weather + 0.10 congestion + 0.10 cancellations.
	assert.InDelta(t, 0.57, got.AdjustedDelayRate, 1e-9)
	assert.True(t, got.Escalated)
	assert.Equal(t, "platinum", got.RecommendedTierID)
	assert.Equal(t, LevelHigh, got.RiskLevel)

	require.Len(t, got.RiskFactors, 4)
	assert.Contains(t, got.RiskFactors[0], "On-time performance")
	assert.Contains(t, got.RiskFactors[1], "Weather")
	assert.Contains(t, got.RiskFactors[2], "Congestion")
	assert.Contains(t, got.RiskFactors[3], "Cancellation history")
}

func TestCancellationNeverPicksLessProtectiveTier(t *testing.T) {
	engine := newTestEngine(t)

	sweep := []float64{0.55, 0.65, 0.75, 0.82, 0.88, 0.95}
	for _, pct := range sweep {
		clean := statsWithOnTime(pct)
		cancelled := statsWithOnTime(pct)
		cancelled.CancelledCount = 2

		without, err := engine.Assess(clean, nil, Context{})
		require.NoError(t, err)
		with, err := engine.Assess(cancelled, nil, Context{})
		require.NoError(t, err)

		assert.GreaterOrEqual(t,
			protectionRank(with.RecommendedTierID),
			protectionRank(without.RecommendedTierID),
			"onTimePercent=%.2f", pct)
	}
}

func TestBandCoverageIsExhaustive(t *testing.T) {
	engine := newTestEngine(t)

	valid := map[string]bool{"basic": true, "silver": true, "gold": true, "platinum": true}
	for pct := 0.0; pct <= 1.0; pct += 0.01 {
		got, err := engine.Assess(statsWithOnTime(pct), nil, Context{})
		require.NoError(t, err)
		assert.True(t, valid[got.RecommendedTierID], "onTimePercent=%.2f mapped to %q", pct, got.RecommendedTierID)
	}
}

func TestBandEdges(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		onTime float64
		tier   string
	}{
		{0.95, "basic"},    // delayRate 0.05
		{0.91, "basic"},    // delayRate 0.09
		{0.85, "silver"},   // delayRate 0.15
		{0.81, "silver"},   // delayRate 0.19
		{0.75, "gold"},     // delayRate 0.25
		{0.66, "gold"},     // delayRate 0.34
		{0.60, "platinum"}, // delayRate 0.40
		{0.0, "platinum"},  // delayRate 1.0
	}

	for _, tc := range tests {
		got, err := engine.Assess(statsWithOnTime(tc.onTime), nil, Context{})
		require.NoError(t, err)
		assert.Equal(t, tc.tier, got.RecommendedTierID, "onTimePercent=%.2f", tc.onTime)
	}
}

func TestConfidenceBounds(t *testing.T) {
	engine := newTestEngine(t)

	flight := statsWithOnTime(0.85)
	flight.OriginCode = "JFK"
	flight.DestinationCode = "LAX"
	flight.Date = "2026-03-10"
	weather := &models.WeatherSignal{Condition: models.ConditionClouds}

	got, err := engine.Assess(flight, weather, Context{})
	require.NoError(t, err)

	// Band base 0.85 plus four corroborating signals, capped.
	assert.Equal(t, 0.95, got.Confidence)
}

func TestConfidenceAtLeastBandBase(t *testing.T) {
	engine := newTestEngine(t)

	bare := &models.FlightStatistics{OnTimePercent: 0.92, HasOnTimePercent: true}
	got, err := engine.Assess(bare, nil, Context{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, got.Confidence, 0.90)
	assert.LessOrEqual(t, got.Confidence, 0.95)
}

func TestNoPhantomRiskFactors(t *testing.T) {
	engine := newTestEngine(t)

	flight := statsWithOnTime(0.85)
	flight.OriginCity = "New York"
	flight.DestinationCity = "San Francisco"

	got, err := engine.Assess(flight, nil, Context{})
	require.NoError(t, err)

	require.Len(t, got.RiskFactors, 2)
	assert.Contains(t, got.RiskFactors[0], "On-time performance")
	assert.Contains(t, got.RiskFactors[1], "Route: New York to San Francisco")
}

func TestAssessIsIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	flight := statsWithOnTime(0.72)
	flight.OriginCode = "ORD"
	flight.Date = "2026-12-05"
	flight.CancelledCount = 1
	weather := &models.WeatherSignal{Condition: models.ConditionSnow}
	rctx := Context{CongestionSet: map[string]bool{"ORD": true}}

	first, err := engine.Assess(flight, weather, rctx)
	require.NoError(t, err)
	second, err := engine.Assess(flight, weather, rctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHolidayOverridesWinterAdjustment(t *testing.T) {
	engine := newTestEngine(t)

	holiday := statsWithOnTime(0.82)
	holiday.Date = "2026-12-10"

	got, err := engine.Assess(holiday, nil, Context{})
	require.NoError(t, err)

	// 0.18 base + 0.15 holiday only; winter must not stack on top.
	assert.InDelta(t, 0.33, got.AdjustedDelayRate, 1e-9)
	assert.Contains(t, got.Reasoning, "holiday")
}

func TestSeasonalAdjustments(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		date     string
		adjusted float64
	}{
		{"late december is winter", "2026-12-20", 0.30},
		{"february is winter", "2027-02-10", 0.30},
		{"july is summer", "2026-07-15", 0.26},
		{"early january is holiday", "2027-01-03", 0.33},
		{"spring has no season penalty", "2026-04-10", 0.18},
		{"unparseable date is ignored", "next week", 0.18},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flight := statsWithOnTime(0.82)
			flight.Date = tc.date

			got, err := engine.Assess(flight, nil, Context{})
			require.NoError(t, err)
			assert.InDelta(t, tc.adjusted, got.AdjustedDelayRate, 1e-9)
		})
	}
}

func TestOutOfRangeOnTimePercentIsClamped(t *testing.T) {
	engine := newTestEngine(t)

	high := statsWithOnTime(1.4)
	got, err := engine.Assess(high, nil, Context{})
	require.NoError(t, err)
	assert.Equal(t, "basic", got.RecommendedTierID)
	assert.Equal(t, 0.0, got.DelayRate)

	low := statsWithOnTime(-0.3)
	got, err = engine.Assess(low, nil, Context{})
	require.NoError(t, err)
	assert.Equal(t, "platinum", got.RecommendedTierID)
	assert.Equal(t, 1.0, got.DelayRate)
}

func TestAbsentOnTimePercentDefaults(t *testing.T) {
	engine := newTestEngine(t)

	flight := &models.FlightStatistics{TotalHistoricalFlights: 10}
	got, err := engine.Assess(flight, nil, Context{})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, got.DelayRate, 1e-9)
	assert.Equal(t, "platinum", got.RecommendedTierID)
}

func TestEstimatedPremiumMatchesRecommendedTier(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Assess(statsWithOnTime(0.92), nil, Context{})
	require.NoError(t, err)

	assert.Equal(t, 31.50, got.EstimatedPremium)
	for _, p := range got.PricedTiers {
		if p.TierID == "basic" {
			assert.True(t, p.IsRecommended)
			assert.Equal(t, 31.50, p.Premium)
		} else {
			assert.False(t, p.IsRecommended)
		}
	}
}

func TestNewEngineRejectsBadBands(t *testing.T) {
	table := referenceTable(t)

	tests := []struct {
		name  string
		bands []config.BandConfig
	}{
		{"empty", nil},
		{
			"non increasing",
			[]config.BandConfig{
				{UpperBound: 0.20, TierID: "basic", Confidence: 0.9},
				{UpperBound: 0.10, TierID: "silver", Confidence: 0.85},
				{UpperBound: 1.0, TierID: "platinum", Confidence: 0.85},
			},
		},
		{
			"unknown tier",
			[]config.BandConfig{
				{UpperBound: 0.5, TierID: "diamond", Confidence: 0.9},
				{UpperBound: 1.0, TierID: "platinum", Confidence: 0.85},
			},
		},
		{
			"incomplete coverage",
			[]config.BandConfig{
				{UpperBound: 0.5, TierID: "basic", Confidence: 0.9},
			},
		},
		{
			"bad confidence",
			[]config.BandConfig{
				{UpperBound: 1.0, TierID: "platinum", Confidence: 1.5},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := referenceRiskConfig()
			cfg.Bands = tc.bands
			_, err := NewEngine(cfg, table)
			assert.Error(t, err)
		})
	}
}
