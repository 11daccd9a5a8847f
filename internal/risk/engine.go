// Package risk implements the tier recommendation engine: a pure function
// from flight statistics and optional secondary signals to a recommended
// coverage tier, a confidence, and a priced tier list. It performs no I/O;
// all external data arrives already resolved.
package risk

import (
	"fmt"
	"strings"
	"time"

	"travelsure-agents/internal/common/config"
	"travelsure-agents/internal/common/errors"
	"travelsure-agents/internal/models"
	"travelsure-agents/internal/pricing"
)

// Risk levels reported on an assessment.
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

const (
	defaultOnTimePercent   = 0.5
	confidenceCap          = 0.95
	signalConfidenceBoost  = 0.05
	largeSampleFlightCount = 50
	fallbackPremium        = 25.0
)

// Season tags derived from the flight date.
const (
	seasonWinter  = "winter"
	seasonSummer  = "summer"
	seasonHoliday = "holiday"
)

// Context carries the static reference data the engine consults. It is loaded
// once at startup, never fetched per request.
type Context struct {
	CongestionSet map[string]bool
}

// Assessment is the engine's structured output.
type Assessment struct {
	RecommendedTierID string               `json:"recommendedTierId"`
	Confidence        float64              `json:"confidence"`
	RiskFactors       []string             `json:"riskFactors"`
	Reasoning         string               `json:"reasoning"`
	RiskLevel         string               `json:"riskLevel"`
	PricedTiers       []pricing.PricedTier `json:"pricedTiers"`
	EstimatedPremium  float64              `json:"estimatedPremium"`
	DelayRate         float64              `json:"delayRate"`
	AdjustedDelayRate float64              `json:"adjustedDelayRate"`
	Escalated         bool                 `json:"escalated"`
}

// Engine selects tiers over configured delay-rate bands and applies bounded
// additive adjustments for secondary signals. Stateless and safe for
// concurrent use.
type Engine struct {
	bands       []config.BandConfig
	adjustments config.AdjustmentsConfig
	table       *pricing.Table
}

// NewEngine validates the band configuration against the tier table and
// returns an engine. Invalid bands fail at load time.
func NewEngine(cfg config.RiskConfig, table *pricing.Table) (*Engine, error) {
	if len(cfg.Bands) == 0 {
		return nil, errors.NewBandConfigInvalidError("at least one band is required")
	}

	prev := 0.0
	for i, band := range cfg.Bands {
		if band.UpperBound <= prev {
			return nil, errors.NewBandConfigInvalidError(
				fmt.Sprintf("band %d: upper bound %.2f does not increase", i, band.UpperBound))
		}
		if band.Confidence <= 0 || band.Confidence > 1 {
			return nil, errors.NewBandConfigInvalidError(
				fmt.Sprintf("band %d: confidence %.2f outside (0,1]", i, band.Confidence))
		}
		if _, ok := table.Get(band.TierID); !ok {
			return nil, errors.NewBandConfigInvalidError(
				fmt.Sprintf("band %d: unknown tier %q", i, band.TierID))
		}
		prev = band.UpperBound
	}
	if cfg.Bands[len(cfg.Bands)-1].UpperBound < 1.0 {
		return nil, errors.NewBandConfigInvalidError("bands must cover delay rates up to 1.0")
	}

	return &Engine{
		bands:       cfg.Bands,
		adjustments: cfg.Adjustments,
		table:       table,
	}, nil
}

// Assess maps flight statistics and optional signals to a recommendation.
// A nil flight is a caller contract violation; absent optional signals only
// reduce confidence, never fail the call.
func (e *Engine) Assess(flight *models.FlightStatistics, weather *models.WeatherSignal, rctx Context) (*Assessment, error) {
	if flight == nil {
		return nil, errors.NewMissingFlightStatsError()
	}

	onTime := defaultOnTimePercent
	if flight.HasOnTimePercent {
		onTime = clamp(flight.OnTimePercent, 0, 1)
	}
	delayRate := 1 - onTime

	baseBand := e.bandFor(delayRate)

	var reasoning []string
	reasoning = append(reasoning, fmt.Sprintf(
		"Historical on-time performance is %.0f%% (delay rate %.0f%%), which places this flight in the %s band.",
		onTime*100, delayRate*100, e.bands[baseBand].TierID))

	adjustment, signalLines, factorParts := e.scoreSignals(flight, weather, rctx)
	reasoning = append(reasoning, signalLines...)

	adjusted := clamp(delayRate+adjustment, 0, 1)
	finalBand := baseBand
	escalated := false
	if adjustedBand := e.bandFor(adjusted); adjustedBand > baseBand {
		finalBand = adjustedBand
		escalated = true
		reasoning = append(reasoning, fmt.Sprintf(
			"Combined risk signals raise the effective delay rate to %.0f%%, escalating the recommendation to %s.",
			adjusted*100, e.bands[finalBand].TierID))
	}

	recommendedTierID := e.bands[finalBand].TierID

	confidence := e.refineConfidence(e.bands[finalBand].Confidence, flight, weather)

	factors := buildRiskFactors(flight, onTime, factorParts)

	priced := e.table.PriceAll(recommendedTierID)
	fallback := fallbackPremium
	if flight.SuggestedPremium > 0 {
		fallback = flight.SuggestedPremium
	}
	premium := e.table.PremiumFor(recommendedTierID, fallback)

	tierName := recommendedTierID
	if tier, ok := e.table.Get(recommendedTierID); ok {
		tierName = tier.DisplayName
	}
	reasoning = append(reasoning, fmt.Sprintf(
		"Recommended tier: %s at an estimated premium of %.2f (confidence %.0f%%).",
		tierName, premium, confidence*100))

	return &Assessment{
		RecommendedTierID: recommendedTierID,
		Confidence:        confidence,
		RiskFactors:       factors,
		Reasoning:         strings.Join(reasoning, "\n"),
		RiskLevel:         e.levelFor(finalBand),
		PricedTiers:       priced,
		EstimatedPremium:  premium,
		DelayRate:         delayRate,
		AdjustedDelayRate: adjusted,
		Escalated:         escalated,
	}, nil
}

// bandFor returns the index of the band covering the given delay rate. Bands
// are half-open [prev, upper); the last band also catches 1.0.
func (e *Engine) bandFor(delayRate float64) int {
	for i, band := range e.bands {
		if delayRate < band.UpperBound {
			return i
		}
	}
	return len(e.bands) - 1
}

// levelFor maps a band index to a coarse risk level: first band LOW, last
// band HIGH, everything between MEDIUM.
func (e *Engine) levelFor(band int) string {
	switch {
	case band == 0:
		return LevelLow
	case band == len(e.bands)-1:
		return LevelHigh
	default:
		return LevelMedium
	}
}

// signalFactors carries per-category risk factor fragments in display order.
type signalFactors struct {
	weather      string
	congestion   string
	season       string
	cancellation string
}

// scoreSignals computes the additive adjustment and the narrative fragments
// for every signal actually present. Absent signals contribute nothing.
func (e *Engine) scoreSignals(flight *models.FlightStatistics, weather *models.WeatherSignal, rctx Context) (float64, []string, signalFactors) {
	adjustment := 0.0
	var lines []string
	var factors signalFactors

	if weather != nil {
		switch weather.Condition {
		case models.ConditionThunderstorm, models.ConditionSnow, models.ConditionFog:
			adjustment += e.adjustments.SevereWeather
			factors.weather = fmt.Sprintf("Weather: %s conditions significantly increase delay risk", weather.Condition)
			lines = append(lines, fmt.Sprintf(
				"Current %s conditions add a severe weather penalty (+%.0f%%).",
				weather.Condition, e.adjustments.SevereWeather*100))
		case models.ConditionRain:
			adjustment += e.adjustments.Rain
			factors.weather = "Weather: rain may cause moderate delays"
			lines = append(lines, fmt.Sprintf(
				"Rain adds a moderate weather penalty (+%.0f%%).", e.adjustments.Rain*100))
		case models.ConditionClear, models.ConditionClouds:
			factors.weather = fmt.Sprintf("Weather: %s conditions, favorable for on-time departure", weather.Condition)
			lines = append(lines, "Weather conditions are favorable and add no delay risk.")
		default:
			factors.weather = fmt.Sprintf("Weather: %s conditions reported", weather.Condition)
			lines = append(lines, fmt.Sprintf(
				"Reported %s conditions do not change the risk estimate.", weather.Condition))
		}
	}

	var congested []string
	if flight.OriginCode != "" && rctx.CongestionSet[flight.OriginCode] {
		adjustment += e.adjustments.CongestedAirport
		congested = append(congested, flight.OriginCode)
	}
	if flight.DestinationCode != "" && rctx.CongestionSet[flight.DestinationCode] {
		adjustment += e.adjustments.CongestedAirport
		congested = append(congested, flight.DestinationCode)
	}
	if len(congested) > 0 {
		factors.congestion = fmt.Sprintf("Congestion: %s known for traffic delays", strings.Join(congested, ", "))
		lines = append(lines, fmt.Sprintf(
			"Congested airport(s) %s add +%.0f%% each.",
			strings.Join(congested, ", "), e.adjustments.CongestedAirport*100))
	}

	if season := seasonOf(flight.Date); season != "" {
		var penalty float64
		switch season {
		case seasonHoliday:
			penalty = e.adjustments.HolidayPeriod
			factors.season = "Season: holiday travel period with peak demand"
		case seasonWinter:
			penalty = e.adjustments.WinterSeason
			factors.season = "Season: winter weather increases delay likelihood"
		case seasonSummer:
			penalty = e.adjustments.SummerSeason
			factors.season = "Season: summer thunderstorm season"
		}
		if penalty > 0 {
			adjustment += penalty
			lines = append(lines, fmt.Sprintf(
				"Travel falls in the %s period (+%.0f%%).", season, penalty*100))
		}
	}

	if flight.CancelledCount > 0 {
		adjustment += e.adjustments.CancellationHist
		factors.cancellation = fmt.Sprintf(
			"Cancellation history: %d cancellation(s) on record", flight.CancelledCount)
		lines = append(lines, fmt.Sprintf(
			"This flight has %d recorded cancellation(s) (+%.0f%%).",
			flight.CancelledCount, e.adjustments.CancellationHist*100))
	}

	return adjustment, lines, factors
}

// refineConfidence raises the band base confidence slightly per corroborating
// signal, capped.
func (e *Engine) refineConfidence(base float64, flight *models.FlightStatistics, weather *models.WeatherSignal) float64 {
	confidence := base
	if weather != nil {
		confidence += signalConfidenceBoost
	}
	if flight.OriginCode != "" && flight.DestinationCode != "" {
		confidence += signalConfidenceBoost
	}
	if flight.Date != "" {
		confidence += signalConfidenceBoost
	}
	if flight.TotalHistoricalFlights > largeSampleFlightCount {
		confidence += signalConfidenceBoost
	}
	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	return confidence
}

// buildRiskFactors assembles the display list in its fixed category order,
// one entry per present category, duplicates suppressed.
func buildRiskFactors(flight *models.FlightStatistics, onTime float64, parts signalFactors) []string {
	var factors []string
	factors = append(factors, fmt.Sprintf(
		"On-time performance: %.0f%% of %d tracked flights",
		onTime*100, flight.TotalHistoricalFlights))

	for _, f := range []string{parts.weather, parts.congestion, parts.season, parts.cancellation} {
		if f != "" {
			factors = append(factors, f)
		}
	}

	if flight.OriginCity != "" && flight.DestinationCity != "" {
		factors = append(factors, fmt.Sprintf(
			"Route: %s to %s", flight.OriginCity, flight.DestinationCity))
	}

	return dedupe(factors)
}

// dedupe removes repeated entries while preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// seasonOf derives the seasonal tag from a YYYY-MM-DD flight date. The
// holiday window (Nov 1 through Dec 15, and Jan 1 through Jan 6) takes
// precedence over the plain seasonal adjustment for the same date.
func seasonOf(date string) string {
	if date == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}

	month, day := t.Month(), t.Day()

	switch {
	case month == time.November,
		month == time.December && day <= 15,
		month == time.January && day <= 6:
		return seasonHoliday
	case month == time.December, month == time.January, month == time.February:
		return seasonWinter
	case month >= time.June && month <= time.August:
		return seasonSummer
	default:
		return ""
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
