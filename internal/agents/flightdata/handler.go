// internal/agents/flightdata/handler.go
package flightdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"travelsure-agents/internal/common/cache"
	"travelsure-agents/internal/common/errors"
	commonhttp "travelsure-agents/internal/common/http"
	"travelsure-agents/internal/common/logger"
	"travelsure-agents/internal/common/metrics"
	"travelsure-agents/internal/models"
)

// AgentName is the bus address of this agent.
const AgentName = "flightdata"

// Delay-risk label thresholds over the historical delay rate.
const (
	lowRiskBound    = 0.15
	mediumRiskBound = 0.30
)

// premiumScale converts the upstream quote premium from micro-units.
const (
	premiumScale = 1_000_000
	premiumCap   = 50.0
)

// Handler resolves flight statistics from the schedule and quote sources.
// Both fetches run concurrently; either may fail independently and the
// response degrades to the data that did arrive.
type Handler struct {
	config Config
	client *commonhttp.Client
	cache  *cache.RedisClient
	logger logger.Logger
}

// NewHandler creates the flight data agent handler. cache may be nil, which
// disables response caching.
func NewHandler(cfg Config, client *commonhttp.Client, cacheClient *cache.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		client: client,
		cache:  cacheClient,
		logger: log,
	}
}

// Execute handles one FlightStatsRequest and returns *models.FlightStatistics.
func (h *Handler) Execute(ctx context.Context, msg interface{}) (interface{}, error) {
	start := time.Now()

	req, ok := msg.(models.FlightStatsRequest)
	if !ok {
		if p, isPtr := msg.(*models.FlightStatsRequest); isPtr {
			req = *p
		} else {
			metrics.AgentRequestsFailed.WithLabelValues(AgentName, "BAD_MESSAGE").Inc()
			return nil, fmt.Errorf("flightdata: unexpected message type %T", msg)
		}
	}

	log := h.logger.WithFields(map[string]interface{}{
		"airline": req.AirlineCode,
		"flight":  req.FlightNumber,
		"date":    req.Date,
	})

	if stats := h.fromCache(ctx, req); stats != nil {
		log.Debug("flight statistics served from cache", nil)
		metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "flight_stats").Inc()
		return stats, nil
	}

	stats, err := h.fetch(ctx, req, log)
	metrics.AgentRequestDuration.WithLabelValues(AgentName).Observe(time.Since(start).Seconds())
	if err != nil {
		if stdErr, isStd := err.(*errors.StandardError); isStd {
			metrics.AgentRequestsFailed.WithLabelValues(AgentName, string(stdErr.Code)).Inc()
		} else {
			metrics.AgentRequestsFailed.WithLabelValues(AgentName, "UNKNOWN").Inc()
		}
		return nil, err
	}

	h.toCache(ctx, req, stats)
	metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "flight_stats").Inc()
	return stats, nil
}

// fetch runs the schedule and quote lookups concurrently and merges whatever
// arrived. Both failing is an error; one failing only degrades the result.
func (h *Handler) fetch(ctx context.Context, req models.FlightStatsRequest, log logger.Logger) (*models.FlightStatistics, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, h.config.FetchTimeout)
	defer cancel()

	var (
		wg          sync.WaitGroup
		schedule    *schedulePayload
		scheduleErr error
		quote       *quotePayload
		quoteErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		schedule, scheduleErr = h.fetchSchedule(fetchCtx, req)
	}()
	go func() {
		defer wg.Done()
		quote, quoteErr = h.fetchQuote(fetchCtx, req)
	}()
	wg.Wait()

	if scheduleErr != nil {
		log.WithError(scheduleErr).Warn("schedule fetch failed", nil)
		metrics.UpstreamFetchFailures.WithLabelValues("schedule", string(errors.ErrCodeScheduleFetchFailed)).Inc()
	}
	if quoteErr != nil {
		log.WithError(quoteErr).Warn("quote fetch failed", nil)
		metrics.UpstreamFetchFailures.WithLabelValues("quote", string(errors.ErrCodeQuoteFetchFailed)).Inc()
	}
	if scheduleErr != nil && quoteErr != nil {
		return nil, errors.NewScheduleFetchFailedError(
			fmt.Errorf("schedule: %v; quote: %v", scheduleErr, quoteErr))
	}

	stats := &models.FlightStatistics{
		AirlineCode:  req.AirlineCode,
		FlightNumber: req.FlightNumber,
		Date:         req.Date,
	}
	if schedule != nil {
		applySchedule(stats, schedule)
	}
	if quote != nil {
		applyQuote(stats, quote)
	}
	stats.DelayRiskLabel = delayRiskLabel(stats)

	return stats, nil
}

func (h *Handler) fetchSchedule(ctx context.Context, req models.FlightStatsRequest) (*schedulePayload, error) {
	url := fmt.Sprintf("%s/flightstats/schedule/%s/%s/%s",
		h.config.ScheduleBaseURL, req.AirlineCode, req.FlightNumber, req.Date)

	start := time.Now()
	body, err := h.get(ctx, url)
	metrics.UpstreamFetchDuration.WithLabelValues("schedule").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	var payload schedulePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode schedule response: %w", err)
	}
	if len(payload.ScheduledFlights) == 0 {
		return nil, fmt.Errorf("no scheduled flights for %s %s on %s",
			req.AirlineCode, req.FlightNumber, req.Date)
	}
	return &payload, nil
}

func (h *Handler) fetchQuote(ctx context.Context, req models.FlightStatsRequest) (*quotePayload, error) {
	url := fmt.Sprintf("%s/quote/%s/%s",
		h.config.QuoteBaseURL, req.AirlineCode, req.FlightNumber)

	start := time.Now()
	body, err := h.get(ctx, url)
	metrics.UpstreamFetchDuration.WithLabelValues("quote").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	var payload quotePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	return &payload, nil
}

func (h *Handler) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := h.client.GetJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// applySchedule fills the route fields from the first scheduled flight and
// the airport appendix.
func applySchedule(stats *models.FlightStatistics, payload *schedulePayload) {
	flight := payload.ScheduledFlights[0]
	stats.OriginCode = flight.DepartureAirportFsCode
	stats.DestinationCode = flight.ArrivalAirportFsCode
	stats.DepartureTime = flight.DepartureTime
	stats.ArrivalTime = flight.ArrivalTime

	for _, ap := range payload.Appendix.Airports {
		switch ap.Fs {
		case flight.DepartureAirportFsCode:
			stats.OriginCity = ap.City
		case flight.ArrivalAirportFsCode:
			stats.DestinationCity = ap.City
		}
	}
}

// applyQuote fills the performance fields from the quote statistics. The
// premium arrives in micro-units and is capped after scaling.
func applyQuote(stats *models.FlightStatistics, payload *quotePayload) {
	if payload.OnTimePercent != nil {
		pct := *payload.OnTimePercent
		if pct > 1 {
			pct /= 100
		}
		stats.OnTimePercent = pct
		stats.HasOnTimePercent = true
	}

	if len(payload.Statistics) >= 4 {
		stats.OnTimeCount = payload.Statistics[0]
		stats.DelayedCount = payload.Statistics[1]
		stats.CancelledCount = payload.Statistics[2]
		stats.DivertedCount = payload.Statistics[3]
		stats.TotalHistoricalFlights = payload.Statistics[0] + payload.Statistics[1] +
			payload.Statistics[2] + payload.Statistics[3]
	}

	if payload.Premium > 0 {
		premium := payload.Premium / premiumScale
		if premium > premiumCap {
			premium = premiumCap
		}
		stats.SuggestedPremium = premium
	}
}

// delayRiskLabel derives the coarse historical delay-risk label.
func delayRiskLabel(stats *models.FlightStatistics) string {
	if !stats.HasOnTimePercent {
		return ""
	}
	delayRate := 1 - stats.OnTimePercent
	switch {
	case delayRate < lowRiskBound:
		return "LOW"
	case delayRate < mediumRiskBound:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

func (h *Handler) cacheKey(req models.FlightStatsRequest) string {
	return fmt.Sprintf("flightstats:%s:%s:%s", req.AirlineCode, req.FlightNumber, req.Date)
}

func (h *Handler) fromCache(ctx context.Context, req models.FlightStatsRequest) *models.FlightStatistics {
	if h.cache == nil {
		return nil
	}

	raw, err := h.cache.Get(ctx, h.cacheKey(req))
	if err != nil {
		if cache.IsMiss(err) {
			metrics.CacheMisses.WithLabelValues(AgentName).Inc()
		}
		return nil
	}

	var stats models.FlightStatistics
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil
	}
	metrics.CacheHits.WithLabelValues(AgentName).Inc()
	return &stats
}

func (h *Handler) toCache(ctx context.Context, req models.FlightStatsRequest, stats *models.FlightStatistics) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, h.cacheKey(req), string(raw), h.config.CacheTTL); err != nil {
		h.logger.WithError(err).Warn("failed to cache flight statistics", nil)
	}
}
