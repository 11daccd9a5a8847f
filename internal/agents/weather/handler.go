// internal/agents/weather/handler.go
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"travelsure-agents/internal/common/cache"
	"travelsure-agents/internal/common/errors"
	commonhttp "travelsure-agents/internal/common/http"
	"travelsure-agents/internal/common/logger"
	"travelsure-agents/internal/common/metrics"
	"travelsure-agents/internal/models"
)

// AgentName is the bus address of this agent.
const AgentName = "weather"

// Handler resolves current airport weather into a normalized WeatherSignal.
type Handler struct {
	config Config
	client *commonhttp.Client
	cache  *cache.RedisClient
	logger logger.Logger
}

// NewHandler creates the weather agent handler. cache may be nil.
func NewHandler(cfg Config, client *commonhttp.Client, cacheClient *cache.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		client: client,
		cache:  cacheClient,
		logger: log,
	}
}

// Execute handles one WeatherRequest and returns *models.WeatherSignal.
func (h *Handler) Execute(ctx context.Context, msg interface{}) (interface{}, error) {
	start := time.Now()

	req, ok := msg.(models.WeatherRequest)
	if !ok {
		if p, isPtr := msg.(*models.WeatherRequest); isPtr {
			req = *p
		} else {
			metrics.AgentRequestsFailed.WithLabelValues(AgentName, "BAD_MESSAGE").Inc()
			return nil, fmt.Errorf("weather: unexpected message type %T", msg)
		}
	}

	if signal := h.fromCache(ctx, req.AirportCode); signal != nil {
		metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "weather").Inc()
		return signal, nil
	}

	signal, err := h.fetch(ctx, req)
	metrics.AgentRequestDuration.WithLabelValues(AgentName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentRequestsFailed.WithLabelValues(AgentName, string(errors.ErrCodeWeatherFetchFailed)).Inc()
		metrics.UpstreamFetchFailures.WithLabelValues("weather", string(errors.ErrCodeWeatherFetchFailed)).Inc()
		return nil, errors.NewWeatherFetchFailedError(req.AirportCode, err)
	}

	h.toCache(ctx, req.AirportCode, signal)
	metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "weather").Inc()
	return signal, nil
}

func (h *Handler) fetch(ctx context.Context, req models.WeatherRequest) (*models.WeatherSignal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, h.config.FetchTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("airport", req.AirportCode)
	if req.CityHint != "" {
		query.Set("q", req.CityHint)
	}
	query.Set("appid", h.config.APIKey)
	query.Set("units", "metric")

	endpoint := fmt.Sprintf("%s/weather?%s", h.config.BaseURL, query.Encode())

	start := time.Now()
	resp, err := h.client.GetJSON(fetchCtx, endpoint)
	metrics.UpstreamFetchDuration.WithLabelValues("weather").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var payload weatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	signal := &models.WeatherSignal{
		AirportCode:        req.AirportCode,
		Condition:          models.ConditionUnknown,
		TemperatureCelsius: payload.Main.Temp,
	}
	if len(payload.Weather) > 0 {
		signal.Condition = normalizeCondition(payload.Weather[0].Main)
		signal.Narrative = payload.Weather[0].Description
	}
	signal.DelayRiskLabel = delayRiskLabel(signal.Condition)

	return signal, nil
}

// normalizeCondition maps the upstream condition string onto the condition
// enum; anything unrecognized is unknown.
func normalizeCondition(raw string) models.WeatherCondition {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "clear":
		return models.ConditionClear
	case "clouds", "cloudy":
		return models.ConditionClouds
	case "rain", "drizzle":
		return models.ConditionRain
	case "snow":
		return models.ConditionSnow
	case "thunderstorm":
		return models.ConditionThunderstorm
	case "fog", "haze", "smoke":
		return models.ConditionFog
	case "mist":
		return models.ConditionMist
	default:
		return models.ConditionUnknown
	}
}

// delayRiskLabel maps a condition to the coarse weather delay-risk label.
func delayRiskLabel(condition models.WeatherCondition) string {
	switch condition {
	case models.ConditionThunderstorm:
		return "SEVERE"
	case models.ConditionSnow, models.ConditionFog, models.ConditionMist:
		return "HIGH"
	case models.ConditionRain:
		return "MODERATE"
	default:
		return "LOW"
	}
}

func (h *Handler) cacheKey(airportCode string) string {
	return fmt.Sprintf("weather:%s", airportCode)
}

func (h *Handler) fromCache(ctx context.Context, airportCode string) *models.WeatherSignal {
	if h.cache == nil {
		return nil
	}

	raw, err := h.cache.Get(ctx, h.cacheKey(airportCode))
	if err != nil {
		if cache.IsMiss(err) {
			metrics.CacheMisses.WithLabelValues(AgentName).Inc()
		}
		return nil
	}

	var signal models.WeatherSignal
	if err := json.Unmarshal([]byte(raw), &signal); err != nil {
		return nil
	}
	metrics.CacheHits.WithLabelValues(AgentName).Inc()
	return &signal
}

func (h *Handler) toCache(ctx context.Context, airportCode string, signal *models.WeatherSignal) {
	if h.cache == nil {
		return
	}

	raw, err := json.Marshal(signal)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, h.cacheKey(airportCode), string(raw), h.config.CacheTTL); err != nil {
		h.logger.WithError(err).Warn("failed to cache weather signal", nil)
	}
}
