// internal/agents/advisor/handler.go
package advisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"travelsure-agents/internal/common/logger"
	"travelsure-agents/internal/common/metrics"
	"travelsure-agents/internal/intent"
	"travelsure-agents/internal/knowledge"
	"travelsure-agents/internal/models"
	"travelsure-agents/internal/risk"

	"travelsure-agents/internal/agents/flightdata"
	"travelsure-agents/internal/agents/weather"
)

// AgentName is the bus address of this agent.
const AgentName = "advisor"

// Requester is the slice of the agent bus the advisor needs.
type Requester interface {
	Request(ctx context.Context, to string, msg interface{}) (interface{}, error)
}

// Handler is the chat entrypoint. It classifies inbound messages, gathers
// flight and weather data through the bus, runs the risk engine, and renders
// the recommendation reply.
type Handler struct {
	config    Config
	bus       Requester
	engine    *risk.Engine
	knowledge *knowledge.Base
	riskCtx   risk.Context
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler creates the advisor handler.
func NewHandler(cfg Config, bus Requester, engine *risk.Engine, kb *knowledge.Base, log logger.Logger) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Handler{
		config:    cfg,
		bus:       bus,
		engine:    engine,
		knowledge: kb,
		riskCtx:   risk.Context{CongestionSet: kb.CongestionSet()},
		logger:    log,
		now:       time.Now,
	}
}

// Execute handles ChatMessage and RecommendationRequest messages.
func (h *Handler) Execute(ctx context.Context, msg interface{}) (interface{}, error) {
	start := time.Now()
	defer func() {
		metrics.AgentRequestDuration.WithLabelValues(AgentName).Observe(time.Since(start).Seconds())
	}()

	switch m := msg.(type) {
	case models.ChatMessage:
		reply := h.handleChat(ctx, m)
		metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "chat").Inc()
		return reply, nil
	case *models.ChatMessage:
		reply := h.handleChat(ctx, *m)
		metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "chat").Inc()
		return reply, nil
	case models.RecommendationRequest:
		return h.handleRecommendation(ctx, m)
	case *models.RecommendationRequest:
		return h.handleRecommendation(ctx, *m)
	default:
		metrics.AgentRequestsFailed.WithLabelValues(AgentName, "BAD_MESSAGE").Inc()
		return nil, fmt.Errorf("advisor: unexpected message type %T", msg)
	}
}

// handleChat runs the chat pipeline. It never returns an error; failures
// become an apologetic reply.
func (h *Handler) handleChat(ctx context.Context, msg models.ChatMessage) models.ChatReply {
	log := h.logger.WithFields(map[string]interface{}{"session": msg.SessionID})

	classification := intent.Classify(msg.Text)
	log.Debug("classified chat message", map[string]interface{}{
		"intent": classification.Intent.String(),
	})

	var text string
	switch classification.Intent {
	case intent.IntentGreeting:
		text = h.greetingText()
	case intent.IntentHelp:
		text = h.helpText()
	case intent.IntentFAQ:
		text = h.faqText(classification.FAQKey)
	case intent.IntentQuoteRequest:
		text = h.quoteText(ctx, msg.Text, log)
	default:
		text = h.unknownText()
	}

	return models.ChatReply{
		SessionID: msg.SessionID,
		Text:      text,
		Timestamp: h.now().UTC(),
	}
}

// quoteText parses the flight query and produces the recommendation reply.
func (h *Handler) quoteText(ctx context.Context, text string, log logger.Logger) string {
	query, err := intent.ParseFlightQuery(text, h.now())
	if err != nil {
		return "I couldn't find a flight in that message. Try something like \"AA 100 tomorrow\" or \"BA 249 on 2026-07-04\"."
	}

	assessment, stats, err := h.assess(ctx, query.AirlineCode, query.FlightNumber, query.Date)
	if err != nil {
		log.WithError(err).Warn("could not analyze flight", map[string]interface{}{
			"airline": query.AirlineCode,
			"flight":  query.FlightNumber,
		})
		return fmt.Sprintf(
			"Sorry, I couldn't analyze flight %s %s right now. The flight data service did not respond. Please try again in a moment.",
			query.AirlineCode, query.FlightNumber)
	}

	return renderRecommendation(query, stats, assessment)
}

// handleRecommendation serves direct structured requests over the bus.
func (h *Handler) handleRecommendation(ctx context.Context, req models.RecommendationRequest) (interface{}, error) {
	date := req.Date
	if date == "" {
		date = h.now().AddDate(0, 0, 1).Format("2006-01-02")
	}

	assessment, _, err := h.assess(ctx, req.AirlineCode, req.FlightNumber, date)
	if err != nil {
		metrics.AgentRequestsFailed.WithLabelValues(AgentName, "ASSESSMENT_FAILED").Inc()
		return nil, err
	}

	metrics.AgentRequestsCompleted.WithLabelValues(AgentName, "recommendation").Inc()
	return assessment, nil
}

// assess gathers flight statistics and weather, then runs the engine. A
// flight data failure fails the call; weather failures only drop the signal.
func (h *Handler) assess(ctx context.Context, airline, flight, date string) (*risk.Assessment, *models.FlightStatistics, error) {
	reqCtx, cancel := context.WithTimeout(ctx, h.config.RequestTimeout)
	defer cancel()

	result, err := h.bus.Request(reqCtx, flightdata.AgentName, models.FlightStatsRequest{
		AirlineCode:  airline,
		FlightNumber: flight,
		Date:         date,
	})
	if err != nil {
		return nil, nil, err
	}

	stats, ok := result.(*models.FlightStatistics)
	if !ok {
		return nil, nil, fmt.Errorf("advisor: unexpected flight stats payload %T", result)
	}

	signal := h.gatherWeather(ctx, stats)

	assessment, err := h.engine.Assess(stats, signal, h.riskCtx)
	if err != nil {
		return nil, nil, err
	}

	metrics.RecommendationsIssued.WithLabelValues(assessment.RecommendedTierID, assessment.RiskLevel).Inc()
	return assessment, stats, nil
}

// gatherWeather queries both route airports concurrently and prefers the
// destination reading. Any failure just drops that airport's signal.
func (h *Handler) gatherWeather(ctx context.Context, stats *models.FlightStatistics) *models.WeatherSignal {
	codes := []struct {
		code string
		city string
	}{
		{stats.OriginCode, stats.OriginCity},
		{stats.DestinationCode, stats.DestinationCity},
	}

	signals := make([]*models.WeatherSignal, len(codes))
	var wg sync.WaitGroup
	for i, target := range codes {
		if target.code == "" {
			continue
		}
		wg.Add(1)
		go func(i int, code, city string) {
			defer wg.Done()

			reqCtx, cancel := context.WithTimeout(ctx, h.config.RequestTimeout)
			defer cancel()

			result, err := h.bus.Request(reqCtx, weather.AgentName, models.WeatherRequest{
				AirportCode: code,
				CityHint:    city,
			})
			if err != nil {
				h.logger.WithError(err).Debug("weather unavailable", map[string]interface{}{
					"airport": code,
				})
				return
			}
			if signal, ok := result.(*models.WeatherSignal); ok {
				signals[i] = signal
			}
		}(i, target.code, target.city)
	}
	wg.Wait()

	// Destination preferred over origin when both resolved.
	if signals[1] != nil {
		return signals[1]
	}
	return signals[0]
}

// ==========================
// Canned chat texts
// ==========================

func (h *Handler) greetingText() string {
	return "Hello! I'm your flight insurance advisor. " +
		h.knowledge.First(knowledge.CategoryFAQ, "how_it_works")
}

func (h *Handler) helpText() string {
	text := "Here's what I can do:\n" +
		"- Analyze a flight and recommend a coverage tier (e.g. \"AA 100 tomorrow\")\n" +
		"- Answer questions about payouts, pricing, and coverage\n\n" +
		"Available coverage tiers:\n"
	for tier, descs := range h.knowledge.All(knowledge.CategoryTierDescriptions) {
		if len(descs) > 0 {
			text += fmt.Sprintf("- %s: %s\n", tier, descs[0])
		}
	}
	return text
}

func (h *Handler) faqText(key string) string {
	if answer := h.knowledge.First(knowledge.CategoryFAQ, key); answer != "" {
		return answer
	}
	return h.unknownText()
}

func (h *Handler) unknownText() string {
	return "I'm not sure how to help with that. " +
		"Tell me a flight like \"AA 100 tomorrow\" and I'll recommend coverage, or ask \"help\" to see what I can do."
}
