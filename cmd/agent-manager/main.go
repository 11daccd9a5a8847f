// cmd/agent-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"travelsure-agents/internal/agentbus"
	"travelsure-agents/internal/common/cache"
	"travelsure-agents/internal/common/config"
	commonhttp "travelsure-agents/internal/common/http"
	"travelsure-agents/internal/common/logger"
	"travelsure-agents/internal/common/observability"
	"travelsure-agents/internal/knowledge"
	"travelsure-agents/internal/pricing"
	"travelsure-agents/internal/risk"
	"travelsure-agents/pkg/registry"

	"travelsure-agents/internal/agents/advisor"
	"travelsure-agents/internal/agents/flightdata"
	"travelsure-agents/internal/agents/weather"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting agent manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("agent-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis cache with retry ---
	var redisClient *cache.RedisClient
	err = retryWithBackoff(func() error {
		client, err := cache.NewRedis(cfg.Cache.Redis)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			client.Close()
			return err
		}
		redisClient = client
		return nil
	}, 5, 2*time.Second, zapLog, "Redis initialization")
	if err != nil {
		zapLog.Warn("Redis unavailable, running without response cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// --- Static tables: tiers, bands, knowledge ---
	table, err := pricing.NewTable(cfg.Pricing.Tiers)
	if err != nil {
		zapLog.Fatal("tier configuration invalid", zap.Error(err))
	}

	engine, err := risk.NewEngine(cfg.Risk, table)
	if err != nil {
		zapLog.Fatal("risk band configuration invalid", zap.Error(err))
	}

	kb := knowledge.NewSeeded()

	// --- Agent bus ---
	bus := agentbus.New(agentbus.Options{
		RequestTTL:  config.GetDuration(cfg.Bus.RequestTTL),
		JanitorTick: config.GetDuration(cfg.Bus.JanitorTick),
	}, log)
	defer bus.Close()

	// --- Register agents ---
	registered := 0

	if config.IsAgentEnabled(cfg, flightdata.AgentName) {
		handler := flightdata.NewHandler(flightdata.Config{
			ScheduleBaseURL: cfg.APIs.FlightSchedule.BaseURL,
			QuoteBaseURL:    cfg.APIs.FlightQuote.BaseURL,
			FetchTimeout:    config.GetDuration(cfg.APIs.FlightSchedule.Timeout),
			CacheTTL:        time.Duration(cfg.Cache.Redis.TTL) * time.Second,
		}, commonhttp.NewClient(config.GetDuration(cfg.APIs.FlightSchedule.Timeout)), redisClient, log)
		bus.Register(flightdata.AgentName, instrument(obs, flightdata.AgentName, handler.Execute))
		registered++
	}

	if config.IsAgentEnabled(cfg, weather.AgentName) {
		handler := weather.NewHandler(weather.Config{
			BaseURL:      cfg.APIs.Weather.BaseURL,
			APIKey:       cfg.APIs.Weather.APIKey,
			FetchTimeout: config.GetDuration(cfg.APIs.Weather.Timeout),
			CacheTTL:     time.Duration(cfg.Cache.Redis.TTL) * time.Second,
		}, commonhttp.NewClient(config.GetDuration(cfg.APIs.Weather.Timeout)), redisClient, log)
		bus.Register(weather.AgentName, instrument(obs, weather.AgentName, handler.Execute))
		registered++
	}

	if config.IsAgentEnabled(cfg, advisor.AgentName) {
		advisorCfg := config.GetAgentConfig(cfg, advisor.AgentName)
		handler := advisor.NewHandler(advisor.Config{
			RequestTimeout: config.GetDuration(advisorCfg.Timeout),
		}, bus, engine, kb, log)
		bus.Register(advisor.AgentName, instrument(obs, advisor.AgentName, handler.Execute))
		registered++
	}

	zapLog.Info("Agents registered", zap.Int("count", registered))

	// Cross-check the registered agents against the catalog when present.
	if reg, err := registry.LoadRegistry("configs/agent-registry.json"); err == nil {
		for _, name := range []string{flightdata.AgentName, weather.AgentName, advisor.AgentName} {
			if !config.IsAgentEnabled(cfg, name) {
				continue
			}
			if entry, ok := reg.Find(name); ok {
				zapLog.Info("Agent catalog entry",
					zap.String("agent", entry.ID),
					zap.String("displayName", entry.DisplayName),
					zap.Strings("messageTypes", entry.MessageTypes),
				)
			} else {
				zapLog.Warn("Agent missing from catalog", zap.String("agent", name))
			}
		}
	} else {
		zapLog.Warn("Agent catalog not loaded", zap.Error(err))
	}

	// --- Metrics/health endpoint ---
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
		go func() {
			zapLog.Info("Metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Wait for shutdown signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zapLog.Info("Shutting down", zap.String("signal", sig.String()))

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			zapLog.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
}

// instrument wraps a bus handler with request count and duration recording.
func instrument(obs *observability.Observability, agent string, next agentbus.Handler) agentbus.Handler {
	return func(ctx context.Context, msg interface{}) (interface{}, error) {
		start := time.Now()
		result, err := next(ctx, msg)

		status := "success"
		if err != nil {
			status = "error"
		}
		obs.RecordRequestProcessed(ctx, agent, status)
		obs.RecordRequestDuration(ctx, agent, time.Since(start), status)

		return result, err
	}
}
