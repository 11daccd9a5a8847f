// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like WEATHER_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the nearest plausible location.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars expands ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.Weather.APIKey == "" {
		if val := os.Getenv("WEATHER_API_KEY"); val != "" {
			cfg.APIs.Weather.APIKey = val
		}
	}

	if cfg.Cache.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Cache.Redis.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Cache defaults
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = "localhost:6379"
	}
	if cfg.Cache.Redis.TTL == 0 {
		cfg.Cache.Redis.TTL = 1800
	}

	// Bus defaults
	if cfg.Bus.RequestTTL == 0 {
		cfg.Bus.RequestTTL = 30000
	}
	if cfg.Bus.JanitorTick == 0 {
		cfg.Bus.JanitorTick = 5000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Agent defaults
	for key, agent := range cfg.Agents {
		if agent.Timeout == 0 {
			agent.Timeout = 30000
		}
		if agent.MaxRetries == 0 {
			agent.MaxRetries = 3
		}
		cfg.Agents[key] = agent
	}

	// API timeout defaults
	if cfg.APIs.FlightSchedule.Timeout == 0 {
		cfg.APIs.FlightSchedule.Timeout = 10000
	}
	if cfg.APIs.FlightQuote.Timeout == 0 {
		cfg.APIs.FlightQuote.Timeout = 10000
	}
	if cfg.APIs.Weather.Timeout == 0 {
		cfg.APIs.Weather.Timeout = 10000
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}

	// Risk defaults: the reference band table and adjustment magnitudes
	if len(cfg.Risk.Bands) == 0 {
		cfg.Risk.Bands = []BandConfig{
			{UpperBound: 0.10, TierID: "basic", Confidence: 0.90},
			{UpperBound: 0.20, TierID: "silver", Confidence: 0.85},
			{UpperBound: 0.35, TierID: "gold", Confidence: 0.80},
			{UpperBound: 1.0, TierID: "platinum", Confidence: 0.85},
		}
	}
	if cfg.Risk.Adjustments == (AdjustmentsConfig{}) {
		cfg.Risk.Adjustments = AdjustmentsConfig{
			SevereWeather:    0.15,
			Rain:             0.05,
			CongestedAirport: 0.10,
			WinterSeason:     0.12,
			SummerSeason:     0.08,
			HolidayPeriod:    0.15,
			CancellationHist: 0.10,
		}
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required")
	}

	if len(cfg.Pricing.Tiers) == 0 {
		return fmt.Errorf("pricing.tiers must contain at least one tier")
	}
	for _, tier := range cfg.Pricing.Tiers {
		if tier.ID == "" {
			return fmt.Errorf("pricing tier missing id")
		}
		if tier.PayoutAmount <= 0 {
			return fmt.Errorf("pricing tier %s: payout_amount must be positive", tier.ID)
		}
		if tier.MultiplierBps <= 0 {
			return fmt.Errorf("pricing tier %s: multiplier_bps must be positive", tier.ID)
		}
		if tier.ClaimProbabilityBps < 0 || tier.ClaimProbabilityBps > 10000 {
			return fmt.Errorf("pricing tier %s: claim_probability_bps must be within [0,10000]", tier.ID)
		}
		if tier.MarginBps < 0 {
			return fmt.Errorf("pricing tier %s: margin_bps must not be negative", tier.ID)
		}
	}

	prev := 0.0
	for i, band := range cfg.Risk.Bands {
		if band.UpperBound <= prev {
			return fmt.Errorf("risk band %d: upper_bound must increase strictly", i)
		}
		if band.Confidence <= 0 || band.Confidence > 1 {
			return fmt.Errorf("risk band %d: confidence must be within (0,1]", i)
		}
		prev = band.UpperBound
	}
	if n := len(cfg.Risk.Bands); n > 0 && cfg.Risk.Bands[n-1].UpperBound < 1.0 {
		return fmt.Errorf("risk bands must cover delay rates up to 1.0")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetAgentConfig retrieves agent-specific configuration with fallback to defaults
func GetAgentConfig(cfg *Config, agentName string) AgentConfig {
	if agent, exists := cfg.Agents[agentName]; exists {
		return agent
	}

	return AgentConfig{
		Enabled:    true,
		Timeout:    30000,
		MaxRetries: 3,
	}
}

// IsAgentEnabled checks if a specific agent is enabled
func IsAgentEnabled(cfg *Config, agentName string) bool {
	if agent, exists := cfg.Agents[agentName]; exists {
		return agent.Enabled
	}
	return true
}
