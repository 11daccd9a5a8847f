// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig              `mapstructure:"app"`
	Cache   CacheConfig            `mapstructure:"cache"`
	APIs    APIsConfig             `mapstructure:"apis"`
	Pricing PricingConfig          `mapstructure:"pricing"`
	Risk    RiskConfig             `mapstructure:"risk"`
	Agents  map[string]AgentConfig `mapstructure:"agents"`
	Bus     BusConfig              `mapstructure:"bus"`
	Logging LoggingConfig          `mapstructure:"logging"`
	Metrics MetricsConfig          `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds, default cache entry lifetime
}

// AgentConfig holds the core settings applicable to every agent.
type AgentConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"` // milliseconds
	MaxRetries int  `mapstructure:"max_retries"`
}

// BusConfig holds settings for the in-process agent bus.
type BusConfig struct {
	RequestTTL  int `mapstructure:"request_ttl"`  // milliseconds before a pending request expires
	JanitorTick int `mapstructure:"janitor_tick"` // milliseconds between expiry sweeps
}

// --- External API Configuration ---

// APIsConfig holds settings for the upstream data sources.
type APIsConfig struct {
	FlightSchedule struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"flight_schedule"`

	FlightQuote struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"flight_quote"`

	Weather struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"weather"`
}

// --- Domain Configuration Sections ---

// PricingConfig holds the coverage tier table.
type PricingConfig struct {
	Tiers []TierConfig `mapstructure:"tiers"`
}

// TierConfig is one coverage tier row as configured.
type TierConfig struct {
	ID                  string  `mapstructure:"id"`
	Name                string  `mapstructure:"name"`
	Description         string  `mapstructure:"description"`
	DelayThresholdHours float64 `mapstructure:"delay_threshold_hours"`
	PayoutAmount        float64 `mapstructure:"payout_amount"`
	ClaimProbabilityBps int64   `mapstructure:"claim_probability_bps"`
	MarginBps           int64   `mapstructure:"margin_bps"`
	MultiplierBps       int64   `mapstructure:"multiplier_bps"`
}

// RiskConfig holds risk band edges and signal adjustment magnitudes.
type RiskConfig struct {
	Bands       []BandConfig      `mapstructure:"bands"`
	Adjustments AdjustmentsConfig `mapstructure:"adjustments"`
}

// BandConfig maps a delay-rate range onto a tier and base confidence.
// UpperBound is exclusive; the last band should use 1.0 (delay rates are
// clamped to [0,1] before band selection).
type BandConfig struct {
	UpperBound float64 `mapstructure:"upper_bound"`
	TierID     string  `mapstructure:"tier_id"`
	Confidence float64 `mapstructure:"confidence"`
}

// AdjustmentsConfig holds the additive delay-rate adjustments per signal.
type AdjustmentsConfig struct {
	SevereWeather    float64 `mapstructure:"severe_weather"`
	Rain             float64 `mapstructure:"rain"`
	CongestedAirport float64 `mapstructure:"congested_airport"`
	WinterSeason     float64 `mapstructure:"winter_season"`
	SummerSeason     float64 `mapstructure:"summer_season"`
	HolidayPeriod    float64 `mapstructure:"holiday_period"`
	CancellationHist float64 `mapstructure:"cancellation_history"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the /metrics listener settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
