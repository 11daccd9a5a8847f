// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
app:
  name: "travelsure-agents"
  environment: "test"
cache:
  redis:
    address: "localhost:6379"
pricing:
  tiers:
    - id: "basic"
      name: "Basic"
      delay_threshold_hours: 4
      payout_amount: 100
      claim_probability_bps: 3000
      margin_bps: 500
      multiplier_bps: 10000
agents:
  advisor:
    enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "travelsure-agents", cfg.App.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 1800, cfg.Cache.Redis.TTL)
	assert.Equal(t, 30000, cfg.Bus.RequestTTL)
	assert.Equal(t, 5000, cfg.Bus.JanitorTick)
	assert.Equal(t, 10000, cfg.APIs.Weather.Timeout)
	assert.Equal(t, ":9090", cfg.Metrics.Address)

	// Agent defaults fill in for partially configured agents.
	advisor := GetAgentConfig(cfg, "advisor")
	assert.True(t, advisor.Enabled)
	assert.Equal(t, 30000, advisor.Timeout)
	assert.Equal(t, 3, advisor.MaxRetries)

	// Risk bands default to the reference table.
	require.Len(t, cfg.Risk.Bands, 4)
	assert.Equal(t, 0.10, cfg.Risk.Bands[0].UpperBound)
	assert.Equal(t, 1.0, cfg.Risk.Bands[3].UpperBound)
	assert.Equal(t, 0.15, cfg.Risk.Adjustments.SevereWeather)
}

func TestLoadFromFileRejectsBadTier(t *testing.T) {
	bad := `
cache:
  redis:
    address: "localhost:6379"
pricing:
  tiers:
    - id: "broken"
      name: "Broken"
      delay_threshold_hours: 4
      payout_amount: -5
      claim_probability_bps: 3000
      margin_bps: 500
      multiplier_bps: 10000
`
	_, err := LoadFromFile(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestLoadFromFileRejectsMissingTiers(t *testing.T) {
	bad := `
cache:
  redis:
    address: "localhost:6379"
`
	_, err := LoadFromFile(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestLoadFromFileRejectsBadBands(t *testing.T) {
	bad := validYAML + `
risk:
  bands:
    - upper_bound: 0.5
      tier_id: "basic"
      confidence: 0.9
    - upper_bound: 0.3
      tier_id: "basic"
      confidence: 0.9
`
	_, err := LoadFromFile(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestIsAgentEnabled(t *testing.T) {
	cfg := &Config{Agents: map[string]AgentConfig{
		"weather": {Enabled: false},
	}}

	assert.False(t, IsAgentEnabled(cfg, "weather"))
	assert.True(t, IsAgentEnabled(cfg, "unconfigured"))
}
