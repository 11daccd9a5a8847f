// Package pricing holds the coverage tier table and the premium formula.
//
// The premium formula mirrors the on-chain quoting contract and must reproduce
// it to the cent for the configured tiers:
//
//	base    = payoutAmount * claimProbabilityBps / 10000
//	loaded  = base * (10000 + marginBps) / 10000
//	premium = round(loaded * multiplierBps / 10000, 2)
package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"travelsure-agents/internal/common/config"
	"travelsure-agents/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// tierSchema validates the tier configuration document before any row is
// accepted into the table.
const tierSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["id", "name", "delay_threshold_hours", "payout_amount", "claim_probability_bps", "margin_bps", "multiplier_bps"],
		"properties": {
			"id":                    {"type": "string", "minLength": 1},
			"name":                  {"type": "string", "minLength": 1},
			"description":           {"type": "string"},
			"delay_threshold_hours": {"type": "number", "exclusiveMinimum": 0},
			"payout_amount":         {"type": "number", "exclusiveMinimum": 0},
			"claim_probability_bps": {"type": "integer", "minimum": 0, "maximum": 10000},
			"margin_bps":            {"type": "integer", "minimum": 0},
			"multiplier_bps":        {"type": "integer", "exclusiveMinimum": 0}
		}
	}
}`

// Tier is one immutable coverage tier row.
type Tier struct {
	ID                  string
	DisplayName         string
	Description         string
	ThresholdHours      float64
	PayoutAmount        float64
	ClaimProbabilityBps int64
	MarginBps           int64
	MultiplierBps       int64
}

// Premium computes the tier premium in basis-point arithmetic, rounded to
// 2 decimals.
func (t Tier) Premium() float64 {
	base := t.PayoutAmount * float64(t.ClaimProbabilityBps) / 10000
	loaded := base * float64(10000+t.MarginBps) / 10000
	return math.Round(loaded*float64(t.MultiplierBps)/10000*100) / 100
}

// PricedTier is one tier with its computed premium and recommendation flag.
type PricedTier struct {
	TierID        string  `json:"tierId"`
	DisplayName   string  `json:"displayName"`
	Description   string  `json:"description,omitempty"`
	Premium       float64 `json:"premium"`
	IsRecommended bool    `json:"isRecommended"`
}

// Table holds the configured tiers ordered most-protective-first (lowest
// delay threshold first). Loaded once at process start.
type Table struct {
	tiers []Tier
	byID  map[string]Tier
}

// NewTable validates the configured tier rows and builds the table. Invalid
// configuration fails here, not per request.
func NewTable(rows []config.TierConfig) (*Table, error) {
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	tiers := make([]Tier, 0, len(rows))
	byID := make(map[string]Tier, len(rows))
	for _, row := range rows {
		if _, dup := byID[row.ID]; dup {
			return nil, errors.NewTierConfigInvalidError(row.ID, "duplicate tier id")
		}
		tier := Tier{
			ID:                  row.ID,
			DisplayName:         row.Name,
			Description:         row.Description,
			ThresholdHours:      row.DelayThresholdHours,
			PayoutAmount:        row.PayoutAmount,
			ClaimProbabilityBps: row.ClaimProbabilityBps,
			MarginBps:           row.MarginBps,
			MultiplierBps:       row.MultiplierBps,
		}
		tiers = append(tiers, tier)
		byID[tier.ID] = tier
	}

	// Lowest threshold pays out soonest, so it sorts first.
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].ThresholdHours < tiers[j].ThresholdHours
	})

	return &Table{tiers: tiers, byID: byID}, nil
}

// validateRows checks the rows against the tier schema.
func validateRows(rows []config.TierConfig) error {
	type schemaRow struct {
		ID                  string  `json:"id"`
		Name                string  `json:"name"`
		Description         string  `json:"description,omitempty"`
		DelayThresholdHours float64 `json:"delay_threshold_hours"`
		PayoutAmount        float64 `json:"payout_amount"`
		ClaimProbabilityBps int64   `json:"claim_probability_bps"`
		MarginBps           int64   `json:"margin_bps"`
		MultiplierBps       int64   `json:"multiplier_bps"`
	}

	doc := make([]schemaRow, 0, len(rows))
	for _, row := range rows {
		doc = append(doc, schemaRow(row))
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("tier rows not serializable: %v", err))
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(tierSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("tier schema validation failed: %v", err))
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}
			detail += desc.String()
		}
		return errors.NewConfigInvalidError("invalid tier configuration: " + detail)
	}

	return nil
}

// Tiers returns all tiers, most protective first.
func (tb *Table) Tiers() []Tier {
	out := make([]Tier, len(tb.tiers))
	copy(out, tb.tiers)
	return out
}

// Get returns a tier by id.
func (tb *Table) Get(id string) (Tier, bool) {
	t, ok := tb.byID[id]
	return t, ok
}

// Len returns the number of configured tiers.
func (tb *Table) Len() int {
	return len(tb.tiers)
}

// PriceAll prices every configured tier and flags the recommended one. The
// ordering is stable, most protective first.
func (tb *Table) PriceAll(recommendedTierID string) []PricedTier {
	out := make([]PricedTier, 0, len(tb.tiers))
	for _, tier := range tb.tiers {
		out = append(out, PricedTier{
			TierID:        tier.ID,
			DisplayName:   tier.DisplayName,
			Description:   tier.Description,
			Premium:       tier.Premium(),
			IsRecommended: tier.ID == recommendedTierID,
		})
	}
	return out
}

// PremiumFor returns the premium of the named tier, or the fallback when the
// tier is unknown.
func (tb *Table) PremiumFor(tierID string, fallback float64) float64 {
	if tier, ok := tb.byID[tierID]; ok {
		return tier.Premium()
	}
	return fallback
}
