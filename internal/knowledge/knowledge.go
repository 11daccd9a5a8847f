// Package knowledge is a static keyed lookup table of advisory text snippets
// and reference sets. It is an ordinary (category, key) -> values mapping, not
// a reasoning engine.
package knowledge

import "sync"

// Categories used across the agents.
const (
	CategoryWeatherImpact     = "weather_impact"
	CategoryCongestedAirports = "congested_airports"
	CategorySeasons           = "seasons"
	CategoryTierDescriptions  = "tier_descriptions"
	CategoryFAQ               = "faq"
	CategoryRecommendations   = "recommendations"
)

// Base holds the keyed snippet table. Safe for concurrent use.
type Base struct {
	mu      sync.RWMutex
	entries map[string]map[string][]string
}

// New returns an empty knowledge base.
func New() *Base {
	return &Base{entries: make(map[string]map[string][]string)}
}

// NewSeeded returns a knowledge base preloaded with the default advisory
// content.
func NewSeeded() *Base {
	b := New()

	for airport, note := range map[string]string{
		"JFK": "John F. Kennedy International, very high traffic volume",
		"EWR": "Newark Liberty International, frequent congestion delays",
		"LGA": "LaGuardia, slot-controlled with chronic congestion",
		"ORD": "Chicago O'Hare, major hub with weather exposure",
		"ATL": "Hartsfield-Jackson Atlanta, busiest airport by volume",
		"LAX": "Los Angeles International, high traffic volume",
		"LHR": "London Heathrow, slot-controlled and congested",
	} {
		b.Add(CategoryCongestedAirports, airport, note)
	}

	for condition, impacts := range map[string][]string{
		"thunderstorm": {"Thunderstorms frequently trigger ground stops and long delays"},
		"snow":         {"Snow requires de-icing and reduces runway throughput"},
		"fog":          {"Fog lowers visibility and cuts arrival rates"},
		"mist":         {"Mist can reduce visibility during approach"},
		"rain":         {"Rain causes moderate delays at busy airports"},
		"clear":        {"Clear conditions, minimal weather-related delay risk"},
		"clouds":       {"Cloud cover alone rarely causes delays"},
	} {
		for _, impact := range impacts {
			b.Add(CategoryWeatherImpact, condition, impact)
		}
	}

	for season, note := range map[string]string{
		"winter":  "Winter months bring storm systems and de-icing delays",
		"summer":  "Summer thunderstorm season raises afternoon delay rates",
		"holiday": "Holiday travel peaks strain airline schedules system-wide",
	} {
		b.Add(CategorySeasons, season, note)
	}

	for tier, desc := range map[string]string{
		"platinum": "Pays out on delays of 1 hour or more. Maximum protection.",
		"gold":     "Pays out on delays of 2 hours or more. Strong protection.",
		"silver":   "Pays out on delays of 3 hours or more. Balanced protection.",
		"basic":    "Pays out on delays of 4 hours or more. Budget protection.",
	} {
		b.Add(CategoryTierDescriptions, tier, desc)
	}

	for question, answer := range map[string]string{
		"how_it_works": "Tell me your flight (like \"AA 100 tomorrow\") and I will analyze its on-time history, weather, and route to recommend a coverage tier.",
		"payout":       "Payouts are automatic once the delay threshold of your tier is reached. No claim forms.",
		"pricing":      "Premiums are computed from historical claim probability plus a margin, per tier.",
		"coverage":     "Coverage tiers differ by delay threshold and payout amount. Shorter thresholds cost more.",
	} {
		b.Add(CategoryFAQ, question, answer)
	}

	for key, blurb := range map[string]string{
		"reliable":   "This flight has a strong on-time record. Lighter coverage should suffice.",
		"moderate":   "This flight shows mixed punctuality. Mid-tier coverage balances cost and protection.",
		"risky":      "This flight is frequently delayed. Maximum protection is advisable.",
		"unreliable": "This flight has a poor on-time record. Strongly consider full coverage.",
	} {
		b.Add(CategoryRecommendations, key, blurb)
	}

	return b
}

// Add appends a value under (category, key).
func (b *Base) Add(category, key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cat, ok := b.entries[category]
	if !ok {
		cat = make(map[string][]string)
		b.entries[category] = cat
	}
	cat[key] = append(cat[key], value)
}

// Lookup returns the values stored under (category, key), or nil.
func (b *Base) Lookup(category, key string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cat, ok := b.entries[category]
	if !ok {
		return nil
	}
	vals := cat[key]
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// First returns the first value under (category, key), or the empty string.
func (b *Base) First(category, key string) string {
	vals := b.Lookup(category, key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Has reports whether (category, key) holds at least one value.
func (b *Base) Has(category, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cat, ok := b.entries[category]
	if !ok {
		return false
	}
	return len(cat[key]) > 0
}

// All returns a copy of every entry in a category.
func (b *Base) All(category string) map[string][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cat, ok := b.entries[category]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(cat))
	for k, vals := range cat {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[k] = cp
	}
	return out
}

// CongestionSet returns the configured congested airport codes as a set.
func (b *Base) CongestionSet() map[string]bool {
	all := b.All(CategoryCongestedAirports)
	set := make(map[string]bool, len(all))
	for code := range all {
		set[code] = true
	}
	return set
}
