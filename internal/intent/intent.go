// Package intent classifies free-text chat messages and extracts flight
// query parameters. It sits entirely outside the risk engine.
package intent

import (
	"regexp"
	"strings"
	"time"

	"travelsure-agents/internal/common/errors"
)

// Intent tags a recognized chat message kind.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentGreeting
	IntentHelp
	IntentQuoteRequest
	IntentFAQ
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentHelp:
		return "help"
	case IntentQuoteRequest:
		return "quote_request"
	case IntentFAQ:
		return "faq"
	default:
		return "unknown"
	}
}

// Classification is the outcome of classifying one message.
type Classification struct {
	Intent Intent
	FAQKey string // set only for IntentFAQ
}

var (
	greetingPattern = regexp.MustCompile(`(?i)\b(hi|hello|hey|greetings|good morning|good afternoon|good evening)\b`)
	helpPattern     = regexp.MustCompile(`(?i)\b(help|what can you do|commands)\b`)
	flightPattern   = regexp.MustCompile(`\b([A-Z]{2})\s?(\d{1,4})\b`)
	isoDatePattern  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	usDatePattern   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	todayPattern    = regexp.MustCompile(`(?i)\btoday\b`)
	tomorrowPattern = regexp.MustCompile(`(?i)\btomorrow\b`)
)

// faqRules maps keyword patterns to knowledge FAQ keys, checked in order.
var faqRules = []struct {
	pattern *regexp.Regexp
	key     string
}{
	{regexp.MustCompile(`(?i)\b(payout|claim|paid)\b`), "payout"},
	{regexp.MustCompile(`(?i)\b(price|pricing|cost|premium)\b`), "pricing"},
	{regexp.MustCompile(`(?i)\b(coverage|tier|tiers|plan|plans)\b`), "coverage"},
	{regexp.MustCompile(`(?i)\b(how|work|works)\b`), "how_it_works"},
}

// Classify tags a message. Rules are checked in a fixed order: greeting,
// help, quote request, FAQ. Anything else is unknown.
func Classify(text string) Classification {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Classification{Intent: IntentUnknown}
	}

	if greetingPattern.MatchString(trimmed) {
		return Classification{Intent: IntentGreeting}
	}
	if helpPattern.MatchString(trimmed) {
		return Classification{Intent: IntentHelp}
	}
	if flightPattern.MatchString(strings.ToUpper(trimmed)) {
		return Classification{Intent: IntentQuoteRequest}
	}
	for _, rule := range faqRules {
		if rule.pattern.MatchString(trimmed) {
			return Classification{Intent: IntentFAQ, FAQKey: rule.key}
		}
	}

	return Classification{Intent: IntentUnknown}
}

// FlightQuery is a parsed quote request.
type FlightQuery struct {
	AirlineCode  string
	FlightNumber string
	Date         string // YYYY-MM-DD
}

// ParseFlightQuery extracts the airline code, flight number, and travel date
// from a message. The date defaults to tomorrow when none is given; TODAY and
// TOMORROW keywords and the YYYY-MM-DD and MM/DD/YYYY forms are recognized.
func ParseFlightQuery(text string, now time.Time) (*FlightQuery, error) {
	match := flightPattern.FindStringSubmatch(strings.ToUpper(text))
	if match == nil {
		return nil, errors.NewIntentUnrecognizedError("no airline code and flight number found")
	}

	date, err := parseDate(text, now)
	if err != nil {
		return nil, err
	}

	return &FlightQuery{
		AirlineCode:  match[1],
		FlightNumber: match[2],
		Date:         date,
	}, nil
}

func parseDate(text string, now time.Time) (string, error) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		t, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return "", errors.NewInvalidFlightDateError(m[1])
		}
		return t.Format("2006-01-02"), nil
	}

	if m := usDatePattern.FindStringSubmatch(text); m != nil {
		raw := m[0]
		t, err := time.Parse("1/2/2006", raw)
		if err != nil {
			return "", errors.NewInvalidFlightDateError(raw)
		}
		return t.Format("2006-01-02"), nil
	}

	if todayPattern.MatchString(text) {
		return now.Format("2006-01-02"), nil
	}
	if tomorrowPattern.MatchString(text) {
		return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	}

	// No date given: assume tomorrow.
	return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
}
