// internal/agents/advisor/render.go
package advisor

import (
	"fmt"
	"strings"

	"travelsure-agents/internal/intent"
	"travelsure-agents/internal/models"
	"travelsure-agents/internal/risk"
)

// renderRecommendation formats the full chat recommendation reply: flight
// summary, performance, recommendation with confidence, reasoning, risk
// factors, and the priced tier list with the recommended marker.
func renderRecommendation(query *intent.FlightQuery, stats *models.FlightStatistics, assessment *risk.Assessment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Flight %s %s on %s\n", query.AirlineCode, query.FlightNumber, query.Date)
	if stats.OriginCity != "" && stats.DestinationCity != "" {
		fmt.Fprintf(&b, "Route: %s (%s) to %s (%s)\n",
			stats.OriginCity, stats.OriginCode, stats.DestinationCity, stats.DestinationCode)
	}
	if stats.HasOnTimePercent {
		fmt.Fprintf(&b, "On-time performance: %.0f%% across %d tracked flights\n",
			stats.OnTimePercent*100, stats.TotalHistoricalFlights)
	} else {
		b.WriteString("On-time performance: no reliable history available\n")
	}
	fmt.Fprintf(&b, "Risk level: %s\n\n", assessment.RiskLevel)

	recommended := recommendedName(assessment)
	fmt.Fprintf(&b, "Recommendation: %s coverage at %.2f (confidence %.0f%%)\n\n",
		recommended, assessment.EstimatedPremium, assessment.Confidence*100)

	b.WriteString("Why:\n")
	for _, line := range strings.Split(assessment.Reasoning, "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	b.WriteString("\nRisk factors:\n")
	for _, factor := range assessment.RiskFactors {
		fmt.Fprintf(&b, "  - %s\n", factor)
	}

	b.WriteString("\nCoverage options:\n")
	for _, tier := range assessment.PricedTiers {
		marker := " "
		if tier.IsRecommended {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s: %.2f", marker, tier.DisplayName, tier.Premium)
		if tier.Description != "" {
			fmt.Fprintf(&b, " (%s)", tier.Description)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func recommendedName(assessment *risk.Assessment) string {
	for _, tier := range assessment.PricedTiers {
		if tier.IsRecommended {
			return tier.DisplayName
		}
	}
	return assessment.RecommendedTierID
}
