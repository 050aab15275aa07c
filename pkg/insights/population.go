package insights

import (
	"fmt"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/metrics"
)

// Journey patterns: the 2x2 of compliance level against vitals trajectory.
const (
	PatternThriving          = "thriving"
	PatternCompliantButStuck = "compliant_but_stuck"
	PatternImprovingWithGaps = "improving_despite_gaps"
	PatternAtRisk            = "at_risk"
)

const (
	complianceGapThreshold  = 15.0
	highComplianceThreshold = 70.0
	lowVitalThreshold       = 3.0
	overdueRiskThreshold    = 2
	challengeRiskThreshold  = 3
)

// Compare builds the population-relative part of the insight report for one
// member. Recommendations are filled in separately; failures there must not
// touch any of this.
func Compare(member models.MemberMetrics, population []models.MemberMetrics) models.InsightReport {
	report := models.InsightReport{
		MemberID:     member.MemberID,
		CalculatedAt: time.Now().UTC(),
	}

	scored := make([]models.MemberMetrics, 0, len(population))
	for _, m := range population {
		if m.StatusScore != nil {
			scored = append(scored, m)
		}
	}
	report.PopulationSize = len(scored)
	if len(scored) == 0 || member.StatusScore == nil {
		return report
	}

	report.Rank = rankOf(*member.StatusScore, scored)
	// The snapshot is read once per run and may still hold this member's
	// stale row; a fresh score below every entry would otherwise rank N+1.
	if report.Rank > len(scored) {
		report.Rank = len(scored)
	}
	n := float64(len(scored))
	report.Percentile = (n - float64(report.Rank) + 1) / n * 100
	report.Quartile = (report.Rank*4 + len(scored) - 1) / len(scored)

	report.PopulationMeans = populationMeans(scored)
	report.Deltas = memberDeltas(member, report.PopulationMeans)
	report.RiskFactors = riskFactors(member, report.PopulationMeans)
	report.JourneyPattern = journeyPattern(member)
	return report
}

// rankOf is 1-based by descending status score; ties share the better rank.
func rankOf(score float64, population []models.MemberMetrics) int {
	rank := 1
	for _, m := range population {
		if *m.StatusScore > score {
			rank++
		}
	}
	return rank
}

func complianceValues(c models.Compliance) map[string]*float64 {
	return map[string]*float64{
		"compliance_nutrition":   c.Nutrition,
		"compliance_supplements": c.Supplements,
		"compliance_exercise":    c.Exercise,
		"compliance_meditation":  c.Meditation,
	}
}

func populationMeans(population []models.MemberMetrics) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, m := range population {
		for key, value := range complianceValues(m.Compliance) {
			if value != nil {
				sums[key] += *value
				counts[key]++
			}
		}
		for name, vital := range m.Vitals {
			if vital.Score != nil {
				key := "vital_" + name
				sums[key] += *vital.Score
				counts[key]++
			}
		}
		sums["status_score"] += *m.StatusScore
		counts["status_score"]++
	}

	means := make(map[string]float64, len(sums))
	for key, sum := range sums {
		means[key] = sum / float64(counts[key])
	}
	return means
}

func memberDeltas(member models.MemberMetrics, means map[string]float64) map[string]float64 {
	deltas := make(map[string]float64)
	for key, value := range complianceValues(member.Compliance) {
		if value == nil {
			continue
		}
		if mean, ok := means[key]; ok {
			deltas[key] = *value - mean
		}
	}
	for name, vital := range member.Vitals {
		if vital.Score == nil {
			continue
		}
		key := "vital_" + name
		if mean, ok := means[key]; ok {
			deltas[key] = *vital.Score - mean
		}
	}
	if member.StatusScore != nil {
		if mean, ok := means["status_score"]; ok {
			deltas["status_score"] = *member.StatusScore - mean
		}
	}
	return deltas
}

func riskFactors(member models.MemberMetrics, means map[string]float64) []string {
	var risks []string

	for key, value := range complianceValues(member.Compliance) {
		mean, ok := means[key]
		if !ok {
			continue
		}
		gap := mean
		if value != nil {
			gap = mean - *value
		}
		if gap > complianceGapThreshold {
			risks = append(risks, fmt.Sprintf("%s more than %.0f points below population average", key, complianceGapThreshold))
		}
	}

	if len(member.Timeline.Overdue) >= overdueRiskThreshold {
		risks = append(risks, fmt.Sprintf("%d curriculum modules overdue", len(member.Timeline.Overdue)))
	}

	for name, vital := range member.Vitals {
		if vital.Trend == models.TrendDeclining && vital.Score != nil && *vital.Score < lowVitalThreshold {
			risks = append(risks, fmt.Sprintf("%s vital declining and below %.0f", name, lowVitalThreshold))
		}
	}

	if len(member.Challenges) >= challengeRiskThreshold && len(member.Wins) == 0 {
		risks = append(risks, "multiple active challenges with no recent wins")
	}

	return risks
}

// journeyPattern classifies by compliance level crossed with whether the
// vitals that have data are mostly heading up.
func journeyPattern(member models.MemberMetrics) string {
	highCompliance := metrics.ComplianceAverage(member.Compliance) >= highComplianceThreshold

	improving, declining := 0, 0
	for _, vital := range member.Vitals {
		switch vital.Trend {
		case models.TrendImproving:
			improving++
		case models.TrendDeclining:
			declining++
		}
	}
	vitalsUp := improving > declining

	switch {
	case highCompliance && vitalsUp:
		return PatternThriving
	case highCompliance:
		return PatternCompliantButStuck
	case vitalsUp:
		return PatternImprovingWithGaps
	default:
		return PatternAtRisk
	}
}
