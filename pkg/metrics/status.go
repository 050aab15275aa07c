package metrics

import (
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// Composite score weights. Buckets sum to exactly 100 when everything is
// perfect: 35 compliance + 35 curriculum + 5 wins + 5 challenges + 20 vitals.
const (
	complianceWeight   = 0.35
	curriculumOnTrack  = 35.0
	curriculumBehind   = 17.5
	winBonus           = 5.0
	challengeBonus     = 5.0
	vitalImprovingPts  = 4.0
	vitalStablePts     = 2.0
	behindOverdueLimit = 2
)

// StatusScore computes the weighted 0-100 composite. Missing inputs
// contribute 0 to their bucket; the score is never renormalized over fewer
// buckets.
func StatusScore(metrics models.MemberMetrics) float64 {
	score := ComplianceAverage(metrics.Compliance) * complianceWeight

	score += curriculumPoints(metrics.Timeline)

	if len(metrics.Wins) > 0 {
		score += winBonus
	}
	if len(metrics.Challenges) > 0 {
		score += challengeBonus
	}

	for _, vital := range metrics.Vitals {
		switch vital.Trend {
		case models.TrendImproving:
			score += vitalImprovingPts
		case models.TrendStable:
			score += vitalStablePts
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// curriculumPoints maps overdue depth to the 35-point curriculum bucket:
// nothing overdue earns full credit, slightly behind earns half, further
// behind earns nothing.
func curriculumPoints(timeline models.Timeline) float64 {
	switch {
	case len(timeline.Overdue) == 0:
		return curriculumOnTrack
	case len(timeline.Overdue) <= behindOverdueLimit:
		return curriculumBehind
	default:
		return 0
	}
}

// TierFor is the deterministic score-to-tier mapping.
func TierFor(score float64) string {
	switch {
	case score >= 70:
		return models.TierGreen
	case score >= 40:
		return models.TierYellow
	default:
		return models.TierRed
	}
}
