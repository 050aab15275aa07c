package metrics

import (
	"math"
	"strings"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// exerciseTargetDays is the prescribed weekly exercise frequency; the answer
// is reported as a share of it.
const exerciseTargetDays = 5.0

var affirmativeAnswers = map[string]bool{
	"yes":    true,
	"y":      true,
	"true":   true,
	"always": true,
	"mostly": true,
}

// ComputeCompliance derives the four adherence percentages. The yes/no style
// metrics are the affirmative share of all matching answers; exercise is the
// latest days-per-week answer against the prescribed target. Metrics with no
// matching answers stay nil.
func ComputeCompliance(sessions []SessionDetail, cat catalog.Catalog) models.Compliance {
	yesCounts := make(map[string]int)
	totals := make(map[string]int)
	var latestExercise *float64

	for _, session := range sessions {
		for _, answer := range session.Answers {
			key, ok := cat.MatchCompliance(answer.Question)
			if !ok {
				continue
			}
			if key == catalog.ComplianceExercise {
				if answer.NumericValue != nil {
					latestExercise = answer.NumericValue
				}
				continue
			}
			totals[key]++
			if isAffirmative(answer.RawText) {
				yesCounts[key]++
			}
		}
	}

	compliance := models.Compliance{
		Nutrition:   yesShare(yesCounts, totals, catalog.ComplianceNutrition),
		Supplements: yesShare(yesCounts, totals, catalog.ComplianceSupplements),
		Meditation:  yesShare(yesCounts, totals, catalog.ComplianceMeditation),
	}
	if latestExercise != nil {
		pct := math.Round(*latestExercise / exerciseTargetDays * 100)
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
		compliance.Exercise = &pct
	}
	return compliance
}

func isAffirmative(raw string) bool {
	return affirmativeAnswers[strings.ToLower(strings.TrimSpace(raw))]
}

func yesShare(yesCounts, totals map[string]int, key string) *float64 {
	total := totals[key]
	if total == 0 {
		return nil
	}
	pct := math.Round(float64(yesCounts[key]) / float64(total) * 100)
	return &pct
}

// ComplianceAverage is the composite-score input: nil metrics contribute 0
// and the divisor stays 4, never renormalized over fewer buckets.
func ComplianceAverage(c models.Compliance) float64 {
	sum := 0.0
	for _, v := range []*float64{c.Nutrition, c.Supplements, c.Exercise, c.Meditation} {
		if v != nil {
			sum += *v
		}
	}
	return sum / 4
}
