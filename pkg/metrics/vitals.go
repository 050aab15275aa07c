package metrics

import (
	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// trendDeadband keeps single-point wobble from flipping a vital between
// improving and declining.
const trendDeadband = 0.5

const vitalHistoryLen = 10

// ComputeVitals builds the five tracked vitals from session answers. Sessions
// must already be ordered oldest first; the latest matching answer becomes the
// current score.
func ComputeVitals(sessions []SessionDetail, cat catalog.Catalog) map[string]models.Vital {
	series := make(map[string][]float64, len(cat.Vitals))

	for _, session := range sessions {
		for _, answer := range session.Answers {
			if answer.NumericValue == nil {
				continue
			}
			key, ok := cat.MatchVital(answer.Question)
			if !ok {
				continue
			}
			series[key] = append(series[key], *answer.NumericValue)
		}
	}

	vitals := make(map[string]models.Vital, len(cat.Vitals))
	for key := range cat.Vitals {
		values := series[key]
		if len(values) == 0 {
			vitals[key] = models.Vital{Trend: models.TrendNoData}
			continue
		}
		current := values[len(values)-1]
		vitals[key] = models.Vital{
			Score:   &current,
			Trend:   vitalTrend(values),
			History: lastN(values, vitalHistoryLen),
		}
	}
	return vitals
}

func vitalTrend(values []float64) string {
	if len(values) < 2 {
		return models.TrendStable
	}
	diff := values[len(values)-1] - values[len(values)-2]
	switch {
	case diff > trendDeadband:
		return models.TrendImproving
	case diff < -trendDeadband:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
