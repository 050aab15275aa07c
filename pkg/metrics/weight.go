package metrics

import (
	"sort"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// Plausibility bounds for self-reported weight; anything outside is a typo or
// a different unit and is dropped.
const (
	weightMin = 0.0
	weightMax = 500.0
)

type weightReading struct {
	at    time.Time
	value float64
}

// ComputeWeight collects plausible weight answers and reports the latest
// value plus the change since the earliest, ordered by session date rather
// than input order.
func ComputeWeight(sessions []SessionDetail, cat catalog.Catalog) models.WeightTrend {
	var readings []weightReading
	for _, session := range sessions {
		for _, answer := range session.Answers {
			if answer.NumericValue == nil || !cat.IsWeight(answer.Question) {
				continue
			}
			w := *answer.NumericValue
			if w <= weightMin || w >= weightMax {
				continue
			}
			readings = append(readings, weightReading{at: session.CompletedOn, value: w})
		}
	}
	if len(readings) == 0 {
		return models.WeightTrend{}
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].at.Before(readings[j].at)
	})

	current := readings[len(readings)-1].value
	change := current - readings[0].value
	return models.WeightTrend{Current: &current, Change: &change}
}
