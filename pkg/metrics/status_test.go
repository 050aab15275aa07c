package metrics

import (
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func pct(v float64) *float64 { return &v }

func TestStatusScorePerfect(t *testing.T) {
	metrics := models.MemberMetrics{
		Compliance: models.Compliance{
			Nutrition:   pct(100),
			Supplements: pct(100),
			Exercise:    pct(100),
			Meditation:  pct(100),
		},
		Timeline:   models.Timeline{},
		Wins:       []string{"slept 8 hours"},
		Challenges: []models.Challenge{{Description: "travel week", Severity: "low"}},
		Vitals: map[string]models.Vital{
			"energy":     {Trend: models.TrendImproving},
			"mood":       {Trend: models.TrendImproving},
			"motivation": {Trend: models.TrendImproving},
			"wellbeing":  {Trend: models.TrendImproving},
			"sleep":      {Trend: models.TrendImproving},
		},
	}

	score := StatusScore(metrics)
	if score != 100 {
		t.Fatalf("expected perfect score 100, got %v", score)
	}
	if TierFor(score) != models.TierGreen {
		t.Fatalf("expected green tier, got %q", TierFor(score))
	}
}

func TestStatusScoreMissingInputsContributeZero(t *testing.T) {
	// Only nutrition present: average is 100/4, not 100/1.
	metrics := models.MemberMetrics{
		Compliance: models.Compliance{Nutrition: pct(100)},
		Timeline:   models.Timeline{},
		Vitals:     map[string]models.Vital{},
	}
	// 25*0.35 compliance + 35 curriculum = 43.75
	score := StatusScore(metrics)
	if score != 43.75 {
		t.Fatalf("expected 43.75, got %v", score)
	}
	if TierFor(score) != models.TierYellow {
		t.Fatalf("expected yellow tier, got %q", TierFor(score))
	}
}

func TestStatusScoreCurriculumTiers(t *testing.T) {
	base := models.MemberMetrics{Vitals: map[string]models.Vital{}}

	base.Timeline = models.Timeline{}
	if got := StatusScore(base); got != 35 {
		t.Fatalf("on track: expected 35, got %v", got)
	}

	base.Timeline = models.Timeline{Overdue: []string{"M2"}}
	if got := StatusScore(base); got != 17.5 {
		t.Fatalf("slightly behind: expected 17.5, got %v", got)
	}

	base.Timeline = models.Timeline{Overdue: []string{"M2", "M3", "M4"}}
	if got := StatusScore(base); got != 0 {
		t.Fatalf("far behind: expected 0, got %v", got)
	}
}

func TestStatusScoreBounds(t *testing.T) {
	empty := models.MemberMetrics{Vitals: map[string]models.Vital{}, Timeline: models.Timeline{Overdue: []string{"a", "b", "c"}}}
	score := StatusScore(empty)
	if score < 0 || score > 100 {
		t.Fatalf("score out of bounds: %v", score)
	}
	if TierFor(score) != models.TierRed {
		t.Fatalf("expected red tier for %v, got %q", score, TierFor(score))
	}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, models.TierGreen},
		{70, models.TierGreen},
		{69.9, models.TierYellow},
		{40, models.TierYellow},
		{39.9, models.TierRed},
		{0, models.TierRed},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Fatalf("score %v: expected %q, got %q", tt.score, tt.want, got)
		}
	}
}
