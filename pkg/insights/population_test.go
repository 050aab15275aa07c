package insights

import (
	"testing"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func pct(v float64) *float64 { return &v }

func scoredMember(score float64, nutrition float64) models.MemberMetrics {
	return models.MemberMetrics{
		MemberID:    uuid.New(),
		StatusScore: &score,
		Compliance:  models.Compliance{Nutrition: pct(nutrition)},
		Vitals:      map[string]models.Vital{},
	}
}

func TestCompareRankPercentileQuartile(t *testing.T) {
	population := []models.MemberMetrics{
		scoredMember(90, 90),
		scoredMember(70, 80),
		scoredMember(50, 70),
		scoredMember(30, 60),
	}

	top := Compare(population[0], population)
	if top.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", top.Rank)
	}
	if top.Percentile != 100 {
		t.Fatalf("expected 100th percentile, got %v", top.Percentile)
	}
	if top.Quartile != 1 {
		t.Fatalf("expected quartile 1, got %d", top.Quartile)
	}

	bottom := Compare(population[3], population)
	if bottom.Rank != 4 {
		t.Fatalf("expected rank 4, got %d", bottom.Rank)
	}
	if bottom.Percentile != 25 {
		t.Fatalf("expected 25th percentile, got %v", bottom.Percentile)
	}
	if bottom.Quartile != 4 {
		t.Fatalf("expected quartile 4, got %d", bottom.Quartile)
	}
	if bottom.PopulationSize != 4 {
		t.Fatalf("expected population of 4, got %d", bottom.PopulationSize)
	}
}

func TestCompareFreshScoreBelowSnapshot(t *testing.T) {
	// The snapshot still holds this member's stale, higher-scored row; the
	// fresh score sits below every snapshot entry.
	population := []models.MemberMetrics{
		scoredMember(90, 90),
		scoredMember(70, 80),
		scoredMember(50, 70),
		scoredMember(30, 60),
	}
	fresh := scoredMember(10, 40)

	report := Compare(fresh, population)
	if report.Rank != 4 {
		t.Fatalf("expected rank clamped to 4, got %d", report.Rank)
	}
	if report.Quartile < 1 || report.Quartile > 4 {
		t.Fatalf("quartile out of range: %d", report.Quartile)
	}
	if report.Quartile != 4 {
		t.Fatalf("expected quartile 4, got %d", report.Quartile)
	}
	if report.Percentile != 25 {
		t.Fatalf("expected 25th percentile, got %v", report.Percentile)
	}
}

func TestCompareDeltas(t *testing.T) {
	population := []models.MemberMetrics{
		scoredMember(80, 100),
		scoredMember(60, 50),
	}

	report := Compare(population[1], population)
	// Population mean nutrition is 75; member is at 50.
	if got := report.Deltas["compliance_nutrition"]; got != -25 {
		t.Fatalf("expected nutrition delta -25, got %v", got)
	}
	if got := report.PopulationMeans["status_score"]; got != 70 {
		t.Fatalf("expected mean status score 70, got %v", got)
	}
}

func TestCompareRiskFactors(t *testing.T) {
	member := scoredMember(40, 40)
	member.Timeline = models.Timeline{Overdue: []string{"M2", "M3"}}
	member.Vitals = map[string]models.Vital{
		"energy": {Score: pct(2), Trend: models.TrendDeclining},
	}
	member.Challenges = []models.Challenge{
		{Description: "a"}, {Description: "b"}, {Description: "c"},
	}

	population := []models.MemberMetrics{
		member,
		scoredMember(90, 95),
		scoredMember(85, 90),
	}

	report := Compare(member, population)
	if len(report.RiskFactors) != 4 {
		t.Fatalf("expected 4 risk factors, got %d: %v", len(report.RiskFactors), report.RiskFactors)
	}
}

func TestCompareNoRiskFactorsWhenHealthy(t *testing.T) {
	member := scoredMember(90, 90)
	member.Wins = []string{"ran a 5k"}
	population := []models.MemberMetrics{member, scoredMember(85, 88)}

	report := Compare(member, population)
	if len(report.RiskFactors) != 0 {
		t.Fatalf("expected no risk factors, got %v", report.RiskFactors)
	}
}

func TestJourneyPatternQuadrants(t *testing.T) {
	high := models.Compliance{
		Nutrition:   pct(90),
		Supplements: pct(90),
		Exercise:    pct(90),
		Meditation:  pct(90),
	}
	low := models.Compliance{Nutrition: pct(20)}
	up := map[string]models.Vital{"energy": {Trend: models.TrendImproving}}
	down := map[string]models.Vital{"energy": {Trend: models.TrendDeclining}}

	tests := []struct {
		compliance models.Compliance
		vitals     map[string]models.Vital
		want       string
	}{
		{high, up, PatternThriving},
		{high, down, PatternCompliantButStuck},
		{low, up, PatternImprovingWithGaps},
		{low, down, PatternAtRisk},
	}
	for _, tt := range tests {
		member := models.MemberMetrics{Compliance: tt.compliance, Vitals: tt.vitals}
		if got := journeyPattern(member); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestCompareEmptyPopulation(t *testing.T) {
	member := models.MemberMetrics{MemberID: uuid.New()}
	report := Compare(member, nil)
	if report.PopulationSize != 0 || report.Rank != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
