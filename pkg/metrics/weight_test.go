package metrics

import (
	"testing"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
)

func weightSession(day int, value float64) SessionDetail {
	v := value
	return SessionDetail{
		CompletedOn: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Answers:     []AnswerDetail{answer("What is your current weight?", "", &v)},
	}
}

func TestComputeWeightChangeByDate(t *testing.T) {
	// Rows arrive out of date order; the change must still be latest minus
	// earliest by session date.
	sessions := []SessionDetail{
		weightSession(15, 182),
		weightSession(1, 190),
		weightSession(8, 186),
	}

	trend := ComputeWeight(sessions, catalog.Default())
	if trend.Current == nil || *trend.Current != 182 {
		t.Fatalf("expected current 182, got %v", trend.Current)
	}
	if trend.Change == nil || *trend.Change != -8 {
		t.Fatalf("expected change -8, got %v", trend.Change)
	}
}

func TestComputeWeightOrderInvariant(t *testing.T) {
	forward := ComputeWeight([]SessionDetail{weightSession(1, 190), weightSession(15, 182)}, catalog.Default())
	reversed := ComputeWeight([]SessionDetail{weightSession(15, 182), weightSession(1, 190)}, catalog.Default())
	if *forward.Change != *reversed.Change || *forward.Current != *reversed.Current {
		t.Fatalf("expected order invariance, got %v/%v vs %v/%v",
			*forward.Current, *forward.Change, *reversed.Current, *reversed.Change)
	}
}

func TestComputeWeightDropsImplausibleValues(t *testing.T) {
	sessions := []SessionDetail{
		weightSession(1, 190),
		weightSession(8, 1900), // unit typo
		weightSession(15, 0),   // missing reading
	}
	trend := ComputeWeight(sessions, catalog.Default())
	if trend.Current == nil || *trend.Current != 190 {
		t.Fatalf("expected only the plausible reading to count, got %v", trend.Current)
	}
	if *trend.Change != 0 {
		t.Fatalf("expected zero change with one reading, got %v", *trend.Change)
	}
}

func TestComputeWeightNoReadings(t *testing.T) {
	trend := ComputeWeight(nil, catalog.Default())
	if trend.Current != nil || trend.Change != nil {
		t.Fatal("expected empty trend with no readings")
	}
}
