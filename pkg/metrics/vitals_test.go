package metrics

import (
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func energySessions(values ...float64) []SessionDetail {
	sessions := make([]SessionDetail, 0, len(values))
	for _, v := range values {
		value := v
		sessions = append(sessions, SessionDetail{
			Answers: []AnswerDetail{answer("How is your energy level today?", "", &value)},
		})
	}
	return sessions
}

func TestComputeVitalsTrendDeadband(t *testing.T) {
	tests := []struct {
		values []float64
		want   string
	}{
		{[]float64{2, 4}, models.TrendImproving},
		{[]float64{4, 2}, models.TrendDeclining},
		{[]float64{3, 3.5}, models.TrendStable}, // inside the half-point deadband
		{[]float64{3, 2.5}, models.TrendStable},
		{[]float64{3}, models.TrendStable},
	}
	for _, tt := range tests {
		vitals := ComputeVitals(energySessions(tt.values...), catalog.Default())
		got := vitals[catalog.VitalEnergy]
		if got.Trend != tt.want {
			t.Fatalf("values %v: expected trend %q, got %q", tt.values, tt.want, got.Trend)
		}
		if got.Score == nil || *got.Score != tt.values[len(tt.values)-1] {
			t.Fatalf("values %v: expected current %v, got %v", tt.values, tt.values[len(tt.values)-1], got.Score)
		}
	}
}

func TestComputeVitalsNoData(t *testing.T) {
	vitals := ComputeVitals(nil, catalog.Default())
	if len(vitals) != 5 {
		t.Fatalf("expected all five vitals present, got %d", len(vitals))
	}
	for key, vital := range vitals {
		if vital.Trend != models.TrendNoData {
			t.Fatalf("vital %q: expected no_data, got %q", key, vital.Trend)
		}
		if vital.Score != nil {
			t.Fatalf("vital %q: expected nil score", key)
		}
	}
}

func TestComputeVitalsHistoryCapped(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = float64(i)
	}
	vitals := ComputeVitals(energySessions(values...), catalog.Default())
	history := vitals[catalog.VitalEnergy].History
	if len(history) != 10 {
		t.Fatalf("expected 10-point sparkline, got %d", len(history))
	}
	if history[0] != 5 || history[9] != 14 {
		t.Fatalf("expected last ten values, got %v", history)
	}
}

func TestComputeVitalsSkipsNonNumeric(t *testing.T) {
	sessions := []SessionDetail{
		{Answers: []AnswerDetail{answer("How is your energy level today?", "fine I guess", nil)}},
	}
	vitals := ComputeVitals(sessions, catalog.Default())
	if vitals[catalog.VitalEnergy].Trend != models.TrendNoData {
		t.Fatal("expected non-numeric answers to be ignored")
	}
}
