package scoring

import (
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func TestSeverityForQuartiles(t *testing.T) {
	// 4 questions, max 5 each: max score 20.
	tests := []struct {
		total float64
		want  string
	}{
		{0, models.SeverityMinimal},
		{5, models.SeverityMinimal},
		{5.5, models.SeverityMild},
		{10, models.SeverityMild},
		{10.5, models.SeverityModerate},
		{15, models.SeverityModerate},
		{15.5, models.SeveritySevere},
		{20, models.SeveritySevere},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.total, 4, MaxPerQuestionPROMIS); got != tt.want {
			t.Fatalf("total %v: expected %q, got %q", tt.total, tt.want, got)
		}
	}
}

func TestSeverityForZeroQuestions(t *testing.T) {
	if got := SeverityFor(0, 0, MaxPerQuestionMSQ); got != models.SeverityMinimal {
		t.Fatalf("expected minimal for empty domain, got %q", got)
	}
}
