package metrics

import (
	"testing"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func answer(question, raw string, numeric *float64) AnswerDetail {
	return AnswerDetail{Question: question, RawText: raw, NumericValue: numeric}
}

func num(v float64) *float64 { return &v }

func TestComputeComplianceExerciseDays(t *testing.T) {
	sessions := []SessionDetail{
		{
			CompletedOn: time.Now(),
			Answers: []AnswerDetail{
				answer("How many days per week do you exercise?", "3", num(3)),
			},
		},
	}

	compliance := ComputeCompliance(sessions, catalog.Default())
	if compliance.Exercise == nil {
		t.Fatal("expected exercise compliance")
	}
	if *compliance.Exercise != 60 {
		t.Fatalf("expected 3/5 days to be 60%%, got %v", *compliance.Exercise)
	}
}

func TestComputeComplianceYesShare(t *testing.T) {
	sessions := []SessionDetail{
		{Answers: []AnswerDetail{answer("Did you take your supplements today?", "Yes", nil)}},
		{Answers: []AnswerDetail{answer("Did you take your supplements today?", "No", nil)}},
		{Answers: []AnswerDetail{answer("Did you take your supplements today?", "yes", nil)}},
		{Answers: []AnswerDetail{answer("Did you take your supplements today?", "Yes", nil)}},
	}

	compliance := ComputeCompliance(sessions, catalog.Default())
	if compliance.Supplements == nil {
		t.Fatal("expected supplements compliance")
	}
	if *compliance.Supplements != 75 {
		t.Fatalf("expected 3 of 4 to be 75%%, got %v", *compliance.Supplements)
	}
	if compliance.Nutrition != nil {
		t.Fatalf("expected nil nutrition with no matching answers, got %v", *compliance.Nutrition)
	}
}

func TestComputeComplianceExerciseCapped(t *testing.T) {
	sessions := []SessionDetail{
		{Answers: []AnswerDetail{answer("How many days per week do you exercise?", "7", num(7))}},
	}
	compliance := ComputeCompliance(sessions, catalog.Default())
	if compliance.Exercise == nil || *compliance.Exercise != 100 {
		t.Fatalf("expected 7 days capped at 100%%, got %v", compliance.Exercise)
	}
}

func TestComplianceAverageNeverRenormalized(t *testing.T) {
	c := models.Compliance{Nutrition: num(80)}
	if got := ComplianceAverage(c); got != 20 {
		t.Fatalf("expected 80/4 = 20, got %v", got)
	}
	if got := ComplianceAverage(models.Compliance{}); got != 0 {
		t.Fatalf("expected 0 for empty compliance, got %v", got)
	}
}
