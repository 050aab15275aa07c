package scoring

import (
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
)

func TestConvertAnswerAnxietyFrequency(t *testing.T) {
	value, ok := ConvertAnswer("anxiety", "I felt anxious", "Often")
	if !ok {
		t.Fatal("expected conversion for in-table answer")
	}
	if value != 4 {
		t.Fatalf("expected Often to convert to 4, got %v", value)
	}
}

func TestConvertAnswerSleepOrderings(t *testing.T) {
	tests := []struct {
		question string
		answer   string
		want     float64
	}{
		// The quality item scores worse quality higher.
		{"My sleep quality was...", "Very poor", 5},
		{"My sleep quality was...", "Very good", 1},
		// The refreshing item is reversed intensity.
		{"My sleep was refreshing", "Not at all", 5},
		{"My sleep was refreshing", "Very much", 1},
		// The standard problem items are straight intensity.
		{"I had a problem with my sleep", "Not at all", 1},
		{"I had difficulty falling asleep", "Very much", 5},
	}
	for _, tt := range tests {
		value, ok := ConvertAnswer("sleep_disturbance", tt.question, tt.answer)
		if !ok {
			t.Fatalf("expected conversion for %q / %q", tt.question, tt.answer)
		}
		if value != tt.want {
			t.Fatalf("question %q answer %q: expected %v, got %v", tt.question, tt.answer, tt.want, value)
		}
	}
}

// Every in-table answer must convert; conversion is total over the table.
func TestConversionTotality(t *testing.T) {
	domains := []struct {
		domain   string
		question string
	}{
		{"anxiety", "I felt fearful"},
		{"depression", "I felt helpless"},
		{"fatigue", "I felt run-down"},
		{"pain_interference", "How much did pain interfere with your day to day activities"},
		{"physical_function", "Are you able to do chores"},
		{"social_roles", "I have trouble doing my usual work"},
		{"sleep_disturbance", "My sleep quality was..."},
		{"sleep_disturbance", "My sleep was refreshing"},
		{"sleep_disturbance", "I had difficulty falling asleep"},
	}
	for _, d := range domains {
		table := ConversionTable(d.domain, d.question)
		if table == nil {
			t.Fatalf("no table for domain %q", d.domain)
		}
		for answer := range table {
			if _, ok := ConvertAnswer(d.domain, d.question, answer); !ok {
				t.Fatalf("domain %q answer %q failed to convert", d.domain, answer)
			}
		}
	}
}

func TestConvertAnswerUnknown(t *testing.T) {
	if _, ok := ConvertAnswer("anxiety", "I felt anxious", "banana"); ok {
		t.Fatal("expected out-of-table answer to not convert")
	}
	if _, ok := ConvertAnswer("head", "Headaches", "3"); ok {
		t.Fatal("expected no table for MSQ domains")
	}
}

func TestSurveyCodeForForm(t *testing.T) {
	if got := SurveyCodeForForm("MSQ-95 Symptom Questionnaire"); got != catalog.SurveyMSQ {
		t.Fatalf("expected MSQ, got %q", got)
	}
	if got := SurveyCodeForForm("PROMIS-29 Profile"); got != catalog.SurveyPROMIS {
		t.Fatalf("expected PROMIS, got %q", got)
	}
	if got := SurveyCodeForForm("Weekly Check-in"); got != "" {
		t.Fatalf("expected no code for non-clinical form, got %q", got)
	}
}
