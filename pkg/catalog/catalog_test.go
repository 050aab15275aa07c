package catalog

import "testing"

func TestDefaultCatalogMatching(t *testing.T) {
	cat := Default()

	key, ok := cat.MatchVital("How is your energy level today?")
	if !ok || key != VitalEnergy {
		t.Fatalf("expected energy vital, got %q (%v)", key, ok)
	}

	key, ok = cat.MatchCompliance("How many days per week do you exercise?")
	if !ok || key != ComplianceExercise {
		t.Fatalf("expected exercise compliance, got %q (%v)", key, ok)
	}

	if !cat.IsWeight("What is your current weight?") {
		t.Fatal("expected weight question to match")
	}

	rule, ok := cat.MatchDomain("I felt anxious")
	if !ok || rule.Domain != "anxiety" || rule.Survey != SurveyPROMIS {
		t.Fatalf("expected PROMIS anxiety rule, got %+v (%v)", rule, ok)
	}

	rule, ok = cat.MatchDomain("Nausea or vomiting")
	if !ok || rule.Domain != "digestive_tract" || rule.Survey != SurveyMSQ {
		t.Fatalf("expected MSQ digestive rule, got %+v (%v)", rule, ok)
	}

	if _, ok := cat.MatchVital("What did you have for breakfast?"); ok {
		t.Fatal("expected no vital match for free-text question")
	}
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	cat := Default()
	if _, ok := cat.MatchVital("HOW IS YOUR ENERGY LEVEL?"); !ok {
		t.Fatal("expected case-insensitive vital match")
	}
}

// A question whose text touches two categories must classify the same way on
// every run.
func TestMatchingIsDeterministic(t *testing.T) {
	cat := Default()

	first, ok := cat.MatchCompliance("Did you exercise or meditate today?")
	if !ok {
		t.Fatal("expected compound question to match")
	}
	if first != ComplianceExercise {
		t.Fatalf("expected exercise (first in key order), got %q", first)
	}
	for i := 0; i < 100; i++ {
		key, _ := cat.MatchCompliance("Did you exercise or meditate today?")
		if key != first {
			t.Fatalf("match flipped from %q to %q on run %d", first, key, i)
		}
	}

	vital, ok := cat.MatchVital("Rate your mood and quality of sleep")
	if !ok {
		t.Fatal("expected compound vital question to match")
	}
	for i := 0; i < 100; i++ {
		key, _ := cat.MatchVital("Rate your mood and quality of sleep")
		if key != vital {
			t.Fatalf("vital match flipped from %q to %q on run %d", vital, key, i)
		}
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Domains) == 0 || len(cat.Vitals) != 5 {
		t.Fatalf("expected built-in defaults, got %d domains and %d vitals", len(cat.Domains), len(cat.Vitals))
	}
}
