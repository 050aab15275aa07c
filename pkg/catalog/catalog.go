// Package catalog holds the question classification table: which survey
// questions feed which vital, compliance metric, weight reading, or clinical
// domain. The table is versioned and loadable from YAML so coaches can adjust
// it when the survey platform rewords a question; the built-in defaults
// preserve the exact substring semantics the dashboards were built against.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Survey codes for the two clinical forms.
const (
	SurveyMSQ    = "MSQ"
	SurveyPROMIS = "PROMIS"
)

// Vital keys.
const (
	VitalEnergy     = "energy"
	VitalMood       = "mood"
	VitalMotivation = "motivation"
	VitalWellbeing  = "wellbeing"
	VitalSleep      = "sleep"
)

// Compliance keys.
const (
	ComplianceNutrition   = "nutrition"
	ComplianceSupplements = "supplements"
	ComplianceExercise    = "exercise"
	ComplianceMeditation  = "meditation"
)

type DomainRule struct {
	Survey     string   `yaml:"survey" json:"survey"`
	Domain     string   `yaml:"domain" json:"domain"`
	Substrings []string `yaml:"substrings" json:"substrings"`
}

type Catalog struct {
	Version    int                 `yaml:"version" json:"version"`
	Vitals     map[string][]string `yaml:"vitals" json:"vitals"`
	Compliance map[string][]string `yaml:"compliance" json:"compliance"`
	Weight     []string            `yaml:"weight" json:"weight"`
	Domains    []DomainRule        `yaml:"domains" json:"domains"`
}

func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Default(), err
	}

	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Domains) == 0 && len(cat.Vitals) == 0 {
		return Catalog{}, fmt.Errorf("question catalog empty")
	}
	return cat, nil
}

func contains(question string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(question, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// sortedKeys fixes the match order; map iteration would classify a question
// matching two categories differently across runs, breaking rebuild
// idempotence for derived records.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MatchVital returns the vital a question feeds, if any.
func (c Catalog) MatchVital(question string) (string, bool) {
	q := strings.ToLower(question)
	for _, key := range sortedKeys(c.Vitals) {
		if contains(q, c.Vitals[key]) {
			return key, true
		}
	}
	return "", false
}

// MatchCompliance returns the compliance metric a question feeds, if any.
func (c Catalog) MatchCompliance(question string) (string, bool) {
	q := strings.ToLower(question)
	for _, key := range sortedKeys(c.Compliance) {
		if contains(q, c.Compliance[key]) {
			return key, true
		}
	}
	return "", false
}

// IsWeight reports whether a question carries a body-weight reading.
func (c Catalog) IsWeight(question string) bool {
	return contains(strings.ToLower(question), c.Weight)
}

// MatchDomain returns the clinical domain rule for a question, if any.
func (c Catalog) MatchDomain(question string) (DomainRule, bool) {
	q := strings.ToLower(question)
	for _, rule := range c.Domains {
		if contains(q, rule.Substrings) {
			return rule, true
		}
	}
	return DomainRule{}, false
}

// Default returns the built-in classification table.
func Default() Catalog {
	return Catalog{
		Version: 1,
		Vitals: map[string][]string{
			VitalEnergy:     {"energy level", "how is your energy"},
			VitalMood:       {"mood"},
			VitalMotivation: {"motivat"},
			VitalWellbeing:  {"overall wellbeing", "overall well-being", "rate how you feel"},
			VitalSleep:      {"rate your sleep", "sleeping", "quality of sleep"},
		},
		Compliance: map[string][]string{
			ComplianceNutrition:   {"following the nutrition", "stuck to your diet", "meal plan"},
			ComplianceSupplements: {"supplement"},
			ComplianceExercise:    {"days per week do you exercise", "exercise"},
			ComplianceMeditation:  {"meditat"},
		},
		Weight: []string{"current weight", "weigh"},
		Domains: []DomainRule{
			// PROMIS-29 domains
			{Survey: SurveyPROMIS, Domain: "anxiety", Substrings: []string{"fearful", "anxious", "worries", "uneasy"}},
			{Survey: SurveyPROMIS, Domain: "depression", Substrings: []string{"worthless", "helpless", "depressed", "hopeless"}},
			{Survey: SurveyPROMIS, Domain: "fatigue", Substrings: []string{"fatigue", "run-down", "run down"}},
			{Survey: SurveyPROMIS, Domain: "pain_interference", Substrings: []string{"pain interfere"}},
			{Survey: SurveyPROMIS, Domain: "physical_function", Substrings: []string{"chores", "stairs", "walk for at least 15 minutes", "run errands"}},
			{Survey: SurveyPROMIS, Domain: "sleep_disturbance", Substrings: []string{"sleep quality", "sleep was refreshing", "problem with my sleep", "difficulty falling asleep"}},
			{Survey: SurveyPROMIS, Domain: "social_roles", Substrings: []string{"leisure activities", "family activities", "usual work", "activities with friends"}},
			// MSQ-95 sections; answers are already numeric so no conversion
			// table applies, only grouping for the domain scorer.
			{Survey: SurveyMSQ, Domain: "head", Substrings: []string{"headache", "faintness", "dizziness", "insomnia"}},
			{Survey: SurveyMSQ, Domain: "eyes", Substrings: []string{"watery", "itchy eyes", "swollen eyelids", "bags", "blurred"}},
			{Survey: SurveyMSQ, Domain: "ears", Substrings: []string{"itchy ears", "earache", "ear infection", "drainage from ear", "ringing"}},
			{Survey: SurveyMSQ, Domain: "nose", Substrings: []string{"stuffy nose", "sinus", "hay fever", "sneezing", "mucus"}},
			{Survey: SurveyMSQ, Domain: "mouth_throat", Substrings: []string{"chronic coughing", "gagging", "sore throat", "swollen lips", "canker"}},
			{Survey: SurveyMSQ, Domain: "skin", Substrings: []string{"acne", "hives", "rashes", "hair loss", "flushing", "excessive sweating"}},
			{Survey: SurveyMSQ, Domain: "heart", Substrings: []string{"irregular heartbeat", "rapid heartbeat", "chest pain"}},
			{Survey: SurveyMSQ, Domain: "lungs", Substrings: []string{"chest congestion", "asthma", "bronchitis", "shortness of breath", "difficulty breathing"}},
			{Survey: SurveyMSQ, Domain: "digestive_tract", Substrings: []string{"nausea", "vomiting", "diarrhea", "constipation", "bloated", "belching", "heartburn", "intestinal"}},
			{Survey: SurveyMSQ, Domain: "joints_muscles", Substrings: []string{"pain in joints", "arthritis", "stiffness", "pain in muscles", "feeling of weakness"}},
			{Survey: SurveyMSQ, Domain: "weight", Substrings: []string{"binge eating", "craving", "excessive weight", "compulsive eating", "water retention", "underweight"}},
			{Survey: SurveyMSQ, Domain: "energy_activity", Substrings: []string{"fatigue, sluggishness", "apathy, lethargy", "hyperactivity", "restlessness"}},
			{Survey: SurveyMSQ, Domain: "mind", Substrings: []string{"poor memory", "confusion", "poor concentration", "poor physical coordination", "difficulty making decisions", "stuttering", "slurred speech", "learning disabilities"}},
			{Survey: SurveyMSQ, Domain: "emotions", Substrings: []string{"mood swings", "anxiety, fear", "anger, irritability", "depression"}},
			{Survey: SurveyMSQ, Domain: "other", Substrings: []string{"frequent illness", "frequent urination", "genital itch"}},
		},
	}
}
