// Package scoring converts PROMIS answer text to ordinal values and derives
// per-session clinical domain scores with quartile severity buckets.
package scoring

import (
	"strings"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
)

// Answer ceilings per survey; severity quartiles are computed against
// question_count times this value.
const (
	MaxPerQuestionPROMIS = 5
	MaxPerQuestionMSQ    = 4
)

// Frequency scale: anxiety, depression, and the standard sleep items.
var frequencyScale = map[string]float64{
	"never":     1,
	"rarely":    2,
	"sometimes": 3,
	"often":     4,
	"always":    5,
}

// Intensity scale: fatigue, pain interference, sleep problem items.
var intensityScale = map[string]float64{
	"not at all":   1,
	"a little bit": 2,
	"somewhat":     3,
	"quite a bit":  4,
	"very much":    5,
}

// Reversed intensity: the sleep-refreshing item scores high when the member
// reports low refreshment.
var intensityReversed = map[string]float64{
	"not at all":   5,
	"a little bit": 4,
	"somewhat":     3,
	"quite a bit":  2,
	"very much":    1,
}

// Sleep-quality item: worse quality scores higher disturbance.
var sleepQualityScale = map[string]float64{
	"very poor": 5,
	"poor":      4,
	"fair":      3,
	"good":      2,
	"very good": 1,
}

// Physical function: difficulty reduces the score.
var difficultyScale = map[string]float64{
	"without any difficulty":   5,
	"with a little difficulty": 4,
	"with some difficulty":     3,
	"with much difficulty":     2,
	"unable to do":             1,
}

// Participation items are frequency-reversed: always being unable to take
// part is the worst outcome.
var frequencyReversed = map[string]float64{
	"never":     5,
	"rarely":    4,
	"sometimes": 3,
	"often":     2,
	"always":    1,
}

// ConversionTable returns the text-to-ordinal table for a PROMIS domain.
// Sleep disturbance keys three different orderings off the question text:
// the quality item and the refreshing item are reversed relative to the
// three standard problem items.
func ConversionTable(domain, question string) map[string]float64 {
	q := strings.ToLower(question)
	switch domain {
	case "anxiety", "depression":
		return frequencyScale
	case "fatigue", "pain_interference":
		return intensityScale
	case "physical_function":
		return difficultyScale
	case "social_roles":
		return frequencyReversed
	case "sleep_disturbance":
		switch {
		case strings.Contains(q, "sleep quality"):
			return sleepQualityScale
		case strings.Contains(q, "refreshing"):
			return intensityReversed
		default:
			return intensityScale
		}
	default:
		return nil
	}
}

// ConvertAnswer maps a PROMIS answer text to its ordinal value. The second
// return is false when the domain has no table or the text is not in it.
func ConvertAnswer(domain, question, answer string) (float64, bool) {
	table := ConversionTable(domain, question)
	if table == nil {
		return 0, false
	}
	value, ok := table[strings.ToLower(strings.TrimSpace(answer))]
	return value, ok
}

// MaxPerQuestion returns the answer ceiling for a survey code.
func MaxPerQuestion(survey string) int {
	if survey == catalog.SurveyPROMIS {
		return MaxPerQuestionPROMIS
	}
	return MaxPerQuestionMSQ
}

// SurveyCodeForForm routes form names onto the clinical scoring path. Only
// the two clinical forms return a code; everything else is plain survey data.
func SurveyCodeForForm(formName string) string {
	name := strings.ToLower(formName)
	switch {
	case strings.Contains(name, "msq"):
		return catalog.SurveyMSQ
	case strings.Contains(name, "promis"):
		return catalog.SurveyPROMIS
	default:
		return ""
	}
}
