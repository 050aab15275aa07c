package metrics

import (
	"strings"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// ProgramCompleteLabel is the next-milestone value shown once the final
// module is done.
const ProgramCompleteLabel = "Program Complete"

// DefaultModuleSequence is the last-resort curriculum used when a program has
// no module rows of its own. Callers must log a warning when they reach for
// it.
func DefaultModuleSequence() []string {
	return []string{
		"MODULE 1 - PRE-PROGRAM",
		"MODULE 2 - KITCHEN RESET",
		"MODULE 3 - ELIMINATION PHASE",
		"MODULE 4 - GUT REPAIR",
		"MODULE 5 - CLEAN EATING",
		"MODULE 6 - DETOX SUPPORT",
		"MODULE 7 - STRESS & SLEEP",
		"MODULE 8 - MOVEMENT",
		"MODULE 9 - REINTRODUCTION I",
		"MODULE 10 - REINTRODUCTION II",
		"MODULE 11 - MINDSET",
		"MODULE 12 - SUSTAINABILITY",
		"MODULE 13 - GRADUATION",
	}
}

func moduleIndex(sequence []string, name string) int {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return -1
	}
	for i, module := range sequence {
		if strings.ToLower(strings.TrimSpace(module)) == needle {
			return i
		}
	}
	return -1
}

// LastCompletedModule returns the furthest module in the sequence that any of
// the member's sessions was filed under. Session order does not matter; only
// curriculum position does.
func LastCompletedModule(sessions []SessionDetail, sequence []string) string {
	best := -1
	for _, session := range sessions {
		if i := moduleIndex(sequence, session.ModuleName); i > best {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return sequence[best]
}

// ScheduledModule derives where the member should be from elapsed program
// time, spreading the sequence evenly across the program duration. Past the
// end it returns the Finished sentinel.
func ScheduledModule(sequence []string, daysInProgram *int, durationDays int) string {
	if daysInProgram == nil || durationDays <= 0 || len(sequence) == 0 {
		return ""
	}
	daysPerModule := float64(durationDays) / float64(len(sequence))
	index := int(float64(*daysInProgram) / daysPerModule)
	if index >= len(sequence) {
		return models.FinishedSentinel
	}
	if index < 0 {
		index = 0
	}
	return sequence[index]
}

// ComputeTimeline derives milestone state from the member's position versus
// where the schedule says they should be. Overdue spans everything strictly
// after last_completed up to and including should_be_working_on; a Finished
// schedule with an unfinished member marks every remaining module overdue.
func ComputeTimeline(sequence []string, lastCompleted, shouldBeWorkingOn string) models.Timeline {
	timeline := models.Timeline{
		LastCompleted:     lastCompleted,
		ShouldBeWorkingOn: shouldBeWorkingOn,
	}
	if len(sequence) == 0 {
		return timeline
	}

	last := moduleIndex(sequence, lastCompleted)
	if last >= 0 {
		timeline.Completed = append([]string{}, sequence[:last+1]...)
	}

	if last == len(sequence)-1 {
		timeline.Next = ProgramCompleteLabel
	} else {
		timeline.Next = sequence[last+1]
	}

	if shouldBeWorkingOn == models.FinishedSentinel {
		if last < len(sequence)-1 {
			timeline.Overdue = append([]string{}, sequence[last+1:]...)
		}
		return timeline
	}

	should := moduleIndex(sequence, shouldBeWorkingOn)
	if should > last {
		timeline.Overdue = append([]string{}, sequence[last+1:should+1]...)
	}
	return timeline
}
