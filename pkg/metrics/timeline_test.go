package metrics

import (
	"reflect"
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

var testSequence = []string{"M1", "M2", "M3", "M4", "M5"}

func TestComputeTimelineOverdueInclusive(t *testing.T) {
	timeline := ComputeTimeline(testSequence, "M2", "M4")

	if !reflect.DeepEqual(timeline.Completed, []string{"M1", "M2"}) {
		t.Fatalf("unexpected completed list: %v", timeline.Completed)
	}
	if timeline.Next != "M3" {
		t.Fatalf("expected next M3, got %q", timeline.Next)
	}
	// Overdue includes should-be-working-on itself.
	if !reflect.DeepEqual(timeline.Overdue, []string{"M3", "M4"}) {
		t.Fatalf("unexpected overdue list: %v", timeline.Overdue)
	}
}

func TestComputeTimelineFinishedSentinel(t *testing.T) {
	timeline := ComputeTimeline(testSequence, "M2", models.FinishedSentinel)
	if !reflect.DeepEqual(timeline.Overdue, []string{"M3", "M4", "M5"}) {
		t.Fatalf("expected all remaining modules overdue, got %v", timeline.Overdue)
	}

	// A member who actually finished has nothing overdue.
	timeline = ComputeTimeline(testSequence, "M5", models.FinishedSentinel)
	if len(timeline.Overdue) != 0 {
		t.Fatalf("expected nothing overdue for finished member, got %v", timeline.Overdue)
	}
	if timeline.Next != ProgramCompleteLabel {
		t.Fatalf("expected %q, got %q", ProgramCompleteLabel, timeline.Next)
	}
}

func TestComputeTimelineOnTrack(t *testing.T) {
	timeline := ComputeTimeline(testSequence, "M3", "M3")
	if len(timeline.Overdue) != 0 {
		t.Fatalf("expected nothing overdue on track, got %v", timeline.Overdue)
	}
	if timeline.Next != "M4" {
		t.Fatalf("expected next M4, got %q", timeline.Next)
	}
}

func TestComputeTimelineNothingCompleted(t *testing.T) {
	timeline := ComputeTimeline(testSequence, "", "M2")
	if len(timeline.Completed) != 0 {
		t.Fatalf("expected empty completed list, got %v", timeline.Completed)
	}
	if timeline.Next != "M1" {
		t.Fatalf("expected next M1, got %q", timeline.Next)
	}
	if !reflect.DeepEqual(timeline.Overdue, []string{"M1", "M2"}) {
		t.Fatalf("unexpected overdue list: %v", timeline.Overdue)
	}
}

func TestScheduledModule(t *testing.T) {
	days := func(n int) *int { return &n }

	// 100-day program over 5 modules: 20 days each.
	if got := ScheduledModule(testSequence, days(0), 100); got != "M1" {
		t.Fatalf("day 0: expected M1, got %q", got)
	}
	if got := ScheduledModule(testSequence, days(45), 100); got != "M3" {
		t.Fatalf("day 45: expected M3, got %q", got)
	}
	if got := ScheduledModule(testSequence, days(120), 100); got != models.FinishedSentinel {
		t.Fatalf("day 120: expected sentinel, got %q", got)
	}
	if got := ScheduledModule(testSequence, nil, 100); got != "" {
		t.Fatalf("expected empty schedule without program dates, got %q", got)
	}
}

func TestLastCompletedModuleIgnoresOrder(t *testing.T) {
	sessions := []SessionDetail{
		{ModuleName: "M3"},
		{ModuleName: "m1 "},
		{ModuleName: "not in sequence"},
	}
	if got := LastCompletedModule(sessions, testSequence); got != "M3" {
		t.Fatalf("expected M3, got %q", got)
	}
}

func TestDefaultModuleSequenceLength(t *testing.T) {
	if got := len(DefaultModuleSequence()); got != 13 {
		t.Fatalf("expected 13 fallback modules, got %d", got)
	}
}
