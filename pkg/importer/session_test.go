package importer

import (
	"testing"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

func TestGroupRowsBySessionKey(t *testing.T) {
	rows := []models.SurveyRow{
		{CompletedOn: "2024-01-05T00:00:00Z", ExternalUserID: "501", Form: "Weekly Check-in", Question: "Q1"},
		{CompletedOn: "2024-01-05T00:00:00Z", ExternalUserID: "501", Form: "weekly check-in", Question: "Q2"},
		{CompletedOn: "2024-01-05T00:00:00Z", ExternalUserID: "502", Form: "Weekly Check-in", Question: "Q1"},
		{CompletedOn: "2024-01-12T00:00:00Z", ExternalUserID: "501", Form: "Weekly Check-in", Question: "Q1"},
	}

	groups := GroupRows(rows)
	if len(groups) != 3 {
		t.Fatalf("expected 3 session groups, got %d", len(groups))
	}
	// Form matching is case-insensitive, so the first two rows share a group.
	if len(groups[0].rows) != 2 {
		t.Fatalf("expected 2 rows in first group, got %d", len(groups[0].rows))
	}
	// First-seen order is preserved.
	if groups[1].externalUserID != "502" {
		t.Fatalf("expected second group for user 502, got %q", groups[1].externalUserID)
	}
	if groups[2].completedOn != "2024-01-12T00:00:00Z" {
		t.Fatalf("expected third group for the later session, got %q", groups[2].completedOn)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, raw := range []string{
		"2024-01-05T00:00:00Z",
		"2024-01-05 10:30:00",
		"2024-01-05",
		"1/5/2024 10:30",
		"1/5/2024",
	} {
		if _, err := parseTimestamp(raw); err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
	}
	if _, err := parseTimestamp("last tuesday"); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}
