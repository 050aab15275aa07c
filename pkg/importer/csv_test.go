package importer

import "testing"

const csvHeader = "completed_on,user_id,first_name,last_name,program,module,form,question,answer\n"

func TestParseSurveyCSVQuotedCommas(t *testing.T) {
	data := []byte(csvHeader +
		`2024-01-05T00:00:00Z,501,Jane,Doe,4 Month AIP,MODULE 1 - PRE-PROGRAM,Weekly Check-in,"How are you feeling, overall?","Good, mostly"` + "\n")

	result, err := ParseSurveyCSV(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	row := result.Rows[0]
	if row.Question != "How are you feeling, overall?" {
		t.Fatalf("quoted comma lost in question: %q", row.Question)
	}
	if row.Answer != "Good, mostly" {
		t.Fatalf("quoted comma lost in answer: %q", row.Answer)
	}
}

func TestParseSurveyCSVDropsWrongFieldCount(t *testing.T) {
	data := []byte(csvHeader +
		"2024-01-05T00:00:00Z,501,Jane,Doe,4 Month AIP,MODULE 1,Weekly Check-in,Question,Answer\n" +
		"2024-01-06T00:00:00Z,501,Jane\n" +
		"2024-01-07T00:00:00Z,501,Jane,Doe,4 Month AIP,MODULE 1,Weekly Check-in,Another,Yes\n")

	result, err := ParseSurveyCSV(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.TotalRows != 3 {
		t.Fatalf("expected 3 data rows counted, got %d", result.TotalRows)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", result.Skipped)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 parsed rows, got %d", len(result.Rows))
	}
	if result.Rows[1].Line != 4 {
		t.Fatalf("expected line number 4 for last row, got %d", result.Rows[1].Line)
	}
}

func TestParseSurveyCSVEmptyFile(t *testing.T) {
	if _, err := ParseSurveyCSV([]byte(csvHeader)); err == nil {
		t.Fatal("expected error for header-only file")
	}
	if _, err := ParseSurveyCSV(nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}
