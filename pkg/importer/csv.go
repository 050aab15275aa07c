package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
)

// The survey platform exports a fixed nine-column schema.
const surveyColumnCount = 9

var ErrEmptyFile = errors.New("survey file contains no data rows")

// ParseResult carries the parsed rows plus the counts the job report needs.
type ParseResult struct {
	Rows      []models.SurveyRow
	TotalRows int // data lines seen, malformed included
	Skipped   int // lines dropped for a wrong field count
}

// ParseSurveyCSV reads a survey export. Quoted fields and embedded commas are
// honored; the header row is skipped structurally; rows whose field count does
// not match the schema are dropped, not errors. Field content is not
// validated here.
func ParseSurveyCSV(data []byte) (*ParseResult, error) {
	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ParseResult{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line counts as skipped, same as a wrong
			// field count.
			line++
			result.TotalRows++
			result.Skipped++
			continue
		}
		line++
		if line == 1 {
			continue // header
		}
		if isBlank(record) {
			continue
		}
		result.TotalRows++
		if len(record) != surveyColumnCount {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, models.SurveyRow{
			Line:           line,
			CompletedOn:    record[0],
			ExternalUserID: record[1],
			FirstName:      record[2],
			LastName:       record[3],
			ProgramName:    record[4],
			ModuleName:     record[5],
			Form:           record[6],
			Question:       record[7],
			Answer:         record[8],
		})
	}

	if result.TotalRows == 0 {
		return nil, ErrEmptyFile
	}
	return result, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if field != "" {
			return false
		}
	}
	return true
}
