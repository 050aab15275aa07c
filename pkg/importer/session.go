package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/scoring"
	"gorm.io/gorm"
)

// ErrDuplicateSession marks a session that was already imported; counted as a
// duplicate, never an error.
var ErrDuplicateSession = errors.New("session already imported")

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// SessionWriter groups survey rows into response sessions and persists them
// with converted answers.
type SessionWriter struct {
	db       *gorm.DB
	resolver *Resolver
	catalog  catalog.Catalog
}

func NewSessionWriter(db *gorm.DB, resolver *Resolver, cat catalog.Catalog) *SessionWriter {
	return &SessionWriter{db: db, resolver: resolver, catalog: cat}
}

type sessionGroup struct {
	completedOn    string
	externalUserID string
	form           string
	rows           []models.SurveyRow
}

// GroupRows buckets rows by (completed_on, external user, form), preserving
// first-seen order.
func GroupRows(rows []models.SurveyRow) []sessionGroup {
	index := make(map[string]int)
	var groups []sessionGroup
	for _, row := range rows {
		key := row.CompletedOn + "|" + row.ExternalUserID + "|" + strings.ToLower(strings.TrimSpace(row.Form))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, sessionGroup{
				completedOn:    row.CompletedOn,
				externalUserID: row.ExternalUserID,
				form:           row.Form,
			})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// WriteResult aggregates per-session outcomes for the job report.
type WriteResult struct {
	SessionsCreated    int
	SuccessfulRows     int
	DuplicateRows      int
	FailedRows         int
	Errors             []models.RowError
	MemberIDs          []uuid.UUID
	ClinicalSessionIDs []uuid.UUID
}

// WriteGroup persists one session group. A previously imported session comes
// back as duplicate=true; row-level failures come back as a typed RowError;
// callers keep going either way.
func (w *SessionWriter) WriteGroup(ctx context.Context, ref *RefData, group sessionGroup) (session *ResponseSessionModel, duplicate bool, rowErr *models.RowError) {
	first := group.rows[0]

	completedOn, err := parseTimestamp(group.completedOn)
	if err != nil {
		return nil, false, rowError(models.ErrCodeBadTimestamp, first, err)
	}

	memberID, err := w.resolver.Resolve(ctx, group.externalUserID, first.FirstName, first.LastName)
	if err != nil {
		switch {
		case errors.Is(err, ErrLeadNotFound):
			return nil, false, rowError(models.ErrCodeLeadNotFound, first, err)
		case errors.Is(err, ErrAmbiguousIdentity):
			return nil, false, rowError(models.ErrCodeAmbiguousIdentity, first, err)
		default:
			return nil, false, rowError(models.ErrCodeReferenceInsert, first, err)
		}
	}

	formID, err := ref.EnsureForm(ctx, group.form)
	if err != nil {
		return nil, false, rowError(models.ErrCodeReferenceInsert, first, err)
	}

	exists, err := w.sessionExists(ctx, memberID, group.externalUserID, formID, completedOn)
	if err != nil {
		return nil, false, rowError(models.ErrCodeSessionInsert, first, err)
	}
	if exists {
		return nil, true, nil
	}

	created := &ResponseSessionModel{
		ID:             uuid.New(),
		MemberID:       memberID,
		ExternalUserID: group.externalUserID,
		FormID:         formID,
		CompletedOn:    completedOn,
		CreatedAt:      time.Now().UTC(),
	}

	if name := strings.TrimSpace(first.ProgramName); name != "" {
		programID, err := ref.EnsureProgram(ctx, name)
		if err != nil {
			return nil, false, rowError(models.ErrCodeReferenceInsert, first, err)
		}
		created.ProgramID = &programID
		if moduleName := strings.TrimSpace(first.ModuleName); moduleName != "" {
			moduleID, err := ref.EnsureModule(ctx, programID, moduleName)
			if err != nil {
				return nil, false, rowError(models.ErrCodeReferenceInsert, first, err)
			}
			created.ModuleID = &moduleID
		}
	}

	if err := w.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, false, rowError(models.ErrCodeSessionInsert, first, err)
	}

	answers := make([]ResponseAnswerModel, 0, len(group.rows))
	for _, row := range group.rows {
		questionID, err := ref.EnsureQuestion(ctx, formID, row.Question)
		if err != nil {
			return nil, false, rowError(models.ErrCodeReferenceInsert, row, err)
		}
		answers = append(answers, ResponseAnswerModel{
			ID:           uuid.New(),
			SessionID:    created.ID,
			QuestionID:   questionID,
			RawText:      row.Answer,
			NumericValue: w.numericValue(row.Question, row.Answer),
			CreatedAt:    time.Now().UTC(),
		})
	}
	if err := w.db.WithContext(ctx).CreateInBatches(answers, 200).Error; err != nil {
		return nil, false, rowError(models.ErrCodeAnswerInsert, first, err)
	}

	return created, false, nil
}

// numericValue parses a finite number directly, falls back to the PROMIS
// ordinal table for questions mapped to a PROMIS domain, and otherwise stays
// null for free text.
func (w *SessionWriter) numericValue(question, answer string) *float64 {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil
	}
	if value, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(value, 0) && !math.IsNaN(value) {
		return &value
	}
	if rule, ok := w.catalog.MatchDomain(question); ok && rule.Survey == catalog.SurveyPROMIS {
		if value, ok := scoring.ConvertAnswer(rule.Domain, question, trimmed); ok {
			return &value
		}
	}
	return nil
}

func (w *SessionWriter) sessionExists(ctx context.Context, memberID uuid.UUID, externalUserID string, formID uuid.UUID, completedOn time.Time) (bool, error) {
	var count int64
	err := w.db.WithContext(ctx).Model(&ResponseSessionModel{}).
		Where("member_id = ? AND external_user_id = ? AND form_id = ? AND completed_on = ?",
			memberID, externalUserID, formID, completedOn).
		Count(&count).Error
	return count > 0, err
}

func parseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable completed_on %q", raw)
}

func rowError(code string, row models.SurveyRow, err error) *models.RowError {
	return &models.RowError{
		Code:    code,
		Row:     row.Line,
		Message: err.Error(),
		Raw: strings.Join([]string{
			row.CompletedOn, row.ExternalUserID, row.FirstName, row.LastName,
			row.ProgramName, row.ModuleName, row.Form, row.Question, row.Answer,
		}, ","),
	}
}
