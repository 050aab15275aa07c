package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"gorm.io/gorm"
)

// DomainScoreModel caches the per-(session, domain) sum. Derived data,
// recomputable from response_answers at any time.
type DomainScoreModel struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID     uuid.UUID `json:"session_id" gorm:"type:uuid;uniqueIndex:idx_session_domain"`
	DomainKey     string    `json:"domain_key" gorm:"column:domain_key;uniqueIndex:idx_session_domain"`
	Total         float64   `json:"total" gorm:"column:total"`
	QuestionCount int       `json:"question_count" gorm:"column:question_count"`
	Severity      string    `json:"severity" gorm:"column:severity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (DomainScoreModel) TableName() string {
	return "domain_scores"
}

// Scorer aggregates numeric answers into clinical domain scores.
type Scorer struct {
	db          *gorm.DB
	catalog     catalog.Catalog
	sessionPage int
}

func NewScorer(db *gorm.DB, cat catalog.Catalog, sessionPage int) *Scorer {
	if sessionPage <= 0 {
		sessionPage = 50
	}
	return &Scorer{db: db, catalog: cat, sessionPage: sessionPage}
}

func (s *Scorer) AutoMigrate() error {
	return s.db.AutoMigrate(&DomainScoreModel{})
}

type answerRow struct {
	SessionID    uuid.UUID
	QuestionText string
	NumericValue *float64
	FormName     string
}

// ScoreSessions recomputes domain scores for the given sessions. Sessions are
// fetched in fixed-size pages to keep individual result sets bounded; the
// whole operation is idempotent.
func (s *Scorer) ScoreSessions(ctx context.Context, sessionIDs []uuid.UUID) error {
	for start := 0; start < len(sessionIDs); start += s.sessionPage {
		end := start + s.sessionPage
		if end > len(sessionIDs) {
			end = len(sessionIDs)
		}
		if err := s.scorePage(ctx, sessionIDs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scorer) scorePage(ctx context.Context, sessionIDs []uuid.UUID) error {
	var rows []answerRow
	err := s.db.WithContext(ctx).
		Table("response_answers").
		Select("response_answers.session_id AS session_id, form_questions.text AS question_text, response_answers.numeric_value AS numeric_value, forms.name AS form_name").
		Joins("JOIN form_questions ON form_questions.id = response_answers.question_id").
		Joins("JOIN response_sessions ON response_sessions.id = response_answers.session_id").
		Joins("JOIN forms ON forms.id = response_sessions.form_id").
		Where("response_answers.session_id IN ?", sessionIDs).
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("fetching answers for scoring: %w", err)
	}

	type bucket struct {
		sessionID uuid.UUID
		domain    string
		survey    string
		total     float64
		count     int
	}
	buckets := make(map[string]*bucket)

	for _, row := range rows {
		survey := SurveyCodeForForm(row.FormName)
		if survey == "" {
			continue
		}
		rule, ok := s.catalog.MatchDomain(row.QuestionText)
		if !ok || rule.Survey != survey {
			continue
		}
		if row.NumericValue == nil {
			continue
		}
		key := row.SessionID.String() + "|" + rule.Domain
		b, ok := buckets[key]
		if !ok {
			b = &bucket{sessionID: row.SessionID, domain: rule.Domain, survey: survey}
			buckets[key] = b
		}
		b.total += *row.NumericValue
		b.count++
	}

	for _, b := range buckets {
		severity := SeverityFor(b.total, b.count, MaxPerQuestion(b.survey))
		if err := s.upsert(ctx, b.sessionID, b.domain, b.total, b.count, severity); err != nil {
			return err
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"sessions": len(sessionIDs),
		"domains":  len(buckets),
	}).Debug("Scored clinical domain page")

	return nil
}

func (s *Scorer) upsert(ctx context.Context, sessionID uuid.UUID, domain string, total float64, count int, severity string) error {
	var existing DomainScoreModel
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND domain_key = ?", sessionID, domain).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		score := DomainScoreModel{
			ID:            uuid.New(),
			SessionID:     sessionID,
			DomainKey:     domain,
			Total:         total,
			QuestionCount: count,
			Severity:      severity,
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}
		return s.db.WithContext(ctx).Create(&score).Error
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&DomainScoreModel{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"total":          total,
			"question_count": count,
			"severity":       severity,
			"updated_at":     time.Now().UTC(),
		}).Error
}

// ListClinicalSessionIDs returns every session belonging to a clinical form,
// for full recomputes.
func (s *Scorer) ListClinicalSessionIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Table("response_sessions").
		Joins("JOIN forms ON forms.id = response_sessions.form_id").
		Where("forms.name ILIKE ? OR forms.name ILIKE ?", "%msq%", "%promis%").
		Order("response_sessions.completed_on").
		Pluck("response_sessions.id", &ids).Error
	return ids, err
}

// SeverityFor buckets a domain total by quartile of the maximum possible
// score.
func SeverityFor(total float64, questionCount, maxPerQuestion int) string {
	maxScore := float64(questionCount * maxPerQuestion)
	if maxScore <= 0 {
		return models.SeverityMinimal
	}
	ratio := total / maxScore
	switch {
	case ratio <= 0.25:
		return models.SeverityMinimal
	case ratio <= 0.5:
		return models.SeverityMild
	case ratio <= 0.75:
		return models.SeverityModerate
	default:
		return models.SeveritySevere
	}
}
