package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSummaryNotFound = errors.New("progress summary not found")

// MemberProgressSummaryModel is the derived progress record, one row per
// member, fully overwritten on every analysis run. Structured pieces are
// serialized at this boundary only; business logic works with the typed
// models.MemberMetrics.
type MemberProgressSummaryModel struct {
	MemberID         uuid.UUID      `json:"member_id" gorm:"type:uuid;primaryKey"`
	NoData           bool           `json:"no_data" gorm:"column:no_data"`
	ProgramName      string         `json:"program_name,omitempty" gorm:"column:program_name"`
	DaysInProgram    *int           `json:"days_in_program,omitempty" gorm:"column:days_in_program"`
	ProjectedEnd     *time.Time     `json:"projected_end,omitempty" gorm:"column:projected_end"`
	Vitals           datatypes.JSON `json:"vitals,omitempty" gorm:"column:vitals"`
	Compliance       datatypes.JSON `json:"compliance,omitempty" gorm:"column:compliance"`
	Timeline         datatypes.JSON `json:"timeline,omitempty" gorm:"column:timeline"`
	Wins             datatypes.JSON `json:"wins,omitempty" gorm:"column:wins"`
	Challenges       datatypes.JSON `json:"challenges,omitempty" gorm:"column:challenges"`
	Goals            datatypes.JSON `json:"goals,omitempty" gorm:"column:goals"`
	WeightCurrent    *float64       `json:"weight_current,omitempty" gorm:"column:weight_current"`
	WeightChange     *float64       `json:"weight_change,omitempty" gorm:"column:weight_change"`
	StatusScore      *float64       `json:"status_score,omitempty" gorm:"column:status_score"`
	StatusTier       string         `json:"status_tier,omitempty" gorm:"column:status_tier"`
	SessionsAnalyzed int            `json:"sessions_analyzed" gorm:"column:sessions_analyzed"`
	ExtractionNote   string         `json:"extraction_note,omitempty" gorm:"column:extraction_note"`
	CalculatedAt     time.Time      `json:"calculated_at" gorm:"column:calculated_at"`
}

func (MemberProgressSummaryModel) TableName() string {
	return "member_progress_summaries"
}

// AnswerDetail is one answer with its question text, as the calculator
// consumes it.
type AnswerDetail struct {
	Question     string
	RawText      string
	NumericValue *float64
}

// SessionDetail is one non-clinical session with its answers, ordered by
// completion time by the repository.
type SessionDetail struct {
	SessionID   uuid.UUID
	CompletedOn time.Time
	FormName    string
	ModuleName  string
	Answers     []AnswerDetail
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&MemberProgressSummaryModel{})
}

func (r *Repository) Get(ctx context.Context, memberID uuid.UUID) (*MemberProgressSummaryModel, error) {
	var summary MemberProgressSummaryModel
	result := r.db.WithContext(ctx).First(&summary, "member_id = ?", memberID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrSummaryNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &summary, nil
}

// Upsert overwrites the member's summary wholesale.
func (r *Repository) Upsert(ctx context.Context, summary *MemberProgressSummaryModel) error {
	var existing MemberProgressSummaryModel
	err := r.db.WithContext(ctx).First(&existing, "member_id = ?", summary.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(summary).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&MemberProgressSummaryModel{}).
		Where("member_id = ?", summary.MemberID).
		Select("*").Omit("member_id").
		Updates(summary).Error
}

// ListScored returns every summary with a computed status score, the
// population for insight generation.
func (r *Repository) ListScored(ctx context.Context) ([]MemberProgressSummaryModel, error) {
	var summaries []MemberProgressSummaryModel
	result := r.db.WithContext(ctx).
		Where("status_score IS NOT NULL").
		Order("status_score DESC").
		Find(&summaries)
	return summaries, result.Error
}

// HasIdentityMapping reports whether any survey-platform id points at this
// member. A member without one has no importable data by definition.
func (r *Repository) HasIdentityMapping(ctx context.Context, memberID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("external_identity_mappings").
		Where("member_id = ?", memberID).
		Count(&count).Error
	return count > 0, err
}

type sessionRow struct {
	SessionID   uuid.UUID
	CompletedOn time.Time
	FormName    string
	ModuleName  *string
}

type sessionAnswerRow struct {
	SessionID    uuid.UUID
	QuestionText string
	RawText      string
	NumericValue *float64
}

// NonClinicalSessions loads the member's check-in style sessions with their
// answers, oldest first. Clinical forms are excluded; those feed the domain
// scorer instead.
func (r *Repository) NonClinicalSessions(ctx context.Context, memberID uuid.UUID) ([]SessionDetail, error) {
	var rows []sessionRow
	err := r.db.WithContext(ctx).
		Table("response_sessions").
		Select("response_sessions.id AS session_id, response_sessions.completed_on AS completed_on, forms.name AS form_name, program_modules.name AS module_name").
		Joins("JOIN forms ON forms.id = response_sessions.form_id").
		Joins("LEFT JOIN program_modules ON program_modules.id = response_sessions.module_id").
		Where("response_sessions.member_id = ?", memberID).
		Where("forms.name NOT ILIKE ? AND forms.name NOT ILIKE ?", "%msq%", "%promis%").
		Order("response_sessions.completed_on").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sessionIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		sessionIDs = append(sessionIDs, row.SessionID)
	}

	var answerRows []sessionAnswerRow
	err = r.db.WithContext(ctx).
		Table("response_answers").
		Select("response_answers.session_id AS session_id, form_questions.text AS question_text, response_answers.raw_text AS raw_text, response_answers.numeric_value AS numeric_value").
		Joins("JOIN form_questions ON form_questions.id = response_answers.question_id").
		Where("response_answers.session_id IN ?", sessionIDs).
		Scan(&answerRows).Error
	if err != nil {
		return nil, err
	}

	answersBySession := make(map[uuid.UUID][]AnswerDetail, len(rows))
	for _, row := range answerRows {
		answersBySession[row.SessionID] = append(answersBySession[row.SessionID], AnswerDetail{
			Question:     row.QuestionText,
			RawText:      row.RawText,
			NumericValue: row.NumericValue,
		})
	}

	sessions := make([]SessionDetail, 0, len(rows))
	for _, row := range rows {
		moduleName := ""
		if row.ModuleName != nil {
			moduleName = *row.ModuleName
		}
		sessions = append(sessions, SessionDetail{
			SessionID:   row.SessionID,
			CompletedOn: row.CompletedOn,
			FormName:    row.FormName,
			ModuleName:  moduleName,
			Answers:     answersBySession[row.SessionID],
		})
	}
	return sessions, nil
}

// ModuleSequence returns the program's module names in curriculum order.
func (r *Repository) ModuleSequence(ctx context.Context, programName string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("program_modules").
		Joins("JOIN programs ON programs.id = program_modules.program_id").
		Where("LOWER(TRIM(programs.name)) = ?", strings.ToLower(strings.TrimSpace(programName))).
		Order("program_modules.sequence").
		Pluck("program_modules.name", &names).Error
	return names, err
}

// ToMetrics rehydrates the typed record from the stored row.
func (m *MemberProgressSummaryModel) ToMetrics() models.MemberMetrics {
	metrics := models.MemberMetrics{
		MemberID:         m.MemberID,
		NoData:           m.NoData,
		ProgramName:      m.ProgramName,
		DaysInProgram:    m.DaysInProgram,
		ProjectedEnd:     m.ProjectedEnd,
		Vitals:           map[string]models.Vital{},
		Weight:           models.WeightTrend{Current: m.WeightCurrent, Change: m.WeightChange},
		StatusScore:      m.StatusScore,
		StatusTier:       m.StatusTier,
		SessionsAnalyzed: m.SessionsAnalyzed,
		ExtractionNote:   m.ExtractionNote,
		CalculatedAt:     m.CalculatedAt,
	}
	unmarshalColumn(m.Vitals, &metrics.Vitals)
	unmarshalColumn(m.Compliance, &metrics.Compliance)
	unmarshalColumn(m.Timeline, &metrics.Timeline)
	unmarshalColumn(m.Wins, &metrics.Wins)
	unmarshalColumn(m.Challenges, &metrics.Challenges)
	unmarshalColumn(m.Goals, &metrics.Goals)
	return metrics
}

// FromMetrics serializes the typed record for storage.
func FromMetrics(metrics models.MemberMetrics) *MemberProgressSummaryModel {
	return &MemberProgressSummaryModel{
		MemberID:         metrics.MemberID,
		NoData:           metrics.NoData,
		ProgramName:      metrics.ProgramName,
		DaysInProgram:    metrics.DaysInProgram,
		ProjectedEnd:     metrics.ProjectedEnd,
		Vitals:           marshalColumn(metrics.Vitals),
		Compliance:       marshalColumn(metrics.Compliance),
		Timeline:         marshalColumn(metrics.Timeline),
		Wins:             marshalColumn(metrics.Wins),
		Challenges:       marshalColumn(metrics.Challenges),
		Goals:            marshalColumn(metrics.Goals),
		WeightCurrent:    metrics.Weight.Current,
		WeightChange:     metrics.Weight.Change,
		StatusScore:      metrics.StatusScore,
		StatusTier:       metrics.StatusTier,
		SessionsAnalyzed: metrics.SessionsAnalyzed,
		ExtractionNote:   metrics.ExtractionNote,
		CalculatedAt:     metrics.CalculatedAt,
	}
}

func marshalColumn(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

func unmarshalColumn(data datatypes.JSON, target interface{}) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, target)
}
