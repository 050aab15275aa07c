package importer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Identity mapping match methods.
const (
	MatchMethodName   = "name_match"
	MatchMethodManual = "manual"
)

// ExternalIdentityMappingModel pins a survey-platform user id to an internal
// member. Created once per external id, mutated only by manual override.
type ExternalIdentityMappingModel struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalUserID string    `json:"external_user_id" gorm:"column:external_user_id;uniqueIndex"`
	MemberID       uuid.UUID `json:"member_id" gorm:"type:uuid;index"`
	MatchMethod    string    `json:"match_method" gorm:"column:match_method"`
	Confidence     string    `json:"confidence" gorm:"column:confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ExternalIdentityMappingModel) TableName() string {
	return "external_identity_mappings"
}

type ProgramModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProgramModel) TableName() string {
	return "programs"
}

type ProgramModuleModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProgramID uuid.UUID `json:"program_id" gorm:"type:uuid;uniqueIndex:idx_program_module"`
	Name      string    `json:"name" gorm:"uniqueIndex:idx_program_module"`
	Sequence  int       `json:"sequence" gorm:"column:sequence"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProgramModuleModel) TableName() string {
	return "program_modules"
}

type FormModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (FormModel) TableName() string {
	return "forms"
}

type FormQuestionModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FormID    uuid.UUID `json:"form_id" gorm:"type:uuid;uniqueIndex:idx_form_question"`
	Text      string    `json:"text" gorm:"uniqueIndex:idx_form_question"`
	CreatedAt time.Time `json:"created_at"`
}

func (FormQuestionModel) TableName() string {
	return "form_questions"
}

// ResponseSessionModel is one completed survey instance. The composite unique
// index is the duplicate-import guard.
type ResponseSessionModel struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID       uuid.UUID  `json:"member_id" gorm:"type:uuid;uniqueIndex:idx_session_key;index"`
	ExternalUserID string     `json:"external_user_id" gorm:"column:external_user_id;uniqueIndex:idx_session_key"`
	FormID         uuid.UUID  `json:"form_id" gorm:"type:uuid;uniqueIndex:idx_session_key"`
	CompletedOn    time.Time  `json:"completed_on" gorm:"column:completed_on;uniqueIndex:idx_session_key"`
	ProgramID      *uuid.UUID `json:"program_id,omitempty" gorm:"type:uuid"`
	ModuleID       *uuid.UUID `json:"module_id,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (ResponseSessionModel) TableName() string {
	return "response_sessions"
}

type ResponseAnswerModel struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID `json:"session_id" gorm:"type:uuid;index"`
	QuestionID   uuid.UUID `json:"question_id" gorm:"type:uuid;index"`
	RawText      string    `json:"raw_text" gorm:"column:raw_text"`
	NumericValue *float64  `json:"numeric_value,omitempty" gorm:"column:numeric_value"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ResponseAnswerModel) TableName() string {
	return "response_answers"
}

// Import job lifecycle.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type ImportJobModel struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	FileName        string         `json:"file_name" gorm:"column:file_name"`
	Status          string         `json:"status" gorm:"column:status;index"`
	TotalRows       int            `json:"total_rows"`
	SuccessfulRows  int            `json:"successful_rows"`
	FailedRows      int            `json:"failed_rows"`
	DuplicateRows   int            `json:"duplicate_rows"`
	SkippedRows     int            `json:"skipped_rows"`
	SessionsCreated int            `json:"sessions_created"`
	MemberIDs       datatypes.JSON `json:"member_ids,omitempty" gorm:"column:member_ids"`
	Errors          datatypes.JSON `json:"errors,omitempty" gorm:"column:errors"`
	ErrorMessage    string         `json:"error_message,omitempty" gorm:"column:error_message"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

func (ImportJobModel) TableName() string {
	return "import_jobs"
}
