package models

import (
	"time"

	"github.com/google/uuid"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // import.completed, analysis.requested
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// SurveyRow is one line of the nine-column survey export. Field content is
// carried verbatim; validation happens downstream.
type SurveyRow struct {
	Line           int    `json:"line"`
	CompletedOn    string `json:"completed_on"`
	ExternalUserID string `json:"external_user_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProgramName    string `json:"program_name"`
	ModuleName     string `json:"module_name"`
	Form           string `json:"form"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
}

// Row-level error codes. These never abort a batch.
const (
	ErrCodeLeadNotFound      = "lead_not_found"
	ErrCodeAmbiguousIdentity = "ambiguous_identity"
	ErrCodeBadTimestamp      = "bad_timestamp"
	ErrCodeReferenceInsert   = "reference_insert_failed"
	ErrCodeSessionInsert     = "session_insert_failed"
	ErrCodeAnswerInsert      = "answer_insert_failed"
)

type RowError struct {
	Code    string `json:"code"`
	Row     int    `json:"row"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

// ImportSummary is the user-visible result of one import job.
type ImportSummary struct {
	JobID           uuid.UUID   `json:"job_id"`
	TotalRows       int         `json:"total_rows"`
	SuccessfulRows  int         `json:"successful_rows"`
	FailedRows      int         `json:"failed_rows"`
	DuplicateRows   int         `json:"duplicate_rows"`
	SkippedRows     int         `json:"skipped_rows"`
	SessionsCreated int         `json:"sessions_created"`
	MemberIDs       []uuid.UUID `json:"member_ids"`
	Errors          []RowError  `json:"errors,omitempty"`
}

// Domain score severity buckets.
const (
	SeverityMinimal  = "minimal"
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

type DomainScore struct {
	SessionID     uuid.UUID `json:"session_id"`
	DomainKey     string    `json:"domain_key"`
	Total         float64   `json:"total"`
	QuestionCount int       `json:"question_count"`
	Severity      string    `json:"severity"`
}

// Vital trend values.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
	TrendNoData    = "no_data"
)

// Vital is one of the five tracked health vitals.
type Vital struct {
	Score   *float64  `json:"score,omitempty"`
	Trend   string    `json:"trend"`
	History []float64 `json:"history,omitempty"` // last 10 values, oldest first
}

// Compliance percentages; nil means no matching answers yet.
type Compliance struct {
	Nutrition   *float64 `json:"nutrition,omitempty"`
	Supplements *float64 `json:"supplements,omitempty"`
	Exercise    *float64 `json:"exercise,omitempty"`
	Meditation  *float64 `json:"meditation,omitempty"`
}

// FinishedSentinel marks a member scheduled past the last module.
const FinishedSentinel = "Finished"

type Timeline struct {
	LastCompleted     string   `json:"last_completed,omitempty"`
	ShouldBeWorkingOn string   `json:"should_be_working_on,omitempty"`
	Completed         []string `json:"completed,omitempty"`
	Overdue           []string `json:"overdue,omitempty"`
	Next              string   `json:"next,omitempty"`
}

type WeightTrend struct {
	Current *float64 `json:"current,omitempty"`
	Change  *float64 `json:"change,omitempty"`
}

// Challenge severity mirrors the extraction service contract.
type Challenge struct {
	Description string `json:"description"`
	Severity    string `json:"severity"` // low, moderate, high
}

// Goal status values returned by the extraction service.
const (
	GoalOnTrack          = "on_track"
	GoalAtRisk           = "at_risk"
	GoalWin              = "win"
	GoalInsufficientData = "insufficient_data"
)

type GoalStatus struct {
	Goal   string `json:"goal"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Status tiers for the composite score.
const (
	TierGreen  = "green"
	TierYellow = "yellow"
	TierRed    = "red"
)

// MemberMetrics is the fully derived progress record for one member. It is
// rebuilt and overwritten on every analysis run.
type MemberMetrics struct {
	MemberID         uuid.UUID        `json:"member_id"`
	NoData           bool             `json:"no_data"`
	ProgramName      string           `json:"program_name,omitempty"`
	DaysInProgram    *int             `json:"days_in_program,omitempty"`
	ProjectedEnd     *time.Time       `json:"projected_end,omitempty"`
	Vitals           map[string]Vital `json:"vitals"`
	Compliance       Compliance       `json:"compliance"`
	Timeline         Timeline         `json:"timeline"`
	Wins             []string         `json:"wins,omitempty"`
	Challenges       []Challenge      `json:"challenges,omitempty"`
	Goals            []GoalStatus     `json:"goals,omitempty"`
	Weight           WeightTrend      `json:"weight"`
	StatusScore      *float64         `json:"status_score,omitempty"`
	StatusTier       string           `json:"status_tier,omitempty"`
	SessionsAnalyzed int              `json:"sessions_analyzed"`
	ExtractionNote   string           `json:"extraction_note,omitempty"`
	CalculatedAt     time.Time        `json:"calculated_at"`
}

type Recommendation struct {
	Priority int    `json:"priority"`
	Title    string `json:"title"`
	Detail   string `json:"detail,omitempty"`
}

// InsightReport compares one member against the population snapshot taken at
// calculation time.
type InsightReport struct {
	MemberID        uuid.UUID          `json:"member_id"`
	PopulationSize  int                `json:"population_size"`
	Rank            int                `json:"rank"`
	Percentile      float64            `json:"percentile"`
	Quartile        int                `json:"quartile"`
	PopulationMeans map[string]float64 `json:"population_means"`
	Deltas          map[string]float64 `json:"deltas"`
	RiskFactors     []string           `json:"risk_factors,omitempty"`
	JourneyPattern  string             `json:"journey_pattern,omitempty"`
	Recommendations []Recommendation   `json:"recommendations,omitempty"`
	CalculatedAt    time.Time          `json:"calculated_at"`
}

// Analysis trigger modes.
const (
	TriggerAllActive   = "all_active"
	TriggerMemberList  = "member_list"
	TriggerImportBatch = "import_batch"
)

type AnalysisRequest struct {
	Mode      string      `json:"mode"`
	MemberIDs []uuid.UUID `json:"member_ids,omitempty"`
	ImportJob *uuid.UUID  `json:"import_job,omitempty"`
}

type AnalysisSummary struct {
	RunID     uuid.UUID `json:"run_id"`
	Mode      string    `json:"mode"`
	Members   int       `json:"members"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

// QAPair and SessionQA shape the recent-answers batch sent to the extraction
// service.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SessionQA struct {
	CompletedOn time.Time `json:"completed_on"`
	Form        string    `json:"form"`
	Module      string    `json:"module,omitempty"`
	Pairs       []QAPair  `json:"pairs"`
}

// SessionExtract is the structured result of the first LLM request type.
type SessionExtract struct {
	Wins       []string     `json:"wins"`
	Challenges []Challenge  `json:"challenges"`
	Goals      []GoalStatus `json:"goal_statuses"`
}
