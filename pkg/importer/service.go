package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/kafka"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/scoring"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrJobNotFound    = errors.New("import job not found")
	ErrBudgetExceeded = errors.New("import time budget exceeded")
	ErrFileUnreadable = errors.New("survey file could not be parsed")
)

// EventImportComplete chains the import into the analysis service.
const EventImportComplete = "import.completed"

// Service runs one survey file through the full import pipeline: parse,
// resolve identities, upsert reference data, write sessions and answers,
// score clinical domains, and record an observable job.
type Service struct {
	db         *gorm.DB
	writer     *SessionWriter
	scorer     *scoring.Scorer
	producer   *kafka.Producer
	dlq        *kafka.Producer
	timeBudget time.Duration
	maxErrors  int
}

func NewService(db *gorm.DB, writer *SessionWriter, scorer *scoring.Scorer, producer, dlq *kafka.Producer, timeBudget time.Duration, maxErrors int) *Service {
	if maxErrors <= 0 {
		maxErrors = 25
	}
	return &Service{
		db:         db,
		writer:     writer,
		scorer:     scorer,
		producer:   producer,
		dlq:        dlq,
		timeBudget: timeBudget,
		maxErrors:  maxErrors,
	}
}

func (s *Service) AutoMigrate() error {
	return s.db.AutoMigrate(
		&ExternalIdentityMappingModel{},
		&ProgramModel{},
		&ProgramModuleModel{},
		&FormModel{},
		&FormQuestionModel{},
		&ResponseSessionModel{},
		&ResponseAnswerModel{},
		&ImportJobModel{},
	)
}

// Run imports one uploaded file. Row-level problems are collected on the job
// record; batch-level problems (unreadable file, exhausted time budget) fail
// the whole job.
func (s *Service) Run(ctx context.Context, fileName string, data []byte) (*models.ImportSummary, error) {
	job := &ImportJobModel{
		ID:        uuid.New(),
		FileName:  fileName,
		Status:    JobStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
	now := time.Now().UTC()
	job.StartedAt = &now
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("creating import job: %w", err)
	}

	if s.timeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeBudget)
		defer cancel()
	}

	summary, err := s.run(ctx, job, data)
	if err != nil {
		s.failJob(job.ID, err)
		return nil, err
	}
	return summary, nil
}

func (s *Service) run(ctx context.Context, job *ImportJobModel, data []byte) (*models.ImportSummary, error) {
	parsed, err := ParseSurveyCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}

	ref, err := LoadRefData(ctx, s.db)
	if err != nil {
		return nil, err
	}

	result := &WriteResult{}
	seenMembers := make(map[uuid.UUID]struct{})

	for _, group := range GroupRows(parsed.Rows) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w after %d sessions", ErrBudgetExceeded, result.SessionsCreated)
		}

		session, duplicate, rowErr := s.writer.WriteGroup(ctx, ref, group)
		switch {
		case duplicate:
			result.DuplicateRows += len(group.rows)
		case rowErr != nil:
			result.FailedRows += len(group.rows)
			result.Errors = append(result.Errors, *rowErr)
			logger.Log.WithFields(map[string]interface{}{
				"code": rowErr.Code,
				"row":  rowErr.Row,
			}).Warn("Import session failed")
		default:
			result.SessionsCreated++
			result.SuccessfulRows += len(group.rows)
			if _, ok := seenMembers[session.MemberID]; !ok {
				seenMembers[session.MemberID] = struct{}{}
				result.MemberIDs = append(result.MemberIDs, session.MemberID)
			}
			if scoring.SurveyCodeForForm(group.form) != "" {
				result.ClinicalSessionIDs = append(result.ClinicalSessionIDs, session.ID)
			}
		}
	}

	if len(result.ClinicalSessionIDs) > 0 {
		if err := s.scorer.ScoreSessions(ctx, result.ClinicalSessionIDs); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w during domain scoring", ErrBudgetExceeded)
			}
			return nil, fmt.Errorf("scoring clinical sessions: %w", err)
		}
	}

	capped := result.Errors
	if len(capped) > s.maxErrors {
		capped = capped[:s.maxErrors]
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":           JobStatusCompleted,
		"total_rows":       parsed.TotalRows,
		"successful_rows":  result.SuccessfulRows,
		"failed_rows":      result.FailedRows,
		"duplicate_rows":   result.DuplicateRows,
		"skipped_rows":     parsed.Skipped,
		"sessions_created": result.SessionsCreated,
		"member_ids":       mustJSON(result.MemberIDs),
		"errors":           mustJSON(capped),
		"completed_at":     now,
	}
	if err := s.db.WithContext(ctx).Model(&ImportJobModel{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("finalizing import job: %w", err)
	}

	s.publishCompleted(ctx, job.ID, result.MemberIDs)

	return &models.ImportSummary{
		JobID:           job.ID,
		TotalRows:       parsed.TotalRows,
		SuccessfulRows:  result.SuccessfulRows,
		FailedRows:      result.FailedRows,
		DuplicateRows:   result.DuplicateRows,
		SkippedRows:     parsed.Skipped,
		SessionsCreated: result.SessionsCreated,
		MemberIDs:       result.MemberIDs,
		Errors:          capped,
	}, nil
}

// publishCompleted hands the touched member set to the analysis service. A
// publish failure degrades to the DLQ; the import itself stays successful.
func (s *Service) publishCompleted(ctx context.Context, jobID uuid.UUID, memberIDs []uuid.UUID) {
	if s.producer == nil {
		return
	}
	ids := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		ids = append(ids, id.String())
	}
	payload := map[string]interface{}{
		"job_id":     jobID.String(),
		"member_ids": ids,
	}
	if err := s.producer.PublishEvent(ctx, EventImportComplete, "import-service", payload); err != nil {
		logger.Log.WithError(err).Error("failed to publish import completion")
		if s.dlq != nil {
			_ = s.dlq.PublishEvent(ctx, EventImportComplete, "import-service", payload)
		}
	}
}

func (s *Service) failJob(jobID uuid.UUID, cause error) {
	now := time.Now().UTC()
	updateErr := s.db.Model(&ImportJobModel{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":        JobStatusFailed,
		"error_message": cause.Error(),
		"completed_at":  now,
	}).Error
	if updateErr != nil {
		logger.Log.WithError(updateErr).Error("Failed to mark import job failed")
	}
}

// Job returns the stored job record for the status endpoint.
func (s *Service) Job(ctx context.Context, id uuid.UUID) (*ImportJobModel, error) {
	var job ImportJobModel
	result := s.db.WithContext(ctx).First(&job, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	return &job, result.Error
}

// RescoreClinical recomputes every domain score from scratch.
func (s *Service) RescoreClinical(ctx context.Context) (int, error) {
	ids, err := s.scorer.ListClinicalSessionIDs(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.scorer.ScoreSessions(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}
