// Package analysis orchestrates re-analysis runs: resolve a member set from
// the trigger, then rebuild metrics and insights in fixed-size parallel
// batches.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/importer"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/insights"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/members"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/metrics"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRunNotFound    = errors.New("analysis run not found")
	ErrUnknownTrigger = errors.New("unknown analysis trigger mode")
	ErrNoMembers      = errors.New("trigger resolved to no members")
)

// Run lifecycle.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AnalysisRunModel records one analysis invocation for observability.
type AnalysisRunModel struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Mode         string         `json:"mode" gorm:"column:mode"`
	Status       string         `json:"status" gorm:"column:status;index"`
	Members      int            `json:"members"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	MemberIDs    datatypes.JSON `json:"member_ids,omitempty" gorm:"column:member_ids"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"column:error_message"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

func (AnalysisRunModel) TableName() string {
	return "analysis_runs"
}

type Service struct {
	db         *gorm.DB
	members    *members.Repository
	calculator *metrics.Calculator
	insights   *insights.Service
	batchSize  int
}

func NewService(db *gorm.DB, memberRepo *members.Repository, calculator *metrics.Calculator, insightSvc *insights.Service, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 30
	}
	return &Service{
		db:         db,
		members:    memberRepo,
		calculator: calculator,
		insights:   insightSvc,
		batchSize:  batchSize,
	}
}

func (s *Service) AutoMigrate() error {
	return s.db.AutoMigrate(&AnalysisRunModel{})
}

// Run executes one analysis over the member set the trigger resolves to.
// Per-member failures are counted, never fatal to the run.
func (s *Service) Run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisSummary, error) {
	memberIDs, err := s.resolveMembers(ctx, req)
	if err != nil {
		return nil, err
	}

	run := &AnalysisRunModel{
		ID:        uuid.New(),
		Mode:      req.Mode,
		Status:    RunStatusRunning,
		Members:   len(memberIDs),
		MemberIDs: mustJSON(memberIDs),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("creating analysis run: %w", err)
	}

	// One snapshot per run; insights within the run compare against it even
	// as fresher metrics land.
	population, err := s.insights.Snapshot(ctx)
	if err != nil {
		s.failRun(run.ID, err)
		return nil, err
	}

	succeeded, failed := s.processBatches(ctx, memberIDs, population)

	now := time.Now().UTC()
	updateErr := s.db.WithContext(ctx).Model(&AnalysisRunModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":       RunStatusCompleted,
			"succeeded":    succeeded,
			"failed":       failed,
			"completed_at": now,
		}).Error
	if updateErr != nil {
		return nil, fmt.Errorf("finalizing analysis run: %w", updateErr)
	}

	logger.Log.WithFields(map[string]interface{}{
		"run_id":    run.ID.String(),
		"mode":      req.Mode,
		"members":   len(memberIDs),
		"succeeded": succeeded,
		"failed":    failed,
	}).Info("Analysis run completed")

	return &models.AnalysisSummary{
		RunID:     run.ID,
		Mode:      req.Mode,
		Members:   len(memberIDs),
		Succeeded: succeeded,
		Failed:    failed,
	}, nil
}

// processBatches walks the member set in fixed-width parallel batches,
// joining each batch before starting the next. Once a batch starts its
// members always run to completion.
func (s *Service) processBatches(ctx context.Context, memberIDs []uuid.UUID, population []models.MemberMetrics) (succeeded, failed int) {
	var mu sync.Mutex

	for start := 0; start < len(memberIDs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(memberIDs) {
			end = len(memberIDs)
		}

		var wg sync.WaitGroup
		for _, memberID := range memberIDs[start:end] {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				if err := s.analyzeMember(ctx, id, population); err != nil {
					logger.Log.WithError(err).WithFields(map[string]interface{}{
						"member_id": id.String(),
					}).Error("Member analysis failed")
					mu.Lock()
					failed++
					mu.Unlock()
					return
				}
				mu.Lock()
				succeeded++
				mu.Unlock()
			}(memberID)
		}
		wg.Wait()
	}
	return succeeded, failed
}

func (s *Service) analyzeMember(ctx context.Context, memberID uuid.UUID, population []models.MemberMetrics) error {
	memberMetrics, err := s.calculator.Calculate(ctx, memberID)
	if err != nil {
		return fmt.Errorf("calculating metrics: %w", err)
	}
	if memberMetrics.NoData {
		return nil
	}
	if _, err := s.insights.Generate(ctx, *memberMetrics, population); err != nil {
		return fmt.Errorf("generating insight: %w", err)
	}
	return nil
}

func (s *Service) resolveMembers(ctx context.Context, req models.AnalysisRequest) ([]uuid.UUID, error) {
	switch req.Mode {
	case models.TriggerAllActive:
		ids, err := s.members.ListActiveMemberIDs(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, ErrNoMembers
		}
		return ids, nil

	case models.TriggerMemberList:
		if len(req.MemberIDs) == 0 {
			return nil, ErrNoMembers
		}
		return req.MemberIDs, nil

	case models.TriggerImportBatch:
		if req.ImportJob == nil {
			return nil, ErrNoMembers
		}
		return s.importBatchMembers(ctx, *req.ImportJob)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, req.Mode)
	}
}

func (s *Service) importBatchMembers(ctx context.Context, jobID uuid.UUID) ([]uuid.UUID, error) {
	var job importer.ImportJobModel
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, importer.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	if len(job.MemberIDs) > 0 {
		if err := json.Unmarshal(job.MemberIDs, &ids); err != nil {
			return nil, fmt.Errorf("decoding import job members: %w", err)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoMembers
	}
	return ids, nil
}

// HandleImportEvent is the queued follow-on from a completed import: analyze
// exactly the members that batch touched.
func (s *Service) HandleImportEvent(ctx context.Context, event models.Event) error {
	if event.Type != importer.EventImportComplete {
		return nil
	}

	if rawJob, ok := event.Data["job_id"].(string); ok {
		if jobID, err := uuid.Parse(rawJob); err == nil {
			_, err := s.Run(ctx, models.AnalysisRequest{
				Mode:      models.TriggerImportBatch,
				ImportJob: &jobID,
			})
			return s.dropIfPermanent(event, err)
		}
	}

	// Fall back to the member list carried on the event itself.
	rawIDs, _ := event.Data["member_ids"].([]interface{})
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(str)
		if err != nil {
			logger.Log.WithFields(map[string]interface{}{
				"event_id":  event.ID,
				"member_id": str,
			}).Warn("Skipping unparseable member id in import event")
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		logger.Log.WithFields(map[string]interface{}{
			"event_id": event.ID,
		}).Info("Import event carried no members, nothing to analyze")
		return nil
	}

	_, err := s.Run(ctx, models.AnalysisRequest{
		Mode:      models.TriggerMemberList,
		MemberIDs: ids,
	})
	return s.dropIfPermanent(event, err)
}

// dropIfPermanent swallows failures that redelivery can never cure, so a bad
// event does not wedge the consumer's partition. Transient failures (storage
// down) are returned for retry.
func (s *Service) dropIfPermanent(event models.Event, err error) error {
	if err == nil {
		return nil
	}
	if !permanentEventError(err) {
		return err
	}
	logger.Log.WithError(err).WithFields(map[string]interface{}{
		"event_id": event.ID,
	}).Warn("Dropping import event that can never resolve")
	return nil
}

func permanentEventError(err error) bool {
	return errors.Is(err, ErrNoMembers) ||
		errors.Is(err, ErrUnknownTrigger) ||
		errors.Is(err, importer.ErrJobNotFound)
}

// GetRun returns one stored run record for the status endpoint.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*AnalysisRunModel, error) {
	var run AnalysisRunModel
	result := s.db.WithContext(ctx).First(&run, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	return &run, result.Error
}

func (s *Service) failRun(runID uuid.UUID, cause error) {
	now := time.Now().UTC()
	err := s.db.Model(&AnalysisRunModel{}).Where("id = ?", runID).Updates(map[string]interface{}{
		"status":        RunStatusFailed,
		"error_message": cause.Error(),
		"completed_at":  now,
	}).Error
	if err != nil {
		logger.Log.WithError(err).Error("Failed to mark analysis run failed")
	}
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}
