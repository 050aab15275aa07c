package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/catalog"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/llm"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/members"
)

// recentSessionLimit caps how many sessions of Q&A go to the extraction
// service per call.
const recentSessionLimit = 5

// Calculator rebuilds one member's full progress record from their session
// history. Stateless across members; every run overwrites the stored summary
// wholesale.
type Calculator struct {
	repo    *Repository
	members *members.Repository
	llm     *llm.Client
	catalog catalog.Catalog
}

func NewCalculator(repo *Repository, memberRepo *members.Repository, client *llm.Client, cat catalog.Catalog) *Calculator {
	return &Calculator{repo: repo, members: memberRepo, llm: client, catalog: cat}
}

// Calculate derives and persists the member's metrics. A member with no
// identity mapping gets an explicit no-data record, not an error.
func (c *Calculator) Calculate(ctx context.Context, memberID uuid.UUID) (*models.MemberMetrics, error) {
	mapped, err := c.repo.HasIdentityMapping(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !mapped {
		return c.persistNoData(ctx, memberID)
	}

	metrics := models.MemberMetrics{
		MemberID:     memberID,
		Vitals:       map[string]models.Vital{},
		CalculatedAt: time.Now().UTC(),
	}

	program, err := c.members.GetActiveProgram(ctx, memberID)
	if err != nil && !errors.Is(err, members.ErrProgramNotFound) {
		return nil, err
	}
	if program != nil {
		metrics.ProgramName = program.ProgramName
		days := int(time.Since(program.StartDate).Hours() / 24)
		metrics.DaysInProgram = &days
		projected := program.StartDate.AddDate(0, 0, program.DurationDays)
		metrics.ProjectedEnd = &projected
	}

	sequence := c.moduleSequence(ctx, memberID, program)

	sessions, err := c.repo.NonClinicalSessions(ctx, memberID)
	if err != nil {
		return nil, err
	}

	prior, err := c.repo.Get(ctx, memberID)
	if err != nil && !errors.Is(err, ErrSummaryNotFound) {
		return nil, err
	}

	c.extractThemes(ctx, &metrics, prior, sessions)

	metrics.Vitals = ComputeVitals(sessions, c.catalog)
	metrics.Compliance = ComputeCompliance(sessions, c.catalog)

	lastCompleted := LastCompletedModule(sessions, sequence)
	durationDays := 0
	if program != nil {
		durationDays = program.DurationDays
	}
	shouldBe := ScheduledModule(sequence, metrics.DaysInProgram, durationDays)
	metrics.Timeline = ComputeTimeline(sequence, lastCompleted, shouldBe)

	metrics.Weight = ComputeWeight(sessions, c.catalog)

	score := StatusScore(metrics)
	metrics.StatusScore = &score
	metrics.StatusTier = TierFor(score)
	metrics.SessionsAnalyzed = len(sessions)

	if err := c.repo.Upsert(ctx, FromMetrics(metrics)); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (c *Calculator) moduleSequence(ctx context.Context, memberID uuid.UUID, program *members.MemberProgramModel) []string {
	if program != nil {
		sequence, err := c.repo.ModuleSequence(ctx, program.ProgramName)
		if err == nil && len(sequence) > 0 {
			return sequence
		}
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"member_id": memberID.String(),
				"program":   program.ProgramName,
			}).Warn("Module sequence lookup failed, using default curriculum")
			return DefaultModuleSequence()
		}
	}
	logger.Log.WithFields(map[string]interface{}{
		"member_id": memberID.String(),
	}).Warn("No program module sequence found, using default curriculum")
	return DefaultModuleSequence()
}

// extractThemes fills wins/challenges/goals. The cache gate: if the session
// count matches the previous run, the cached extraction is reused verbatim
// and the external service is not called.
func (c *Calculator) extractThemes(ctx context.Context, metrics *models.MemberMetrics, prior *MemberProgressSummaryModel, sessions []SessionDetail) {
	if prior != nil && !prior.NoData && prior.SessionsAnalyzed == len(sessions) {
		cached := prior.ToMetrics()
		metrics.Wins = cached.Wins
		metrics.Challenges = cached.Challenges
		metrics.Goals = cached.Goals
		metrics.ExtractionNote = cached.ExtractionNote
		logger.Log.WithFields(map[string]interface{}{
			"member_id": metrics.MemberID.String(),
			"sessions":  len(sessions),
		}).Debug("No new sessions, reusing cached extraction")
		return
	}

	if len(sessions) == 0 {
		return
	}
	if c.llm == nil || !c.llm.Configured() {
		metrics.ExtractionNote = "extraction service not configured"
		return
	}

	var goals []string
	if prior != nil {
		for _, goal := range prior.ToMetrics().Goals {
			goals = append(goals, goal.Goal)
		}
	}

	extract, err := c.llm.ExtractSessionThemes(ctx, goals, recentSessionQA(sessions))
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"member_id": metrics.MemberID.String(),
		}).Warn("Session theme extraction failed")
		metrics.ExtractionNote = err.Error()
		return
	}
	metrics.Wins = extract.Wins
	metrics.Challenges = extract.Challenges
	metrics.Goals = extract.Goals
}

func recentSessionQA(sessions []SessionDetail) []models.SessionQA {
	start := 0
	if len(sessions) > recentSessionLimit {
		start = len(sessions) - recentSessionLimit
	}
	recent := sessions[start:]

	batch := make([]models.SessionQA, 0, len(recent))
	for _, session := range recent {
		qa := models.SessionQA{
			CompletedOn: session.CompletedOn,
			Form:        session.FormName,
			Module:      session.ModuleName,
		}
		for _, answer := range session.Answers {
			qa.Pairs = append(qa.Pairs, models.QAPair{Question: answer.Question, Answer: answer.RawText})
		}
		batch = append(batch, qa)
	}
	return batch
}

func (c *Calculator) persistNoData(ctx context.Context, memberID uuid.UUID) (*models.MemberMetrics, error) {
	metrics := models.MemberMetrics{
		MemberID:     memberID,
		NoData:       true,
		Vitals:       map[string]models.Vital{},
		CalculatedAt: time.Now().UTC(),
	}
	if err := c.repo.Upsert(ctx, FromMetrics(metrics)); err != nil {
		return nil, err
	}
	return &metrics, nil
}
