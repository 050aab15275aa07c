package insights

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/llm"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const populationMeansKey = "insights:population_means"

// Service turns member metrics into population-relative insights. The
// population snapshot is read once per analysis run and shared across every
// member in it; insights may lag metrics written in the same run by design.
type Service struct {
	repo      *Repository
	summaries *metrics.Repository
	llm       *llm.Client
	cache     *redis.Client
	cacheTTL  time.Duration
}

func NewService(repo *Repository, summaries *metrics.Repository, client *llm.Client, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		repo:      repo,
		summaries: summaries,
		llm:       client,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// Snapshot loads every scored summary as the population baseline and
// refreshes the cached population means for dashboard reads.
func (s *Service) Snapshot(ctx context.Context) ([]models.MemberMetrics, error) {
	rows, err := s.summaries.ListScored(ctx)
	if err != nil {
		return nil, err
	}
	population := make([]models.MemberMetrics, 0, len(rows))
	for i := range rows {
		population = append(population, rows[i].ToMetrics())
	}
	s.cacheMeans(ctx, population)
	return population, nil
}

// Generate builds, persists, and returns the insight report for one member
// against the given population snapshot. Recommendation failures degrade to
// an empty list; the rest of the report always lands.
func (s *Service) Generate(ctx context.Context, member models.MemberMetrics, population []models.MemberMetrics) (*models.InsightReport, error) {
	report := Compare(member, population)

	if s.llm != nil && s.llm.Configured() && report.PopulationSize > 0 {
		recommendations, err := s.llm.GenerateRecommendations(ctx, member, report)
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"member_id": member.MemberID.String(),
			}).Warn("Recommendation generation failed")
		} else {
			report.Recommendations = recommendations
		}
	}

	if err := s.repo.Upsert(ctx, report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Report returns the stored insight for one member.
func (s *Service) Report(ctx context.Context, member models.MemberMetrics) (*MemberIndividualInsightModel, error) {
	return s.repo.Get(ctx, member.MemberID)
}

func (s *Service) cacheMeans(ctx context.Context, population []models.MemberMetrics) {
	if s.cache == nil || len(population) == 0 {
		return
	}
	means := populationMeans(population)
	data, err := json.Marshal(means)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, populationMeansKey, data, s.cacheTTL).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to cache population means")
	}
}

// CachedPopulationMeans serves the dashboard read path without touching the
// summaries table; falls back to a fresh snapshot on a cache miss.
func (s *Service) CachedPopulationMeans(ctx context.Context) (map[string]float64, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, populationMeansKey).Bytes()
		if err == nil {
			var means map[string]float64
			if jsonErr := json.Unmarshal(data, &means); jsonErr == nil {
				return means, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Log.WithError(err).Warn("Population means cache read failed")
		}
	}

	population, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return populationMeans(population), nil
}
