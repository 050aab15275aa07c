package insights

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInsightNotFound = errors.New("member insight not found")

// MemberIndividualInsightModel is the stored population comparison, one row
// per member, recomputed wholesale on every analysis run.
type MemberIndividualInsightModel struct {
	MemberID        uuid.UUID      `json:"member_id" gorm:"type:uuid;primaryKey"`
	PopulationSize  int            `json:"population_size" gorm:"column:population_size"`
	Rank            int            `json:"rank" gorm:"column:rank"`
	Percentile      float64        `json:"percentile" gorm:"column:percentile"`
	Quartile        int            `json:"quartile" gorm:"column:quartile"`
	PopulationMeans datatypes.JSON `json:"population_means,omitempty" gorm:"column:population_means"`
	Deltas          datatypes.JSON `json:"deltas,omitempty" gorm:"column:deltas"`
	RiskFactors     datatypes.JSON `json:"risk_factors,omitempty" gorm:"column:risk_factors"`
	JourneyPattern  string         `json:"journey_pattern,omitempty" gorm:"column:journey_pattern"`
	Recommendations datatypes.JSON `json:"recommendations,omitempty" gorm:"column:recommendations"`
	CalculatedAt    time.Time      `json:"calculated_at" gorm:"column:calculated_at"`
}

func (MemberIndividualInsightModel) TableName() string {
	return "member_individual_insights"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&MemberIndividualInsightModel{})
}

func (r *Repository) Get(ctx context.Context, memberID uuid.UUID) (*MemberIndividualInsightModel, error) {
	var insight MemberIndividualInsightModel
	result := r.db.WithContext(ctx).First(&insight, "member_id = ?", memberID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrInsightNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &insight, nil
}

func (r *Repository) Upsert(ctx context.Context, report models.InsightReport) error {
	row := &MemberIndividualInsightModel{
		MemberID:        report.MemberID,
		PopulationSize:  report.PopulationSize,
		Rank:            report.Rank,
		Percentile:      report.Percentile,
		Quartile:        report.Quartile,
		PopulationMeans: marshalColumn(report.PopulationMeans),
		Deltas:          marshalColumn(report.Deltas),
		RiskFactors:     marshalColumn(report.RiskFactors),
		JourneyPattern:  report.JourneyPattern,
		Recommendations: marshalColumn(report.Recommendations),
		CalculatedAt:    report.CalculatedAt,
	}

	var existing MemberIndividualInsightModel
	err := r.db.WithContext(ctx).First(&existing, "member_id = ?", report.MemberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(row).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&MemberIndividualInsightModel{}).
		Where("member_id = ?", report.MemberID).
		Select("*").Omit("member_id").
		Updates(row).Error
}

func marshalColumn(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}
