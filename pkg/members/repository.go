package members

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrProgramNotFound = errors.New("active program not found")

// MemberModel is the lead/member record owned by the CRUD dashboard. The
// pipeline only reads it, plus a Create used by fixtures.
type MemberModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FirstName string    `json:"first_name" gorm:"column:first_name;index"`
	LastName  string    `json:"last_name" gorm:"column:last_name;index"`
	Email     string    `json:"email,omitempty" gorm:"column:email"`
	Status    string    `json:"status" gorm:"column:status;index"` // lead, active, inactive
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MemberModel) TableName() string {
	return "members"
}

type MemberProgramModel struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID     uuid.UUID `json:"member_id" gorm:"type:uuid;index"`
	ProgramName  string    `json:"program_name" gorm:"column:program_name"`
	Status       string    `json:"status" gorm:"column:status;index"` // active, completed, cancelled
	StartDate    time.Time `json:"start_date" gorm:"column:start_date"`
	DurationDays int       `json:"duration_days" gorm:"column:duration_days"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MemberProgramModel) TableName() string {
	return "member_programs"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&MemberModel{}, &MemberProgramModel{})
}

func (r *Repository) Create(ctx context.Context, member *MemberModel) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	member.CreatedAt = time.Now().UTC()
	member.UpdatedAt = member.CreatedAt
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *Repository) CreateProgram(ctx context.Context, program *MemberProgramModel) error {
	if program.ID == uuid.Nil {
		program.ID = uuid.New()
	}
	program.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(program).Error
}

// FindByExactName matches case-insensitively on trimmed first and last name.
func (r *Repository) FindByExactName(ctx context.Context, firstName, lastName string) ([]MemberModel, error) {
	var matches []MemberModel
	result := r.db.WithContext(ctx).
		Where("LOWER(TRIM(first_name)) = ? AND LOWER(TRIM(last_name)) = ?",
			strings.ToLower(strings.TrimSpace(firstName)),
			strings.ToLower(strings.TrimSpace(lastName))).
		Find(&matches)
	return matches, result.Error
}

// FindByNamePrefix is the retry path for rows whose stored names carry stray
// whitespace; callers re-filter the candidates by trimmed equality.
func (r *Repository) FindByNamePrefix(ctx context.Context, firstName, lastName string) ([]MemberModel, error) {
	var matches []MemberModel
	result := r.db.WithContext(ctx).
		Where("first_name ILIKE ? AND last_name ILIKE ?",
			strings.TrimSpace(firstName)+"%",
			strings.TrimSpace(lastName)+"%").
		Find(&matches)
	return matches, result.Error
}

func (r *Repository) ListActiveMemberIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.db.WithContext(ctx).Model(&MemberModel{}).
		Where("status = ?", "active").
		Order("created_at").
		Pluck("id", &ids)
	return ids, result.Error
}

// GetActiveProgram returns the member's program with status active, or
// ErrProgramNotFound; absence is tolerated by callers.
func (r *Repository) GetActiveProgram(ctx context.Context, memberID uuid.UUID) (*MemberProgramModel, error) {
	var program MemberProgramModel
	result := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, "active").
		Order("start_date DESC").
		First(&program)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &program, nil
}
