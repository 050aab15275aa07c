package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/members"
	"gorm.io/gorm"
)

var (
	// ErrLeadNotFound means no member record matches the row's name.
	ErrLeadNotFound = errors.New("no member found for survey identity")
	// ErrAmbiguousIdentity means two or more members share the name; the
	// resolver never guesses.
	ErrAmbiguousIdentity = errors.New("multiple members match survey identity")
)

// Resolver maps external survey-platform user ids to internal members,
// creating a persistent mapping on first sight.
type Resolver struct {
	db      *gorm.DB
	members *members.Repository
}

func NewResolver(db *gorm.DB, memberRepo *members.Repository) *Resolver {
	return &Resolver{db: db, members: memberRepo}
}

// Resolve returns the member id for an external user id. The stored mapping
// is authoritative for repeat imports; name matching only runs on first
// contact.
func (r *Resolver) Resolve(ctx context.Context, externalUserID, firstName, lastName string) (uuid.UUID, error) {
	var mapping ExternalIdentityMappingModel
	err := r.db.WithContext(ctx).
		Where("external_user_id = ?", externalUserID).
		First(&mapping).Error
	if err == nil {
		return mapping.MemberID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("looking up identity mapping: %w", err)
	}

	candidates, err := r.members.FindByExactName(ctx, firstName, lastName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("exact name lookup: %w", err)
	}

	if len(candidates) == 0 {
		// Retry with a prefix search, then re-filter by trimmed equality;
		// member rows sometimes carry stray whitespace of their own.
		prefixMatches, err := r.members.FindByNamePrefix(ctx, firstName, lastName)
		if err != nil {
			return uuid.Nil, fmt.Errorf("prefix name lookup: %w", err)
		}
		for _, m := range prefixMatches {
			if equalTrimmed(m.FirstName, firstName) && equalTrimmed(m.LastName, lastName) {
				candidates = append(candidates, m)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return uuid.Nil, ErrLeadNotFound
	case 1:
	default:
		return uuid.Nil, ErrAmbiguousIdentity
	}

	member := candidates[0]
	mapping = ExternalIdentityMappingModel{
		ID:             uuid.New(),
		ExternalUserID: externalUserID,
		MemberID:       member.ID,
		MatchMethod:    MatchMethodName,
		Confidence:     "high",
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&mapping).Error; err != nil {
		return uuid.Nil, fmt.Errorf("creating identity mapping: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"external_user_id": externalUserID,
		"member_id":        member.ID,
	}).Info("Created external identity mapping")

	return member.ID, nil
}

func equalTrimmed(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
