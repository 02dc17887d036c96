package limits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
)

// DBPolicySource reads restrictions from the local user_restrictions table,
// which the policy system keeps in sync.
type DBPolicySource struct {
	db *gorm.DB
}

func NewDBPolicySource(db *gorm.DB) *DBPolicySource {
	return &DBPolicySource{db: db}
}

func (s *DBPolicySource) ActiveRestrictions(ctx context.Context, userID uuid.UUID) ([]Restriction, error) {
	var rows []models.UserRestriction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading restrictions: %w", err)
	}

	out := make([]Restriction, 0, len(rows))
	for _, row := range rows {
		out = append(out, Restriction{
			Type:           row.Type,
			PeriodDays:     row.PeriodDays,
			LimitFiatCents: row.LimitFiatCents,
			Platform:       row.Platform,
		})
	}
	return out, nil
}
