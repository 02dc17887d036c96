package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// UserRestriction is one responsible-gambling rule synced from the policy
// system. A row is active until revoked or expired.
type UserRestriction struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:ix_user_restrictions_user"`
	Type           enums.RestrictionType `gorm:"column:type;type:text;not null"`
	PeriodDays     int                   `gorm:"column:period_days;not null;default:0"`
	LimitFiatCents int64                 `gorm:"column:limit_fiat_cents;not null;default:0"`
	Platform       string                `gorm:"column:platform;type:text;not null;default:''"`
	ExpiresAt      *time.Time            `gorm:"column:expires_at"`
	RevokedAt      *time.Time            `gorm:"column:revoked_at"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
