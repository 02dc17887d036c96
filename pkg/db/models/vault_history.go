package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// VaultHistory is the append-only record of one vault transfer.
type VaultHistory struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VaultID         uuid.UUID            `gorm:"column:vault_id;type:uuid;not null;index"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Asset           enums.Asset          `gorm:"column:asset;type:asset_enum;not null"`
	Direction       enums.VaultDirection `gorm:"column:direction;type:vault_direction_enum;not null"`
	Amount          decimal.Decimal      `gorm:"column:amount;type:numeric(30,8);not null"`
	PreviousBalance decimal.Decimal      `gorm:"column:previous_balance;type:numeric(30,8);not null"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
}
