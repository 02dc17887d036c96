package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// CommissionAccrual records affiliate commission earned (or reversed) against
// a wager, written on the same transaction as the bet itself.
type CommissionAccrual struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Asset         enums.Asset     `gorm:"column:asset;type:asset_enum;not null"`
	OperationID   string          `gorm:"column:operation_id;type:text;not null"`
	WageredAmount decimal.Decimal `gorm:"column:wagered_amount;type:numeric(30,8);not null"`
	HouseEdge     decimal.Decimal `gorm:"column:house_edge;type:numeric(10,6);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(30,8);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
