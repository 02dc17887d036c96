package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// BalanceHistory is the append-only record of one ledger mutation. The
// (operation_id, operation_kind) pair is the idempotency key: the same
// operation id may appear once per kind (a BET and its later REFUND), never
// twice for the same kind.
type BalanceHistory struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OperationID     string                `gorm:"column:operation_id;type:text;not null;uniqueIndex:ux_balance_histories_operation"`
	OperationKind   enums.OperationKind   `gorm:"column:operation_kind;type:operation_kind_enum;not null;uniqueIndex:ux_balance_histories_operation"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:ix_balance_histories_user_asset"`
	Asset           enums.Asset           `gorm:"column:asset;type:asset_enum;not null;index:ix_balance_histories_user_asset"`
	Amount          decimal.Decimal       `gorm:"column:amount;type:numeric(30,8);not null"`
	Rate            decimal.Decimal       `gorm:"column:rate;type:numeric(30,8);not null"`
	AmountFiatCents int64                 `gorm:"column:amount_fiat_cents;not null"`
	PreviousBalance decimal.Decimal       `gorm:"column:previous_balance;type:numeric(30,8);not null"`
	HouseEdge       *decimal.Decimal      `gorm:"column:house_edge;type:numeric(10,6)"`
	Metadata        json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	Description     *string               `gorm:"column:description;type:text"`
	Status          enums.OperationStatus `gorm:"column:status;type:operation_status_enum;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
