package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// Vault is the locked balance parallel to a wallet. It only moves through the
// vault transfer protocol and never goes negative.
type Vault struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_vaults_user_asset"`
	Asset     enums.Asset     `gorm:"column:asset;type:asset_enum;not null;uniqueIndex:ux_vaults_user_asset"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(30,8);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
