package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceStatistic keeps one row of running totals per user, updated in place
// alongside every ledger mutation.
type BalanceStatistic struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_balance_statistics_user"`
	TotalDeposited decimal.Decimal `gorm:"column:total_deposited;type:numeric(30,8);not null;default:0"`
	TotalWithdrawn decimal.Decimal `gorm:"column:total_withdrawn;type:numeric(30,8);not null;default:0"`
	TotalWagered   decimal.Decimal `gorm:"column:total_wagered;type:numeric(30,8);not null;default:0"`
	TotalWon       decimal.Decimal `gorm:"column:total_won;type:numeric(30,8);not null;default:0"`
	TotalRefunded  decimal.Decimal `gorm:"column:total_refunded;type:numeric(30,8);not null;default:0"`
	BetCount       int64           `gorm:"column:bet_count;not null;default:0"`
	WinCount       int64           `gorm:"column:win_count;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
