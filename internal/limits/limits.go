package limits

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// Restriction is one active self-exclusion rule fetched from the policy
// source. Limits are expressed in fiat cents; PeriodDays bounds the rolling
// window the limit applies to.
type Restriction struct {
	Type           enums.RestrictionType
	PeriodDays     int
	LimitFiatCents int64
	Platform       string
}

// PolicySource resolves the active restrictions for a user. Identity and
// policy storage live outside this system.
type PolicySource interface {
	ActiveRestrictions(ctx context.Context, userID uuid.UUID) ([]Restriction, error)
}

// GamblingStats answers aggregate wager/loss questions over a window, in
// fiat cents.
type GamblingStats interface {
	TotalWagered(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
	TotalLost(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
}

// WithdrawHistory exposes the ledger's own withdrawal totals; the wallet
// repository implements it.
type WithdrawHistory interface {
	WithdrawnSince(ctx context.Context, userID uuid.UUID, asset enums.Asset, since time.Time) (decimal.Decimal, error)
}

// Checker gates BET and WITHDRAW operations before they touch any row.
type Checker interface {
	CheckBet(ctx context.Context, userID uuid.UUID, amountFiatCents int64) error
	CheckWithdraw(ctx context.Context, userID uuid.UUID, asset enums.Asset, amount decimal.Decimal) error
	// WithHistory returns a checker whose withdrawal sums read through
	// history, letting the ledger bind the daily-cap check to the open
	// transaction it runs the operation on.
	WithHistory(history WithdrawHistory) Checker
}
