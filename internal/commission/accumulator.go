package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
)

// defaultShare is the fraction of theoretical house profit paid out as
// affiliate commission.
var defaultShare = decimal.RequireFromString("0.45")

// Accrual describes one wager's commission contribution.
type Accrual struct {
	UserID      uuid.UUID
	Asset       enums.Asset
	OperationID string
	Wagered     decimal.Decimal
	HouseEdge   decimal.Decimal
}

// Accumulator records affiliate commission on the caller's transaction so it
// commits or rolls back together with the bet.
type Accumulator interface {
	Accrue(ctx context.Context, tx *gorm.DB, accrual Accrual) error
	Reverse(ctx context.Context, tx *gorm.DB, accrual Accrual) error
}

type accumulator struct {
	db    *gorm.DB
	share decimal.Decimal
}

func NewAccumulator(db *gorm.DB, share decimal.Decimal) (Accumulator, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commission database required")
	}
	if share.LessThanOrEqual(decimal.Zero) {
		share = defaultShare
	}
	return &accumulator{db: db, share: share}, nil
}

func (a *accumulator) Accrue(ctx context.Context, tx *gorm.DB, accrual Accrual) error {
	return a.insert(ctx, tx, accrual, false)
}

// Reverse writes a negating row for a refunded wager rather than deleting
// the original accrual.
func (a *accumulator) Reverse(ctx context.Context, tx *gorm.DB, accrual Accrual) error {
	return a.insert(ctx, tx, accrual, true)
}

func (a *accumulator) insert(ctx context.Context, tx *gorm.DB, accrual Accrual, negate bool) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if accrual.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if accrual.OperationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}

	wagered := accrual.Wagered.Abs()
	amount := wagered.Mul(accrual.HouseEdge).Mul(a.share).Round(8)
	if negate {
		wagered = wagered.Neg()
		amount = amount.Neg()
	}

	row := models.CommissionAccrual{
		UserID:        accrual.UserID,
		Asset:         accrual.Asset,
		OperationID:   accrual.OperationID,
		WageredAmount: wagered,
		HouseEdge:     accrual.HouseEdge,
		Amount:        amount,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record commission accrual")
	}
	return nil
}
