package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
)

// Service maintains one running-totals row per user, updated in step with
// every ledger mutation.
type Service interface {
	// Record applies one operation's contribution on the caller's
	// transaction so the totals share the ledger's atomicity.
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.OperationKind, amount decimal.Decimal) error
	Get(ctx context.Context, userID uuid.UUID) (*models.BalanceStatistic, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stats repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.OperationKind, amount decimal.Decimal) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	amount = amount.Abs()

	row := models.BalanceStatistic{UserID: userID}
	assignments := map[string]any{"updated_at": gorm.Expr("now()")}

	switch kind {
	case enums.OperationDeposit:
		row.TotalDeposited = amount
		assignments["total_deposited"] = gorm.Expr("balance_statistics.total_deposited + ?", amount)
	case enums.OperationWithdraw:
		row.TotalWithdrawn = amount
		assignments["total_withdrawn"] = gorm.Expr("balance_statistics.total_withdrawn + ?", amount)
	case enums.OperationBet, enums.OperationBuyIn:
		row.TotalWagered = amount
		row.BetCount = 1
		assignments["total_wagered"] = gorm.Expr("balance_statistics.total_wagered + ?", amount)
		assignments["bet_count"] = gorm.Expr("balance_statistics.bet_count + 1")
	case enums.OperationWin, enums.OperationBuyOut:
		row.TotalWon = amount
		row.WinCount = 1
		assignments["total_won"] = gorm.Expr("balance_statistics.total_won + ?", amount)
		assignments["win_count"] = gorm.Expr("balance_statistics.win_count + 1")
	case enums.OperationRefund:
		row.TotalRefunded = amount
		assignments["total_refunded"] = gorm.Expr("balance_statistics.total_refunded + ?", amount)
	default:
		// Tips, vault moves and corrections do not feed the aggregates.
		return nil
	}

	if err := s.repo.WithTx(tx).Upsert(ctx, &row, assignments); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record balance statistic")
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.BalanceStatistic, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	row, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance statistic")
	}
	return row, nil
}
