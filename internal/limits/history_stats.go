package limits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// HistoryStats answers windowed wager/loss questions straight from the
// balance history, in fiat cents.
type HistoryStats struct {
	db *gorm.DB
}

func NewHistoryStats(db *gorm.DB) *HistoryStats {
	return &HistoryStats{db: db}
}

func (s *HistoryStats) TotalWagered(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	return s.sumFiat(ctx, userID, enums.OperationBet, from, to)
}

// TotalLost is wagered minus won over the window, floored at zero.
func (s *HistoryStats) TotalLost(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	wagered, err := s.sumFiat(ctx, userID, enums.OperationBet, from, to)
	if err != nil {
		return 0, err
	}
	won, err := s.sumFiat(ctx, userID, enums.OperationWin, from, to)
	if err != nil {
		return 0, err
	}
	lost := wagered - won
	if lost < 0 {
		return 0, nil
	}
	return lost, nil
}

func (s *HistoryStats) sumFiat(ctx context.Context, userID uuid.UUID, kind enums.OperationKind, from, to time.Time) (int64, error) {
	var total *int64
	err := s.db.WithContext(ctx).
		Table("balance_histories").
		Select("SUM(amount_fiat_cents)").
		Where("user_id = ?", userID).
		Where("operation_kind = ?", kind).
		Where("status = ?", enums.OperationStatusCompleted).
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("summing %s fiat: %w", kind, err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
