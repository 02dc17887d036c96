package stats

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
)

// Repository persists the per-user running totals row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, row *models.BalanceStatistic, assignments map[string]any) error
	Get(ctx context.Context, userID uuid.UUID) (*models.BalanceStatistic, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Upsert inserts the row on first touch; on conflict the assignments are
// applied as increments against the stored values.
func (r *repositoryImpl) Upsert(ctx context.Context, row *models.BalanceStatistic, assignments map[string]any) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(row).Error
}

func (r *repositoryImpl) Get(ctx context.Context, userID uuid.UUID) (*models.BalanceStatistic, error) {
	var row models.BalanceStatistic
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
