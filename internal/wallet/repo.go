package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// Repository owns wallet and balance-history rows. No other component
// writes them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// ApplyDelta is the conditional compare-and-set mutation: add delta to
	// the stored balance only if the result stays >= 0 (unless bypassGuard)
	// and <= ceiling. Returns false when no row matched — either the wallet
	// does not exist or a guard failed.
	ApplyDelta(ctx context.Context, userID uuid.UUID, asset enums.Asset, delta decimal.Decimal, bypassGuard bool, ceiling decimal.Decimal) (bool, error)

	GetWallet(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	ListWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)
	LockWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)
	SetPrimary(ctx context.Context, userID uuid.UUID, asset enums.Asset) error

	FindHistory(ctx context.Context, operationID string, kind enums.OperationKind) (*models.BalanceHistory, error)
	CreateHistory(ctx context.Context, entry *models.BalanceHistory) error
	ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.BalanceHistory, error)
	WithdrawnSince(ctx context.Context, userID uuid.UUID, asset enums.Asset, since time.Time) (decimal.Decimal, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// ApplyDelta must stay a single atomic statement: splitting it into a read
// followed by a write would turn the insufficient-balance guard into a race.
func (r *repositoryImpl) ApplyDelta(ctx context.Context, userID uuid.UUID, asset enums.Asset, delta decimal.Decimal, bypassGuard bool, ceiling decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE wallets
		    SET balance = balance + ?, updated_at = now()
		  WHERE user_id = ? AND asset = ?
		    AND (balance + ? >= 0 OR ?)
		    AND balance + ? <= ?`,
		delta, userID, asset, delta, bypassGuard, delta, ceiling,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) GetWallet(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset = ?", userID, asset).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *repositoryImpl) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repositoryImpl) ListWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset ASC").
		Find(&wallets).Error
	return wallets, err
}

// LockWallets loads every wallet of the user under FOR UPDATE; used by the
// primary-wallet switch.
func (r *repositoryImpl) LockWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("asset ASC").
		Find(&wallets).Error
	return wallets, err
}

// SetPrimary flips is_primary to the target asset and clears it everywhere
// else in two statements on the caller's transaction.
func (r *repositoryImpl) SetPrimary(ctx context.Context, userID uuid.UUID, asset enums.Asset) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND asset <> ? AND is_primary", userID, asset).
		UpdateColumn("is_primary", false).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND asset = ?", userID, asset).
		UpdateColumn("is_primary", true).Error
}

func (r *repositoryImpl) FindHistory(ctx context.Context, operationID string, kind enums.OperationKind) (*models.BalanceHistory, error) {
	var entry models.BalanceHistory
	err := r.db.WithContext(ctx).
		Where("operation_id = ? AND operation_kind = ?", operationID, kind).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) CreateHistory(ctx context.Context, entry *models.BalanceHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.BalanceHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.BalanceHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset = ?", userID, asset).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// WithdrawnSince sums completed withdrawals from the window start; feeds
// the daily withdrawal cap.
func (r *repositoryImpl) WithdrawnSince(ctx context.Context, userID uuid.UUID, asset enums.Asset, since time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.BalanceHistory{}).
		Select("SUM(ABS(amount))").
		Where("user_id = ? AND asset = ? AND operation_kind = ? AND status = ? AND created_at >= ?",
			userID, asset, enums.OperationWithdraw, enums.OperationStatusCompleted, since).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
