package vault

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// Repository owns vault and vault-history rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Get(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Vault, error)
	// GetForUpdate locks the vault row for the rest of the transaction.
	GetForUpdate(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Vault, error)
	Create(ctx context.Context, vault *models.Vault) error
	UpdateBalance(ctx context.Context, vaultID uuid.UUID, balance decimal.Decimal) error
	CreateHistory(ctx context.Context, entry *models.VaultHistory) error
	ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.VaultHistory, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a vault repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Vault, error) {
	return r.get(ctx, userID, asset, false)
}

func (r *repositoryImpl) GetForUpdate(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Vault, error) {
	return r.get(ctx, userID, asset, true)
}

func (r *repositoryImpl) get(ctx context.Context, userID uuid.UUID, asset enums.Asset, forUpdate bool) (*models.Vault, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var vault models.Vault
	err := query.Where("user_id = ? AND asset = ?", userID, asset).First(&vault).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vault, nil
}

func (r *repositoryImpl) Create(ctx context.Context, vault *models.Vault) error {
	return r.db.WithContext(ctx).Create(vault).Error
}

func (r *repositoryImpl) UpdateBalance(ctx context.Context, vaultID uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Vault{}).
		Where("id = ?", vaultID).
		UpdateColumn("balance", balance).Error
}

func (r *repositoryImpl) CreateHistory(ctx context.Context, entry *models.VaultHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.VaultHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.VaultHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset = ?", userID, asset).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
