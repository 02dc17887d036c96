package tip

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
)

// WalletDirectory resolves tip recipients against the wallets table: a user
// the ledger has never seen cannot receive a tip. Accounts live in a
// separate system, so wallet presence is the strongest check available here.
type WalletDirectory struct {
	db *gorm.DB
}

func NewWalletDirectory(db *gorm.DB) *WalletDirectory {
	return &WalletDirectory{db: db}
}

func (d *WalletDirectory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("resolving tip recipient: %w", err)
	}
	return count > 0, nil
}
