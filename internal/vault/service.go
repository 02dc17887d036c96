package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/internal/notifications"
	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/lock"
	"github.com/stakeline/stakeline-backend/pkg/logger"
	"github.com/stakeline/stakeline-backend/pkg/outbox"
	"github.com/stakeline/stakeline-backend/pkg/outbox/payloads"
)

// Service moves funds between a wallet and its vault. Both directions run
// under the same vault lock and inside one transaction, so wallet and vault
// can never disagree after a crash.
type Service interface {
	Deposit(ctx context.Context, input TransferInput) (*TransferResult, error)
	Withdraw(ctx context.Context, input TransferInput) (*TransferResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID, asset enums.Asset) (decimal.Decimal, error)
	ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.VaultHistory, error)
}

// TransferInput describes one wallet<->vault move.
type TransferInput struct {
	OperationID string
	UserID      uuid.UUID
	Asset       enums.Asset
	Amount      decimal.Decimal
}

// TransferResult reports the post-transfer balances.
type TransferResult struct {
	Status        enums.ResultStatus
	WalletBalance decimal.Decimal
	VaultBalance  decimal.Decimal
}

// Ledger is the wallet surface the vault needs; satisfied by wallet.Service.
type Ledger interface {
	Apply(ctx context.Context, txn wallet.Txn, op wallet.Operation) (wallet.Result, error)
}

type service struct {
	db       wallet.Database
	repo     Repository
	ledger   Ledger
	locks    wallet.Locker
	outbox   wallet.Emitter
	notifier wallet.Notifier
	logg     *logger.Logger
}

// Params wires the vault service.
type Params struct {
	DB       wallet.Database
	Repo     Repository
	Ledger   Ledger
	Locks    wallet.Locker
	Outbox   wallet.Emitter
	Notifier wallet.Notifier
	Logger   *logger.Logger
}

// NewService constructs the vault service.
func NewService(params Params) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, errors.New("database required")
	case params.Repo == nil:
		return nil, errors.New("repository required")
	case params.Ledger == nil:
		return nil, errors.New("ledger required")
	case params.Locks == nil:
		return nil, errors.New("lock manager required")
	case params.Outbox == nil:
		return nil, errors.New("outbox emitter required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		ledger:   params.Ledger,
		locks:    params.Locks,
		outbox:   params.Outbox,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

func (s *service) Deposit(ctx context.Context, input TransferInput) (*TransferResult, error) {
	return s.transfer(ctx, input, enums.VaultDirectionDeposit)
}

func (s *service) Withdraw(ctx context.Context, input TransferInput) (*TransferResult, error) {
	return s.transfer(ctx, input, enums.VaultDirectionWithdraw)
}

func (s *service) transfer(ctx context.Context, input TransferInput, direction enums.VaultDirection) (*TransferResult, error) {
	if err := validateTransfer(input); err != nil {
		return nil, err
	}

	var result *TransferResult
	err := s.locks.WithLock(ctx, lock.VaultKey(input.UserID.String(), input.Asset), lock.ClassVault, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			transferred, err := s.transferTx(ctx, tx, input, direction)
			if err != nil {
				return err
			}
			result = transferred
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyTransfer(ctx, input, direction, result)
	return result, nil
}

func (s *service) transferTx(ctx context.Context, tx *gorm.DB, input TransferInput, direction enums.VaultDirection) (*TransferResult, error) {
	repo := s.repo.WithTx(tx)

	kind := enums.OperationVaultDeposit
	if direction == enums.VaultDirectionWithdraw {
		kind = enums.OperationVaultWithdraw

		// The vault side is the constrained leg on withdrawal; check it
		// before crediting the wallet so a short vault never mints funds.
		vault, err := repo.GetForUpdate(ctx, input.UserID, input.Asset)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking vault")
		}
		if vault == nil || vault.Balance.LessThan(input.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient vault balance")
		}
	}

	walletResult, err := s.ledger.Apply(ctx, wallet.Borrowed(tx), wallet.Operation{
		OperationID: input.OperationID,
		Kind:        kind,
		UserID:      input.UserID,
		Asset:       input.Asset,
		Amount:      input.Amount,
		Description: fmt.Sprintf("vault %s", direction),
	})
	if err != nil {
		return nil, err
	}
	if walletResult.Status == enums.ResultAlreadyProcessed {
		// The whole transfer committed on an earlier attempt; both legs
		// share one transaction, so the vault side is settled too.
		vault, err := repo.Get(ctx, input.UserID, input.Asset)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading vault")
		}
		vaultBalance := decimal.Zero
		if vault != nil {
			vaultBalance = vault.Balance
		}
		return &TransferResult{
			Status:        enums.ResultAlreadyProcessed,
			WalletBalance: walletResult.Balance,
			VaultBalance:  vaultBalance,
		}, nil
	}

	vault, err := repo.GetForUpdate(ctx, input.UserID, input.Asset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking vault")
	}
	if vault == nil {
		if direction == enums.VaultDirectionWithdraw {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "vault disappeared during withdrawal")
		}
		vault = &models.Vault{UserID: input.UserID, Asset: input.Asset, Balance: decimal.Zero}
		if err := repo.Create(ctx, vault); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating vault")
		}
	}

	previous := vault.Balance
	next := previous.Add(input.Amount)
	if direction == enums.VaultDirectionWithdraw {
		next = previous.Sub(input.Amount)
	}
	if next.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient vault balance")
	}
	if err := repo.UpdateBalance(ctx, vault.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating vault balance")
	}

	entry := &models.VaultHistory{
		VaultID:         vault.ID,
		UserID:          input.UserID,
		Asset:           input.Asset,
		Direction:       direction,
		Amount:          input.Amount,
		PreviousBalance: previous,
	}
	if err := repo.CreateHistory(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing vault history")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVaultMoved,
		AggregateType: enums.AggregateVault,
		AggregateID:   vault.ID,
		Actor:         &outbox.ActorRef{UserID: input.UserID},
		Data: payloads.VaultMovedEvent{
			UserID:       input.UserID,
			Asset:        input.Asset,
			Direction:    direction,
			Amount:       input.Amount.String(),
			VaultBalance: next.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing vault event")
	}

	return &TransferResult{
		Status:        enums.ResultCompleted,
		WalletBalance: walletResult.Balance,
		VaultBalance:  next,
	}, nil
}

func (s *service) notifyTransfer(ctx context.Context, input TransferInput, direction enums.VaultDirection, result *TransferResult) {
	if s.notifier == nil || result == nil || result.Status != enums.ResultCompleted {
		return
	}
	verb := "moved to"
	if direction == enums.VaultDirectionWithdraw {
		verb = "moved out of"
	}
	err := s.notifier.Notify(ctx, notifications.NotifyInput{
		UserID:  input.UserID,
		Type:    enums.NotificationTypeVaultTransfer,
		Title:   "Vault Transfer",
		Message: fmt.Sprintf("%s %s %s your vault.", input.Amount.String(), input.Asset, verb),
		Payload: map[string]string{
			"asset":         string(input.Asset),
			"direction":     string(direction),
			"vault_balance": result.VaultBalance.String(),
		},
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "sending vault notification", err)
	}
}

func (s *service) GetBalance(ctx context.Context, userID uuid.UUID, asset enums.Asset) (decimal.Decimal, error) {
	if !asset.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}
	vault, err := s.repo.Get(ctx, userID, asset)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading vault")
	}
	if vault == nil {
		return decimal.Zero, nil
	}
	return vault.Balance, nil
}

func (s *service) ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.VaultHistory, error) {
	if !asset.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}
	return s.repo.ListHistory(ctx, userID, asset, limit)
}

func validateTransfer(input TransferInput) error {
	if input.OperationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Asset.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}
