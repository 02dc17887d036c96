package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/internal/commission"
	"github.com/stakeline/stakeline-backend/internal/limits"
	"github.com/stakeline/stakeline-backend/internal/notifications"
	"github.com/stakeline/stakeline-backend/internal/rates"
	"github.com/stakeline/stakeline-backend/internal/stats"
	dbpkg "github.com/stakeline/stakeline-backend/pkg/db"
	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/lock"
	"github.com/stakeline/stakeline-backend/pkg/logger"
	"github.com/stakeline/stakeline-backend/pkg/outbox"
	"github.com/stakeline/stakeline-backend/pkg/outbox/payloads"
)

// Service is the balance ledger. Every wallet mutation in the system goes
// through Perform, PerformBatch, or Apply on a caller-held transaction.
type Service interface {
	// Perform applies one operation under the (user, asset) balance lock in
	// its own transaction.
	Perform(ctx context.Context, op Operation) (Result, error)
	// PerformBatch applies up to the configured maximum of operations for a
	// single (user, asset) atomically: one lock, one transaction, all or
	// nothing.
	PerformBatch(ctx context.Context, ops []Operation) ([]Result, error)
	// Apply runs one operation on a caller-supplied transaction. The caller
	// owns locking and commit; a returned error means the transaction must
	// be rolled back.
	Apply(ctx context.Context, txn Txn, op Operation) (Result, error)

	SwitchPrimaryWallet(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Wallet, error)

	GetBalance(ctx context.Context, userID uuid.UUID, asset enums.Asset) (decimal.Decimal, error)
	GetWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)
	ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.BalanceHistory, error)
	GetStatistics(ctx context.Context, userID uuid.UUID) (*models.BalanceStatistic, error)
}

// Database is the subset of pkg/db.Client the ledger needs.
type Database interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Locker hands out named mutual exclusion; satisfied by pkg/lock.Manager.
type Locker interface {
	WithLock(ctx context.Context, resource string, class lock.Class, body func(ctx context.Context) error) error
}

// Emitter queues domain events transactionally; satisfied by outbox.Service.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier delivers user notifications best-effort after commit; satisfied
// by notifications.Service.
type Notifier interface {
	Notify(ctx context.Context, input notifications.NotifyInput) error
}

// PrimaryCache drops a user's cached primary asset after a switch; satisfied
// by pkg/redis.Client.
type PrimaryCache interface {
	InvalidatePrimaryAsset(ctx context.Context, userID string) error
}

// Params wires the ledger's collaborators.
type Params struct {
	DB         Database
	Repo       Repository
	Locks      Locker
	Outbox     Emitter
	Notifier   Notifier
	Cache      PrimaryCache
	Stats      stats.Service
	Commission commission.Accumulator
	Limits     limits.Checker
	Rates      rates.Source
	Bounds     Bounds
	BatchMax   int
	Logger     *logger.Logger
}

type service struct {
	db         Database
	repo       Repository
	locks      Locker
	outbox     Emitter
	notifier   Notifier
	cache      PrimaryCache
	stats      stats.Service
	commission commission.Accumulator
	limits     limits.Checker
	rates      rates.Source
	bounds     Bounds
	batchMax   int
	logg       *logger.Logger
}

const defaultBatchMax = 25

// NewService constructs the ledger service.
func NewService(params Params) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, errors.New("database required")
	case params.Repo == nil:
		return nil, errors.New("repository required")
	case params.Locks == nil:
		return nil, errors.New("lock manager required")
	case params.Outbox == nil:
		return nil, errors.New("outbox emitter required")
	case params.Stats == nil:
		return nil, errors.New("stats service required")
	case params.Limits == nil:
		return nil, errors.New("limits checker required")
	case params.Rates == nil:
		return nil, errors.New("rate source required")
	}
	if params.BatchMax <= 0 {
		params.BatchMax = defaultBatchMax
	}
	return &service{
		db:         params.DB,
		repo:       params.Repo,
		locks:      params.Locks,
		outbox:     params.Outbox,
		notifier:   params.Notifier,
		cache:      params.Cache,
		stats:      params.Stats,
		commission: params.Commission,
		limits:     params.Limits,
		rates:      params.Rates,
		bounds:     params.Bounds,
		batchMax:   params.BatchMax,
		logg:       params.Logger,
	}, nil
}

func (s *service) Perform(ctx context.Context, op Operation) (Result, error) {
	if err := s.bounds.validateOperation(op); err != nil {
		return resultFromError(err), nil
	}

	var result Result
	lockErr := s.locks.WithLock(ctx, lock.UserBalanceKey(op.UserID.String(), op.Asset), lock.ClassSingle, func(ctx context.Context) error {
		txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			applied, err := s.applyOperation(ctx, tx, op)
			if err != nil {
				return err
			}
			result = applied
			return nil
		})
		return txErr
	})
	if lockErr != nil {
		mapped, infra := mapOperationError(lockErr)
		if infra != nil {
			return Result{}, infra
		}
		if mapped.Status == enums.ResultAlreadyProcessed {
			mapped.Balance = s.replayBalance(ctx, op)
		}
		return mapped, nil
	}

	s.afterCommit(ctx, op, result)
	return result, nil
}

func (s *service) PerformBatch(ctx context.Context, ops []Operation) ([]Result, error) {
	if len(ops) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty batch")
	}
	if len(ops) > s.batchMax {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("batch exceeds %d operations", s.batchMax))
	}

	userID, asset := ops[0].UserID, ops[0].Asset
	var verr error
	seen := make(map[string]struct{}, len(ops))
	for i, op := range ops {
		if op.UserID != userID || op.Asset != asset {
			verr = multierr.Append(verr, fmt.Errorf("operation %d: batch must target a single user and asset", i))
			continue
		}
		key := op.OperationID + "|" + string(op.Kind)
		if _, dup := seen[key]; dup {
			verr = multierr.Append(verr, fmt.Errorf("operation %d: duplicate idempotency key in batch", i))
		}
		seen[key] = struct{}{}
		if err := s.bounds.validateOperation(op); err != nil {
			verr = multierr.Append(verr, fmt.Errorf("operation %d: %w", i, err))
		}
	}
	if verr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, verr, "invalid batch")
	}

	results := make([]Result, len(ops))
	var failedAt = -1
	lockErr := s.locks.WithLock(ctx, lock.UserBalanceKey(userID.String(), asset), lock.ClassBatch, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			// Every item is idempotency-checked before any row is touched.
			replayed := make([]bool, len(ops))
			for i, op := range ops {
				existing, err := repo.FindHistory(ctx, op.OperationID, op.Kind)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up operation history")
				}
				replayed[i] = existing != nil
			}

			for i, op := range ops {
				if replayed[i] {
					wallet, err := repo.GetWallet(ctx, op.UserID, op.Asset)
					if err != nil {
						failedAt = i
						return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading wallet")
					}
					balance := decimal.Zero
					if wallet != nil {
						balance = wallet.Balance
					}
					results[i] = alreadyProcessedResult(balance)
					continue
				}
				applied, err := s.applyOperation(ctx, tx, op)
				if err != nil {
					failedAt = i
					return err
				}
				results[i] = applied
			}
			return nil
		})
	})
	if lockErr != nil {
		mapped, infra := mapOperationError(lockErr)
		if infra != nil {
			return nil, infra
		}
		out := failedBatch(ops, mapped)
		if failedAt >= 0 {
			for i := range out {
				if i != failedAt {
					out[i] = failureResult(enums.ResultError, decimal.Zero, "batch rolled back")
				}
			}
		}
		return out, nil
	}

	s.afterBatchCommit(ctx, ops, results)
	return results, nil
}

func (s *service) Apply(ctx context.Context, txn Txn, op Operation) (Result, error) {
	if txn.DB() == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := s.bounds.validateOperation(op); err != nil {
		return Result{}, err
	}
	return s.applyOperation(ctx, txn.DB(), op)
}

// checkLimits runs the policy gates for BET and WITHDRAW. It must execute
// under the balance lock, with withdrawal sums read through the operation's
// transaction, so two concurrent withdrawals cannot both pass the daily cap
// on the same stale total.
func (s *service) checkLimits(ctx context.Context, history limits.WithdrawHistory, op Operation) error {
	switch op.Kind {
	case enums.OperationBet:
		rate, err := s.rates.Rate(ctx, op.Asset)
		if err != nil {
			return err
		}
		return s.limits.CheckBet(ctx, op.UserID, rates.ToFiatCents(op.Amount, rate))
	case enums.OperationWithdraw:
		return s.limits.WithHistory(history).CheckWithdraw(ctx, op.UserID, op.Asset, op.Amount)
	}
	return nil
}

// applyOperation is the transactional core shared by single, batch, vault
// and tip flows. Caller holds the balance lock and the transaction.
func (s *service) applyOperation(ctx context.Context, tx *gorm.DB, op Operation) (Result, error) {
	repo := s.repo.WithTx(tx)

	if err := s.checkLimits(ctx, repo, op); err != nil {
		return Result{}, err
	}

	existing, err := repo.FindHistory(ctx, op.OperationID, op.Kind)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up operation history")
	}
	if existing != nil {
		wallet, err := repo.GetWallet(ctx, op.UserID, op.Asset)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading wallet")
		}
		balance := decimal.Zero
		if wallet != nil {
			balance = wallet.Balance
		}
		return alreadyProcessedResult(balance), nil
	}

	delta := signedDelta(op.Kind, op.Amount)
	wallet, err := s.mutateBalance(ctx, repo, op, delta)
	if err != nil {
		return Result{}, err
	}

	rate, err := s.rates.Rate(ctx, op.Asset)
	if err != nil {
		return Result{}, err
	}

	entry := &models.BalanceHistory{
		OperationID:     op.OperationID,
		OperationKind:   op.Kind,
		UserID:          op.UserID,
		Asset:           op.Asset,
		Amount:          delta,
		Rate:            rate,
		AmountFiatCents: rates.ToFiatCents(delta, rate),
		PreviousBalance: wallet.Balance.Sub(delta),
		Status:          enums.OperationStatusCompleted,
	}
	if op.Kind == enums.OperationBet {
		entry.HouseEdge = op.HouseEdge
	}
	if op.Description != "" {
		entry.Description = &op.Description
	}
	if len(op.Metadata) > 0 {
		raw, err := json.Marshal(op.Metadata)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encoding operation metadata")
		}
		entry.Metadata = raw
	}
	if err := repo.CreateHistory(ctx, entry); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_balance_histories_operation") {
			// Lost a race the lock should have prevented; the operation is
			// durably recorded, so report the benign outcome.
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeAlreadyProcessed, err, "operation already recorded")
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing balance history")
	}

	if err := s.stats.Record(ctx, tx, op.UserID, op.Kind, op.Amount); err != nil {
		return Result{}, err
	}
	if err := s.accrueCommission(ctx, tx, repo, op); err != nil {
		return Result{}, err
	}
	if err := s.emitEvents(ctx, tx, op, wallet); err != nil {
		return Result{}, err
	}

	return successResult(wallet.Balance), nil
}

// mutateBalance runs the conditional update, lazily creating the wallet row
// on first use. A second miss after the row exists is a guard failure.
func (s *service) mutateBalance(ctx context.Context, repo Repository, op Operation, delta decimal.Decimal) (*models.Wallet, error) {
	bypass := op.Kind.IsCorrection()
	applied, err := repo.ApplyDelta(ctx, op.UserID, op.Asset, delta, bypass, s.bounds.MaxBalance)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying balance delta")
	}
	if !applied {
		wallet, err := repo.GetWallet(ctx, op.UserID, op.Asset)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading wallet")
		}
		if wallet == nil {
			created := &models.Wallet{UserID: op.UserID, Asset: op.Asset, Balance: decimal.Zero}
			if err := repo.CreateWallet(ctx, created); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating wallet")
			}
			applied, err = repo.ApplyDelta(ctx, op.UserID, op.Asset, delta, bypass, s.bounds.MaxBalance)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying balance delta")
			}
		}
		if !applied {
			if delta.IsNegative() && !bypass {
				return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")
			}
			return nil, pkgerrors.New(pkgerrors.CodeLimitExceeded, "balance ceiling exceeded")
		}
	}
	wallet, err := repo.GetWallet(ctx, op.UserID, op.Asset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading wallet")
	}
	if wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallet disappeared after update")
	}
	return wallet, nil
}

func (s *service) accrueCommission(ctx context.Context, tx *gorm.DB, repo Repository, op Operation) error {
	if s.commission == nil || !op.Channel.AccruesCommission() {
		return nil
	}
	switch op.Kind {
	case enums.OperationBet:
		if op.HouseEdge == nil {
			return nil
		}
		return s.commission.Accrue(ctx, tx, commission.Accrual{
			UserID:      op.UserID,
			Asset:       op.Asset,
			OperationID: op.OperationID,
			Wagered:     op.Amount,
			HouseEdge:   *op.HouseEdge,
		})
	case enums.OperationRefund:
		original, err := repo.FindHistory(ctx, op.OperationID, enums.OperationBet)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up refunded bet")
		}
		if original == nil || original.HouseEdge == nil {
			return nil
		}
		return s.commission.Reverse(ctx, tx, commission.Accrual{
			UserID:      op.UserID,
			Asset:       op.Asset,
			OperationID: op.OperationID,
			Wagered:     original.Amount.Abs(),
			HouseEdge:   *original.HouseEdge,
		})
	}
	return nil
}

// emitEvents queues the outbox rows inside the mutation's transaction so
// publication can never observe an uncommitted balance.
func (s *service) emitEvents(ctx context.Context, tx *gorm.DB, op Operation, wallet *models.Wallet) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBalanceUpdated,
		AggregateType: enums.AggregateWallet,
		AggregateID:   wallet.ID,
		Actor:         &outbox.ActorRef{UserID: op.UserID},
		Data: payloads.BalanceUpdatedEvent{
			UserID:        op.UserID,
			Asset:         op.Asset,
			Balance:       wallet.Balance.String(),
			OperationKind: op.Kind,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing balance event")
	}

	switch op.Kind {
	case enums.OperationBet:
		event := payloads.BetConfirmedEvent{
			OperationID: op.OperationID,
			UserID:      op.UserID,
			Asset:       op.Asset,
			Amount:      op.Amount.String(),
			Channel:     string(op.Channel),
			ConfirmedAt: time.Now().UTC(),
		}
		if op.HouseEdge != nil {
			event.HouseEdge = op.HouseEdge.String()
		}
		err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBetConfirmed,
			AggregateType: enums.AggregateBetRound,
			AggregateID:   betRoundID(op.OperationID),
			Actor:         &outbox.ActorRef{UserID: op.UserID},
			Data:          event,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing bet event")
		}
	case enums.OperationRefund:
		err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBetRefunded,
			AggregateType: enums.AggregateBetRound,
			AggregateID:   betRoundID(op.OperationID),
			Actor:         &outbox.ActorRef{UserID: op.UserID},
			Data: payloads.BetRefundedEvent{
				OperationID: op.OperationID,
				UserID:      op.UserID,
				Asset:       op.Asset,
				Amount:      op.Amount.String(),
				RefundedAt:  time.Now().UTC(),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing refund event")
		}
	}
	return nil
}

// betRoundID derives a stable aggregate id from the operation id so repeated
// confirmations of the same round collapse onto one outbox row.
func betRoundID(operationID string) uuid.UUID {
	if id, err := uuid.Parse(operationID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(operationID))
}

// afterCommit delivers best-effort notifications; failures are logged, never
// propagated, the balance change is already durable.
func (s *service) afterCommit(ctx context.Context, op Operation, result Result) {
	if s.notifier == nil || !result.Success || result.Status == enums.ResultAlreadyProcessed {
		return
	}
	var input *notifications.NotifyInput
	switch op.Kind {
	case enums.OperationWin:
		input = &notifications.NotifyInput{
			UserID:  op.UserID,
			Type:    enums.NotificationTypeBetWon,
			Title:   "Bet Won!",
			Message: fmt.Sprintf("Your new balance is %s %s.", result.Balance.String(), op.Asset),
		}
	case enums.OperationDeposit, enums.OperationWithdraw:
		input = &notifications.NotifyInput{
			UserID:  op.UserID,
			Type:    enums.NotificationTypeBalanceUpdated,
			Title:   "Balance Updated",
			Message: fmt.Sprintf("Your %s balance is now %s.", op.Asset, result.Balance.String()),
		}
	}
	if input == nil {
		return
	}
	input.Payload = map[string]string{
		"asset":   string(op.Asset),
		"balance": result.Balance.String(),
	}
	if err := s.notifier.Notify(ctx, *input); err != nil && s.logg != nil {
		s.logg.Error(ctx, "sending ledger notification", err)
	}
}

// afterBatchCommit consolidates notifications: a batch carrying a BET and a
// WIN yields one "Bet Won!" with the post-win balance instead of a message
// per operation.
func (s *service) afterBatchCommit(ctx context.Context, ops []Operation, results []Result) {
	if s.notifier == nil {
		return
	}
	hasBet := false
	winIdx := -1
	for i, op := range ops {
		if !results[i].Success || results[i].Status == enums.ResultAlreadyProcessed {
			continue
		}
		switch op.Kind {
		case enums.OperationBet:
			hasBet = true
		case enums.OperationWin:
			winIdx = i
		}
	}
	if hasBet && winIdx >= 0 {
		op, result := ops[winIdx], results[winIdx]
		err := s.notifier.Notify(ctx, notifications.NotifyInput{
			UserID:  op.UserID,
			Type:    enums.NotificationTypeBetWon,
			Title:   "Bet Won!",
			Message: fmt.Sprintf("Your new balance is %s %s.", result.Balance.String(), op.Asset),
			Payload: map[string]string{
				"asset":   string(op.Asset),
				"balance": result.Balance.String(),
			},
		})
		if err != nil && s.logg != nil {
			s.logg.Error(ctx, "sending batch notification", err)
		}
		return
	}
	for i, op := range ops {
		s.afterCommit(ctx, op, results[i])
	}
}

func (s *service) SwitchPrimaryWallet(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !asset.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}

	var switched *models.Wallet
	err := s.locks.WithLock(ctx, lock.SwitchKey(userID.String()), lock.ClassSwitch, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			wallets, err := repo.LockWallets(ctx, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking wallets")
			}

			var target *models.Wallet
			for i := range wallets {
				if wallets[i].Asset == asset {
					target = &wallets[i]
					break
				}
			}
			if target == nil {
				created := &models.Wallet{UserID: userID, Asset: asset, Balance: decimal.Zero, IsPrimary: true}
				if len(wallets) > 0 {
					if err := repo.SetPrimary(ctx, userID, asset); err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing previous primary")
					}
				}
				if err := repo.CreateWallet(ctx, created); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating primary wallet")
				}
				switched = created
				return nil
			}
			if target.IsPrimary {
				switched = target
				return nil
			}
			if err := repo.SetPrimary(ctx, userID, asset); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "switching primary wallet")
			}
			target.IsPrimary = true
			switched = target
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.InvalidatePrimaryAsset(ctx, userID.String()); cacheErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "primary asset cache invalidation failed")
		}
	}
	return switched, nil
}

func (s *service) GetBalance(ctx context.Context, userID uuid.UUID, asset enums.Asset) (decimal.Decimal, error) {
	if !asset.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}
	wallet, err := s.repo.GetWallet(ctx, userID, asset)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading wallet")
	}
	if wallet == nil {
		return decimal.Zero, nil
	}
	return wallet.Balance, nil
}

func (s *service) GetWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	return s.repo.ListWallets(ctx, userID)
}

func (s *service) ListHistory(ctx context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.BalanceHistory, error) {
	if !asset.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}
	return s.repo.ListHistory(ctx, userID, asset, limit)
}

func (s *service) GetStatistics(ctx context.Context, userID uuid.UUID) (*models.BalanceStatistic, error) {
	return s.stats.Get(ctx, userID)
}

// replayBalance reads the wallet after an idempotency race resolved outside
// the normal early-return path, so the replay reports the real balance
// instead of zero. Best effort: the operation itself is already durable.
func (s *service) replayBalance(ctx context.Context, op Operation) decimal.Decimal {
	wallet, err := s.repo.GetWallet(ctx, op.UserID, op.Asset)
	if err != nil || wallet == nil {
		return decimal.Zero
	}
	return wallet.Balance
}

// resultFromError converts a validation failure into the structured outcome.
func resultFromError(err error) Result {
	mapped, infra := mapOperationError(err)
	if infra != nil {
		return failureResult(enums.ResultError, decimal.Zero, infra.Error())
	}
	return mapped
}

// mapOperationError splits business outcomes from infrastructure failures.
// Business codes become deterministic Result statuses callers can retry on;
// anything else surfaces as an error.
func mapOperationError(err error) (Result, error) {
	var coded *pkgerrors.Error
	if !errors.As(err, &coded) {
		return Result{}, err
	}
	switch coded.Code() {
	case pkgerrors.CodeValidation:
		return failureResult(enums.ResultInvalidAmount, decimal.Zero, coded.Error()), nil
	case pkgerrors.CodeInsufficientBalance:
		return failureResult(enums.ResultInsufficientBalance, decimal.Zero, coded.Error()), nil
	case pkgerrors.CodeLimitExceeded:
		return failureResult(enums.ResultLimitExceeded, decimal.Zero, coded.Error()), nil
	case pkgerrors.CodeLockBusy:
		return failureResult(enums.ResultSystemBusy, decimal.Zero, "system busy, retry shortly"), nil
	case pkgerrors.CodeAlreadyProcessed:
		return alreadyProcessedResult(decimal.Zero), nil
	default:
		return Result{}, err
	}
}

func failedBatch(ops []Operation, failure Result) []Result {
	out := make([]Result, len(ops))
	for i := range out {
		out[i] = failure
	}
	return out
}
