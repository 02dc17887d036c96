package tip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/lock"
	"github.com/stakeline/stakeline-backend/pkg/logger"
	"github.com/stakeline/stakeline-backend/pkg/outbox"
	"github.com/stakeline/stakeline-backend/pkg/outbox/payloads"
)

// Service transfers funds between two users. Both legs commit in one
// transaction under a single pair lock, so a tip is either fully settled or
// never happened.
type Service interface {
	Send(ctx context.Context, input SendInput) (*SendResult, error)
}

// SendInput describes one tip. OperationID seeds the per-leg operation ids;
// each leg carries its own id, so the two history rows never share one.
type SendInput struct {
	OperationID string
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Asset       enums.Asset
	Amount      decimal.Decimal
	Public      bool
}

// SendResult reports the sender's post-tip balance.
type SendResult struct {
	Status        enums.ResultStatus
	SenderBalance decimal.Decimal
}

// UserDirectory resolves whether a tip target exists; backed by the accounts
// system.
type UserDirectory interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Ledger is the wallet surface the tip flow needs; satisfied by
// wallet.Service.
type Ledger interface {
	Apply(ctx context.Context, txn wallet.Txn, op wallet.Operation) (wallet.Result, error)
}

type service struct {
	db     wallet.Database
	ledger Ledger
	users  UserDirectory
	locks  wallet.Locker
	outbox wallet.Emitter
	logg   *logger.Logger
}

// Params wires the tip service.
type Params struct {
	DB     wallet.Database
	Ledger Ledger
	Users  UserDirectory
	Locks  wallet.Locker
	Outbox wallet.Emitter
	Logger *logger.Logger
}

// NewService constructs the tip service.
func NewService(params Params) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, errors.New("database required")
	case params.Ledger == nil:
		return nil, errors.New("ledger required")
	case params.Users == nil:
		return nil, errors.New("user directory required")
	case params.Locks == nil:
		return nil, errors.New("lock manager required")
	case params.Outbox == nil:
		return nil, errors.New("outbox emitter required")
	}
	return &service{
		db:     params.DB,
		ledger: params.Ledger,
		users:  params.Users,
		locks:  params.Locks,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	var result *SendResult
	resource := lock.TipKey(input.SenderID.String(), input.RecipientID.String())
	err := s.locks.WithLock(ctx, resource, lock.ClassTip, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			sent, err := s.sendTx(ctx, tx, input)
			if err != nil {
				return err
			}
			result = sent
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) sendTx(ctx context.Context, tx *gorm.DB, input SendInput) (*SendResult, error) {
	sendResult, err := s.ledger.Apply(ctx, wallet.Borrowed(tx), wallet.Operation{
		OperationID: sendOperationID(input.OperationID),
		Kind:        enums.OperationTipSend,
		UserID:      input.SenderID,
		Asset:       input.Asset,
		Amount:      input.Amount,
		Description: fmt.Sprintf("tip to %s", input.RecipientID),
	})
	if err != nil {
		return nil, err
	}
	if sendResult.Status == enums.ResultAlreadyProcessed {
		// Both legs share this transaction, so a replayed send leg means the
		// receive leg is settled too.
		return &SendResult{Status: enums.ResultAlreadyProcessed, SenderBalance: sendResult.Balance}, nil
	}

	_, err = s.ledger.Apply(ctx, wallet.Borrowed(tx), wallet.Operation{
		OperationID: receiveOperationID(input.OperationID),
		Kind:        enums.OperationTipReceive,
		UserID:      input.RecipientID,
		Asset:       input.Asset,
		Amount:      input.Amount,
		Description: fmt.Sprintf("tip from %s", input.SenderID),
	})
	if err != nil {
		return nil, err
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBalanceTip,
		AggregateType: enums.AggregateTip,
		AggregateID:   tipAggregateID(input.OperationID),
		Actor:         &outbox.ActorRef{UserID: input.SenderID},
		Data: payloads.TipEvent{
			SenderID:    input.SenderID,
			RecipientID: input.RecipientID,
			Asset:       input.Asset,
			Amount:      input.Amount.String(),
			Public:      input.Public,
			SentAt:      time.Now().UTC(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing tip event")
	}

	return &SendResult{Status: enums.ResultCompleted, SenderBalance: sendResult.Balance}, nil
}

func (s *service) validate(ctx context.Context, input SendInput) error {
	if input.OperationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}
	if input.SenderID == uuid.Nil || input.RecipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sender and recipient required")
	}
	if input.SenderID == input.RecipientID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot tip yourself")
	}
	if !input.Asset.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	exists, err := s.users.Exists(ctx, input.RecipientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving tip recipient")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tip recipient not found")
	}
	return nil
}

// Each ledger leg gets its own operation id derived from the tip's id, so
// the TIP_SEND and TIP_RECEIVE history rows never share one. Replay
// detection keys on the send leg.
func sendOperationID(operationID string) string {
	return operationID + ":send"
}

func receiveOperationID(operationID string) string {
	return operationID + ":receive"
}

func tipAggregateID(operationID string) uuid.UUID {
	if id, err := uuid.Parse(operationID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(operationID))
}
