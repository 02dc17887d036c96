package tip

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/lock"
	"github.com/stakeline/stakeline-backend/pkg/outbox"
)

type fakeLedger struct {
	balances  map[string]decimal.Decimal
	processed map[string]struct{}
	applied   []wallet.Operation
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:  map[string]decimal.Decimal{},
		processed: map[string]struct{}{},
	}
}

func (f *fakeLedger) Apply(_ context.Context, _ wallet.Txn, op wallet.Operation) (wallet.Result, error) {
	key := op.OperationID + "|" + string(op.Kind)
	balanceKey := op.UserID.String() + "|" + string(op.Asset)
	if _, done := f.processed[key]; done {
		return wallet.Result{Success: true, Status: enums.ResultAlreadyProcessed, Balance: f.balances[balanceKey]}, nil
	}

	balance := f.balances[balanceKey]
	if op.Kind.Decreases() {
		next := balance.Sub(op.Amount)
		if next.IsNegative() {
			return wallet.Result{}, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")
		}
		balance = next
	} else {
		balance = balance.Add(op.Amount)
	}
	f.balances[balanceKey] = balance
	f.processed[key] = struct{}{}
	f.applied = append(f.applied, op)
	return wallet.Result{Success: true, Status: enums.ResultCompleted, Balance: balance}, nil
}

type fakeDB struct{}

func (fakeDB) DB() *gorm.DB { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fakeLocker struct {
	resources []string
	classes   []lock.Class
}

func (f *fakeLocker) WithLock(ctx context.Context, resource string, class lock.Class, body func(ctx context.Context) error) error {
	f.resources = append(f.resources, resource)
	f.classes = append(f.classes, class)
	return body(ctx)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return f.Emit(ctx, tx, event)
}

type fakeDirectory struct {
	known map[uuid.UUID]bool
}

func (f *fakeDirectory) Exists(_ context.Context, userID uuid.UUID) (bool, error) {
	return f.known[userID], nil
}

type tipFixture struct {
	svc     Service
	ledger  *fakeLedger
	locker  *fakeLocker
	emitter *fakeEmitter
	users   *fakeDirectory
}

func newTipFixture(t *testing.T) *tipFixture {
	t.Helper()
	fixture := &tipFixture{
		ledger:  newFakeLedger(),
		locker:  &fakeLocker{},
		emitter: &fakeEmitter{},
		users:   &fakeDirectory{known: map[uuid.UUID]bool{}},
	}
	svc, err := NewService(Params{
		DB:     fakeDB{},
		Ledger: fixture.ledger,
		Users:  fixture.users,
		Locks:  fixture.locker,
		Outbox: fixture.emitter,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func TestSendMovesBothLegsAtomically(t *testing.T) {
	fixture := newTipFixture(t)
	sender, recipient := uuid.New(), uuid.New()
	fixture.users.known[recipient] = true
	fixture.ledger.balances[sender.String()+"|BTC"] = decimal.RequireFromString("1")

	result, err := fixture.svc.Send(context.Background(), SendInput{
		OperationID: "tip-1",
		SenderID:    sender,
		RecipientID: recipient,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.25"),
		Public:      true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if result.Status != enums.ResultCompleted {
		t.Fatalf("status = %s", result.Status)
	}
	if !result.SenderBalance.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("sender balance = %s, want 0.75", result.SenderBalance)
	}
	if got := fixture.ledger.balances[recipient.String()+"|BTC"]; !got.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("recipient balance = %s, want 0.25", got)
	}

	if len(fixture.ledger.applied) != 2 {
		t.Fatalf("expected two ledger legs, got %d", len(fixture.ledger.applied))
	}
	if fixture.ledger.applied[0].Kind != enums.OperationTipSend || fixture.ledger.applied[1].Kind != enums.OperationTipReceive {
		t.Fatalf("unexpected leg order %+v", fixture.ledger.applied)
	}
	if fixture.ledger.applied[0].OperationID == fixture.ledger.applied[1].OperationID {
		t.Fatalf("both legs share operation id %q", fixture.ledger.applied[0].OperationID)
	}

	if len(fixture.emitter.events) != 1 || fixture.emitter.events[0].EventType != enums.EventBalanceTip {
		t.Fatalf("unexpected events %+v", fixture.emitter.events)
	}
}

func TestSendLockKeyIsOrderIndependent(t *testing.T) {
	fixture := newTipFixture(t)
	sender, recipient := uuid.New(), uuid.New()
	fixture.users.known[recipient] = true
	fixture.users.known[sender] = true
	fixture.ledger.balances[sender.String()+"|BTC"] = decimal.RequireFromString("1")
	fixture.ledger.balances[recipient.String()+"|BTC"] = decimal.RequireFromString("1")

	if _, err := fixture.svc.Send(context.Background(), SendInput{
		OperationID: "tip-a",
		SenderID:    sender,
		RecipientID: recipient,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.1"),
	}); err != nil {
		t.Fatalf("Send a->b: %v", err)
	}
	if _, err := fixture.svc.Send(context.Background(), SendInput{
		OperationID: "tip-b",
		SenderID:    recipient,
		RecipientID: sender,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.1"),
	}); err != nil {
		t.Fatalf("Send b->a: %v", err)
	}

	if fixture.locker.resources[0] != fixture.locker.resources[1] {
		t.Fatalf("tip pair locked on different keys: %s vs %s", fixture.locker.resources[0], fixture.locker.resources[1])
	}
	if fixture.locker.classes[0] != lock.ClassTip {
		t.Errorf("lock class = %s, want tip", fixture.locker.classes[0])
	}
}

func TestSendInsufficientBalanceLeavesRecipientUntouched(t *testing.T) {
	fixture := newTipFixture(t)
	sender, recipient := uuid.New(), uuid.New()
	fixture.users.known[recipient] = true

	_, err := fixture.svc.Send(context.Background(), SendInput{
		OperationID: "tip-2",
		SenderID:    sender,
		RecipientID: recipient,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.5"),
	})
	if !pkgerrors.Is(err, pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	if got := fixture.ledger.balances[recipient.String()+"|BTC"]; !got.IsZero() {
		t.Fatalf("recipient credited %s on failed tip", got)
	}
	if len(fixture.emitter.events) != 0 {
		t.Fatal("tip event emitted for failed tip")
	}
}

func TestSendReplayIsBenign(t *testing.T) {
	fixture := newTipFixture(t)
	sender, recipient := uuid.New(), uuid.New()
	fixture.users.known[recipient] = true
	fixture.ledger.balances[sender.String()+"|BTC"] = decimal.RequireFromString("1")

	input := SendInput{
		OperationID: "tip-3",
		SenderID:    sender,
		RecipientID: recipient,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.2"),
	}
	if _, err := fixture.svc.Send(context.Background(), input); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	replay, err := fixture.svc.Send(context.Background(), input)
	if err != nil {
		t.Fatalf("replay Send: %v", err)
	}

	if replay.Status != enums.ResultAlreadyProcessed {
		t.Fatalf("replay status = %s", replay.Status)
	}
	if got := fixture.ledger.balances[recipient.String()+"|BTC"]; !got.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("recipient balance = %s after replay, want 0.2", got)
	}
	if len(fixture.emitter.events) != 1 {
		t.Fatalf("expected one tip event, got %d", len(fixture.emitter.events))
	}
}

func TestSendRejectsSelfTip(t *testing.T) {
	fixture := newTipFixture(t)
	userID := uuid.New()
	fixture.users.known[userID] = true

	_, err := fixture.svc.Send(context.Background(), SendInput{
		OperationID: "tip-4",
		SenderID:    userID,
		RecipientID: userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.1"),
	})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendRejectsUnknownRecipient(t *testing.T) {
	fixture := newTipFixture(t)
	_, err := fixture.svc.Send(context.Background(), SendInput{
		OperationID: "tip-5",
		SenderID:    uuid.New(),
		RecipientID: uuid.New(),
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.1"),
	})
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(fixture.locker.resources) != 0 {
		t.Fatal("lock acquired for invalid tip")
	}
}
