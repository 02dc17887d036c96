package vault

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/internal/notifications"
	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
	"github.com/stakeline/stakeline-backend/pkg/lock"
	"github.com/stakeline/stakeline-backend/pkg/outbox"
)

type fakeVaultRepo struct {
	vaults  map[string]*models.Vault
	history []models.VaultHistory
}

func newFakeVaultRepo() *fakeVaultRepo {
	return &fakeVaultRepo{vaults: map[string]*models.Vault{}}
}

func vaultKey(userID uuid.UUID, asset enums.Asset) string {
	return userID.String() + "|" + string(asset)
}

func (f *fakeVaultRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeVaultRepo) Get(_ context.Context, userID uuid.UUID, asset enums.Asset) (*models.Vault, error) {
	vault, ok := f.vaults[vaultKey(userID, asset)]
	if !ok {
		return nil, nil
	}
	copied := *vault
	return &copied, nil
}

func (f *fakeVaultRepo) GetForUpdate(ctx context.Context, userID uuid.UUID, asset enums.Asset) (*models.Vault, error) {
	return f.Get(ctx, userID, asset)
}

func (f *fakeVaultRepo) Create(_ context.Context, vault *models.Vault) error {
	if vault.ID == uuid.Nil {
		vault.ID = uuid.New()
	}
	stored := *vault
	f.vaults[vaultKey(vault.UserID, vault.Asset)] = &stored
	return nil
}

func (f *fakeVaultRepo) UpdateBalance(_ context.Context, vaultID uuid.UUID, balance decimal.Decimal) error {
	for _, vault := range f.vaults {
		if vault.ID == vaultID {
			vault.Balance = balance
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeVaultRepo) CreateHistory(_ context.Context, entry *models.VaultHistory) error {
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeVaultRepo) ListHistory(_ context.Context, userID uuid.UUID, asset enums.Asset, limit int) ([]models.VaultHistory, error) {
	var out []models.VaultHistory
	for _, entry := range f.history {
		if entry.UserID == userID && entry.Asset == asset {
			out = append(out, entry)
		}
	}
	return out, nil
}

// fakeLedger tracks wallet balances in memory and applies the same sign
// conventions as the real ledger.
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

type fakeNotifier struct {
	sent []notifications.NotifyInput
}

func (f *fakeNotifier) Notify(_ context.Context, input notifications.NotifyInput) error {
	f.sent = append(f.sent, input)
	return nil
}

type vaultFixture struct {
	svc      Service
	repo     *fakeVaultRepo
	ledger   *fakeLedger
	locker   *fakeLocker
	emitter  *fakeEmitter
	notifier *fakeNotifier
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()
	fixture := &vaultFixture{
		repo:     newFakeVaultRepo(),
		ledger:   newFakeLedger(),
		locker:   &fakeLocker{},
		emitter:  &fakeEmitter{},
		notifier: &fakeNotifier{},
	}
	svc, err := NewService(Params{
		DB:       fakeDB{},
		Repo:     fixture.repo,
		Ledger:   fixture.ledger,
		Locks:    fixture.locker,
		Outbox:   fixture.emitter,
		Notifier: fixture.notifier,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func TestDepositMovesWalletFundsIntoVault(t *testing.T) {
	fixture := newVaultFixture(t)
	userID := uuid.New()
	fixture.ledger.balances[userID.String()+"|BTC"] = decimal.RequireFromString("1")

	result, err := fixture.svc.Deposit(context.Background(), TransferInput{
		OperationID: "vd-1",
		UserID:      userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.4"),
	})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if result.Status != enums.ResultCompleted {
		t.Fatalf("status = %s", result.Status)
	}
	if !result.WalletBalance.Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("wallet balance = %s, want 0.6", result.WalletBalance)
	}
	if !result.VaultBalance.Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("vault balance = %s, want 0.4", result.VaultBalance)
	}

	if len(fixture.ledger.applied) != 1 || fixture.ledger.applied[0].Kind != enums.OperationVaultDeposit {
		t.Fatalf("unexpected ledger operations %+v", fixture.ledger.applied)
	}
	if len(fixture.repo.history) != 1 || fixture.repo.history[0].Direction != enums.VaultDirectionDeposit {
		t.Fatalf("unexpected vault history %+v", fixture.repo.history)
	}
	if !fixture.repo.history[0].PreviousBalance.IsZero() {
		t.Errorf("previous vault balance = %s, want 0", fixture.repo.history[0].PreviousBalance)
	}

	if fixture.locker.resources[0] != lock.VaultKey(userID.String(), enums.AssetBTC) {
		t.Errorf("lock resource = %s", fixture.locker.resources[0])
	}
	if fixture.locker.classes[0] != lock.ClassVault {
		t.Errorf("lock class = %s", fixture.locker.classes[0])
	}

	if len(fixture.emitter.events) != 1 || fixture.emitter.events[0].EventType != enums.EventVaultMoved {
		t.Fatalf("unexpected events %+v", fixture.emitter.events)
	}
	if len(fixture.notifier.sent) != 1 || fixture.notifier.sent[0].Type != enums.NotificationTypeVaultTransfer {
		t.Fatalf("unexpected notifications %+v", fixture.notifier.sent)
	}
}

func TestDepositInsufficientWalletBalance(t *testing.T) {
	fixture := newVaultFixture(t)
	userID := uuid.New()
	fixture.ledger.balances[userID.String()+"|BTC"] = decimal.RequireFromString("0.1")

	_, err := fixture.svc.Deposit(context.Background(), TransferInput{
		OperationID: "vd-2",
		UserID:      userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.5"),
	})
	if !pkgerrors.Is(err, pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	if len(fixture.repo.history) != 0 {
		t.Fatal("vault history written for failed deposit")
	}
}

func TestWithdrawChecksVaultBeforeCreditingWallet(t *testing.T) {
	fixture := newVaultFixture(t)
	userID := uuid.New()

	_, err := fixture.svc.Withdraw(context.Background(), TransferInput{
		OperationID: "vw-1",
		UserID:      userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.5"),
	})
	if !pkgerrors.Is(err, pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	if len(fixture.ledger.applied) != 0 {
		t.Fatal("wallet credited despite empty vault")
	}
}

func TestWithdrawReturnsFundsToWallet(t *testing.T) {
	fixture := newVaultFixture(t)
	userID := uuid.New()
	fixture.ledger.balances[userID.String()+"|BTC"] = decimal.RequireFromString("1")

	if _, err := fixture.svc.Deposit(context.Background(), TransferInput{
		OperationID: "vd-3",
		UserID:      userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.4"),
	}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	result, err := fixture.svc.Withdraw(context.Background(), TransferInput{
		OperationID: "vw-2",
		UserID:      userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.3"),
	})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if !result.WalletBalance.Equal(decimal.RequireFromString("0.9")) {
		t.Errorf("wallet balance = %s, want 0.9", result.WalletBalance)
	}
	if !result.VaultBalance.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("vault balance = %s, want 0.1", result.VaultBalance)
	}
}

func TestTransferReplayIsBenign(t *testing.T) {
	fixture := newVaultFixture(t)
	userID := uuid.New()
	fixture.ledger.balances[userID.String()+"|BTC"] = decimal.RequireFromString("1")

	input := TransferInput{
		OperationID: "vd-4",
		UserID:      userID,
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("0.2"),
	}
	if _, err := fixture.svc.Deposit(context.Background(), input); err != nil {
		t.Fatalf("first Deposit: %v", err)
	}
	replay, err := fixture.svc.Deposit(context.Background(), input)
	if err != nil {
		t.Fatalf("replay Deposit: %v", err)
	}

	if replay.Status != enums.ResultAlreadyProcessed {
		t.Fatalf("replay status = %s", replay.Status)
	}
	if !replay.VaultBalance.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("replay vault balance = %s, want 0.2", replay.VaultBalance)
	}
	if len(fixture.repo.history) != 1 {
		t.Fatalf("expected one vault history row, got %d", len(fixture.repo.history))
	}
}

func TestTransferValidation(t *testing.T) {
	fixture := newVaultFixture(t)
	_, err := fixture.svc.Deposit(context.Background(), TransferInput{
		OperationID: "",
		UserID:      uuid.New(),
		Asset:       enums.AssetBTC,
		Amount:      decimal.RequireFromString("1"),
	})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = fixture.svc.Withdraw(context.Background(), TransferInput{
		OperationID: "vw-3",
		UserID:      uuid.New(),
		Asset:       enums.AssetBTC,
		Amount:      decimal.Zero,
	})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}

func TestGetBalanceMissingVault(t *testing.T) {
	fixture := newVaultFixture(t)
	balance, err := fixture.svc.GetBalance(context.Background(), uuid.New(), enums.AssetBTC)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("balance = %s, want 0", balance)
	}
}
