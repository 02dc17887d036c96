package stats

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stakeline/stakeline-backend/pkg/db/models"
	"github.com/stakeline/stakeline-backend/pkg/enums"
)

type fakeRepo struct {
	upserts     []models.BalanceStatistic
	assignments []map[string]any
	row         *models.BalanceStatistic
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Upsert(_ context.Context, row *models.BalanceStatistic, assignments map[string]any) error {
	f.upserts = append(f.upserts, *row)
	f.assignments = append(f.assignments, assignments)
	return nil
}

func (f *fakeRepo) Get(context.Context, uuid.UUID) (*models.BalanceStatistic, error) {
	return f.row, nil
}

func TestRecordBetIncrementsWageredAndCount(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	userID := uuid.New()
	amount := decimal.RequireFromString("-0.05")
	if err := svc.Record(context.Background(), nil, userID, enums.OperationBet, amount); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(repo.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserts))
	}
	row := repo.upserts[0]
	if !row.TotalWagered.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("wagered amount not absolute: %s", row.TotalWagered)
	}
	if row.BetCount != 1 {
		t.Fatalf("bet count not seeded: %d", row.BetCount)
	}
	if _, ok := repo.assignments[0]["total_wagered"]; !ok {
		t.Fatal("conflict assignment for total_wagered missing")
	}
}

func TestRecordIgnoresNonAggregatedKinds(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := NewService(repo)

	for _, kind := range []enums.OperationKind{
		enums.OperationTipSend,
		enums.OperationVaultDeposit,
		enums.OperationCorrection,
	} {
		if err := svc.Record(context.Background(), nil, uuid.New(), kind, decimal.NewFromInt(1)); err != nil {
			t.Fatalf("Record(%s): %v", kind, err)
		}
	}
	if len(repo.upserts) != 0 {
		t.Fatalf("non-aggregated kinds must not touch the row, got %d upserts", len(repo.upserts))
	}
}

func TestRecordRequiresUser(t *testing.T) {
	svc, _ := NewService(&fakeRepo{})
	if err := svc.Record(context.Background(), nil, uuid.Nil, enums.OperationDeposit, decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected validation error for nil user")
	}
}
