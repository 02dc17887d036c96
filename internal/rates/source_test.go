package rates

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

func TestStaticSourceKnownAsset(t *testing.T) {
	src := NewStaticSource(map[enums.Asset]decimal.Decimal{
		enums.AssetBTC: decimal.NewFromInt(50000),
	})

	rate, err := src.Rate(context.Background(), enums.AssetBTC)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected rate %s", rate)
	}
}

func TestStaticSourceUnknownAsset(t *testing.T) {
	src := NewStaticSource(map[enums.Asset]decimal.Decimal{})
	if _, err := src.Rate(context.Background(), enums.AssetBTC); err == nil {
		t.Fatal("expected error for unknown asset")
	}
}

func TestToFiatCents(t *testing.T) {
	amount := decimal.RequireFromString("0.5")
	rate := decimal.NewFromInt(60000)
	if got := ToFiatCents(amount, rate); got != 3000000 {
		t.Fatalf("expected 3000000 cents, got %d", got)
	}
}

func TestFromFiatCents(t *testing.T) {
	rate := decimal.NewFromInt(60000)
	amount, err := FromFiatCents(3000000, rate)
	if err != nil {
		t.Fatalf("FromFiatCents: %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("unexpected amount %s", amount)
	}
	if _, err := FromFiatCents(100, decimal.Zero); err == nil {
		t.Fatal("expected error for zero rate")
	}
}

type fakeRateStore struct {
	values map[string]string
	gets   int
	sets   int
}

func (f *fakeRateStore) Get(_ context.Context, key string) (string, error) {
	f.gets++
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeRateStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	f.values[key] = value.(string)
	return nil
}

func TestCachedSourcePopulatesAndHits(t *testing.T) {
	store := &fakeRateStore{values: map[string]string{}}
	src, err := NewCachedSource(NewStaticSource(nil), store, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCachedSource: %v", err)
	}

	first, err := src.Rate(context.Background(), enums.AssetETH)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	second, err := src.Rate(context.Background(), enums.AssetETH)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("cache returned different rate: %s vs %s", first, second)
	}
	if store.sets != 1 {
		t.Fatalf("expected one cache write, got %d", store.sets)
	}
}
