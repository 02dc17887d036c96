package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
)

// Source answers "what is one unit of this asset worth right now" in fiat.
// Rates are expressed in USD per unit.
type Source interface {
	Rate(ctx context.Context, asset enums.Asset) (decimal.Decimal, error)
}

var centsPerUnit = decimal.NewFromInt(100)

// ToFiatCents converts an asset amount into whole fiat cents at the given
// rate, truncating fractional cents.
func ToFiatCents(amount, rate decimal.Decimal) int64 {
	return amount.Mul(rate).Mul(centsPerUnit).IntPart()
}

// FromFiatCents converts fiat cents back into an asset amount at the given
// rate, rounded to the ledger's 8-digit precision.
func FromFiatCents(cents int64, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsZero() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "rate must be non-zero")
	}
	return decimal.NewFromInt(cents).Div(centsPerUnit).DivRound(rate, 8), nil
}

// StaticSource serves rates from a fixed table. Used as the default source
// and in tests; production wires the cached decorator around a live feed.
type StaticSource struct {
	rates map[enums.Asset]decimal.Decimal
}

// NewStaticSource copies the provided table. A nil table falls back to
// conservative defaults with stablecoins pinned at 1.
func NewStaticSource(table map[enums.Asset]decimal.Decimal) *StaticSource {
	if table == nil {
		table = map[enums.Asset]decimal.Decimal{
			enums.AssetBTC:  decimal.NewFromInt(60000),
			enums.AssetETH:  decimal.NewFromInt(2500),
			enums.AssetLTC:  decimal.NewFromInt(80),
			enums.AssetTRX:  decimal.RequireFromString("0.12"),
			enums.AssetSOL:  decimal.NewFromInt(150),
			enums.AssetUSDT: decimal.NewFromInt(1),
			enums.AssetUSDC: decimal.NewFromInt(1),
		}
	}
	rates := make(map[enums.Asset]decimal.Decimal, len(table))
	for asset, rate := range table {
		rates[asset] = rate
	}
	return &StaticSource{rates: rates}
}

func (s *StaticSource) Rate(_ context.Context, asset enums.Asset) (decimal.Decimal, error) {
	rate, ok := s.rates[asset]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unsupported asset")
	}
	return rate, nil
}
