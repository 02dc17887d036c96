package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/config"
	"github.com/stakeline/stakeline-backend/pkg/enums"
	pkgerrors "github.com/stakeline/stakeline-backend/pkg/errors"
)

// maxPrecision is the ledger-wide fractional digit limit.
const maxPrecision = 8

// Bounds carries the financial sanity limits applied before any lock or row
// is touched.
type Bounds struct {
	MinDeposit  decimal.Decimal
	MaxDeposit  decimal.Decimal
	MinWithdraw decimal.Decimal
	MaxWithdraw decimal.Decimal
	MaxBet      decimal.Decimal
	MaxBalance  decimal.Decimal
}

// BoundsFromConfig parses the configured decimal strings.
func BoundsFromConfig(cfg config.LimitsConfig) (Bounds, error) {
	parse := func(name, value string) (decimal.Decimal, error) {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name+" limit")
		}
		return parsed, nil
	}

	var bounds Bounds
	var err error
	if bounds.MinDeposit, err = parse("min deposit", cfg.MinDeposit); err != nil {
		return Bounds{}, err
	}
	if bounds.MaxDeposit, err = parse("max deposit", cfg.MaxDeposit); err != nil {
		return Bounds{}, err
	}
	if bounds.MinWithdraw, err = parse("min withdraw", cfg.MinWithdraw); err != nil {
		return Bounds{}, err
	}
	if bounds.MaxWithdraw, err = parse("max withdraw", cfg.MaxWithdraw); err != nil {
		return Bounds{}, err
	}
	if bounds.MaxBet, err = parse("max bet", cfg.MaxBet); err != nil {
		return Bounds{}, err
	}
	if bounds.MaxBalance, err = parse("max balance", cfg.MaxBalance); err != nil {
		return Bounds{}, err
	}
	return bounds, nil
}

// validateOperation runs the financial sanity checks of an operation before
// any lock acquisition or row access.
func (b Bounds) validateOperation(op Operation) error {
	if op.OperationID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "operation id required")
	}
	if !op.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid operation kind")
	}
	if !op.Asset.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid asset")
	}

	amount := op.Amount
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if amount.Exponent() < -maxPrecision {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount precision exceeds 8 fractional digits")
	}

	switch op.Kind {
	case enums.OperationBet:
		// A zero-amount demo bet is always allowed.
		if amount.GreaterThan(b.MaxBet) {
			return pkgerrors.New(pkgerrors.CodeValidation, "bet amount above maximum")
		}
		return nil
	case enums.OperationDeposit:
		if amount.LessThan(b.MinDeposit) {
			return pkgerrors.New(pkgerrors.CodeValidation, "deposit amount below minimum")
		}
		if amount.GreaterThan(b.MaxDeposit) {
			return pkgerrors.New(pkgerrors.CodeValidation, "deposit amount above maximum")
		}
		return nil
	case enums.OperationWithdraw:
		if amount.LessThan(b.MinWithdraw) {
			return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount below minimum")
		}
		if amount.GreaterThan(b.MaxWithdraw) {
			return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount above maximum")
		}
		return nil
	}

	if amount.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// signedDelta turns the unsigned amount into the delta applied to the
// stored balance.
func signedDelta(kind enums.OperationKind, amount decimal.Decimal) decimal.Decimal {
	if kind.Decreases() {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}
