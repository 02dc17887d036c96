package enums

import "fmt"

// OperationKind classifies a ledger mutation. Together with the operation id
// it forms the idempotency key of a balance history row.
type OperationKind string

const (
	OperationDeposit       OperationKind = "DEPOSIT"
	OperationWithdraw      OperationKind = "WITHDRAW"
	OperationBet           OperationKind = "BET"
	OperationWin           OperationKind = "WIN"
	OperationRefund        OperationKind = "REFUND"
	OperationBonus         OperationKind = "BONUS"
	OperationBuyIn         OperationKind = "BUY_IN"
	OperationBuyOut        OperationKind = "BUY_OUT"
	OperationTipSend       OperationKind = "TIP_SEND"
	OperationTipReceive    OperationKind = "TIP_RECEIVE"
	OperationVaultDeposit  OperationKind = "VAULT_DEPOSIT"
	OperationVaultWithdraw OperationKind = "VAULT_WITHDRAW"
	OperationCorrection    OperationKind = "BALANCE_CORRECTION"
	OperationRollback      OperationKind = "ROLLBACK"
)

var validOperationKinds = []OperationKind{
	OperationDeposit,
	OperationWithdraw,
	OperationBet,
	OperationWin,
	OperationRefund,
	OperationBonus,
	OperationBuyIn,
	OperationBuyOut,
	OperationTipSend,
	OperationTipReceive,
	OperationVaultDeposit,
	OperationVaultWithdraw,
	OperationCorrection,
	OperationRollback,
}

// decreasingKinds subtract from the wallet balance.
var decreasingKinds = map[OperationKind]struct{}{
	OperationBet:          {},
	OperationWithdraw:     {},
	OperationBuyIn:        {},
	OperationTipSend:      {},
	OperationVaultDeposit: {},
	OperationCorrection:   {},
	OperationRollback:     {},
}

// correctionKinds may drive a wallet negative when reversing an erroneous
// credit. They are the only kinds allowed to bypass the non-negative guard.
var correctionKinds = map[OperationKind]struct{}{
	OperationCorrection: {},
	OperationRollback:   {},
}

// String implements fmt.Stringer.
func (k OperationKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is recognized.
func (k OperationKind) IsValid() bool {
	for _, candidate := range validOperationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Decreases reports whether the kind subtracts from the wallet balance.
func (k OperationKind) Decreases() bool {
	_, ok := decreasingKinds[k]
	return ok
}

// IsCorrection reports whether the kind bypasses the non-negative guard.
func (k OperationKind) IsCorrection() bool {
	_, ok := correctionKinds[k]
	return ok
}

// ParseOperationKind converts raw input into an OperationKind.
func ParseOperationKind(value string) (OperationKind, error) {
	for _, candidate := range validOperationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation kind %q", value)
}
