package lock

import (
	"fmt"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// Lock-key discipline. Every caller that serializes on a (user, asset) pair
// or user pair must build its resource through these helpers so that
// conflicting operations always contend on the same key.

// UserBalanceKey serializes all balance mutations for one (user, asset),
// single and batched alike.
func UserBalanceKey(userID string, asset enums.Asset) string {
	return fmt.Sprintf("balance:user:%s:%s", userID, asset)
}

// VaultKey serializes vault deposits and withdrawals for one (user, asset).
// Both directions share the key so they can never interleave.
func VaultKey(userID string, asset enums.Asset) string {
	return fmt.Sprintf("balance:vault:%s:%s", userID, asset)
}

// SwitchKey serializes primary-wallet switches for one user.
func SwitchKey(userID string) string {
	return fmt.Sprintf("balance:switch:%s", userID)
}

// TipKey serializes transfers between two users. The ids are ordered
// lexicographically before building the key; this total order is what keeps
// two users tipping each other concurrently from deadlocking.
func TipKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("balance:tip:%s:%s", userA, userB)
}
