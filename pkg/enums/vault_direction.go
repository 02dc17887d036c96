package enums

import "fmt"

// VaultDirection records which way funds moved between wallet and vault.
type VaultDirection string

const (
	VaultDirectionDeposit  VaultDirection = "deposit"
	VaultDirectionWithdraw VaultDirection = "withdraw"
)

var validVaultDirections = []VaultDirection{
	VaultDirectionDeposit,
	VaultDirectionWithdraw,
}

// IsValid reports whether the direction is recognized.
func (d VaultDirection) IsValid() bool {
	for _, candidate := range validVaultDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseVaultDirection converts raw input into a VaultDirection.
func ParseVaultDirection(value string) (VaultDirection, error) {
	for _, candidate := range validVaultDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vault direction %q", value)
}
