package enums

import "fmt"

// Asset represents a supported balance denomination.
type Asset string

const (
	AssetBTC  Asset = "BTC"
	AssetETH  Asset = "ETH"
	AssetLTC  Asset = "LTC"
	AssetTRX  Asset = "TRX"
	AssetSOL  Asset = "SOL"
	AssetUSDT Asset = "USDT"
	AssetUSDC Asset = "USDC"
)

var validAssets = []Asset{
	AssetBTC,
	AssetETH,
	AssetLTC,
	AssetTRX,
	AssetSOL,
	AssetUSDT,
	AssetUSDC,
}

// String implements fmt.Stringer.
func (a Asset) String() string {
	return string(a)
}

// IsValid reports whether the asset is recognized.
func (a Asset) IsValid() bool {
	for _, candidate := range validAssets {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAsset converts a raw string into an Asset.
func ParseAsset(value string) (Asset, error) {
	for _, candidate := range validAssets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset %q", value)
}

// Assets returns the canonical asset list.
func Assets() []Asset {
	out := make([]Asset, len(validAssets))
	copy(out, validAssets)
	return out
}
