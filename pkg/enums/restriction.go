package enums

import "fmt"

// RestrictionType classifies a self-exclusion restriction fetched from the
// policy source.
type RestrictionType string

const (
	RestrictionLossLimit     RestrictionType = "loss_limit"
	RestrictionWagerLimit    RestrictionType = "wager_limit"
	RestrictionSelfExclusion RestrictionType = "self_exclusion"
)

var validRestrictionTypes = []RestrictionType{
	RestrictionLossLimit,
	RestrictionWagerLimit,
	RestrictionSelfExclusion,
}

// IsValid reports whether the restriction type is recognized.
func (r RestrictionType) IsValid() bool {
	for _, candidate := range validRestrictionTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRestrictionType converts raw input into a RestrictionType.
func ParseRestrictionType(value string) (RestrictionType, error) {
	for _, candidate := range validRestrictionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid restriction type %q", value)
}
