package enums

import "fmt"

// GameChannel identifies which product surface originated a wager.
type GameChannel string

const (
	ChannelCasino     GameChannel = "casino"
	ChannelSportsbook GameChannel = "sportsbook"
	ChannelPoker      GameChannel = "poker"
)

var validGameChannels = []GameChannel{
	ChannelCasino,
	ChannelSportsbook,
	ChannelPoker,
}

// IsValid reports whether the channel is recognized.
func (c GameChannel) IsValid() bool {
	for _, candidate := range validGameChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// AccruesCommission reports whether wagers on this channel feed affiliate
// commission. Sportsbook wagers settle later and can be voided, so they are
// excluded from accrual.
func (c GameChannel) AccruesCommission() bool {
	return c != ChannelSportsbook
}

// ParseGameChannel converts raw input into a GameChannel.
func ParseGameChannel(value string) (GameChannel, error) {
	for _, candidate := range validGameChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid game channel %q", value)
}
