package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeBalanceUpdated NotificationType = "balance_updated"
	NotificationTypeBetWon         NotificationType = "bet_won"
	NotificationTypeTipReceived    NotificationType = "tip_received"
	NotificationTypeVaultTransfer  NotificationType = "vault_transfer"
	NotificationTypeLimitReached   NotificationType = "limit_reached"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBalanceUpdated,
	NotificationTypeBetWon,
	NotificationTypeTipReceived,
	NotificationTypeVaultTransfer,
	NotificationTypeLimitReached,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
