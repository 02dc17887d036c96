package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// BetConfirmedEvent is emitted after a BET has been durably applied.
type BetConfirmedEvent struct {
	OperationID string      `json:"operation_id"`
	UserID      uuid.UUID   `json:"user_id"`
	Asset       enums.Asset `json:"asset"`
	Amount      string      `json:"amount"`
	HouseEdge   string      `json:"house_edge,omitempty"`
	Channel     string      `json:"channel,omitempty"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
}

// BetRefundedEvent reverses a previously confirmed bet.
type BetRefundedEvent struct {
	OperationID string      `json:"operation_id"`
	UserID      uuid.UUID   `json:"user_id"`
	Asset       enums.Asset `json:"asset"`
	Amount      string      `json:"amount"`
	RefundedAt  time.Time   `json:"refunded_at"`
}

// TipEvent is published only after both tip legs are durably committed.
type TipEvent struct {
	SenderID    uuid.UUID   `json:"sender_id"`
	RecipientID uuid.UUID   `json:"recipient_id"`
	Asset       enums.Asset `json:"asset"`
	Amount      string      `json:"amount"`
	Public      bool        `json:"public"`
	SentAt      time.Time   `json:"sent_at"`
}

// BalanceUpdatedEvent carries the post-operation balance for push delivery.
type BalanceUpdatedEvent struct {
	UserID        uuid.UUID           `json:"user_id"`
	Asset         enums.Asset         `json:"asset"`
	Balance       string              `json:"balance"`
	OperationKind enums.OperationKind `json:"operation_kind"`
}

// VaultMovedEvent records a wallet<->vault transfer.
type VaultMovedEvent struct {
	UserID       uuid.UUID            `json:"user_id"`
	Asset        enums.Asset          `json:"asset"`
	Direction    enums.VaultDirection `json:"direction"`
	Amount       string               `json:"amount"`
	VaultBalance string               `json:"vault_balance"`
}
