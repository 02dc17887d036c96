package wallet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

// Operation is one requested ledger mutation. OperationID plus
// OperationKind form the idempotency key; amounts are unsigned — the kind
// decides the sign of the applied delta.
type Operation struct {
	OperationID string
	Kind        enums.OperationKind
	UserID      uuid.UUID
	Asset       enums.Asset
	Amount      decimal.Decimal
	Description string
	Metadata    map[string]any
	HouseEdge   *decimal.Decimal
	Channel     enums.GameChannel
}

// Result is the structured outcome of a ledger operation. Business
// failures (insufficient balance, limits, idempotency conflicts) are
// reported here rather than as errors so retrying callers can treat them
// deterministically.
type Result struct {
	Success bool
	Status  enums.ResultStatus
	Balance decimal.Decimal
	Error   string
}

func successResult(balance decimal.Decimal) Result {
	return Result{Success: true, Status: enums.ResultCompleted, Balance: balance}
}

func failureResult(status enums.ResultStatus, balance decimal.Decimal, message string) Result {
	return Result{Success: false, Status: status, Balance: balance, Error: message}
}

// alreadyProcessedResult reports a benign idempotency no-op: the operation
// took effect on an earlier attempt.
func alreadyProcessedResult(balance decimal.Decimal) Result {
	return Result{Success: true, Status: enums.ResultAlreadyProcessed, Balance: balance}
}
