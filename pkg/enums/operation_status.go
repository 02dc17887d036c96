package enums

import "fmt"

// OperationStatus is the lifecycle status stamped on a balance history row.
type OperationStatus string

const (
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusVoided    OperationStatus = "voided"
)

var validOperationStatuses = []OperationStatus{
	OperationStatusCompleted,
	OperationStatusVoided,
}

// IsValid reports whether the status matches the canonical enum.
func (s OperationStatus) IsValid() bool {
	for _, candidate := range validOperationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOperationStatus converts raw input into an OperationStatus.
func ParseOperationStatus(value string) (OperationStatus, error) {
	for _, candidate := range validOperationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation status %q", value)
}

// ResultStatus is the machine-readable outcome of a ledger call.
type ResultStatus string

const (
	ResultCompleted           ResultStatus = "COMPLETED"
	ResultAlreadyProcessed    ResultStatus = "ALREADY_PROCESSED"
	ResultInsufficientBalance ResultStatus = "INSUFFICIENT_BALANCE"
	ResultLimitExceeded       ResultStatus = "LIMIT_EXCEEDED"
	ResultInvalidAmount       ResultStatus = "INVALID_AMOUNT"
	ResultSystemBusy          ResultStatus = "SYSTEM_BUSY"
	ResultError               ResultStatus = "ERROR"
)
