package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidEventAmount     = errors.New("event amount must be positive")
)

// LedgerEvent is the message published for every committed escrow
// transaction. It is written to the transactional outbox together with
// the transaction itself and relayed to Kafka by the outbox poller.
type LedgerEvent struct {
	TransactionID uuid.UUID         `json:"transaction_id"`
	AccountID     uuid.UUID         `json:"account_id"`
	OwnerID       string            `json:"owner_id"`
	Type          TransactionType   `json:"type"`
	Amount        int64             `json:"amount"` // Stored in cents/minor units
	Status        TransactionStatus `json:"status"`
	BalanceAfter  int64             `json:"balance_after"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Validate checks the fields the audit archiver depends on
func (e *LedgerEvent) Validate() error {
	if e.Type != TransactionTypeDeposit && e.Type != TransactionTypeWithdrawal {
		return ErrInvalidTransactionType
	}
	if e.Amount <= 0 {
		return ErrInvalidEventAmount
	}
	return nil
}
