package escrow

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

// Transaction is an immutable ledger entry owned by exactly one escrow
// account. Entries are append-only: once created they are never updated
// or reassigned.
type Transaction struct {
	ID        uuid.UUID                `json:"id"`
	AccountID uuid.UUID                `json:"account_id"`
	Amount    int64                    `json:"amount"` // Positive magnitude, cents/minor units
	Type      shared.TransactionType   `json:"type"`
	Status    shared.TransactionStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
}

// NewTransaction creates a COMPLETED ledger entry for the given account
func NewTransaction(accountID uuid.UUID, txType shared.TransactionType, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		Type:      txType,
		Status:    shared.TransactionStatusCompleted,
		CreatedAt: time.Now(),
	}, nil
}
