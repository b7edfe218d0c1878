package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

// Entry is an immutable archive record of a committed escrow
// transaction, kept outside the transactional store for history and
// dispute resolution.
type Entry struct {
	TransactionID uuid.UUID                `json:"transaction_id" bson:"transaction_id"`
	AccountID     uuid.UUID                `json:"account_id" bson:"account_id"`
	OwnerID       string                   `json:"owner_id" bson:"owner_id"`
	Type          shared.TransactionType   `json:"type" bson:"type"`
	Amount        int64                    `json:"amount" bson:"amount"` // Stored in cents/minor units
	Status        shared.TransactionStatus `json:"status" bson:"status"`
	BalanceAfter  int64                    `json:"balance_after" bson:"balance_after"`
	CorrelationID string                   `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at" bson:"occurred_at"`
	RecordedAt    time.Time                `json:"recorded_at" bson:"recorded_at"`
}

// NewEntry builds an archive record from a ledger event
func NewEntry(event *shared.LedgerEvent) *Entry {
	return &Entry{
		TransactionID: event.TransactionID,
		AccountID:     event.AccountID,
		OwnerID:       event.OwnerID,
		Type:          event.Type,
		Amount:        event.Amount,
		Status:        event.Status,
		BalanceAfter:  event.BalanceAfter,
		CorrelationID: event.CorrelationID,
		OccurredAt:    event.OccurredAt,
		RecordedAt:    time.Now().UTC(),
	}
}
