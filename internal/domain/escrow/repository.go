package escrow

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines escrow persistence operations. Compound mutations
// (balance change plus ledger append) are exposed as single atomic
// operations so callers never orchestrate multi-step consistency.
type Repository interface {
	// Create stores a new account
	// Returns ErrAccountAlreadyExists if the owner already has one
	Create(ctx context.Context, account *Account) error

	// GetByOwner retrieves the account for an owner
	// Returns ErrAccountNotFound if none exists
	GetByOwner(ctx context.Context, ownerID string) (*Account, error)

	// ListTransactions returns transactions for an account ordered
	// newest-first. A non-positive limit returns the full history.
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*Transaction, error)

	// RecordDeposit atomically increments the owner's balance and
	// appends a COMPLETED DEPOSIT transaction, returning the created
	// transaction and the updated account.
	RecordDeposit(ctx context.Context, ownerID string, amount int64, correlationID string) (*Transaction, *Account, error)

	// RecordWithdrawal atomically decrements the owner's balance and
	// appends a COMPLETED WITHDRAWAL transaction. Returns
	// ErrInsufficientFunds if the balance cannot cover the amount.
	RecordWithdrawal(ctx context.Context, ownerID string, amount int64, correlationID string) (*Transaction, *Account, error)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	OwnerID string
}

func (e ErrAccountNotFound) Error() string {
	return "escrow account not found for owner: " + e.OwnerID
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	// An empty target OwnerID matches any ErrAccountNotFound
	if t.OwnerID == "" {
		return true
	}
	return e.OwnerID == t.OwnerID
}

// ErrAccountAlreadyExists indicates a lost race on lazy account
// creation; the caller should re-read rather than retry the create
type ErrAccountAlreadyExists struct {
	OwnerID string
}

func (e ErrAccountAlreadyExists) Error() string {
	return "escrow account already exists for owner: " + e.OwnerID
}

// Is implements the errors.Is interface for ErrAccountAlreadyExists
func (e ErrAccountAlreadyExists) Is(target error) bool {
	t, ok := target.(ErrAccountAlreadyExists)
	if !ok {
		return false
	}
	if t.OwnerID == "" {
		return true
	}
	return e.OwnerID == t.OwnerID
}
