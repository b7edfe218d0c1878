package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/havenlet-escrow-ledger/internal/domain/audit"
	"github.com/havenlet-escrow-ledger/internal/domain/escrow"
)

// LedgerService defines the interface for escrow ledger operations
type LedgerService interface {
	// GetOrCreateAccount retrieves the owner's account, creating an empty one
	// if none exists yet. Returns the account and up to recentLimit of its
	// most recent transactions (newest first).
	GetOrCreateAccount(ctx context.Context, ownerID string, recentLimit int) (*escrow.Account, []*escrow.Transaction, error)

	// GetAccount retrieves the owner's account with its full transaction
	// history. Returns a nil account (and no error) when the owner has no
	// account yet; reads through this path never create one.
	GetAccount(ctx context.Context, ownerID string) (*escrow.Account, []*escrow.Transaction, error)

	// Deposit atomically credits the owner's account and appends a COMPLETED
	// deposit transaction. Returns ErrAccountNotFound if no account exists;
	// deposits never create accounts implicitly.
	Deposit(ctx context.Context, ownerID string, amount int64, correlationID string) (*escrow.Transaction, *escrow.Account, error)

	// Withdraw atomically debits the owner's account and appends a COMPLETED
	// withdrawal transaction. Returns ErrInsufficientFunds when the balance
	// cannot cover the amount.
	Withdraw(ctx context.Context, ownerID string, amount int64, correlationID string) (*escrow.Transaction, *escrow.Account, error)
}

// AuditService exposes the archive to account owners. The trail is served
// from the archive store; a transaction that has not been archived yet is
// resolved against the outbox so callers can see how far publishing got.
type AuditService interface {
	// GetAuditTrail returns a page of the owner's archived entries, newest
	// first, along with the total entry count. An owner without an account
	// has an empty trail.
	GetAuditTrail(ctx context.Context, ownerID string, limit, offset int) ([]*audit.Entry, int64, error)

	// GetTransactionAudit resolves the archive state of a single transaction
	// for the owner. Returns audit.ErrEntryNotFound when the transaction does
	// not exist or belongs to another owner.
	GetTransactionAudit(ctx context.Context, ownerID string, transactionID uuid.UUID) (*TransactionAudit, error)
}
