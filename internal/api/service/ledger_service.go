package service

import (
	"context"
	"errors"

	"github.com/havenlet-escrow-ledger/internal/domain/escrow"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	escrowRepo escrow.Repository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(escrowRepo escrow.Repository) LedgerService {
	return &LedgerServiceImpl{
		escrowRepo: escrowRepo,
	}
}

// GetOrCreateAccount retrieves the owner's account, lazily creating an empty
// one on first read. When a concurrent request wins the creation race, the
// unique constraint surfaces ErrAccountAlreadyExists and the winning row is
// re-read instead of failing the request.
func (s *LedgerServiceImpl) GetOrCreateAccount(ctx context.Context, ownerID string, recentLimit int) (*escrow.Account, []*escrow.Transaction, error) {
	acc, err := s.escrowRepo.GetByOwner(ctx, ownerID)
	if err == nil {
		transactions, err := s.escrowRepo.ListTransactions(ctx, acc.ID, recentLimit)
		if err != nil {
			return nil, nil, err
		}
		return acc, transactions, nil
	}
	if !errors.Is(err, escrow.ErrAccountNotFound{}) {
		return nil, nil, err
	}

	newAcc, err := escrow.NewAccount(ownerID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.escrowRepo.Create(ctx, newAcc); err != nil {
		if !errors.Is(err, escrow.ErrAccountAlreadyExists{}) {
			return nil, nil, err
		}
		// Lost the creation race; read the account the other request created.
		acc, err := s.escrowRepo.GetByOwner(ctx, ownerID)
		if err != nil {
			return nil, nil, err
		}
		transactions, err := s.escrowRepo.ListTransactions(ctx, acc.ID, recentLimit)
		if err != nil {
			return nil, nil, err
		}
		return acc, transactions, nil
	}

	// A freshly created account has no transactions yet.
	return newAcc, nil, nil
}

// GetAccount retrieves the owner's account and full history without creating
// anything. A missing account is reported as (nil, nil, nil).
func (s *LedgerServiceImpl) GetAccount(ctx context.Context, ownerID string) (*escrow.Account, []*escrow.Transaction, error) {
	acc, err := s.escrowRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, escrow.ErrAccountNotFound{}) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	transactions, err := s.escrowRepo.ListTransactions(ctx, acc.ID, 0)
	if err != nil {
		return nil, nil, err
	}

	return acc, transactions, nil
}

// Deposit credits the owner's account through the repository's atomic
// compound operation
func (s *LedgerServiceImpl) Deposit(ctx context.Context, ownerID string, amount int64, correlationID string) (*escrow.Transaction, *escrow.Account, error) {
	return s.escrowRepo.RecordDeposit(ctx, ownerID, amount, correlationID)
}

// Withdraw debits the owner's account through the repository's atomic
// compound operation
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, ownerID string, amount int64, correlationID string) (*escrow.Transaction, *escrow.Account, error) {
	return s.escrowRepo.RecordWithdrawal(ctx, ownerID, amount, correlationID)
}
