package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/havenlet-escrow-ledger/internal/domain/audit"
	"github.com/havenlet-escrow-ledger/internal/domain/escrow"
	"github.com/havenlet-escrow-ledger/internal/domain/outbox"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

// TransactionAudit describes what the archive knows about one transaction.
// Entry is nil while the ledger event is still in flight; PublishStatus then
// reports the outbox state instead.
type TransactionAudit struct {
	Entry         *audit.Entry
	PublishStatus shared.OutboxStatus
}

// AuditServiceImpl implements the AuditService interface
type AuditServiceImpl struct {
	escrowRepo escrow.Repository
	auditRepo  audit.Repository
	outboxRepo outbox.Repository
}

// NewAuditService creates a new audit query service
func NewAuditService(escrowRepo escrow.Repository, auditRepo audit.Repository, outboxRepo outbox.Repository) AuditService {
	return &AuditServiceImpl{
		escrowRepo: escrowRepo,
		auditRepo:  auditRepo,
		outboxRepo: outboxRepo,
	}
}

// GetAuditTrail returns the owner's archived entries, newest first. An owner
// with no escrow account gets an empty trail, mirroring the account read.
func (s *AuditServiceImpl) GetAuditTrail(ctx context.Context, ownerID string, limit, offset int) ([]*audit.Entry, int64, error) {
	acc, err := s.escrowRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, escrow.ErrAccountNotFound{}) {
			return []*audit.Entry{}, 0, nil
		}
		return nil, 0, err
	}

	entries, err := s.auditRepo.GetByAccountID(ctx, acc.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditRepo.CountByAccountID(ctx, acc.ID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetTransactionAudit resolves one transaction for the owner. Archived
// entries are served from the archive; a transaction still travelling
// through the pipeline is reported with its outbox publish status. Either
// way the result is scoped to the owner: someone else's transaction ID
// answers not-found, never another owner's data.
func (s *AuditServiceImpl) GetTransactionAudit(ctx context.Context, ownerID string, transactionID uuid.UUID) (*TransactionAudit, error) {
	entry, err := s.auditRepo.GetByTransactionID(ctx, transactionID)
	if err == nil {
		if entry.OwnerID != ownerID {
			return nil, audit.ErrEntryNotFound{TransactionID: transactionID}
		}
		// An archived entry implies the event cleared the outbox.
		return &TransactionAudit{Entry: entry, PublishStatus: shared.OutboxStatusPublished}, nil
	}
	if !errors.Is(err, audit.ErrEntryNotFound{}) {
		return nil, err
	}

	message, err := s.outboxRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, outbox.ErrMessageNotFound{}) {
			return nil, audit.ErrEntryNotFound{TransactionID: transactionID}
		}
		return nil, err
	}

	acc, err := s.escrowRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, escrow.ErrAccountNotFound{}) {
			return nil, audit.ErrEntryNotFound{TransactionID: transactionID}
		}
		return nil, err
	}
	if message.AccountID != acc.ID {
		return nil, audit.ErrEntryNotFound{TransactionID: transactionID}
	}

	return &TransactionAudit{PublishStatus: message.Status}, nil
}
