package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/havenlet-escrow-ledger/internal/domain/audit"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

// ArchiveServiceImpl writes consumed ledger events to the audit archive.
type ArchiveServiceImpl struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

func NewArchiveService(auditRepo audit.Repository, logger *slog.Logger) ArchiveService {
	return &ArchiveServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// ArchiveEvent validates a ledger event and stores it as an audit entry.
// Redelivered events that are already archived are acknowledged without a
// second write, so consuming the same Kafka message twice is harmless.
func (s *ArchiveServiceImpl) ArchiveEvent(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Archiving ledger event",
		"transaction_id", event.TransactionID.String(),
		"account_id", event.AccountID.String(),
		"type", event.Type,
		"amount", event.Amount,
	)

	if err := event.Validate(); err != nil {
		logger.Error("Ledger event failed validation", "transaction_id", event.TransactionID.String(), "error", err)
		return fmt.Errorf("invalid ledger event %s: %w", event.TransactionID.String(), err)
	}

	entry := audit.NewEntry(event)
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, audit.ErrDuplicateEntry{}) {
			logger.Info("Ledger event already archived, skipping", "transaction_id", event.TransactionID.String())
			return nil
		}
		logger.Error("Failed to create audit entry", "transaction_id", event.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to archive ledger event %s: %w", event.TransactionID.String(), err)
	}

	logger.Info("Successfully archived ledger event", "transaction_id", event.TransactionID.String())
	return nil
}
