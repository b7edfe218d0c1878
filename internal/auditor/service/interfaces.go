package service

import (
	"context"

	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

// ArchiveService defines the interface for archiving ledger events.
type ArchiveService interface {
	ArchiveEvent(ctx context.Context, event *shared.LedgerEvent) error
}
