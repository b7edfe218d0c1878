package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/havenlet-escrow-ledger/internal/domain/outbox"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
	"github.com/havenlet-escrow-ledger/internal/platform/messaging/producers"
)

// EventPublisher relays outbox messages to the ledger events topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent pushes one outbox message to Kafka and marks it PUBLISHED.
// Messages whose payload cannot be decoded are poisoned rows, not transient
// failures, so they are marked FAILED_TO_PUBLISH immediately.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetLedgerEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal ledger event from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to ledger events topic", "outbox_id", message.ID, "transaction_id", message.TransactionID)

	// Keying by account ID keeps events for one escrow account on a single
	// partition, so consumers observe them in commit order.
	if err := p.producer.Publish(ctx, event.AccountID.String(), event); err != nil {
		logger.Error("Failed to publish ledger event to Kafka", "outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err)
		return fmt.Errorf("publish ledger event for outbox %d failed: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusPublished); err != nil {
		logger.Error("Failed to update outbox message status to PUBLISHED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PUBLISHED: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Outbox message successfully published and marked as PUBLISHED", "outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
