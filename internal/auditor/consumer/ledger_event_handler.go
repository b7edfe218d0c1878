package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/havenlet-escrow-ledger/internal/auditor/service"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
	"github.com/havenlet-escrow-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler handles incoming ledger event messages from Kafka
type LedgerEventHandler struct {
	archiveService service.ArchiveService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

// NewLedgerEventHandler creates a new handler
func NewLedgerEventHandler(
	logger *slog.Logger,
	archiveService service.ArchiveService,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		archiveService: archiveService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage processes Kafka messages
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal ledger event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received ledger event for archiving",
		"transaction_id", event.TransactionID.String(),
		"account_id", event.AccountID.String(),
		"type", event.Type,
		"amount", event.Amount,
	)

	if err := h.archiveService.ArchiveEvent(ctx, &event); err != nil {
		logger.Error("Failed to archive ledger event",
			"transaction_id", event.TransactionID.String(),
			"account_id", event.AccountID.String(),
			"error", err,
		)

		// Validation failures are permanent: redelivery can never fix the
		// payload, so the message goes to the DLQ and the offset commits.
		if errors.Is(err, shared.ErrInvalidTransactionType) || errors.Is(err, shared.ErrInvalidEventAmount) {
			if h.producer != nil {
				dlqReason := fmt.Sprintf("Ledger event failed validation: %s", err.Error())
				if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
					logger.Error("Failed to publish invalid event to DLQ",
						"dlq_error", dlqErr,
						"original_error", err,
						"transaction_id", event.TransactionID.String(),
					)
				} else {
					logger.Info("Published invalid ledger event to DLQ", "transaction_id", event.TransactionID.String(), "reason", dlqReason)
					return nil
				}
			}
		}

		return fmt.Errorf("archiving ledger event %s failed: %w", event.TransactionID.String(), err)
	}

	logger.Info("Successfully archived ledger event", "transaction_id", event.TransactionID.String())
	return nil // Success, commit offset
}
