package outbox_poller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/havenlet-escrow-ledger/internal/domain/outbox"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// MockMessagePublisher for testing
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestEventPublisher_PublishEvent(t *testing.T) {
	logger := slog.Default()

	txID := uuid.New()
	accountID := uuid.New()
	event := &shared.LedgerEvent{
		TransactionID: txID,
		AccountID:     accountID,
		OwnerID:       "owner-42",
		Type:          shared.TransactionTypeDeposit,
		Amount:        2500,
		Status:        shared.TransactionStatusCompleted,
		BalanceAfter:  2500,
		CorrelationID: "corr-1",
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	assert.NoError(t, err)

	message := &outbox.Message{
		ID:            1,
		TransactionID: txID,
		AccountID:     accountID,
		Status:        shared.OutboxStatusPending,
		Payload:       payload,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}

	tests := []struct {
		name          string
		message       *outbox.Message
		setupMocks    func(repo *MockOutboxRepo, producer *MockMessagePublisher)
		expectedError string
	}{
		{
			name:    "successful publish marks message PUBLISHED",
			message: message,
			setupMocks: func(repo *MockOutboxRepo, producer *MockMessagePublisher) {
				producer.On("Publish", mock.Anything, accountID.String(), mock.MatchedBy(func(v interface{}) bool {
					published, ok := v.(*shared.LedgerEvent)
					return ok && published.TransactionID == txID && published.Amount == int64(2500)
				})).Return(nil).Once()
				repo.On("UpdateStatus", mock.Anything, int64(1), shared.OutboxStatusPublished).Return(nil).Once()
			},
		},
		{
			name: "malformed payload is marked FAILED_TO_PUBLISH",
			message: &outbox.Message{
				ID:            2,
				TransactionID: txID,
				AccountID:     accountID,
				Status:        shared.OutboxStatusPending,
				Payload:       []byte("{not-json"),
				CreatedAt:     time.Now(),
			},
			setupMocks: func(repo *MockOutboxRepo, producer *MockMessagePublisher) {
				repo.On("UpdateStatus", mock.Anything, int64(2), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
			expectedError: "unmarshal payload",
		},
		{
			name:    "producer error is returned for retry",
			message: message,
			setupMocks: func(repo *MockOutboxRepo, producer *MockMessagePublisher) {
				producer.On("Publish", mock.Anything, accountID.String(), mock.Anything).Return(errors.New("broker unavailable")).Once()
			},
			expectedError: "publish ledger event",
		},
		{
			name:    "status update failure after publish is reported",
			message: message,
			setupMocks: func(repo *MockOutboxRepo, producer *MockMessagePublisher) {
				producer.On("Publish", mock.Anything, accountID.String(), mock.Anything).Return(nil).Once()
				repo.On("UpdateStatus", mock.Anything, int64(1), shared.OutboxStatusPublished).Return(errors.New("db error")).Once()
			},
			expectedError: "failed to mark outbox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockOutboxRepo{}
			mockProducer := &MockMessagePublisher{}
			tt.setupMocks(mockRepo, mockProducer)

			publisher := NewEventPublisher(mockRepo, mockProducer, logger)
			err := publisher.PublishEvent(context.Background(), tt.message)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
			mockProducer.AssertExpectations(t)
		})
	}
}
