package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/havenlet-escrow-ledger/internal/api/middleware"
	"github.com/havenlet-escrow-ledger/internal/api/service"
	"github.com/havenlet-escrow-ledger/internal/domain/audit"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetAuditTrail(ctx context.Context, ownerID string, limit, offset int) ([]*audit.Entry, int64, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	var entries []*audit.Entry
	if args.Get(0) != nil {
		entries = args.Get(0).([]*audit.Entry)
	}
	return entries, args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditService) GetTransactionAudit(ctx context.Context, ownerID string, transactionID uuid.UUID) (*service.TransactionAudit, error) {
	args := m.Called(ctx, ownerID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransactionAudit), args.Error(1)
}

// setupAuditRouter wires the audit handler behind a stub identity so tests
// can control the authenticated owner directly
func setupAuditRouter(mockService *MockAuditService, ownerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuditHandler(testHandlerLogger(), mockService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if ownerID != "" {
			c.Set(middleware.OwnerIDKey, ownerID)
		}
		c.Next()
	})
	router.GET("/escrow/audit", h.GetTrail)
	router.GET("/escrow/audit/:transaction_id", h.GetByTransactionID)
	return router
}

func handlerTestAuditEntry(ownerID string) *audit.Entry {
	now := time.Now().UTC()
	return &audit.Entry{
		TransactionID: uuid.New(),
		AccountID:     uuid.New(),
		OwnerID:       ownerID,
		Type:          shared.TransactionTypeDeposit,
		Amount:        1200,
		Status:        shared.TransactionStatusCompleted,
		BalanceAfter:  1200,
		OccurredAt:    now.Add(-time.Minute),
		RecordedAt:    now,
	}
}

func TestAuditHandler_GetTrail(t *testing.T) {
	t.Run("ReturnsEntriesWithTotal", func(t *testing.T) {
		mockService := new(MockAuditService)
		entry := handlerTestAuditEntry("owner-42")
		mockService.On("GetAuditTrail", mock.Anything, "owner-42", 50, 0).
			Return([]*audit.Entry{entry}, int64(3), nil).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeResponse(t, rr)
		data, ok := body["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(3), data["total"])
		entries, ok := data["entries"].([]interface{})
		require.True(t, ok)
		require.Len(t, entries, 1)
		first := entries[0].(map[string]interface{})
		assert.Equal(t, entry.TransactionID.String(), first["transaction_id"])
		mockService.AssertExpectations(t)
	})

	t.Run("PaginationParametersPassThrough", func(t *testing.T) {
		mockService := new(MockAuditService)
		mockService.On("GetAuditTrail", mock.Anything, "owner-42", 20, 40).
			Return([]*audit.Entry{}, int64(100), nil).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit?limit=20&offset=40", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("OversizedLimitIsCapped", func(t *testing.T) {
		mockService := new(MockAuditService)
		mockService.On("GetAuditTrail", mock.Anything, "owner-42", maxAuditPageSize, 0).
			Return([]*audit.Entry{}, int64(0), nil).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit?limit=10000", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("EmptyTrailSerializesAsEmptyArray", func(t *testing.T) {
		mockService := new(MockAuditService)
		mockService.On("GetAuditTrail", mock.Anything, "owner-42", 50, 0).
			Return([]*audit.Entry{}, int64(0), nil).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"entries":[]`)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingIdentity", func(t *testing.T) {
		mockService := new(MockAuditService)
		router := setupAuditRouter(mockService, "")

		req := httptest.NewRequest(http.MethodGet, "/escrow/audit", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rr))
		mockService.AssertNotCalled(t, "GetAuditTrail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAuditService)
		mockService.On("GetAuditTrail", mock.Anything, "owner-42", 50, 0).
			Return(nil, int64(0), errors.New("archive unavailable")).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, rr))
		mockService.AssertExpectations(t)
	})
}

func TestAuditHandler_GetByTransactionID(t *testing.T) {
	t.Run("ArchivedEntry", func(t *testing.T) {
		mockService := new(MockAuditService)
		entry := handlerTestAuditEntry("owner-42")
		mockService.On("GetTransactionAudit", mock.Anything, "owner-42", entry.TransactionID).
			Return(&service.TransactionAudit{Entry: entry, PublishStatus: shared.OutboxStatusPublished}, nil).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit/"+entry.TransactionID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeResponse(t, rr)
		data, ok := body["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, string(shared.OutboxStatusPublished), data["publish_status"])
		entryBody, ok := data["entry"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, entry.TransactionID.String(), entryBody["transaction_id"])
		mockService.AssertExpectations(t)
	})

	t.Run("InFlightTransactionHasNullEntry", func(t *testing.T) {
		mockService := new(MockAuditService)
		transactionID := uuid.New()
		mockService.On("GetTransactionAudit", mock.Anything, "owner-42", transactionID).
			Return(&service.TransactionAudit{PublishStatus: shared.OutboxStatusPending}, nil).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit/"+transactionID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeResponse(t, rr)
		data, ok := body["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Nil(t, data["entry"])
		assert.Equal(t, string(shared.OutboxStatusPending), data["publish_status"])
		mockService.AssertExpectations(t)
	})

	t.Run("UnknownTransaction", func(t *testing.T) {
		mockService := new(MockAuditService)
		transactionID := uuid.New()
		mockService.On("GetTransactionAudit", mock.Anything, "owner-42", transactionID).
			Return(nil, audit.ErrEntryNotFound{TransactionID: transactionID}).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit/"+transactionID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "AUDIT_ENTRY_NOT_FOUND", errorCode(t, rr))
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedTransactionID", func(t *testing.T) {
		mockService := new(MockAuditService)
		router := setupAuditRouter(mockService, "owner-42")

		req := httptest.NewRequest(http.MethodGet, "/escrow/audit/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "BAD_REQUEST", errorCode(t, rr))
		mockService.AssertNotCalled(t, "GetTransactionAudit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingIdentity", func(t *testing.T) {
		mockService := new(MockAuditService)
		router := setupAuditRouter(mockService, "")

		req := httptest.NewRequest(http.MethodGet, "/escrow/audit/"+uuid.NewString(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rr))
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAuditService)
		transactionID := uuid.New()
		mockService.On("GetTransactionAudit", mock.Anything, "owner-42", transactionID).
			Return(nil, errors.New("archive unavailable")).Once()

		router := setupAuditRouter(mockService, "owner-42")
		req := httptest.NewRequest(http.MethodGet, "/escrow/audit/"+transactionID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, rr))
		mockService.AssertExpectations(t)
	})
}
