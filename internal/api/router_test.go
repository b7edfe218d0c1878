package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackc/pgx/v5"

	"github.com/havenlet-escrow-ledger/internal/api/handler"
	"github.com/havenlet-escrow-ledger/internal/api/middleware"
	"github.com/havenlet-escrow-ledger/internal/api/service"
	"github.com/havenlet-escrow-ledger/internal/config"
	"github.com/havenlet-escrow-ledger/internal/domain/audit"
	"github.com/havenlet-escrow-ledger/internal/domain/escrow"
	"github.com/havenlet-escrow-ledger/internal/domain/outbox"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
)

const routerTestSecret = "router-test-secret"

// fakeRepo is a minimal in-memory escrow.Repository for routing tests
type fakeRepo struct {
	accounts map[string]*escrow.Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[string]*escrow.Account{}}
}

func (f *fakeRepo) Create(_ context.Context, acc *escrow.Account) error {
	if _, exists := f.accounts[acc.OwnerID]; exists {
		return escrow.ErrAccountAlreadyExists{OwnerID: acc.OwnerID}
	}
	f.accounts[acc.OwnerID] = acc
	return nil
}

func (f *fakeRepo) GetByOwner(_ context.Context, ownerID string) (*escrow.Account, error) {
	acc, exists := f.accounts[ownerID]
	if !exists {
		return nil, escrow.ErrAccountNotFound{OwnerID: ownerID}
	}
	return acc, nil
}

func (f *fakeRepo) ListTransactions(_ context.Context, _ uuid.UUID, _ int) ([]*escrow.Transaction, error) {
	return nil, nil
}

func (f *fakeRepo) RecordDeposit(_ context.Context, ownerID string, amount int64, _ string) (*escrow.Transaction, *escrow.Account, error) {
	acc, exists := f.accounts[ownerID]
	if !exists {
		return nil, nil, escrow.ErrAccountNotFound{OwnerID: ownerID}
	}
	if err := acc.Deposit(amount); err != nil {
		return nil, nil, err
	}
	entry, err := escrow.NewTransaction(acc.ID, shared.TransactionTypeDeposit, amount)
	if err != nil {
		return nil, nil, err
	}
	return entry, acc, nil
}

func (f *fakeRepo) RecordWithdrawal(_ context.Context, ownerID string, amount int64, _ string) (*escrow.Transaction, *escrow.Account, error) {
	acc, exists := f.accounts[ownerID]
	if !exists {
		return nil, nil, escrow.ErrAccountNotFound{OwnerID: ownerID}
	}
	if err := acc.Withdraw(amount); err != nil {
		return nil, nil, err
	}
	entry, err := escrow.NewTransaction(acc.ID, shared.TransactionTypeWithdrawal, amount)
	if err != nil {
		return nil, nil, err
	}
	return entry, acc, nil
}

// fakeAuditRepo is an empty archive for routing tests
type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *audit.Entry) error { return nil }

func (fakeAuditRepo) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*audit.Entry, error) {
	return nil, audit.ErrEntryNotFound{TransactionID: transactionID}
}

func (fakeAuditRepo) GetByAccountID(context.Context, uuid.UUID, int, int) ([]*audit.Entry, error) {
	return nil, nil
}

func (fakeAuditRepo) CountByAccountID(context.Context, uuid.UUID) (int64, error) { return 0, nil }

// fakeOutboxRepo is an empty outbox for routing tests
type fakeOutboxRepo struct{}

func (fakeOutboxRepo) Create(context.Context, *outbox.Message) error { return nil }

func (fakeOutboxRepo) GetPending(context.Context, int) ([]*outbox.Message, error) { return nil, nil }

func (fakeOutboxRepo) UpdateStatus(context.Context, int64, shared.OutboxStatus) error { return nil }

func (fakeOutboxRepo) IncrementAttempts(context.Context, int64) error { return nil }

func (fakeOutboxRepo) GetByTransactionID(context.Context, uuid.UUID) (*outbox.Message, error) {
	return nil, outbox.ErrMessageNotFound{}
}

func (fakeOutboxRepo) WithTx(pgx.Tx) outbox.Repository { return fakeOutboxRepo{} }

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	cfg := &config.Config{
		Auth:  config.AuthConfig{JWTSecret: routerTestSecret},
		Redis: config.RedisConfig{IdempotencyTTL: time.Minute},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeRepo()
	ledgerService := service.NewLedgerService(repo)
	auditService := service.NewAuditService(repo, fakeAuditRepo{}, fakeOutboxRepo{})
	escrowHandler := handler.NewEscrowHandler(logger, ledgerService)
	auditHandler := handler.NewAuditHandler(logger, auditService)

	router := gin.New()
	setupRouter(logger, router, cfg, cache, escrowHandler, auditHandler)
	return router
}

func bearerToken(t *testing.T, ownerID string) string {
	t.Helper()
	claims := &middleware.Claims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routerTestSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_WrongVerbAnswers405(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/escrow/balance"},
		{http.MethodGet, "/escrow/deposit"},
		{http.MethodDelete, "/escrow"},
		{http.MethodPut, "/escrow/withdraw"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			req.Header.Set("Authorization", bearerToken(t, "owner-42"))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			errorInfo := body["error"].(map[string]interface{})
			assert.Equal(t, "METHOD_NOT_ALLOWED", errorInfo["code"])
		})
	}
}

func TestRouter_EscrowRoutesRequireAuth(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/escrow", "/escrow/balance", "/escrow/audit", "/escrow/audit/" + uuid.NewString()} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestRouter_AuditRoutes(t *testing.T) {
	router := setupTestRouter(t)
	token := bearerToken(t, "owner-42")

	// An owner with no account has an empty trail, not an error.
	req, _ := http.NewRequest(http.MethodGet, "/escrow/audit", nil)
	req.Header.Set("Authorization", token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])

	// A transaction ID nothing knows about answers 404.
	req, _ = http.NewRequest(http.MethodGet, "/escrow/audit/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(t, "AUDIT_ENTRY_NOT_FOUND", errorInfo["code"])
}

func TestRouter_BalanceThenDepositFlow(t *testing.T) {
	router := setupTestRouter(t)
	token := bearerToken(t, "owner-42")

	// First balance read creates the account with a zero balance.
	req, _ := http.NewRequest(http.MethodGet, "/escrow/balance", nil)
	req.Header.Set("Authorization", token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	account := body["data"].(map[string]interface{})["account"].(map[string]interface{})
	assert.Equal(t, float64(0), account["balance"])

	// Deposit 500 cents.
	req, _ = http.NewRequest(http.MethodPost, "/escrow/deposit", strings.NewReader(`{"amount":500}`))
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Balance now reflects the deposit.
	req, _ = http.NewRequest(http.MethodGet, "/escrow/balance", nil)
	req.Header.Set("Authorization", token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	account = body["data"].(map[string]interface{})["account"].(map[string]interface{})
	assert.Equal(t, float64(500), account["balance"])
}
