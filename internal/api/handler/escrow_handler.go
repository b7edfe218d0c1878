package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/havenlet-escrow-ledger/internal/api/middleware"
	"github.com/havenlet-escrow-ledger/internal/api/service"
	"github.com/havenlet-escrow-ledger/internal/domain/escrow"
)

// recentTransactionLimit caps the history returned by the balance read
const recentTransactionLimit = 10

// EscrowHandler handles HTTP requests for escrow ledger operations.
// The owner identity always comes from the authenticated token; it is never
// taken from the request body or URL.
type EscrowHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewEscrowHandler creates a new escrow handler
func NewEscrowHandler(logger *slog.Logger, ledgerService service.LedgerService) *EscrowHandler {
	return &EscrowHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// GetBalance returns the owner's account with its most recent transactions,
// creating an empty account on first read
func (h *EscrowHandler) GetBalance(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	acc, transactions, err := h.ledgerService.GetOrCreateAccount(c.Request.Context(), ownerID, recentTransactionLimit)
	if err != nil {
		h.logger.Error("Failed to read escrow balance", "owner_id", ownerID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalanceResponse{
		Account:            mapAccountToResponse(acc),
		RecentTransactions: mapTransactionsToResponse(transactions),
	})
}

// GetAccount returns the owner's account with its full transaction history.
// An owner with no account gets a null account, not an error, and no account
// is created on this path.
func (h *EscrowHandler) GetAccount(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	acc, transactions, err := h.ledgerService.GetAccount(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("Failed to read escrow account", "owner_id", ownerID, "error", err)
		RespondInternalError(c)
		return
	}

	response := AccountDetailResponse{
		Transactions: mapTransactionsToResponse(transactions),
	}
	if acc != nil {
		accountResponse := mapAccountToResponse(acc)
		response.Account = &accountResponse
	}

	RespondOK(c, response)
}

// Deposit credits the owner's escrow account
func (h *EscrowHandler) Deposit(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entry, acc, err := h.ledgerService.Deposit(c.Request.Context(), ownerID, req.Amount, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondDepositError(c, ownerID, err)
		return
	}

	RespondOK(c, EntryResponse{
		Transaction: mapTransactionToResponse(entry),
		Balance:     acc.Balance,
	})
}

// Withdraw debits the owner's escrow account
func (h *EscrowHandler) Withdraw(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entry, acc, err := h.ledgerService.Withdraw(c.Request.Context(), ownerID, req.Amount, middleware.GetCorrelationID(c))
	if err != nil {
		if errors.Is(err, escrow.ErrInsufficientFunds) {
			RespondInsufficientFunds(c)
			return
		}
		h.respondDepositError(c, ownerID, err)
		return
	}

	RespondOK(c, EntryResponse{
		Transaction: mapTransactionToResponse(entry),
		Balance:     acc.Balance,
	})
}

// respondDepositError maps the failure modes shared by deposits and
// withdrawals to their API representations
func (h *EscrowHandler) respondDepositError(c *gin.Context, ownerID string, err error) {
	if errors.Is(err, escrow.ErrInvalidAmount) {
		RespondInvalidAmount(c)
		return
	}
	if errors.Is(err, escrow.ErrAccountNotFound{}) {
		RespondAccountNotFound(c)
		return
	}
	h.logger.Error("Failed to record escrow entry", "owner_id", ownerID, "error", err)
	RespondInternalError(c)
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *escrow.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		OwnerID:   acc.OwnerID,
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

// mapTransactionToResponse maps a transaction entity to a response DTO
func mapTransactionToResponse(tx *escrow.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        tx.ID.String(),
		AccountID: tx.AccountID.String(),
		Amount:    tx.Amount,
		Type:      string(tx.Type),
		Status:    string(tx.Status),
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
	}
}

// mapTransactionsToResponse always returns a non-nil slice so empty history
// serializes as [] rather than null
func mapTransactionsToResponse(transactions []*escrow.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		responses = append(responses, mapTransactionToResponse(tx))
	}
	return responses
}
