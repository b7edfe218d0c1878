package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/havenlet-escrow-ledger/internal/api/middleware"
	"github.com/havenlet-escrow-ledger/internal/api/service"
	"github.com/havenlet-escrow-ledger/internal/domain/audit"
)

const (
	// defaultAuditPageSize applies when the caller sends no limit
	defaultAuditPageSize = 50
	// maxAuditPageSize caps a single trail page
	maxAuditPageSize = 200
)

// AuditHandler handles HTTP requests for the owner's audit trail. Like the
// escrow handler, the owner identity always comes from the authenticated
// token.
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// GetTrail returns a page of the owner's archived entries, newest first.
// An owner with no account gets an empty trail, not an error.
func (h *AuditHandler) GetTrail(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var params AuditTrailParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}
	if params.Limit <= 0 {
		params.Limit = defaultAuditPageSize
	}
	if params.Limit > maxAuditPageSize {
		params.Limit = maxAuditPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	entries, total, err := h.auditService.GetAuditTrail(c.Request.Context(), ownerID, params.Limit, params.Offset)
	if err != nil {
		h.logger.Error("Failed to read audit trail", "owner_id", ownerID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, AuditTrailResponse{
		Entries: mapAuditEntriesToResponse(entries),
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
}

// GetByTransactionID resolves the archive state of one of the owner's
// transactions. A transaction that exists but has not been archived yet
// answers with a null entry and its publish status.
func (h *AuditHandler) GetByTransactionID(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	idParam := c.Param("transaction_id")
	transactionID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "transaction_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	result, err := h.auditService.GetTransactionAudit(c.Request.Context(), ownerID, transactionID)
	if err != nil {
		if errors.Is(err, audit.ErrEntryNotFound{}) {
			RespondAuditEntryNotFound(c)
			return
		}
		h.logger.Error("Failed to read transaction audit", "owner_id", ownerID, "transaction_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	response := TransactionAuditResponse{
		PublishStatus: string(result.PublishStatus),
	}
	if result.Entry != nil {
		entryResponse := mapAuditEntryToResponse(result.Entry)
		response.Entry = &entryResponse
	}

	RespondOK(c, response)
}

// mapAuditEntryToResponse maps an audit entry to a response DTO
func mapAuditEntryToResponse(entry *audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		TransactionID: entry.TransactionID.String(),
		AccountID:     entry.AccountID.String(),
		Type:          string(entry.Type),
		Amount:        entry.Amount,
		Status:        string(entry.Status),
		BalanceAfter:  entry.BalanceAfter,
		CorrelationID: entry.CorrelationID,
		OccurredAt:    entry.OccurredAt.Format(time.RFC3339),
		RecordedAt:    entry.RecordedAt.Format(time.RFC3339),
	}
}

// mapAuditEntriesToResponse always returns a non-nil slice so an empty trail
// serializes as [] rather than null
func mapAuditEntriesToResponse(entries []*audit.Entry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapAuditEntryToResponse(entry))
	}
	return responses
}
