package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenlet-escrow-ledger/internal/api/middleware"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondInvalidAmount sends a 400 response for non-positive amounts
func RespondInvalidAmount(c *gin.Context) {
	RespondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive number of cents")
}

// RespondInsufficientFunds sends a 400 response when a withdrawal exceeds the balance
func RespondInsufficientFunds(c *gin.Context) {
	RespondWithError(c, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Balance cannot cover the requested amount")
}

// RespondUnauthorized sends a 401 Unauthorized response with an error
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// RespondAccountNotFound sends a 404 response when the owner has no escrow account
func RespondAccountNotFound(c *gin.Context) {
	RespondWithError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "No escrow account exists for this owner")
}

// RespondAuditEntryNotFound sends a 404 response when a transaction has no
// visible audit record for this owner
func RespondAuditEntryNotFound(c *gin.Context) {
	RespondWithError(c, http.StatusNotFound, "AUDIT_ENTRY_NOT_FOUND", "No audit record exists for this transaction")
}

// RespondMethodNotAllowed sends a 405 response for wrong-verb requests
func RespondMethodNotAllowed(c *gin.Context) {
	RespondWithError(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed on this route")
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
