package handler

// AmountRequest carries the amount (in cents) for deposits and withdrawals.
// Amount validation happens in the domain so a non-positive value maps to
// INVALID_AMOUNT instead of a generic binding error.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// AccountResponse represents an escrow account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// BalanceResponse is returned by the balance read: the account plus its most
// recent transactions, newest first
type BalanceResponse struct {
	Account            AccountResponse       `json:"account"`
	RecentTransactions []TransactionResponse `json:"recent_transactions"`
}

// AccountDetailResponse is returned by the full account read. Account is nil
// when the owner has no escrow account yet.
type AccountDetailResponse struct {
	Account      *AccountResponse      `json:"account"`
	Transactions []TransactionResponse `json:"transactions"`
}

// EntryResponse is returned by deposit and withdrawal operations: the
// appended transaction plus the resulting balance
type EntryResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     int64               `json:"balance"`
}

// AuditTrailParams carries pagination for the audit trail read
type AuditTrailParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// AuditEntryResponse represents an archived transaction in API responses
type AuditEntryResponse struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	BalanceAfter  int64  `json:"balance_after"`
	CorrelationID string `json:"correlation_id,omitempty"`
	OccurredAt    string `json:"occurred_at"`
	RecordedAt    string `json:"recorded_at"`
}

// AuditTrailResponse is a page of the owner's archived entries plus the
// total count for pagination
type AuditTrailResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// TransactionAuditResponse reports the archive state of one transaction.
// Entry is null while the event is still in flight; publish_status then
// reports how far the outbox has taken it.
type TransactionAuditResponse struct {
	Entry         *AuditEntryResponse `json:"entry"`
	PublishStatus string              `json:"publish_status"`
}
