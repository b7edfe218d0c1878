// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the escrow ledger system.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/havenlet-escrow-ledger/internal/domain/escrow"
	"github.com/havenlet-escrow-ledger/internal/domain/outbox"
	"github.com/havenlet-escrow-ledger/internal/domain/shared"
	"github.com/havenlet-escrow-ledger/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// TxBeginner is the subset of pgxpool.Pool the repository needs to run
// its compound operations under one commit
type TxBeginner interface {
	persistence.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EscrowRepository implements the escrow.Repository interface for PostgreSQL.
// Compound mutations run in a single database transaction together with the
// outbox row for the resulting ledger event.
type EscrowRepository struct {
	pool       TxBeginner
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewEscrowRepository creates a new PostgreSQL escrow repository
func NewEscrowRepository(logger *slog.Logger, db *persistence.PostgresDB, outboxRepo outbox.Repository) escrow.Repository {
	return &EscrowRepository{
		pool:       db.Pool(),
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Create stores a new account. The owner uniqueness constraint turns a
// lost creation race into ErrAccountAlreadyExists so the caller can
// re-read the winning row instead of retrying the insert.
func (r *EscrowRepository) Create(ctx context.Context, acc *escrow.Account) error {
	query := `
		INSERT INTO escrow_accounts (id, owner_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		acc.ID,
		acc.OwnerID,
		acc.Balance,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return escrow.ErrAccountAlreadyExists{OwnerID: acc.OwnerID}
		}
		r.logger.Error("Failed to create escrow account", "owner_id", acc.OwnerID, "error", err)
		return fmt.Errorf("failed to create escrow account: %w", err)
	}

	return nil
}

// GetByOwner retrieves the account for an owner
func (r *EscrowRepository) GetByOwner(ctx context.Context, ownerID string) (*escrow.Account, error) {
	query := `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM escrow_accounts
		WHERE owner_id = $1
	`

	var acc escrow.Account
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&acc.ID,
		&acc.OwnerID,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, escrow.ErrAccountNotFound{OwnerID: ownerID}
		}
		r.logger.Error("Failed to get escrow account", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to get escrow account: %w", err)
	}

	return &acc, nil
}

// ListTransactions returns the account's transactions ordered newest-first.
// A non-positive limit returns the full history.
func (r *EscrowRepository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*escrow.Transaction, error) {
	query := `
		SELECT id, account_id, amount, type, status, created_at
		FROM escrow_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list escrow transactions", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list escrow transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*escrow.Transaction
	for rows.Next() {
		var tx escrow.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Amount,
			&tx.Type,
			&tx.Status,
			&tx.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan escrow transaction", "error", err)
			return nil, fmt.Errorf("failed to scan escrow transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over escrow transactions", "error", err)
		return nil, fmt.Errorf("error iterating over escrow transactions: %w", err)
	}

	return transactions, nil
}

// RecordDeposit atomically increments the owner's balance, appends a
// COMPLETED DEPOSIT transaction, and writes the outbox row for the
// resulting ledger event under one commit.
func (r *EscrowRepository) RecordDeposit(ctx context.Context, ownerID string, amount int64, correlationID string) (*escrow.Transaction, *escrow.Account, error) {
	return r.recordEntry(ctx, ownerID, amount, shared.TransactionTypeDeposit, correlationID)
}

// RecordWithdrawal atomically decrements the owner's balance and appends a
// COMPLETED WITHDRAWAL transaction. The balance check runs under a row lock
// inside the same transaction.
func (r *EscrowRepository) RecordWithdrawal(ctx context.Context, ownerID string, amount int64, correlationID string) (*escrow.Transaction, *escrow.Account, error) {
	return r.recordEntry(ctx, ownerID, amount, shared.TransactionTypeWithdrawal, correlationID)
}

func (r *EscrowRepository) recordEntry(ctx context.Context, ownerID string, amount int64, txType shared.TransactionType, correlationID string) (*escrow.Transaction, *escrow.Account, error) {
	if amount <= 0 {
		return nil, nil, escrow.ErrInvalidAmount
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction", "owner_id", ownerID, "error", err)
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	entry, acc, err := r.recordEntryInTx(ctx, tx, ownerID, amount, txType, correlationID)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Error("Failed to rollback after error", "owner_id", ownerID, "rollback_error", rbErr, "error", err)
		}
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit ledger entry", "owner_id", ownerID, "error", err)
		return nil, nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}

	return entry, acc, nil
}

func (r *EscrowRepository) recordEntryInTx(ctx context.Context, tx pgx.Tx, ownerID string, amount int64, txType shared.TransactionType, correlationID string) (*escrow.Transaction, *escrow.Account, error) {
	acc, err := r.lockByOwner(ctx, tx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	switch txType {
	case shared.TransactionTypeDeposit:
		err = acc.Deposit(amount)
	case shared.TransactionTypeWithdrawal:
		err = acc.Withdraw(amount)
	default:
		err = shared.ErrInvalidTransactionType
	}
	if err != nil {
		return nil, nil, err
	}

	updateQuery := `
		UPDATE escrow_accounts
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`
	if _, err := tx.Exec(ctx, updateQuery, acc.Balance, acc.UpdatedAt, acc.ID); err != nil {
		r.logger.Error("Failed to update escrow balance", "account_id", acc.ID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to update escrow balance: %w", err)
	}

	entry, err := escrow.NewTransaction(acc.ID, txType, amount)
	if err != nil {
		return nil, nil, err
	}

	insertQuery := `
		INSERT INTO escrow_transactions (id, account_id, amount, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, insertQuery,
		entry.ID,
		entry.AccountID,
		entry.Amount,
		entry.Type,
		entry.Status,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append escrow transaction", "account_id", acc.ID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to append escrow transaction: %w", err)
	}

	event := &shared.LedgerEvent{
		TransactionID: entry.ID,
		AccountID:     acc.ID,
		OwnerID:       acc.OwnerID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		Status:        entry.Status,
		BalanceAfter:  acc.Balance,
		CorrelationID: correlationID,
		OccurredAt:    entry.CreatedAt,
	}

	msg, err := outbox.NewMessage(event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build outbox message: %w", err)
	}

	if err := r.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		return nil, nil, err
	}

	return entry, acc, nil
}

// lockByOwner obtains a pessimistic lock on the owner's account and returns
// its current state. Must be called within a transaction.
func (r *EscrowRepository) lockByOwner(ctx context.Context, q persistence.Querier, ownerID string) (*escrow.Account, error) {
	query := `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM escrow_accounts
		WHERE owner_id = $1
		FOR UPDATE
	`

	var acc escrow.Account
	err := q.QueryRow(ctx, query, ownerID).Scan(
		&acc.ID,
		&acc.OwnerID,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, escrow.ErrAccountNotFound{OwnerID: ownerID}
		}
		r.logger.Error("Failed to lock escrow account", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to lock escrow account: %w", err)
	}

	return &acc, nil
}
