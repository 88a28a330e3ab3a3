package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

const accountColumns = `id, account_number, owner_name, owner_email, owner_phone,
	balance, currency_code, status, version, created_at`

// Store is the Postgres implementation of the ledger's persistence boundary.
// Atomic units run in one database transaction; both account rows are locked
// with FOR UPDATE in ascending id order, bounded by lock_timeout so a unit
// never waits indefinitely.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &Store{pool: pool, lockTimeout: lockTimeout}
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row, "get account")
}

// Atomic runs fn inside one database transaction. fn errors roll everything
// back and pass through unchanged; begin/commit failures surface as
// PersistenceError.
func (s *Store) Atomic(ctx context.Context, fn func(sc ledger.Scope) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		return &domain.PersistenceError{Op: "set lock timeout", Err: err}
	}

	if err := fn(&scope{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError("commit", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.pool.QueryRow(ctx, `
		SELECT id, type, status, description, initiated_at, completed_at, created_at
		FROM transactions WHERE id = $1`, id).
		Scan(&t.ID, &t.Type, &t.Status, &t.Description, &t.InitiatedAt, &t.CompletedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get transaction", Err: err}
	}
	return &t, nil
}

func (s *Store) ListTransactionEntries(ctx context.Context, transactionID uuid.UUID) ([]domain.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, transaction_id, amount, currency_code, created_at
		FROM entries WHERE transaction_id = $1 ORDER BY amount`, transactionID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list entries", Err: err}
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.TransactionID, &e.Amount, &e.Currency, &e.CreatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scan entry", Err: err}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ListAccountHistory(ctx context.Context, accountID uuid.UUID, limit int) ([]ledger.HistoryItem, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.type, t.status, t.description, t.initiated_at, t.completed_at, t.created_at,
		       e.amount, e.currency_code
		FROM entries e
		JOIN transactions t ON e.transaction_id = t.id
		WHERE e.account_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list history", Err: err}
	}
	defer rows.Close()

	var items []ledger.HistoryItem
	for rows.Next() {
		var it ledger.HistoryItem
		if err := rows.Scan(
			&it.Transaction.ID, &it.Transaction.Type, &it.Transaction.Status,
			&it.Transaction.Description, &it.Transaction.InitiatedAt,
			&it.Transaction.CompletedAt, &it.Transaction.CreatedAt,
			&it.Amount, &it.Currency,
		); err != nil {
			return nil, &domain.PersistenceError{Op: "scan history", Err: err}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// scope binds the ledger operations to one open transaction.
type scope struct {
	tx pgx.Tx
}

func (sc *scope) LockAccounts(ctx context.Context, a, b uuid.UUID) (*domain.Account, *domain.Account, error) {
	// Fixed global order: lower id first, so two concurrent transfers over
	// the same pair can never deadlock.
	first, second := a, b
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	firstAcc, err := sc.lockAccount(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	secondAcc, err := sc.lockAccount(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if first == a {
		return firstAcc, secondAcc, nil
	}
	return secondAcc, firstAcc, nil
}

func (sc *scope) lockAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := sc.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row, "lock account")
}

func (sc *scope) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	row := sc.tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1
		WHERE id = $2
		RETURNING `+accountColumns, delta, id)
	return scanAccount(row, "apply balance delta")
}

func (sc *scope) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := sc.tx.Exec(ctx, `
		INSERT INTO transactions (id, type, status, description, initiated_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Type, t.Status, t.Description, t.InitiatedAt, t.CompletedAt, t.CreatedAt)
	if err != nil {
		return mapError("create transaction", err)
	}
	return nil
}

func (sc *scope) CreateTransfer(ctx context.Context, tr *domain.Transfer) error {
	_, err := sc.tx.Exec(ctx, `
		INSERT INTO transfers (id, transaction_id, from_account_id, to_account_id, amount, currency_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tr.ID, tr.TransactionID, tr.FromAccountID, tr.ToAccountID, tr.Amount, tr.Currency, tr.CreatedAt)
	if err != nil {
		return mapError("create transfer", err)
	}
	return nil
}

func (sc *scope) CreateEntry(ctx context.Context, e *domain.Entry) error {
	_, err := sc.tx.Exec(ctx, `
		INSERT INTO entries (id, account_id, transaction_id, amount, currency_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AccountID, e.TransactionID, e.Amount, e.Currency, e.CreatedAt)
	if err != nil {
		return mapError("create entry", err)
	}
	return nil
}

func (sc *scope) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, completedAt time.Time) error {
	ct, err := sc.tx.Exec(ctx, `
		UPDATE transactions SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4`,
		id, status, completedAt, domain.StatusPending)
	if err != nil {
		return mapError("update transaction status", err)
	}
	if ct.RowsAffected() == 0 {
		return &domain.PersistenceError{
			Op:  "update transaction status",
			Err: fmt.Errorf("transaction %s is not pending", id),
		}
	}
	return nil
}

func scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Number, &a.OwnerName, &a.OwnerEmail, &a.OwnerPhone,
		&a.Balance, &a.Currency, &a.Status, &a.Version, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, mapError(op, err)
	}
	return &a, nil
}

// Postgres error codes that mean the unit lost a race rather than failed:
// lock_not_available, serialization_failure, deadlock_detected.
var contentionCodes = map[string]bool{
	"55P03": true,
	"40001": true,
	"40P01": true,
}

func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && contentionCodes[pgErr.Code] {
		return fmt.Errorf("%s: %w", op, domain.ErrContention)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrContention)
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
