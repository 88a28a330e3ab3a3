package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
)

// TransferRequest is the caller's intent to move money between two accounts.
type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Currency      domain.Currency
	Description   string
}

// TransferResult is the committed outcome: the transaction, the transfer
// record, both entries and the post-commit account snapshots. Everything a
// notification needs is derived from these immutable records.
type TransferResult struct {
	Transaction domain.Transaction
	Transfer    domain.Transfer
	Entries     []domain.Entry
	FromAccount domain.Account
	ToAccount   domain.Account
}

// HistoryItem is one ledger line as seen from a single account: the owning
// transaction plus the signed amount that hit the account.
type HistoryItem struct {
	Transaction domain.Transaction
	Amount      decimal.Decimal
	Currency    domain.Currency
}

// AccountStore provides snapshot reads of account state. Snapshot reads may
// be stale by the time the atomic unit runs; the executor re-checks under
// locks.
type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// Scope is the set of operations bound to one atomic unit of work. Either
// every operation performed through a scope becomes durable together, or none
// does.
type Scope interface {
	// LockAccounts acquires exclusive locks on both accounts for the rest of
	// the unit and returns their current rows. Implementations must lock in
	// ascending id order regardless of argument order, and must fail with
	// domain.ErrContention rather than wait indefinitely.
	LockAccounts(ctx context.Context, a, b uuid.UUID) (*domain.Account, *domain.Account, error)

	// ApplyBalanceDelta adjusts one locked account's balance and returns the
	// updated row.
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*domain.Account, error)

	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	CreateTransfer(ctx context.Context, tr *domain.Transfer) error
	CreateEntry(ctx context.Context, e *domain.Entry) error

	// UpdateTransactionStatus performs the single PENDING -> terminal
	// transition.
	UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, completedAt time.Time) error
}

// Store is the persistence boundary consumed by the engine.
type Store interface {
	AccountStore

	// Atomic runs fn inside one atomic unit. A nil return from fn commits the
	// unit; any error rolls everything back and is returned unchanged.
	Atomic(ctx context.Context, fn func(s Scope) error) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactionEntries(ctx context.Context, transactionID uuid.UUID) ([]domain.Entry, error)
	ListAccountHistory(ctx context.Context, accountID uuid.UUID, limit int) ([]HistoryItem, error)
}

// Notifier consumes committed transfers. Implementations must never block the
// caller or surface errors back into the transfer path.
type Notifier interface {
	TransferCompleted(res *TransferResult)
}
