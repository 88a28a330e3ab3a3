package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
	TypePayment    TransactionType = "PAYMENT"
	TypeFee        TransactionType = "FEE"
	TypeInterest   TransactionType = "INTEREST"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusCanceled   TransactionStatus = "CANCELED"
)

// Transaction is the financial record of one movement of money. It is created
// PENDING, transitions once to a terminal status, and is immutable after that.
type Transaction struct {
	ID          uuid.UUID
	Type        TransactionType
	Status      TransactionStatus
	Description string
	InitiatedAt time.Time
	CompletedAt *time.Time // nil until the status is terminal
	CreatedAt   time.Time
}

// Entry is one signed line item against a single account. A transfer always
// produces exactly two: a negative debit on the source and a positive credit
// on the destination, summing to zero.
type Entry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Currency      Currency
	CreatedAt     time.Time
}

// Transfer links a transaction 1:1 to the pair of accounts it moved money
// between. Amount is always positive.
type Transfer struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Currency      Currency
	CreatedAt     time.Time
}
