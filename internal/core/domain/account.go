package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
	AccountClosed   AccountStatus = "CLOSED"
	AccountFrozen   AccountStatus = "FROZEN"
)

// Account is a customer account. The ledger engine never creates or destroys
// accounts; the balance is mutated only inside the executor's atomic unit.
type Account struct {
	ID         uuid.UUID
	Number     string // human-facing account number
	OwnerName  string
	OwnerEmail string // empty when the owner registered no address
	OwnerPhone string // E.164 when present
	Balance    decimal.Decimal
	Currency   Currency
	Status     AccountStatus
	Version    int64 // bumped on every balance write
	CreatedAt  time.Time
}

func (a *Account) Active() bool {
	return a.Status == AccountActive
}
