package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

// ISO 4217 codes accepted by the ledger.
const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	SGD Currency = "SGD"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
)

func (c Currency) Valid() bool {
	switch c {
	case INR, USD, EUR, GBP, JPY, AUD, CAD, SGD, CHF, CNY:
		return true
	}
	return false
}

// Money is an exact decimal amount in a single currency. Balances and entry
// amounts never touch floating point.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// MoneyFromString parses a decimal string such as "30.00".
func MoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + string(m.Currency)
}
