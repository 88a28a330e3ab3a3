package ledger

import (
	"context"
	"fmt"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
)

// Intent is a transfer request that passed validation against account
// snapshots, with the description defaulted. The snapshots may be stale; the
// executor repeats every check under locks before committing anything.
type Intent struct {
	Request TransferRequest
	From    domain.Account
	To      domain.Account
}

// Validator checks transfer preconditions against current account state.
type Validator struct {
	accounts AccountStore
}

func NewValidator(accounts AccountStore) *Validator {
	return &Validator{accounts: accounts}
}

func (v *Validator) Validate(ctx context.Context, req TransferRequest) (*Intent, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.Currency.Valid() {
		return nil, fmt.Errorf("%w: unknown currency %q", domain.ErrCurrencyMismatch, req.Currency)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	from, err := v.accounts.GetAccount(ctx, req.FromAccountID)
	if err != nil {
		return nil, fmt.Errorf("source account %s: %w", req.FromAccountID, err)
	}
	to, err := v.accounts.GetAccount(ctx, req.ToAccountID)
	if err != nil {
		return nil, fmt.Errorf("destination account %s: %w", req.ToAccountID, err)
	}

	if err := checkTransfer(req, from, to); err != nil {
		return nil, err
	}

	if req.Description == "" {
		req.Description = fmt.Sprintf("Transfer from %s to %s", from.Number, to.Number)
	}

	return &Intent{Request: req, From: *from, To: *to}, nil
}

// checkTransfer holds the precondition checks shared by the snapshot
// validation and the executor's re-validation under locks.
func checkTransfer(req TransferRequest, from, to *domain.Account) error {
	if !from.Active() {
		return fmt.Errorf("source account %s: %w", from.ID, domain.ErrAccountNotActive)
	}
	if !to.Active() {
		return fmt.Errorf("destination account %s: %w", to.ID, domain.ErrAccountNotActive)
	}
	if from.Currency != to.Currency {
		return fmt.Errorf("%w: source is %s, destination is %s", domain.ErrCurrencyMismatch, from.Currency, to.Currency)
	}
	if from.Currency != req.Currency {
		return fmt.Errorf("%w: accounts hold %s, request is %s", domain.ErrCurrencyMismatch, from.Currency, req.Currency)
	}
	if from.Balance.LessThan(req.Amount) {
		return fmt.Errorf("account %s: %w", from.ID, domain.ErrInsufficientFunds)
	}
	return nil
}
