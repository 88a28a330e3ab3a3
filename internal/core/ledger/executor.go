package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
)

// Executor performs a funds transfer as one atomic unit of work: double-entry
// ledger records plus both balance mutations commit together or not at all.
// After the commit it hands the result to the notifier; from that point the
// transfer is irrevocably successful regardless of notification outcomes.
type Executor struct {
	store     Store
	validator *Validator
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewExecutor(store Store, notifier Notifier, log *zap.Logger) *Executor {
	return &Executor{
		store:     store,
		validator: NewValidator(store),
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

func (e *Executor) ExecuteTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	intent, err := e.validator.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	req = intent.Request

	var res TransferResult
	err = e.store.Atomic(ctx, func(s Scope) error {
		from, to, err := s.LockAccounts(ctx, req.FromAccountID, req.ToAccountID)
		if err != nil {
			return err
		}

		// The snapshot the validator saw may be stale by now; repeat every
		// check against the locked rows.
		if err := checkTransfer(req, from, to); err != nil {
			return err
		}

		now := e.now().UTC()
		tx := domain.Transaction{
			ID:          uuid.New(),
			Type:        domain.TypeTransfer,
			Status:      domain.StatusPending,
			Description: req.Description,
			InitiatedAt: now,
			CreatedAt:   now,
		}
		if err := s.CreateTransaction(ctx, &tx); err != nil {
			return err
		}

		tr := domain.Transfer{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Amount:        req.Amount,
			Currency:      req.Currency,
			CreatedAt:     now,
		}
		if err := s.CreateTransfer(ctx, &tr); err != nil {
			return err
		}

		debit := domain.Entry{
			ID:            uuid.New(),
			AccountID:     from.ID,
			TransactionID: tx.ID,
			Amount:        req.Amount.Neg(),
			Currency:      req.Currency,
			CreatedAt:     now,
		}
		credit := domain.Entry{
			ID:            uuid.New(),
			AccountID:     to.ID,
			TransactionID: tx.ID,
			Amount:        req.Amount,
			Currency:      req.Currency,
			CreatedAt:     now,
		}
		if err := s.CreateEntry(ctx, &debit); err != nil {
			return err
		}
		if err := s.CreateEntry(ctx, &credit); err != nil {
			return err
		}

		fromAfter, err := s.ApplyBalanceDelta(ctx, from.ID, req.Amount.Neg())
		if err != nil {
			return err
		}
		toAfter, err := s.ApplyBalanceDelta(ctx, to.ID, req.Amount)
		if err != nil {
			return err
		}

		completedAt := e.now().UTC()
		if err := s.UpdateTransactionStatus(ctx, tx.ID, domain.StatusCompleted, completedAt); err != nil {
			return err
		}
		tx.Status = domain.StatusCompleted
		tx.CompletedAt = &completedAt

		res = TransferResult{
			Transaction: tx,
			Transfer:    tr,
			Entries:     []domain.Entry{debit, credit},
			FromAccount: *fromAfter,
			ToAccount:   *toAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("transfer completed",
		zap.String("transaction_id", res.Transaction.ID.String()),
		zap.String("from_account", res.FromAccount.ID.String()),
		zap.String("to_account", res.ToAccount.ID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", string(req.Currency)),
	)

	if e.notifier != nil {
		e.notifier.TransferCompleted(&res)
	}
	return &res, nil
}
