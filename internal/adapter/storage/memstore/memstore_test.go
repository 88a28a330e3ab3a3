package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

func newAccount(balance string) domain.Account {
	return domain.Account{
		ID:       uuid.New(),
		Number:   "ORB" + uuid.NewString()[:10],
		Balance:  decimal.RequireFromString(balance),
		Currency: domain.USD,
		Status:   domain.AccountActive,
	}
}

func TestAtomicRollsBackOnError(t *testing.T) {
	store := New()
	a := newAccount("100.00")
	b := newAccount("50.00")
	store.PutAccount(a)
	store.PutAccount(b)

	boom := errors.New("boom")
	err := store.Atomic(context.Background(), func(sc ledger.Scope) error {
		if _, _, err := sc.LockAccounts(context.Background(), a.ID, b.ID); err != nil {
			return err
		}
		if _, err := sc.ApplyBalanceDelta(context.Background(), a.ID, decimal.RequireFromString("-30.00")); err != nil {
			return err
		}
		if err := sc.CreateTransaction(context.Background(), &domain.Transaction{
			ID:     uuid.New(),
			Type:   domain.TypeTransfer,
			Status: domain.StatusPending,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing staged became visible.
	acc, err := store.GetAccount(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", acc.Balance.StringFixed(2))
	assert.Zero(t, store.TransactionCount())
}

func TestAtomicCommitsStagedWrites(t *testing.T) {
	store := New()
	a := newAccount("100.00")
	store.PutAccount(a)

	txID := uuid.New()
	err := store.Atomic(context.Background(), func(sc ledger.Scope) error {
		now := time.Now().UTC()
		if err := sc.CreateTransaction(context.Background(), &domain.Transaction{
			ID:          txID,
			Type:        domain.TypeTransfer,
			Status:      domain.StatusPending,
			InitiatedAt: now,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return sc.UpdateTransactionStatus(context.Background(), txID, domain.StatusCompleted, now)
	})
	require.NoError(t, err)

	tx, err := store.GetTransaction(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, tx.Status)
	require.NotNil(t, tx.CompletedAt)
}

func TestListAccountHistoryOrderAndLimit(t *testing.T) {
	store := New()
	a := newAccount("0.00")
	store.PutAccount(a)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		txID := uuid.New()
		created := base.Add(time.Duration(i) * time.Second)
		err := store.Atomic(context.Background(), func(sc ledger.Scope) error {
			if err := sc.CreateTransaction(context.Background(), &domain.Transaction{
				ID:          txID,
				Type:        domain.TypeTransfer,
				Status:      domain.StatusPending,
				InitiatedAt: created,
				CreatedAt:   created,
			}); err != nil {
				return err
			}
			if err := sc.CreateEntry(context.Background(), &domain.Entry{
				ID:            uuid.New(),
				AccountID:     a.ID,
				TransactionID: txID,
				Amount:        decimal.NewFromInt(int64(i + 1)),
				Currency:      domain.USD,
				CreatedAt:     created,
			}); err != nil {
				return err
			}
			return sc.UpdateTransactionStatus(context.Background(), txID, domain.StatusCompleted, created)
		})
		require.NoError(t, err)
	}

	items, err := store.ListAccountHistory(context.Background(), a.ID, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// Most recent first.
	assert.Equal(t, "5", items[0].Amount.String())
	assert.Equal(t, "4", items[1].Amount.String())
	assert.Equal(t, "3", items[2].Amount.String())
}

func TestPutAccountWaitsForInFlightUnit(t *testing.T) {
	store := New()
	a := newAccount("100.00")
	b := newAccount("50.00")
	store.PutAccount(a)
	store.PutAccount(b)

	locked := make(chan struct{})
	proceed := make(chan struct{})
	unitDone := make(chan struct{})
	putDone := make(chan struct{})

	go func() {
		defer close(unitDone)
		_ = store.Atomic(context.Background(), func(sc ledger.Scope) error {
			if _, _, err := sc.LockAccounts(context.Background(), a.ID, b.ID); err != nil {
				return err
			}
			close(locked)
			if _, err := sc.ApplyBalanceDelta(context.Background(), a.ID, decimal.RequireFromString("-30.00")); err != nil {
				return err
			}
			<-proceed
			return nil
		})
	}()

	<-locked
	go func() {
		reseeded := a
		reseeded.Balance = decimal.RequireFromString("999.00")
		store.PutAccount(reseeded)
		close(putDone)
	}()

	// The replace must block behind the unit's account lock.
	select {
	case <-putDone:
		t.Fatal("PutAccount replaced an account held by an in-flight unit")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	<-unitDone
	<-putDone

	// The unit committed first, then the replace landed on the same slot.
	acc, err := store.GetAccount(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "999.00", acc.Balance.StringFixed(2))
}

func TestGetAccountUnknown(t *testing.T) {
	store := New()
	_, err := store.GetAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
