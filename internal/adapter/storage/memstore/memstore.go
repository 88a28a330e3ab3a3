// Package memstore is an in-memory implementation of the ledger's persistence
// boundary. It mirrors the Postgres store's concurrency discipline — both
// account locks taken in ascending id order, acquire bounded by a timeout —
// so the engine's serialization properties hold and are testable without a
// database.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

type accountSlot struct {
	mu  sync.Mutex
	acc domain.Account
}

type Store struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*accountSlot
	transactions map[uuid.UUID]domain.Transaction
	transfers    map[uuid.UUID]domain.Transfer
	entries      []domain.Entry

	lockTimeout time.Duration
}

func New() *Store {
	return &Store{
		accounts:     make(map[uuid.UUID]*accountSlot),
		transactions: make(map[uuid.UUID]domain.Transaction),
		transfers:    make(map[uuid.UUID]domain.Transfer),
		lockTimeout:  3 * time.Second,
	}
}

// PutAccount inserts or replaces an account. Seeding only; the engine never
// creates accounts. Slots are never swapped once created: a replace mutates
// the existing slot under its lock, so it waits out any in-flight unit
// holding the account instead of racing its commit.
func (s *Store) PutAccount(acc domain.Account) {
	s.mu.Lock()
	slot, ok := s.accounts[acc.ID]
	if !ok {
		s.accounts[acc.ID] = &accountSlot{acc: acc}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Same order as a committing unit: slot lock first, then the store lock
	// that guards readers of slot.acc.
	slot.mu.Lock()
	s.mu.Lock()
	slot.acc = acc
	s.mu.Unlock()
	slot.mu.Unlock()
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acc := slot.acc
	return &acc, nil
}

func (s *Store) Atomic(ctx context.Context, fn func(sc ledger.Scope) error) error {
	sc := &scope{store: s, working: make(map[uuid.UUID]*domain.Account)}
	defer sc.unlock()

	if err := fn(sc); err != nil {
		return err
	}
	sc.commit()
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (s *Store) ListTransactionEntries(_ context.Context, transactionID uuid.UUID) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Entry
	for _, e := range s.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListAccountHistory(_ context.Context, accountID uuid.UUID, limit int) ([]ledger.HistoryItem, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []ledger.HistoryItem
	for _, e := range s.entries {
		if e.AccountID != accountID {
			continue
		}
		items = append(items, ledger.HistoryItem{
			Transaction: s.transactions[e.TransactionID],
			Amount:      e.Amount,
			Currency:    e.Currency,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Transaction.CreatedAt.After(items[j].Transaction.CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// TransactionCount reports how many transactions are visible. Test helper.
func (s *Store) TransactionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// scope stages all writes and applies them only when the unit commits. Locked
// account slots are held until the unit finishes either way.
type scope struct {
	store   *Store
	locked  []*accountSlot
	working map[uuid.UUID]*domain.Account

	stagedTransactions []domain.Transaction
	stagedTransfers    []domain.Transfer
	stagedEntries      []domain.Entry
}

func (sc *scope) LockAccounts(ctx context.Context, a, b uuid.UUID) (*domain.Account, *domain.Account, error) {
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
	sc.store.mu.RLock()
	slot, ok := sc.store.accounts[id]
	sc.store.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	deadline := time.Now().Add(sc.store.lockTimeout)
	for !slot.mu.TryLock() {
		if time.Now().After(deadline) {
			return nil, domain.ErrContention
		}
		select {
		case <-ctx.Done():
			return nil, domain.ErrContention
		case <-time.After(time.Millisecond):
		}
	}
	sc.locked = append(sc.locked, slot)

	acc := slot.acc
	sc.working[id] = &acc
	out := acc
	return &out, nil
}

func (sc *scope) ApplyBalanceDelta(_ context.Context, id uuid.UUID, delta decimal.Decimal) (*domain.Account, error) {
	acc, ok := sc.working[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.Version++
	out := *acc
	return &out, nil
}

func (sc *scope) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	sc.stagedTransactions = append(sc.stagedTransactions, *t)
	return nil
}

func (sc *scope) CreateTransfer(_ context.Context, tr *domain.Transfer) error {
	sc.stagedTransfers = append(sc.stagedTransfers, *tr)
	return nil
}

func (sc *scope) CreateEntry(_ context.Context, e *domain.Entry) error {
	sc.stagedEntries = append(sc.stagedEntries, *e)
	return nil
}

func (sc *scope) UpdateTransactionStatus(_ context.Context, id uuid.UUID, status domain.TransactionStatus, completedAt time.Time) error {
	for i := range sc.stagedTransactions {
		if sc.stagedTransactions[i].ID != id {
			continue
		}
		if sc.stagedTransactions[i].Status != domain.StatusPending {
			return &domain.PersistenceError{Op: "update transaction status", Err: domain.ErrTransactionNotFound}
		}
		sc.stagedTransactions[i].Status = status
		at := completedAt
		sc.stagedTransactions[i].CompletedAt = &at
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (sc *scope) commit() {
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()

	for _, t := range sc.stagedTransactions {
		sc.store.transactions[t.ID] = t
	}
	for _, tr := range sc.stagedTransfers {
		sc.store.transfers[tr.ID] = tr
	}
	sc.store.entries = append(sc.store.entries, sc.stagedEntries...)
	for id, acc := range sc.working {
		sc.store.accounts[id].acc = *acc
	}
}

func (sc *scope) unlock() {
	for _, slot := range sc.locked {
		slot.mu.Unlock()
	}
	sc.locked = nil
}
