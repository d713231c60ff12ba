// Package ledger owns the per-user transaction ledgers.
//
// A Store is built once per process and passed to whoever needs it. State is
// kept in memory only. Each user has an account guarded by its own mutex, so
// commands from one user are serialized while different users never wait on
// each other.
package ledger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finbot/internal/core"
)

type Store struct {
	accounts sync.Map // int64 -> *account
	users    atomic.Int64
	now      func() time.Time
	newID    func() string
}

type account struct {
	mu           sync.Mutex
	transactions []core.Transaction
	limit        *decimal.Decimal
	revision     uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString for transaction IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// account returns the user's account, creating it atomically on first use.
func (s *Store) account(userID int64) *account {
	if v, ok := s.accounts.Load(userID); ok {
		return v.(*account)
	}
	v, loaded := s.accounts.LoadOrStore(userID, &account{})
	if !loaded {
		s.users.Add(1)
	}
	return v.(*account)
}

// GetOrCreate returns a snapshot of the user's ledger, creating an empty one
// on first contact.
func (s *Store) GetOrCreate(userID int64) core.Ledger {
	a := s.account(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// Append validates e and records it. An expense that would push the total of
// all recorded expenses past the limit is refused with core.ErrLimitExceeded.
//
// Every mutation returns the ledger revision it committed, so consumers of
// the resulting events can order them per user.
func (s *Store) Append(userID int64, e core.Entry) (core.Transaction, uint64, error) {
	if err := e.Validate(); err != nil {
		return core.Transaction{}, 0, err
	}
	a := s.account(userID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if e.Kind == core.Expense && a.limit != nil {
		if core.WouldExceed(core.ExpenseTotal(a.transactions), e.Amount, *a.limit) {
			return core.Transaction{}, 0, core.ErrLimitExceeded
		}
	}

	t := core.Transaction{
		ID:        s.newID(),
		Kind:      e.Kind,
		Category:  e.Category,
		Amount:    e.Amount,
		Timestamp: s.now(),
	}
	a.transactions = append(a.transactions, t)
	a.revision++
	return t, a.revision, nil
}

// Update replaces the transaction at index in place and re-stamps it. The ID
// is kept. The spending limit is not re-checked.
func (s *Store) Update(userID int64, index int, e core.Entry) (core.Transaction, uint64, error) {
	if err := e.Validate(); err != nil {
		return core.Transaction{}, 0, err
	}
	a := s.account(userID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if index < 0 || index >= len(a.transactions) {
		return core.Transaction{}, 0, core.IndexError(index, len(a.transactions))
	}
	t := core.Transaction{
		ID:        a.transactions[index].ID,
		Kind:      e.Kind,
		Category:  e.Category,
		Amount:    e.Amount,
		Timestamp: s.now(),
	}
	a.transactions[index] = t
	a.revision++
	return t, a.revision, nil
}

// Delete removes the transaction at index; later entries shift down by one.
func (s *Store) Delete(userID int64, index int) (core.Transaction, uint64, error) {
	a := s.account(userID)
	a.mu.Lock()
	defer a.mu.Unlock()

	if index < 0 || index >= len(a.transactions) {
		return core.Transaction{}, 0, core.IndexError(index, len(a.transactions))
	}
	removed := a.transactions[index]
	a.transactions = append(a.transactions[:index], a.transactions[index+1:]...)
	a.revision++
	return removed, a.revision, nil
}

// List returns a copy of the user's transactions in insertion order.
func (s *Store) List(userID int64) []core.Transaction {
	return s.GetOrCreate(userID).Transactions
}

// SetLimit overwrites the user's spending limit.
func (s *Store) SetLimit(userID int64, limit decimal.Decimal) (uint64, error) {
	if limit.IsNegative() {
		return 0, core.ErrNegativeLimit
	}
	a := s.account(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limit = &limit
	a.revision++
	return a.revision, nil
}

// ClearLimit removes the user's spending limit, if any. Clearing an unset
// limit leaves the revision unchanged.
func (s *Store) ClearLimit(userID int64) uint64 {
	a := s.account(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limit != nil {
		a.limit = nil
		a.revision++
	}
	return a.revision
}

// Report aggregates the user's current month.
func (s *Store) Report(userID int64, now time.Time) (core.Report, error) {
	return core.MonthlyReport(s.List(userID), now)
}

// Export renders the user's transactions as rows, header first.
func (s *Store) Export(userID int64) ([][]string, error) {
	txs := s.List(userID)
	if len(txs) == 0 {
		return nil, core.ErrNoData
	}
	return core.Rows(txs), nil
}

// Users returns the number of users seen since start.
func (s *Store) Users() int {
	return int(s.users.Load())
}

func (a *account) snapshot() core.Ledger {
	l := core.Ledger{
		Transactions: append([]core.Transaction(nil), a.transactions...),
		Revision:     a.revision,
	}
	if a.limit != nil {
		limit := *a.limit
		l.Limit = &limit
	}
	return l
}
