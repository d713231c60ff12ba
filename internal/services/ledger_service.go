package services

import (
	"context"
	"errors"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/cache"
	"finbot/internal/core"
	"finbot/internal/ledger"
	"finbot/internal/log"

	"github.com/shopspring/decimal"
)

// EventPublisher sends committed ledger mutations downstream.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

type cachedReport struct {
	revision uint64
	year     int
	month    time.Month
	report   core.Report
}

// LimitStatus is the current spending limit of a user and what has been spent against it.
type LimitStatus struct {
	Limit *decimal.Decimal
	Spent decimal.Decimal
}

// LedgerService orchestrates ledger operations, the report cache and event publishing.
type LedgerService struct {
	store     *ledger.Store
	publisher EventPublisher
	reports   *cache.LRUCache[int64, cachedReport]
	logger    *log.Logger
	now       func() time.Time
}

type ServiceOption func(*LedgerService)

// WithPublisher enables event publishing. A nil publisher leaves it disabled.
func WithPublisher(p EventPublisher) ServiceOption {
	return func(s *LedgerService) { s.publisher = p }
}

// WithReportCache caches monthly reports per user.
func WithReportCache(maxSize int, ttl time.Duration) ServiceOption {
	return func(s *LedgerService) {
		if maxSize > 0 {
			s.reports = cache.NewLRUCache[int64, cachedReport](maxSize, ttl)
		}
	}
}

// WithServiceClock overrides the clock used to pick the report month.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store *ledger.Store, logger *log.Logger, opts ...ServiceOption) *LedgerService {
	s := &LedgerService{
		store:  store,
		logger: logger.WithComponent(log.ComponentLedger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReportCache exposes the report cache for registration with a cleanup manager.
// It is nil when caching is disabled.
func (s *LedgerService) ReportCache() cache.Cleaner {
	if s.reports == nil {
		return nil
	}
	return s.reports
}

// Start makes sure the user has a ledger and returns it.
func (s *LedgerService) Start(ctx context.Context, userID int64) core.Ledger {
	return s.store.GetOrCreate(userID)
}

func (s *LedgerService) Add(ctx context.Context, userID int64, e core.Entry) (core.Transaction, error) {
	t, rev, err := s.store.Append(userID, e)
	if err != nil {
		s.logFailure(ctx, log.OpAppend, userID, err)
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction appended", log.NewFields().
		WithOperation(log.OpAppend).
		WithUser(userID).
		WithTransaction(t.ID, t.Kind.String(), t.Category, t.Amount.String()).
		ToSlice()...)

	s.publish(ctx, transactionEvent(amqp.EventTransactionAppended, userID, rev, -1, t))
	return t, nil
}

// Edit replaces the transaction at the zero-based index.
func (s *LedgerService) Edit(ctx context.Context, userID int64, index int, e core.Entry) (core.Transaction, error) {
	t, rev, err := s.store.Update(userID, index, e)
	if err != nil {
		s.logFailure(ctx, log.OpUpdate, userID, err)
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithUser(userID).
		WithIndex(index).
		WithTransaction(t.ID, t.Kind.String(), t.Category, t.Amount.String()).
		ToSlice()...)

	s.publish(ctx, transactionEvent(amqp.EventTransactionUpdated, userID, rev, index, t))
	return t, nil
}

// Remove deletes the transaction at the zero-based index and returns it.
func (s *LedgerService) Remove(ctx context.Context, userID int64, index int) (core.Transaction, error) {
	t, rev, err := s.store.Delete(userID, index)
	if err != nil {
		s.logFailure(ctx, log.OpDelete, userID, err)
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.NewFields().
		WithOperation(log.OpDelete).
		WithUser(userID).
		WithIndex(index).
		WithTransaction(t.ID, t.Kind.String(), t.Category, t.Amount.String()).
		ToSlice()...)

	s.publish(ctx, transactionEvent(amqp.EventTransactionDeleted, userID, rev, index, t))
	return t, nil
}

// Transactions lists the user's history. An empty history is core.ErrNoData.
func (s *LedgerService) Transactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs := s.store.List(userID)
	if len(txs) == 0 {
		return nil, core.ErrNoData
	}
	return txs, nil
}

// Report returns the current month's report, served from cache while the
// ledger revision and the month are unchanged.
func (s *LedgerService) Report(ctx context.Context, userID int64) (core.Report, error) {
	now := s.now()
	l := s.store.GetOrCreate(userID)
	year, month, _ := now.Date()

	if s.reports != nil {
		if c, ok := s.reports.Get(userID); ok && c.revision == l.Revision && c.year == year && c.month == month {
			s.logger.DebugContext(ctx, "Report served from cache",
				log.FieldUserID, userID,
				log.FieldOperation, log.OpReport)
			return c.report, nil
		}
	}

	r, err := core.MonthlyReport(l.Transactions, now)
	if err != nil {
		return core.Report{}, err
	}
	if s.reports != nil {
		s.reports.Set(userID, cachedReport{revision: l.Revision, year: year, month: month, report: r})
	}
	return r, nil
}

func (s *LedgerService) SetLimit(ctx context.Context, userID int64, limit decimal.Decimal) error {
	rev, err := s.store.SetLimit(userID, limit)
	if err != nil {
		s.logFailure(ctx, log.OpSetLimit, userID, err)
		return err
	}

	s.logger.InfoContext(ctx, "Spending limit set",
		log.FieldOperation, log.OpSetLimit,
		log.FieldUserID, userID,
		log.FieldLimit, limit.String())

	event := amqp.NewLedgerEvent(amqp.EventLimitSet, userID)
	event.Revision = rev
	event.Limit = limit.String()
	s.publish(ctx, event)
	return nil
}

func (s *LedgerService) ClearLimit(ctx context.Context, userID int64) {
	rev := s.store.ClearLimit(userID)

	s.logger.InfoContext(ctx, "Spending limit cleared",
		log.FieldOperation, log.OpSetLimit,
		log.FieldUserID, userID)

	event := amqp.NewLedgerEvent(amqp.EventLimitCleared, userID)
	event.Revision = rev
	s.publish(ctx, event)
}

// Limit reports the spending limit and the expense total it is checked against.
func (s *LedgerService) Limit(ctx context.Context, userID int64) LimitStatus {
	l := s.store.GetOrCreate(userID)
	return LimitStatus{
		Limit: l.Limit,
		Spent: core.ExpenseTotal(l.Transactions),
	}
}

// Export returns the user's history as rows, header first.
func (s *LedgerService) Export(ctx context.Context, userID int64) ([][]string, error) {
	rows, err := s.store.Export(userID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		log.FieldOperation, log.OpExport,
		log.FieldUserID, userID,
		"rows", len(rows)-1)
	return rows, nil
}

// Users returns how many users have touched the bot since start.
func (s *LedgerService) Users() int {
	return s.store.Users()
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	// The mutation is already committed; a failed publish must not fail the command
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event", log.NewFields().
			WithOperation(log.OpPublish).
			WithUser(event.UserID).
			WithError(err).
			WithErrorType(log.ErrorTypeNetwork).
			ToSlice()...)
	}
}

func (s *LedgerService) logFailure(ctx context.Context, op string, userID int64, err error) {
	fields := log.NewFields().
		WithOperation(op).
		WithUser(userID).
		WithError(err).
		WithErrorType(errorType(err))
	s.logger.WarnContext(ctx, "Ledger operation rejected", fields.ToSlice()...)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrIndexOutOfRange):
		return log.ErrorTypeIndex
	case errors.Is(err, core.ErrLimitExceeded):
		return log.ErrorTypeLimit
	case errors.Is(err, core.ErrNoData):
		return log.ErrorTypeNoData
	default:
		return log.ErrorTypeInternal
	}
}

func transactionEvent(eventType amqp.EventType, userID int64, revision uint64, index int, t core.Transaction) *amqp.LedgerEvent {
	event := amqp.NewLedgerEvent(eventType, userID)
	event.Revision = revision
	event.TransactionID = t.ID
	event.Index = index
	event.Kind = t.Kind.String()
	event.Category = t.Category
	event.Amount = t.Amount.String()
	event.Timestamp = t.Timestamp.UTC()
	return event
}
