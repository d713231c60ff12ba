package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Entry is validated user input for a new or edited transaction.
	Entry struct {
		Kind     Kind
		Category string
		Amount   decimal.Decimal
	}

	// Transaction is one recorded income or expense.
	Transaction struct {
		ID        string
		Kind      Kind
		Category  string
		Amount    decimal.Decimal
		Timestamp time.Time
	}

	// Ledger is a point-in-time copy of one user's state.
	Ledger struct {
		Transactions []Transaction
		Limit        *decimal.Decimal // nil when no limit is enforced
		Revision     uint64
	}
)

// ParseEntry parses the three raw fields, in order, and returns the first
// failure.
func ParseEntry(rawKind, rawCategory, rawAmount string) (Entry, error) {
	kind, err := ParseKind(rawKind)
	if err != nil {
		return Entry{}, err
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		Kind:     kind,
		Category: strings.TrimSpace(rawCategory),
		Amount:   amount,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (e Entry) Validate() error {
	if !e.Kind.Valid() {
		return ErrUnknownKind
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ExpenseTotal sums the amounts of all Expense transactions.
func ExpenseTotal(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Kind == Expense {
			total = total.Add(t.Amount)
		}
	}
	return total
}
