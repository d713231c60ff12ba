package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the income/expense aggregate for one calendar month.
type Report struct {
	Year    int
	Month   time.Month
	Period  string // e.g. "October 2026"
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	Count   int // transactions that fell in the month
}

// MonthlyReport aggregates the transactions that share now's calendar month.
//
// An empty history returns ErrNoData. A history with nothing in this month
// returns a zero report, which is a different answer.
func MonthlyReport(txs []Transaction, now time.Time) (Report, error) {
	if len(txs) == 0 {
		return Report{}, ErrNoData
	}

	year, month, _ := now.Date()
	r := Report{
		Year:    year,
		Month:   month,
		Period:  now.Format("January 2006"),
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, t := range txs {
		ty, tm, _ := t.Timestamp.In(now.Location()).Date()
		if ty != year || tm != month {
			continue
		}
		switch t.Kind {
		case Income:
			r.Income = r.Income.Add(t.Amount)
		case Expense:
			r.Expense = r.Expense.Add(t.Amount)
		}
		r.Count++
	}
	r.Balance = r.Income.Sub(r.Expense)
	return r, nil
}
