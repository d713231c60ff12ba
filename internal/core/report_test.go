package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func tx(kind Kind, category, amount string, at time.Time) Transaction {
	return Transaction{Kind: kind, Category: category, Amount: decimal.RequireFromString(amount), Timestamp: at}
}

func TestMonthlyReport(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

	t.Run("empty history is no data", func(t *testing.T) {
		if _, err := MonthlyReport(nil, now); !errors.Is(err, ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("salary and food", func(t *testing.T) {
		r, err := MonthlyReport([]Transaction{
			tx(Income, "salary", "5000", now),
			tx(Expense, "food", "1200", now),
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Income.Equal(decimal.NewFromInt(5000)) || !r.Expense.Equal(decimal.NewFromInt(1200)) || !r.Balance.Equal(decimal.NewFromInt(3800)) {
			t.Fatalf("unexpected report: income=%s expense=%s balance=%s", r.Income, r.Expense, r.Balance)
		}
		if r.Period != "October 2026" || r.Count != 2 {
			t.Fatalf("unexpected period/count: %q %d", r.Period, r.Count)
		}
	})

	t.Run("only other months is a zero report", func(t *testing.T) {
		r, err := MonthlyReport([]Transaction{
			tx(Income, "salary", "5000", now.AddDate(0, -1, 0)),
			tx(Expense, "food", "10", now.AddDate(-1, 0, 0)),
		}, now)
		if err != nil {
			t.Fatalf("expected present zero report, got %v", err)
		}
		if !r.Income.IsZero() || !r.Expense.IsZero() || !r.Balance.IsZero() || r.Count != 0 {
			t.Fatalf("expected zeros, got %+v", r)
		}
	})

	t.Run("same month of another year is excluded", func(t *testing.T) {
		r, _ := MonthlyReport([]Transaction{
			tx(Expense, "rent", "900", time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)),
			tx(Expense, "rent", "950", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)),
		}, now)
		if !r.Expense.Equal(decimal.NewFromInt(950)) {
			t.Fatalf("expected 950, got %s", r.Expense)
		}
	})

	t.Run("month boundary follows now's location", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		localNow := time.Date(2026, time.November, 1, 1, 0, 0, 0, loc)
		// 22:30 UTC on Oct 31 is 01:30 Nov 1 in UTC+3.
		r, _ := MonthlyReport([]Transaction{
			tx(Income, "bonus", "100", time.Date(2026, time.October, 31, 22, 30, 0, 0, time.UTC)),
		}, localNow)
		if !r.Income.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("expected the entry to count in November local time, got %+v", r)
		}
	})
}

func TestRows(t *testing.T) {
	at := time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC)
	rows := Rows([]Transaction{
		tx(Income, "salary", "5000", at),
		tx(Expense, "food", "12.50", at.AddDate(0, 0, 1)),
	})
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	want := [][]string{
		{"Date", "Type", "Category", "Amount"},
		{"2026-10-18", "income", "salary", "5000"},
		{"2026-10-19", "expense", "food", "12.5"},
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Fatalf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}

	header := Rows(nil)
	if len(header) != 1 {
		t.Fatalf("expected header only, got %v", header)
	}
	header[0][0] = "mutated"
	if RowHeader[0] != "Date" {
		t.Fatalf("Rows must not alias RowHeader")
	}
}
