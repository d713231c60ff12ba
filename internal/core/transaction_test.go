package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		err  error
	}{
		{"income", Income, nil},
		{"Expense", Expense, nil},
		{" доход ", Income, nil},
		{"РАСХОД", Expense, nil},
		{"", 0, ErrEmptyKind},
		{"  ", 0, ErrEmptyKind},
		{"gift", 0, ErrUnknownKind},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if !errors.Is(err, tc.err) {
			t.Fatalf("ParseKind(%q) err = %v, want %v", tc.in, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseKind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseEntry(t *testing.T) {
	e, err := ParseEntry("доход", " зарплата ", "5000")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Kind != Income || e.Category != "зарплата" || !e.Amount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected entry: %+v", e)
	}

	bads := []struct {
		kind, category, amount string
		err                    error
	}{
		{"", "food", "1", ErrEmptyKind},
		{"loan", "food", "1", ErrUnknownKind},
		{"expense", "food", "x", ErrInvalidAmount},
		{"expense", "food", "-3", ErrNegativeAmount},
		{"expense", "  ", "3", ErrEmptyCategory},
	}
	for i, b := range bads {
		if _, err := ParseEntry(b.kind, b.category, b.amount); !errors.Is(err, b.err) {
			t.Fatalf("case %d expected %v, got %v", i, b.err, err)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{Kind: Expense, Category: "food", Amount: decimal.Zero}
	if err := good.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}

	bads := []Entry{
		{Kind: 0, Category: "food", Amount: decimal.NewFromInt(1)},
		{Kind: Income, Category: "", Amount: decimal.NewFromInt(1)},
		{Kind: Income, Category: "food", Amount: decimal.NewFromInt(-1)},
	}
	for i, e := range bads {
		if err := e.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestWouldExceed(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		existing, candidate, limit string
		want                       bool
	}{
		{"900", "200", "1000", true},
		{"900", "100", "1000", false},
		{"0", "1000", "1000", false},
		{"0", "1000.01", "1000", true},
		{"0", "0", "0", false},
		{"0.1", "0.2", "0.3", false},
	}
	for _, tc := range cases {
		if got := WouldExceed(d(tc.existing), d(tc.candidate), d(tc.limit)); got != tc.want {
			t.Errorf("WouldExceed(%s, %s, %s) = %v, want %v", tc.existing, tc.candidate, tc.limit, got, tc.want)
		}
	}
}

func TestIndexError(t *testing.T) {
	err := IndexError(3, 2)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("index errors are not validation errors")
	}
}
