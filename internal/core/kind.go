package core

import "strings"

// Kind is the closed set of transaction types.
type Kind int

const (
	Income Kind = iota + 1
	Expense
)

// kindAliases maps accepted user literals to kinds. The Russian words are what
// the chat users have always typed.
var kindAliases = map[string]Kind{
	"income":  Income,
	"доход":   Income,
	"expense": Expense,
	"расход":  Expense,
}

// ParseKind converts free text into a Kind, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, ErrEmptyKind
	}
	k, ok := kindAliases[s]
	if !ok {
		return 0, ErrUnknownKind
	}
	return k, nil
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	switch k {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unknown"
	}
}
