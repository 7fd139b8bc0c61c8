package ledger

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// FormatMoney renders an amount as $950, $1.5K or $2.3M.
func FormatMoney(amount int64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("$%.1fM", float64(amount)/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("$%.1fK", float64(amount)/1_000)
	default:
		return fmt.Sprintf("$%d", amount)
	}
}

// NewID generates a K-sortable prefixed identifier ("txn_01h2x…").
// It panics on an invalid prefix (programming error).
func NewID(prefix string) string {
	tid, err := typeid.Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("ledger: invalid id prefix %q: %v", prefix, err))
	}
	return tid.String()
}
