// Package cash converts between balance amounts and physical money items.
package cash

import (
	"fmt"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

// Piece is one denomination and how many of it.
type Piece struct {
	Denomination types.Denomination
	Count        int
}

// Converter maps amounts to denominations and moves the value through the
// registry.
type Converter struct {
	reg   *ledger.Registry
	denom []types.Denomination // highest value first
	byID  map[string]types.Denomination
}

// New creates a converter. denominations must be sorted highest first and
// include a unit value of 1.
func New(reg *ledger.Registry, denominations []types.Denomination) *Converter {
	c := &Converter{
		reg:   reg,
		denom: append([]types.Denomination{}, denominations...),
		byID:  make(map[string]types.Denomination, len(denominations)),
	}
	for _, d := range denominations {
		c.byID[d.ItemID] = d
	}
	return c
}

// Denominations returns the denomination list, highest first.
func (c *Converter) Denominations() []types.Denomination {
	return append([]types.Denomination{}, c.denom...)
}

// Lookup returns the denomination for an item ID.
func (c *Converter) Lookup(itemID string) (types.Denomination, bool) {
	d, ok := c.byID[itemID]
	return d, ok
}

// Breakdown greedily splits amount into the fewest pieces, largest first.
func (c *Converter) Breakdown(amount int64) []Piece {
	var out []Piece
	for _, d := range c.denom {
		if amount <= 0 {
			break
		}
		if n := amount / d.Value; n > 0 {
			out = append(out, Piece{Denomination: d, Count: int(n)})
			amount -= n * d.Value
		}
	}
	return out
}

// Slots returns the inventory slots the pieces occupy at stackSize per slot.
func Slots(pieces []Piece, stackSize int) int {
	slots := 0
	for _, p := range pieces {
		slots += (p.Count + stackSize - 1) / stackSize
	}
	return slots
}

// ToPhysical debits amount from the wallet and returns the pieces the
// caller must add to the inventory. If that fails the caller refunds.
func (c *Converter) ToPhysical(player string, amount int64) ([]Piece, error) {
	if !c.reg.ValidAmount(amount) {
		return nil, fmt.Errorf("to physical %d: %w", amount, ledger.ErrInvalidAmount)
	}
	if !c.reg.Debit(player, amount, fmt.Sprintf("Converted %s to physical money", ledger.FormatMoney(amount))) {
		return nil, ledger.ErrInsufficientFunds
	}
	return c.Breakdown(amount), nil
}

// ToDigital credits the value of counted items (item ID to count). Unknown
// IDs and non-positive counts are ignored. Returns the amount credited.
func (c *Converter) ToDigital(player string, counts map[string]int) (int64, error) {
	var total int64
	for id, n := range counts {
		d, ok := c.byID[id]
		if !ok || n <= 0 {
			continue
		}
		total += d.Value * int64(n)
	}
	if total == 0 {
		return 0, fmt.Errorf("to digital: nothing to deposit: %w", ledger.ErrInvalidAmount)
	}
	if _, err := c.reg.Credit(player, total, "Deposited physical money"); err != nil {
		return 0, err
	}
	return total, nil
}

// Counts flattens pieces into an item ID to count map.
func Counts(pieces []Piece) map[string]int {
	out := make(map[string]int, len(pieces))
	for _, p := range pieces {
		out[p.Denomination.ItemID] += p.Count
	}
	return out
}
