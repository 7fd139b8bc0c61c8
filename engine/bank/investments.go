package bank

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/rng"
	"github.com/nathoo/econcore/types"
)

// InvestmentMonth is the length of one compounding period.
const InvestmentMonth = 30 * 24 * time.Hour

// WithdrawResult reports an investment cash-out.
type WithdrawResult struct {
	PaidOut int64
	Profit  int64 // negative on a loss
}

// Investment returns a copy of the player's active investment.
func (b *Bank) Investment(player string) (types.Investment, bool) {
	inv, ok := b.investments[ledger.NormalizeName(player)]
	if !ok {
		return types.Investment{}, false
	}
	c := *inv
	c.Realized = append([]bool{}, inv.Realized...)
	return c, true
}

// InvestType invests in a catalog product.
func (b *Bank) InvestType(player, typeID string, amount int64) (types.Investment, error) {
	it, ok := b.defs.Investments[typeID]
	if !ok {
		return types.Investment{}, fmt.Errorf("investment type %q: %w", typeID, ledger.ErrUnknownInvestmentType)
	}
	return b.Invest(player, amount, it)
}

// Invest moves amount from the bank balance into a new investment.
func (b *Bank) Invest(player string, amount int64, typ types.InvestmentType) (types.Investment, error) {
	if !b.reg.ValidAmount(amount) {
		return types.Investment{}, fmt.Errorf("invest %d: %w", amount, ledger.ErrInvalidAmount)
	}
	if amount < typ.MinAmount {
		return types.Investment{}, fmt.Errorf("%s minimum %d: %w", typ.ID, typ.MinAmount, ledger.ErrBelowMinimumInvestment)
	}
	acc, err := b.account(player)
	if err != nil {
		return types.Investment{}, err
	}
	if _, ok := b.investments[acc.Player]; ok {
		return types.Investment{}, ledger.ErrActiveInvestment
	}
	desc := fmt.Sprintf("Investment: %s", typ.Name)
	if !b.reg.BankDebit(acc.Player, amount, types.TxInvestment, desc) {
		return types.Investment{}, ledger.ErrInsufficientBankFunds
	}
	now := b.now()
	inv := &types.Investment{
		Player:         acc.Player,
		Type:           typ.ID,
		OriginalAmount: amount,
		Amount:         amount,
		Rate:           typ.Rate,
		Risk:           typ.Risk,
		StartDate:      now,
		Realized:       []bool{},
	}
	b.investments[acc.Player] = inv
	acc.LastActivity = now
	b.log.Info("investment opened", "player", acc.Player, "type", typ.ID, "amount", amount)
	b.changed()
	return *inv, nil
}

// ElapsedMonths returns the number of whole compounding periods between
// start and now.
func ElapsedMonths(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / InvestmentMonth)
}

// CurrentValue compounds inv over months periods. Months already present
// in inv.Realized keep their outcome; newer months are drawn from a seed
// derived from the player, the start date and the month index, so the
// same investment always resolves the same way. The returned slice holds
// the outcome (true = gain) of every month.
func CurrentValue(inv types.Investment, months int) (int64, []bool) {
	realized := append([]bool{}, inv.Realized...)
	value := decimal.NewFromInt(inv.OriginalAmount)
	rate := decimal.NewFromFloat(inv.Rate)
	gain := decimal.NewFromInt(1).Add(rate)
	loss := decimal.NewFromInt(1).Sub(rate.Div(decimal.NewFromInt(2)))
	start := inv.StartDate.UTC().Format(time.RFC3339Nano)

	for k := 0; k < months; k++ {
		if k >= len(realized) {
			g := rng.New(rng.SeedFor(int64(k), inv.Player, start))
			realized = append(realized, !g.Chance(inv.Risk))
		}
		if realized[k] {
			value = value.Mul(gain)
		} else {
			value = value.Mul(loss)
		}
	}
	return value.Floor().IntPart(), realized
}

// InvestmentValue returns the current value of the player's investment and
// stores any newly resolved months.
func (b *Bank) InvestmentValue(player string) (int64, bool) {
	inv, ok := b.investments[ledger.NormalizeName(player)]
	if !ok {
		return 0, false
	}
	months := ElapsedMonths(inv.StartDate, b.now())
	value, realized := CurrentValue(*inv, months)
	if len(realized) != len(inv.Realized) || value != inv.Amount {
		inv.Realized = realized
		inv.Amount = value
		b.changed()
	}
	return value, true
}

// WithdrawInvestment cashes out the investment into the bank balance.
func (b *Bank) WithdrawInvestment(player string) (WithdrawResult, error) {
	player = ledger.NormalizeName(player)
	inv, ok := b.investments[player]
	if !ok {
		return WithdrawResult{}, ledger.ErrNoActiveInvestment
	}
	value, _ := b.InvestmentValue(player)
	desc := fmt.Sprintf("Investment withdrawal (%s)", inv.Type)
	if err := b.reg.BankCredit(player, value, types.TxInvestmentWithdraw, desc); err != nil {
		return WithdrawResult{}, err
	}
	delete(b.investments, player)
	if acc, ok := b.accounts[player]; ok {
		acc.LastActivity = b.now()
	}
	res := WithdrawResult{PaidOut: value, Profit: value - inv.OriginalAmount}
	b.log.Info("investment withdrawn", "player", player, "paid_out", res.PaidOut, "profit", res.Profit)
	b.changed()
	return res, nil
}
