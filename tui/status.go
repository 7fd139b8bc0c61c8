package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/bank"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

// status is the per-player figures shown in the status bar.
type status struct {
	player   string
	tier     types.Tier
	score    int
	wallet   int64
	bank     int64
	loanLeft int64
	invested int64
}

// readStatus snapshots the player's balances without creating records.
func readStatus(eng *engine.Engine, player string) status {
	st := status{player: player, tier: types.TierBasic, score: bank.InitialCreditScore}
	eng.View(func(tx *engine.Tx) error {
		if acc, ok := tx.Registry.Account(player); ok {
			st.wallet, st.bank = acc.Wallet, acc.BankBalance
		}
		if ba, ok := tx.Bank.BankAccount(player); ok {
			st.tier, st.score = ba.AccountType, ba.CreditScore
		}
		if loan, ok := tx.Bank.Loan(player); ok {
			st.loanLeft = loan.RemainingAmount
		}
		if v, ok := tx.Bank.InvestmentValue(player); ok {
			st.invested = v
		}
		return nil
	})
	return st
}

// renderStatusBar produces a full-width status line: player, tier and
// credit score on the left, balances on the right.
func (m Model) renderStatusBar() string {
	st := readStatus(m.engine, m.player)

	left := fmt.Sprintf(" %s | %s | Score %d", st.player, st.tier, st.score)
	right := fmt.Sprintf("Wallet %s | Bank %s ", ledger.FormatMoney(st.wallet), ledger.FormatMoney(st.bank))
	if st.loanLeft > 0 || st.invested > 0 {
		extra := fmt.Sprintf("Loan %s | Inv %s | ", ledger.FormatMoney(st.loanLeft), ledger.FormatMoney(st.invested))
		if lipgloss.Width(left)+lipgloss.Width(extra+right)+2 < m.width {
			right = extra + right
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return styleStatusBar.Render(left+fmt.Sprintf("%*s", gap, "")) + styleStatusMoney.Render(right)
}
