package admin

import (
	"fmt"
	"sort"

	"github.com/nathoo/econcore/engine"
)

// IntegrityReport summarizes consistency problems. Drift between recorded
// and circulating money is informational and not counted as an issue.
type IntegrityReport struct {
	Players           int      `json:"players"`
	NegativeBalances  []string `json:"negativeBalances"`
	OversizedLogs     []string `json:"oversizedLogs"`
	OrphanLoans       []string `json:"orphanLoans"`
	OrphanInvestments []string `json:"orphanInvestments"`
	RecordedMoney     int64    `json:"recordedMoney"`
	Circulation       int64    `json:"circulation"`
	Drift             int64    `json:"drift"`
	Issues            int      `json:"issues"`
}

// Clean reports whether no issues were found.
func (r IntegrityReport) Clean() bool { return r.Issues == 0 }

// Lines renders the report for console output.
func (r IntegrityReport) Lines() []string {
	out := []string{
		fmt.Sprintf("Players: %d", r.Players),
		fmt.Sprintf("Recorded money %d, circulating %d, drift %d", r.RecordedMoney, r.Circulation, r.Drift),
	}
	add := func(label string, names []string) {
		if len(names) > 0 {
			out = append(out, fmt.Sprintf("%s: %v", label, names))
		}
	}
	add("Negative balances", r.NegativeBalances)
	add("Oversized transaction logs", r.OversizedLogs)
	add("Loans without account", r.OrphanLoans)
	add("Investments without account", r.OrphanInvestments)
	if r.Clean() {
		out = append(out, "No issues found.")
	} else {
		out = append(out, fmt.Sprintf("%d issue(s) found.", r.Issues))
	}
	return out
}

// CheckIntegrity scans every account and bank record.
func (a *Admin) CheckIntegrity() IntegrityReport {
	var r IntegrityReport
	a.e.View(func(tx *engine.Tx) error {
		accounts, stats := tx.Registry.Snapshot()
		txCap := tx.Defs.Economy.TransactionCap
		r.Players = len(accounts)
		r.RecordedMoney = stats.TotalMoney
		for _, name := range tx.Registry.Names() {
			acc := accounts[name]
			if acc.Wallet < 0 || acc.BankBalance < 0 {
				r.NegativeBalances = append(r.NegativeBalances, name)
			}
			if txCap > 0 && len(acc.Transactions) > txCap {
				r.OversizedLogs = append(r.OversizedLogs, name)
			}
		}
		r.Circulation = tx.Registry.Circulation()

		loans, investments := tx.Bank.Players()
		sort.Strings(loans)
		sort.Strings(investments)
		for _, p := range loans {
			if !tx.Registry.Exists(p) {
				r.OrphanLoans = append(r.OrphanLoans, p)
			}
		}
		for _, p := range investments {
			if !tx.Registry.Exists(p) {
				r.OrphanInvestments = append(r.OrphanInvestments, p)
			}
		}
		return nil
	})
	r.Drift = r.RecordedMoney - r.Circulation
	r.Issues = len(r.NegativeBalances) + len(r.OversizedLogs) + len(r.OrphanLoans) + len(r.OrphanInvestments)
	return r
}
