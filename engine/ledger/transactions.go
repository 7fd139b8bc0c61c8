package ledger

import (
	"strings"

	"github.com/nathoo/econcore/types"
)

// record appends a transaction to acc, evicting the oldest entries past the
// cap, and bumps the global counters. Always the last step of a mutation.
func (r *Registry) record(acc *types.Account, typ types.TxType, amount int64, desc string, balanceAfter int64) {
	now := r.now()
	acc.Transactions = append(acc.Transactions, types.Transaction{
		ID:           r.newID("txn"),
		Type:         typ,
		Amount:       amount,
		Description:  desc,
		BalanceAfter: balanceAfter,
		Timestamp:    now,
	})
	if over := len(acc.Transactions) - r.txCap; over > 0 {
		acc.Transactions = append([]types.Transaction{}, acc.Transactions[over:]...)
	}
	acc.LastActive = now
	r.stats.TotalTransactions++
	r.stats.DailyTransactions++
}

// Transactions returns up to limit of the player's transactions, newest
// first. A limit <= 0 returns the whole log.
func (r *Registry) Transactions(name string, limit int) []types.Transaction {
	acc, ok := r.accounts[NormalizeName(name)]
	if !ok {
		return nil
	}
	return newestFirst(acc.Transactions, limit, nil)
}

// Statement returns up to limit bank-related transactions (deposits,
// withdrawals and transfers), newest first.
func (r *Registry) Statement(name string, limit int) []types.Transaction {
	acc, ok := r.accounts[NormalizeName(name)]
	if !ok {
		return nil
	}
	return newestFirst(acc.Transactions, limit, func(tx types.Transaction) bool {
		t := string(tx.Type)
		return strings.Contains(t, "bank") || strings.Contains(t, "transfer")
	})
}

func newestFirst(txs []types.Transaction, limit int, keep func(types.Transaction) bool) []types.Transaction {
	var out []types.Transaction
	for i := len(txs) - 1; i >= 0; i-- {
		if keep != nil && !keep(txs[i]) {
			continue
		}
		out = append(out, txs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
