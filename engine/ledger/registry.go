// Package ledger implements the account registry: wallets, bank balances,
// the bounded transaction log, and global money statistics. The registry
// is the only writer of balances; every other component calls into it.
package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nathoo/econcore/types"
)

// Defaults for a new registry.
const (
	DefaultSignupBonus    int64 = 1000
	DefaultTransactionCap       = 100
	DefaultMaxAmount      int64 = 999_999_999
)

// Registry owns every Account and the GlobalStats singleton. It is not safe
// for concurrent use; the engine serializes access.
type Registry struct {
	accounts    map[string]*types.Account
	stats       types.GlobalStats
	signupBonus int64
	maxAmount   int64
	txCap       int
	now         func() time.Time
	newID       func(prefix string) string
	onChange    func()
	log         *slog.Logger
}

// Option configures a Registry. Options are applied in order by New, so a
// later option overrides an earlier one.
type Option func(*Registry)

// WithClock sets the time source used for join dates, transaction
// timestamps and the daily reset key. The default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the logger. New tags it with component=ledger. The
// default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithSignupBonus sets the wallet balance of a new account, which is also
// added to GlobalStats.TotalMoney when the account is created. The default
// is DefaultSignupBonus; zero gives new accounts an empty wallet.
func WithSignupBonus(n int64) Option {
	return func(r *Registry) { r.signupBonus = n }
}

// WithMaxAmount sets the largest amount a single credit, debit or
// transfer may move; ValidAmount checks against it. Non-positive values
// keep DefaultMaxAmount. Bank debits that settle loans are exempt.
func WithMaxAmount(n int64) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxAmount = n
		}
	}
}

// WithTransactionCap sets how many transactions each account keeps. Older
// entries are dropped first. Non-positive values keep
// DefaultTransactionCap.
func WithTransactionCap(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.txCap = n
		}
	}
}

// WithOnChange registers a hook run after every mutation, including lazy
// account creation. The engine uses it to mark the economy save dirty.
func WithOnChange(fn func()) Option {
	return func(r *Registry) { r.onChange = fn }
}

// WithIDGenerator replaces the transaction ID generator. fn receives a
// short prefix such as "txn" and must return unique IDs. The default is
// NewID.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(r *Registry) { r.newID = fn }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		accounts:    map[string]*types.Account{},
		signupBonus: DefaultSignupBonus,
		maxAmount:   DefaultMaxAmount,
		txCap:       DefaultTransactionCap,
		now:         time.Now,
		newID:       NewID,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With("component", "ledger")
	r.stats.LastResetDate = DateKey(r.now())
	return r
}

// ValidAmount reports whether amount is a positive integer no larger than
// the registry's maximum.
func (r *Registry) ValidAmount(amount int64) bool {
	return amount >= 1 && amount <= r.maxAmount
}

// MaxAmount returns the largest amount one operation may move.
func (r *Registry) MaxAmount() int64 {
	return r.maxAmount
}

// NormalizeName trims a player name. Names are otherwise case-sensitive.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// account returns the live record for name, creating it with the signup
// bonus on first access.
func (r *Registry) account(name string) *types.Account {
	if acc, ok := r.accounts[name]; ok {
		return acc
	}
	now := r.now()
	acc := &types.Account{
		Name:         name,
		Wallet:       r.signupBonus,
		TotalEarned:  r.signupBonus,
		Transactions: []types.Transaction{},
		JoinDate:     now,
		LastActive:   now,
	}
	r.accounts[name] = acc
	r.stats.TotalMoney += r.signupBonus
	r.log.Info("account created", "player", name, "bonus", r.signupBonus)
	r.changed()
	return acc
}

func (r *Registry) resolve(name string) (*types.Account, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrUnknownPlayer
	}
	return r.account(name), nil
}

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}

// GetOrCreateAccount returns a copy of the account for name, creating it
// on first access.
func (r *Registry) GetOrCreateAccount(name string) (types.Account, error) {
	acc, err := r.resolve(name)
	if err != nil {
		return types.Account{}, err
	}
	return copyAccount(acc), nil
}

// Account returns a copy of an existing account without creating one.
func (r *Registry) Account(name string) (types.Account, bool) {
	acc, ok := r.accounts[NormalizeName(name)]
	if !ok {
		return types.Account{}, false
	}
	return copyAccount(acc), true
}

// Exists reports whether an account exists for name.
func (r *Registry) Exists(name string) bool {
	_, ok := r.accounts[NormalizeName(name)]
	return ok
}

// Credit adds amount to the wallet and records an income transaction.
// Returns the new wallet balance.
func (r *Registry) Credit(name string, amount int64, reason string) (int64, error) {
	if !r.ValidAmount(amount) {
		return 0, fmt.Errorf("credit %d: %w", amount, ErrInvalidAmount)
	}
	acc, err := r.resolve(name)
	if err != nil {
		return 0, err
	}
	acc.Wallet += amount
	acc.TotalEarned += amount
	r.stats.TotalMoney += amount
	r.record(acc, types.TxIncome, amount, reason, acc.Wallet)
	r.changed()
	return acc.Wallet, nil
}

// Debit removes amount from the wallet. It returns false, changing
// nothing, when the amount is invalid or the wallet is short.
func (r *Registry) Debit(name string, amount int64, reason string) bool {
	if !r.ValidAmount(amount) {
		return false
	}
	acc, err := r.resolve(name)
	if err != nil || acc.Wallet < amount {
		return false
	}
	acc.Wallet -= amount
	acc.TotalSpent += amount
	r.stats.TotalMoney -= amount
	r.record(acc, types.TxExpense, amount, reason, acc.Wallet)
	r.changed()
	return true
}

// SetWalletBalance sets the wallet to max(amount, 0). No transaction is
// recorded and global stats are untouched.
func (r *Registry) SetWalletBalance(name string, amount int64) error {
	acc, err := r.resolve(name)
	if err != nil {
		return err
	}
	acc.Wallet = max(amount, 0)
	acc.LastActive = r.now()
	r.changed()
	return nil
}

// SetBankBalance sets the bank balance to max(amount, 0). No transaction
// is recorded and global stats are untouched.
func (r *Registry) SetBankBalance(name string, amount int64) error {
	acc, err := r.resolve(name)
	if err != nil {
		return err
	}
	acc.BankBalance = max(amount, 0)
	acc.LastActive = r.now()
	r.changed()
	return nil
}

// Transfer debits from and credits to. The recipient is created if needed.
// Returns false with no state change when the debit cannot happen.
func (r *Registry) Transfer(from, to string, amount int64, reason string) bool {
	from, to = NormalizeName(from), NormalizeName(to)
	if from == "" || to == "" || from == to || !r.ValidAmount(amount) {
		return false
	}
	if !r.Debit(from, amount, describe("Transfer to "+to, reason)) {
		return false
	}
	if _, err := r.Credit(to, amount, describe("Transfer from "+from, reason)); err != nil {
		// Unreachable: amount was validated above.
		r.log.Error("transfer credit failed after debit", "from", from, "to", to, "amount", amount, "error", err)
	}
	return true
}

// DepositToBank moves amount from the wallet into the bank balance.
func (r *Registry) DepositToBank(name string, amount int64) bool {
	if !r.ValidAmount(amount) {
		return false
	}
	acc, err := r.resolve(name)
	if err != nil || acc.Wallet < amount {
		return false
	}
	acc.Wallet -= amount
	acc.BankBalance += amount
	r.record(acc, types.TxBankDeposit, amount, "Bank deposit", acc.BankBalance)
	r.changed()
	return true
}

// WithdrawFromBank moves amount from the bank balance into the wallet.
func (r *Registry) WithdrawFromBank(name string, amount int64) bool {
	if !r.ValidAmount(amount) {
		return false
	}
	acc, err := r.resolve(name)
	if err != nil || acc.BankBalance < amount {
		return false
	}
	acc.BankBalance -= amount
	acc.Wallet += amount
	r.record(acc, types.TxBankWithdraw, amount, "Bank withdrawal", acc.BankBalance)
	r.changed()
	return true
}

// BankTransfer moves amount between bank balances without touching wallets.
func (r *Registry) BankTransfer(from, to string, amount int64) bool {
	return r.BankTransferFee(from, to, amount, 0)
}

// BankTransferFee moves amount between bank balances and destroys fee.
// The sender must hold amount+fee. The recipient is created if needed.
func (r *Registry) BankTransferFee(from, to string, amount, fee int64) bool {
	from, to = NormalizeName(from), NormalizeName(to)
	if from == "" || to == "" || from == to || !r.ValidAmount(amount) || fee < 0 {
		return false
	}
	src, ok := r.accounts[from]
	total := amount + fee
	if !ok || src.BankBalance < total {
		return false
	}
	dst := r.account(to)
	src.BankBalance -= total
	dst.BankBalance += amount
	r.stats.TotalMoney -= fee

	out := "Bank transfer to " + to
	if fee > 0 {
		out = fmt.Sprintf("%s (fee %s)", out, FormatMoney(fee))
	}
	r.record(src, types.TxBankTransferOut, total, out, src.BankBalance)
	r.record(dst, types.TxBankTransferIn, amount, "Bank transfer from "+from, dst.BankBalance)
	r.changed()
	return true
}

// BankDebit removes amount from the bank balance as money leaving
// circulation (loan repayments, investments, upgrades). Returns false
// without mutation when the balance is short. Only positivity is checked;
// a loan total with interest may exceed MaxAmount.
func (r *Registry) BankDebit(name string, amount int64, typ types.TxType, desc string) bool {
	if amount < 1 {
		return false
	}
	acc, err := r.resolve(name)
	if err != nil || acc.BankBalance < amount {
		return false
	}
	acc.BankBalance -= amount
	r.stats.TotalMoney -= amount
	r.record(acc, typ, amount, desc, acc.BankBalance)
	r.changed()
	return true
}

// BankCredit adds amount to the bank balance as money entering circulation.
// A zero amount is a no-op.
func (r *Registry) BankCredit(name string, amount int64, typ types.TxType, desc string) error {
	if amount < 0 {
		return fmt.Errorf("bank credit %d: %w", amount, ErrInvalidAmount)
	}
	acc, err := r.resolve(name)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	acc.BankBalance += amount
	r.stats.TotalMoney += amount
	r.record(acc, typ, amount, desc, acc.BankBalance)
	r.changed()
	return nil
}

// AddLoyaltyPoints adds shop loyalty points to an account.
func (r *Registry) AddLoyaltyPoints(name string, points int64) error {
	if points <= 0 {
		return nil
	}
	acc, err := r.resolve(name)
	if err != nil {
		return err
	}
	acc.LoyaltyPoints += points
	r.changed()
	return nil
}

// Stats returns the summary for an existing account.
func (r *Registry) Stats(name string) (types.AccountStats, bool) {
	acc, ok := r.accounts[NormalizeName(name)]
	if !ok {
		return types.AccountStats{}, false
	}
	return types.AccountStats{
		TotalWealth:      acc.Wallet + acc.BankBalance,
		TotalEarned:      acc.TotalEarned,
		TotalSpent:       acc.TotalSpent,
		TransactionCount: len(acc.Transactions),
		JoinDate:         acc.JoinDate,
		LastActive:       acc.LastActive,
	}, true
}

// Names returns all account names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.accounts))
	for name := range r.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered accounts.
func (r *Registry) Count() int {
	return len(r.accounts)
}

// Circulation sums every wallet and bank balance.
func (r *Registry) Circulation() int64 {
	var total int64
	for _, acc := range r.accounts {
		total += acc.Wallet + acc.BankBalance
	}
	return total
}

// Snapshot returns deep copies of every account and the global stats.
func (r *Registry) Snapshot() (map[string]types.Account, types.GlobalStats) {
	out := make(map[string]types.Account, len(r.accounts))
	for name, acc := range r.accounts {
		out[name] = copyAccount(acc)
	}
	return out, r.stats
}

// Restore replaces all state with the given snapshot.
func (r *Registry) Restore(accounts map[string]types.Account, stats types.GlobalStats) {
	r.accounts = make(map[string]*types.Account, len(accounts))
	for name, acc := range accounts {
		a := copyAccount(&acc)
		if a.Name == "" {
			a.Name = name
		}
		r.accounts[name] = &a
	}
	if stats.LastResetDate == "" {
		stats.LastResetDate = DateKey(r.now())
	}
	r.stats = stats
}

// Reset drops every account and zeroes the global stats.
func (r *Registry) Reset() {
	r.accounts = map[string]*types.Account{}
	r.stats = types.GlobalStats{LastResetDate: DateKey(r.now())}
	r.changed()
}

func copyAccount(acc *types.Account) types.Account {
	c := *acc
	c.Transactions = append([]types.Transaction{}, acc.Transactions...)
	return c
}

func describe(prefix, reason string) string {
	if reason == "" {
		return prefix
	}
	return prefix + ": " + reason
}
