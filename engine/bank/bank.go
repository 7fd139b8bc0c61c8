// Package bank layers bank accounts, loans, investments, tier upgrades and
// fee-bearing transfers on top of the ledger registry. It never touches
// balances directly; every money movement goes through ledger.Registry.
package bank

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/types"
)

// Credit score policy.
const (
	InitialCreditScore = 75
	MinLoanCreditScore = 50
	MaxCreditScore     = 100

	loanApprovalPenalty = -10
	loanCompletedBonus  = 15
	loanPayoffBonus     = 25
	upgradeBonus        = 10
)

// Transfer fee policy: 1% of the amount, never less than MinTransferFee.
const MinTransferFee int64 = 5

var feeRate = decimal.NewFromFloat(0.01)

// Bank owns BankAccount, Loan and Investment records.
type Bank struct {
	reg         *ledger.Registry
	defs        *state.Defs
	accounts    map[string]*types.BankAccount
	loans       map[string]*types.Loan
	investments map[string]*types.Investment
	now         func() time.Time
	onChange    func()
	log         *slog.Logger
}

// Option configures a Bank.
type Option func(*Bank)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Bank) { b.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bank) { b.log = l }
}

// WithOnChange registers a hook run after every mutation.
func WithOnChange(fn func()) Option {
	return func(b *Bank) { b.onChange = fn }
}

// New creates a bank over reg using the products in defs.
func New(reg *ledger.Registry, defs *state.Defs, opts ...Option) *Bank {
	b := &Bank{
		reg:         reg,
		defs:        defs,
		accounts:    map[string]*types.BankAccount{},
		loans:       map[string]*types.Loan{},
		investments: map[string]*types.Investment{},
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	b.log = b.log.With("component", "bank")
	return b
}

func (b *Bank) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}

// account returns the live bank record, creating it on first access.
func (b *Bank) account(player string) (*types.BankAccount, error) {
	player = ledger.NormalizeName(player)
	if player == "" {
		return nil, ledger.ErrUnknownPlayer
	}
	if acc, ok := b.accounts[player]; ok {
		return acc, nil
	}
	if _, err := b.reg.GetOrCreateAccount(player); err != nil {
		return nil, err
	}
	now := b.now()
	acc := &types.BankAccount{
		Player:       player,
		AccountType:  types.TierBasic,
		CreditScore:  InitialCreditScore,
		CreatedDate:  now,
		LastActivity: now,
	}
	b.accounts[player] = acc
	b.log.Info("bank account opened", "player", player)
	b.changed()
	return acc, nil
}

// GetOrCreateBankAccount returns a copy of the player's bank account,
// opening one with a Basic tier and the initial credit score if needed.
func (b *Bank) GetOrCreateBankAccount(player string) (types.BankAccount, error) {
	acc, err := b.account(player)
	if err != nil {
		return types.BankAccount{}, err
	}
	return *acc, nil
}

// BankAccount returns a copy of an existing bank account.
func (b *Bank) BankAccount(player string) (types.BankAccount, bool) {
	acc, ok := b.accounts[ledger.NormalizeName(player)]
	if !ok {
		return types.BankAccount{}, false
	}
	return *acc, true
}

func (b *Bank) adjustScore(acc *types.BankAccount, delta int) {
	acc.CreditScore = min(max(acc.CreditScore+delta, 0), MaxCreditScore)
}

// Deposit moves amount from the wallet into the bank.
func (b *Bank) Deposit(player string, amount int64) error {
	if !b.reg.ValidAmount(amount) {
		return fmt.Errorf("deposit %d: %w", amount, ledger.ErrInvalidAmount)
	}
	acc, err := b.account(player)
	if err != nil {
		return err
	}
	if !b.reg.DepositToBank(acc.Player, amount) {
		return ledger.ErrInsufficientFunds
	}
	acc.TotalDeposits += amount
	acc.LastActivity = b.now()
	b.changed()
	return nil
}

// Withdraw moves amount from the bank into the wallet.
func (b *Bank) Withdraw(player string, amount int64) error {
	if !b.reg.ValidAmount(amount) {
		return fmt.Errorf("withdraw %d: %w", amount, ledger.ErrInvalidAmount)
	}
	acc, err := b.account(player)
	if err != nil {
		return err
	}
	if !b.reg.WithdrawFromBank(acc.Player, amount) {
		return ledger.ErrInsufficientBankFunds
	}
	acc.TotalWithdrawals += amount
	acc.LastActivity = b.now()
	b.changed()
	return nil
}

// TransferFee returns the fee charged on a bank transfer of amount.
func TransferFee(amount int64) int64 {
	fee := decimal.NewFromInt(amount).Mul(feeRate).Floor().IntPart()
	return max(fee, MinTransferFee)
}

// TransferWithFee moves amount between bank balances. The sender pays
// amount plus TransferFee(amount); the fee leaves circulation.
func (b *Bank) TransferWithFee(from, to string, amount int64) (int64, error) {
	if !b.reg.ValidAmount(amount) {
		return 0, fmt.Errorf("transfer %d: %w", amount, ledger.ErrInvalidAmount)
	}
	from, to = ledger.NormalizeName(from), ledger.NormalizeName(to)
	if from == "" || to == "" {
		return 0, ledger.ErrUnknownPlayer
	}
	if from == to {
		return 0, ledger.ErrSelfTransfer
	}
	fee := TransferFee(amount)
	if acct, ok := b.reg.Account(from); !ok || acct.BankBalance < amount+fee {
		return 0, ledger.ErrInsufficientBankFunds
	}
	src, err := b.account(from)
	if err != nil {
		return 0, err
	}
	dst, err := b.account(to)
	if err != nil {
		return 0, err
	}
	if !b.reg.BankTransferFee(from, to, amount, fee) {
		return 0, ledger.ErrInsufficientBankFunds
	}
	now := b.now()
	src.TotalTransfersSent += amount
	src.LastActivity = now
	dst.TotalTransfersReceived += amount
	dst.LastActivity = now
	b.log.Info("bank transfer", "from", from, "to", to, "amount", amount, "fee", fee)
	b.changed()
	return fee, nil
}

// UpgradeAccount moves the player one tier up, paying the tier's cost from
// the bank balance. Returns the new tier.
func (b *Bank) UpgradeAccount(player string) (types.TierDef, error) {
	acc, err := b.account(player)
	if err != nil {
		return types.TierDef{}, err
	}
	next, ok := b.defs.NextTier(acc.AccountType)
	if !ok {
		return types.TierDef{}, ledger.ErrAlreadyMaxTier
	}
	desc := fmt.Sprintf("Account upgrade to %s", next.Tier)
	if !b.reg.BankDebit(acc.Player, next.UpgradeCost, types.TxAccountUpgrade, desc) {
		return types.TierDef{}, ledger.ErrInsufficientBankFunds
	}
	acc.AccountType = next.Tier
	b.adjustScore(acc, upgradeBonus)
	acc.LastActivity = b.now()
	b.log.Info("account upgraded", "player", acc.Player, "tier", next.Tier)
	b.changed()
	return next, nil
}

// Report is the full banking picture for one player.
type Report struct {
	Account         types.Account
	Bank            types.BankAccount
	Loan            *types.Loan
	Investment      *types.Investment
	InvestmentValue int64
}

// Report builds the account report, resolving any pending investment months.
func (b *Bank) Report(player string) (Report, error) {
	bacc, err := b.GetOrCreateBankAccount(player)
	if err != nil {
		return Report{}, err
	}
	acc, _ := b.reg.Account(bacc.Player)
	r := Report{Account: acc, Bank: bacc}
	if loan, ok := b.Loan(bacc.Player); ok {
		r.Loan = &loan
	}
	if value, ok := b.InvestmentValue(bacc.Player); ok {
		inv, _ := b.Investment(bacc.Player)
		r.Investment = &inv
		r.InvestmentValue = value
	}
	return r, nil
}
