package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/parser"
	"github.com/nathoo/econcore/types"
)

const defaultListLimit = 10

var money = ledger.FormatMoney

// run executes one intent and returns its output and emitted events.
func (e *Engine) run(player string, in types.Intent) ([]string, []types.Event) {
	switch in.Verb {
	case "help":
		return helpText(), nil
	case "balance":
		return e.cmdBalance(player), nil
	case "pay":
		return e.cmdPay(player, in.Args)
	case "statement":
		return e.cmdStatement(player, in.Args), nil
	case "stats":
		return e.cmdStats(player), nil
	case "history":
		return e.cmdHistory(player, in.Args), nil

	case "deposit":
		return e.cmdDeposit(player, in.Args)
	case "withdraw":
		return e.cmdWithdraw(player, in.Args)
	case "transfer":
		return e.cmdTransfer(player, in.Args)
	case "bank":
		return e.cmdBank(player), nil
	case "report":
		return e.cmdReport(player), nil

	case "loan":
		return e.cmdLoan(player, in.Args)
	case "installment":
		return e.cmdInstallment(player)
	case "payoff":
		return e.cmdPayoff(player)
	case "loans":
		return e.cmdLoanTypes(), nil

	case "invest":
		return e.cmdInvest(player, in.Args)
	case "investment":
		return e.cmdInvestment(player), nil
	case "cashout":
		return e.cmdCashout(player)
	case "investments":
		return e.cmdInvestmentTypes(), nil

	case "upgrade":
		return e.cmdUpgrade(player)
	case "rates":
		return e.cmdRates(in.Args), nil
	case "quote":
		return e.cmdQuote(player, in.Args), nil
	case "sell":
		return e.cmdSell(player, in.Args)
	case "exchanges":
		return e.cmdExchanges(player, in.Args), nil

	case "tocash":
		return e.cmdToCash(player, in.Args)
	case "fromcash":
		return e.cmdFromCash(player)

	case "shops":
		return e.cmdShops(), nil
	case "shop":
		return e.cmdShop(in.Args), nil
	case "buy":
		return e.cmdBuy(player, in.Args)
	case "purchases":
		return e.cmdPurchases(player, in.Args), nil
	case "shopcreate":
		return e.cmdShopCreate(player, in.Args), nil
	}
	return []string{fmt.Sprintf("Unknown command %q. Type 'help' for a list of commands.", in.Verb)}, nil
}

func helpText() []string {
	return []string{
		"Wallet:      balance, pay <player> <amount>, statement [n], stats, history [n]",
		"Bank:        deposit <amount>, withdraw <amount>, transfer <player> <amount>, bank, report",
		"Loans:       loans, loan [<type> <amount> <installments>], installment, payoff",
		"Investments: investments, invest <type> <amount>, investment, cashout",
		"Exchange:    upgrade, rates [category], quote <item>, sell <item> <qty>, exchanges [n]",
		"Cash:        tocash <amount>, fromcash",
		"Shop:        shops, shop <id>, buy <shop> <item> <qty>, purchases [n]",
		fmt.Sprintf("(%d commands; '!' and '/' prefixes are accepted)", len(parser.Verbs)),
	}
}

func fail(err error) []string {
	return []string{ledger.Message(err)}
}

func usage(text string) []string {
	return []string{"Usage: " + text}
}

// parseAmount accepts "1500", "1,500" and "$1500".
func (e *Engine) parseAmount(s string) (int64, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || !e.reg.ValidAmount(n) {
		return 0, ledger.ErrInvalidAmount
	}
	return n, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, ledger.ErrInvalidAmount
	}
	return n, nil
}

// listLimit reads an optional [n] argument.
func listLimit(args []string) int {
	if len(args) == 0 {
		return defaultListLimit
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return defaultListLimit
	}
	return n
}

func event(typ, player string, data map[string]any) types.Event {
	return types.Event{Type: typ, Player: player, Data: data}
}

// --- Wallet ---

func (e *Engine) cmdBalance(player string) []string {
	acc, err := e.reg.GetOrCreateAccount(player)
	if err != nil {
		return fail(err)
	}
	return []string{
		fmt.Sprintf("Wallet: %s", money(acc.Wallet)),
		fmt.Sprintf("Bank:   %s", money(acc.BankBalance)),
		fmt.Sprintf("Total:  %s", money(acc.Wallet+acc.BankBalance)),
	}
}

func (e *Engine) cmdPay(player string, args []string) ([]string, []types.Event) {
	if len(args) < 2 {
		return usage("pay <player> <amount>"), nil
	}
	to := ledger.NormalizeName(args[0])
	amount, err := e.parseAmount(args[1])
	if err != nil {
		return fail(err), nil
	}
	if to == player {
		return fail(ledger.ErrSelfTransfer), nil
	}
	if !e.reg.Transfer(player, to, amount, "") {
		return fail(ledger.ErrInsufficientFunds), nil
	}
	return []string{fmt.Sprintf("You paid %s to %s.", money(amount), to)},
		[]types.Event{event("payment", player, map[string]any{"to": to, "amount": amount})}
}

func formatTx(tx types.Transaction) string {
	return fmt.Sprintf("%s  %-19s %10s  %s", tx.Timestamp.Format("01/02 15:04"), tx.Type, money(tx.Amount), tx.Description)
}

func (e *Engine) cmdStatement(player string, args []string) []string {
	txs := e.reg.Statement(player, listLimit(args))
	if len(txs) == 0 {
		return []string{"No bank transactions yet."}
	}
	out := []string{"Bank statement (newest first):"}
	for _, tx := range txs {
		out = append(out, formatTx(tx))
	}
	return out
}

func (e *Engine) cmdHistory(player string, args []string) []string {
	txs := e.reg.Transactions(player, listLimit(args))
	if len(txs) == 0 {
		return []string{"No transactions yet."}
	}
	out := []string{"Transactions (newest first):"}
	for _, tx := range txs {
		out = append(out, formatTx(tx))
	}
	return out
}

func (e *Engine) cmdStats(player string) []string {
	if _, err := e.reg.GetOrCreateAccount(player); err != nil {
		return fail(err)
	}
	st, _ := e.reg.Stats(player)
	return []string{
		fmt.Sprintf("Total wealth: %s", money(st.TotalWealth)),
		fmt.Sprintf("Earned: %s  Spent: %s", money(st.TotalEarned), money(st.TotalSpent)),
		fmt.Sprintf("Transactions: %d", st.TransactionCount),
		fmt.Sprintf("Member since %s, last active %s", st.JoinDate.Format("2006-01-02"), st.LastActive.Format("2006-01-02 15:04")),
	}
}

// --- Bank ---

func (e *Engine) cmdDeposit(player string, args []string) ([]string, []types.Event) {
	if len(args) < 1 {
		return usage("deposit <amount>"), nil
	}
	amount, err := e.parseAmount(args[0])
	if err != nil {
		return fail(err), nil
	}
	if err := e.bank.Deposit(player, amount); err != nil {
		return fail(err), nil
	}
	acc, _ := e.reg.Account(player)
	return []string{fmt.Sprintf("Deposited %s. Bank balance: %s.", money(amount), money(acc.BankBalance))},
		[]types.Event{event("deposit", player, map[string]any{"amount": amount})}
}

func (e *Engine) cmdWithdraw(player string, args []string) ([]string, []types.Event) {
	if len(args) < 1 {
		return usage("withdraw <amount>"), nil
	}
	amount, err := e.parseAmount(args[0])
	if err != nil {
		return fail(err), nil
	}
	if err := e.bank.Withdraw(player, amount); err != nil {
		return fail(err), nil
	}
	acc, _ := e.reg.Account(player)
	return []string{fmt.Sprintf("Withdrew %s. Wallet: %s.", money(amount), money(acc.Wallet))},
		[]types.Event{event("withdraw", player, map[string]any{"amount": amount})}
}

func (e *Engine) cmdTransfer(player string, args []string) ([]string, []types.Event) {
	if len(args) < 2 {
		return usage("transfer <player> <amount>"), nil
	}
	to := ledger.NormalizeName(args[0])
	amount, err := e.parseAmount(args[1])
	if err != nil {
		return fail(err), nil
	}
	fee, err := e.bank.TransferWithFee(player, to, amount)
	if err != nil {
		return fail(err), nil
	}
	return []string{fmt.Sprintf("Transferred %s to %s (fee %s).", money(amount), to, money(fee))},
		[]types.Event{event("bank_transfer", player, map[string]any{"to": to, "amount": amount, "fee": fee})}
}

func (e *Engine) cmdBank(player string) []string {
	bacc, err := e.bank.GetOrCreateBankAccount(player)
	if err != nil {
		return fail(err)
	}
	acc, _ := e.reg.Account(player)
	out := []string{
		fmt.Sprintf("%s account, credit score %d", bacc.AccountType, bacc.CreditScore),
		fmt.Sprintf("Bank balance: %s", money(acc.BankBalance)),
		fmt.Sprintf("Deposits %s, withdrawals %s, sent %s, received %s",
			money(bacc.TotalDeposits), money(bacc.TotalWithdrawals),
			money(bacc.TotalTransfersSent), money(bacc.TotalTransfersReceived)),
	}
	if next, ok := e.defs.NextTier(bacc.AccountType); ok {
		out = append(out, fmt.Sprintf("Upgrade to %s for %s.", next.Tier, money(next.UpgradeCost)))
	}
	return out
}

func (e *Engine) cmdReport(player string) []string {
	r, err := e.bank.Report(player)
	if err != nil {
		return fail(err)
	}
	out := []string{
		fmt.Sprintf("Report for %s", r.Account.Name),
		fmt.Sprintf("Wallet %s, bank %s, tier %s, credit score %d",
			money(r.Account.Wallet), money(r.Account.BankBalance), r.Bank.AccountType, r.Bank.CreditScore),
		fmt.Sprintf("Loans taken: %d", r.Bank.TotalLoans),
	}
	if r.Loan != nil {
		out = append(out, formatLoan(*r.Loan))
	}
	if r.Investment != nil {
		out = append(out, formatInvestment(*r.Investment, r.InvestmentValue))
	}
	return out
}

func (e *Engine) cmdUpgrade(player string) ([]string, []types.Event) {
	tier, err := e.bank.UpgradeAccount(player)
	if err != nil {
		return fail(err), nil
	}
	return []string{fmt.Sprintf("Your account is now %s (paid %s).", tier.Tier, money(tier.UpgradeCost))},
		[]types.Event{event("account_upgrade", player, map[string]any{"tier": string(tier.Tier)})}
}

// --- Loans ---

func formatLoan(l types.Loan) string {
	return fmt.Sprintf("Loan %s: %s remaining of %s, %d/%d installments of %s left, next due %s",
		l.Type, money(l.RemainingAmount), money(l.TotalAmount),
		l.RemainingInstallments, l.Installments, money(l.MonthlyPayment),
		l.NextPaymentDate.Format("2006-01-02"))
}

func (e *Engine) cmdLoan(player string, args []string) ([]string, []types.Event) {
	if len(args) == 0 {
		if l, ok := e.bank.Loan(player); ok {
			return []string{formatLoan(l)}, nil
		}
		return fail(ledger.ErrNoActiveLoan), nil
	}
	if len(args) < 3 {
		return usage("loan <type> <amount> <installments>"), nil
	}
	amount, err := e.parseAmount(args[1])
	if err != nil {
		return fail(err), nil
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fail(ledger.ErrInvalidInstallments), nil
	}
	l, err := e.bank.ApplyForLoanType(player, strings.ToLower(args[0]), amount, n)
	if err != nil {
		return fail(err), nil
	}
	return []string{
			fmt.Sprintf("Loan approved: %s credited to your wallet.", money(l.OriginalAmount)),
			fmt.Sprintf("You owe %s in %d installments of %s.", money(l.TotalAmount), l.Installments, money(l.MonthlyPayment)),
		},
		[]types.Event{event("loan_approved", player, map[string]any{"type": l.Type, "amount": l.OriginalAmount})}
}

func (e *Engine) cmdInstallment(player string) ([]string, []types.Event) {
	res, err := e.bank.PayInstallment(player)
	if err != nil {
		return fail(err), nil
	}
	if res.Closed {
		return []string{fmt.Sprintf("Paid %s. Your loan is fully repaid!", money(res.Paid))},
			[]types.Event{event("loan_paid", player, map[string]any{"amount": res.Paid})}
	}
	return []string{fmt.Sprintf("Paid %s. %s remaining over %d installments.",
		money(res.Paid), money(res.Remaining), res.RemainingInstallments)}, nil
}

func (e *Engine) cmdPayoff(player string) ([]string, []types.Event) {
	paid, err := e.bank.PayOffLoan(player)
	if err != nil {
		return fail(err), nil
	}
	return []string{fmt.Sprintf("Loan paid off with %s.", money(paid))},
		[]types.Event{event("loan_paid", player, map[string]any{"amount": paid})}
}

func (e *Engine) cmdLoanTypes() []string {
	out := []string{"Loan types:"}
	for _, id := range e.defs.LoanTypeIDs() {
		lt := e.defs.LoanTypes[id]
		counts := make([]string, len(lt.Installments))
		for i, n := range lt.Installments {
			counts[i] = strconv.Itoa(n)
		}
		out = append(out, fmt.Sprintf("  %-8s up to %s at %.0f%%, installments %s",
			id, money(lt.MaxAmount), lt.InterestRate*100, strings.Join(counts, "/")))
	}
	return out
}

// --- Investments ---

func formatInvestment(inv types.Investment, value int64) string {
	return fmt.Sprintf("Investment %s: %s invested, now worth %s (%d months)",
		inv.Type, money(inv.OriginalAmount), money(value), len(inv.Realized))
}

func (e *Engine) cmdInvest(player string, args []string) ([]string, []types.Event) {
	if len(args) < 2 {
		return usage("invest <type> <amount>"), nil
	}
	amount, err := e.parseAmount(args[1])
	if err != nil {
		return fail(err), nil
	}
	inv, err := e.bank.InvestType(player, strings.ToLower(args[0]), amount)
	if err != nil {
		return fail(err), nil
	}
	return []string{fmt.Sprintf("Invested %s in %s at %.0f%% a month.", money(inv.OriginalAmount), inv.Type, inv.Rate*100)},
		[]types.Event{event("investment", player, map[string]any{"type": inv.Type, "amount": inv.OriginalAmount})}
}

func (e *Engine) cmdInvestment(player string) []string {
	value, ok := e.bank.InvestmentValue(player)
	if !ok {
		return fail(ledger.ErrNoActiveInvestment)
	}
	inv, _ := e.bank.Investment(player)
	return []string{formatInvestment(inv, value)}
}

func (e *Engine) cmdCashout(player string) ([]string, []types.Event) {
	res, err := e.bank.WithdrawInvestment(player)
	if err != nil {
		return fail(err), nil
	}
	verb := "profit"
	profit := res.Profit
	if profit < 0 {
		verb, profit = "loss", -profit
	}
	return []string{fmt.Sprintf("Investment closed: %s paid into your bank (%s %s).", money(res.PaidOut), verb, money(profit))},
		[]types.Event{event("investment_withdrawn", player, map[string]any{"paid_out": res.PaidOut, "profit": res.Profit})}
}

func (e *Engine) cmdInvestmentTypes() []string {
	out := []string{"Investment types:"}
	for _, id := range e.defs.InvestmentTypeIDs() {
		it := e.defs.Investments[id]
		out = append(out, fmt.Sprintf("  %-10s %.0f%%/month, risk %.0f%%, minimum %s",
			id, it.Rate*100, it.Risk*100, money(it.MinAmount)))
	}
	return out
}
