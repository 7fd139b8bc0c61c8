package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/nathoo/econcore/types"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newTestRegistry(t *testing.T) (*Registry, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	seq := 0
	r := New(
		WithClock(clock.Now),
		WithIDGenerator(func(prefix string) string {
			seq++
			return fmt.Sprintf("%s_%d", prefix, seq)
		}),
	)
	return r, clock
}

func TestNewAccount_SignupBonus(t *testing.T) {
	r, _ := newTestRegistry(t)
	acc, err := r.GetOrCreateAccount("Alice")
	if err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	if acc.Wallet != 1000 {
		t.Errorf("wallet = %d, want 1000", acc.Wallet)
	}
	if acc.TotalEarned != 1000 {
		t.Errorf("totalEarned = %d, want 1000", acc.TotalEarned)
	}
	if acc.BankBalance != 0 || acc.TotalSpent != 0 || len(acc.Transactions) != 0 {
		t.Errorf("new account not zeroed: %+v", acc)
	}
	if got := r.Global().TotalMoney; got != 1000 {
		t.Errorf("totalMoney = %d, want 1000", got)
	}

	// Second access does not grant the bonus again.
	if _, err := r.GetOrCreateAccount("Alice"); err != nil {
		t.Fatal(err)
	}
	if got := r.Global().TotalMoney; got != 1000 {
		t.Errorf("totalMoney after second access = %d, want 1000", got)
	}
}

func TestGetOrCreateAccount_BlankName(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.GetOrCreateAccount("   "); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("err = %v, want ErrUnknownPlayer", err)
	}
	if r.Count() != 0 {
		t.Errorf("count = %d, want 0", r.Count())
	}
}

func TestAliceBobScenario(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.GetOrCreateAccount("Alice"); err != nil {
		t.Fatal(err)
	}

	wallet, err := r.Credit("Alice", 500, "bonus")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if wallet != 1500 {
		t.Errorf("wallet after credit = %d, want 1500", wallet)
	}
	alice, _ := r.Account("Alice")
	if alice.TotalEarned != 1500 {
		t.Errorf("totalEarned = %d, want 1500", alice.TotalEarned)
	}

	if r.Debit("Alice", 2000, "x") {
		t.Error("Debit(2000) succeeded, want false")
	}
	alice, _ = r.Account("Alice")
	if alice.Wallet != 1500 {
		t.Errorf("wallet after failed debit = %d, want 1500", alice.Wallet)
	}

	if !r.Transfer("Alice", "Bob", 1500, "gift") {
		t.Fatal("Transfer failed")
	}
	alice, _ = r.Account("Alice")
	bob, ok := r.Account("Bob")
	if !ok {
		t.Fatal("Bob was not auto-created")
	}
	if alice.Wallet != 0 {
		t.Errorf("Alice wallet = %d, want 0", alice.Wallet)
	}
	if bob.Wallet != 2500 {
		t.Errorf("Bob wallet = %d, want 2500", bob.Wallet)
	}
}

func TestCredit_InvalidAmount(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.GetOrCreateAccount("Alice")
	before, _ := r.Account("Alice")

	for _, amount := range []int64{0, -5, DefaultMaxAmount + 1} {
		if _, err := r.Credit("Alice", amount, "bad"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Credit(%d) err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	after, _ := r.Account("Alice")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("account changed after invalid credits:\n before %+v\n after  %+v", before, after)
	}
	if _, err := r.Credit("Alice", DefaultMaxAmount, "max"); err != nil {
		t.Errorf("Credit(MaxAmount) err = %v", err)
	}
}

func TestDebit_Atomicity(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Credit("Alice", 250, "seed")
	before, _ := r.Account("Alice")
	statsBefore := r.Global()

	if r.Debit("Alice", before.Wallet+1, "too much") {
		t.Fatal("Debit succeeded with insufficient funds")
	}
	after, _ := r.Account("Alice")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("account changed:\n before %+v\n after  %+v", before, after)
	}
	if r.Global() != statsBefore {
		t.Errorf("global stats changed: %+v -> %+v", statsBefore, r.Global())
	}
}

func TestDebit_RecordsExpense(t *testing.T) {
	r, _ := newTestRegistry(t)
	if !r.Debit("Alice", 300, "shop") {
		t.Fatal("Debit failed")
	}
	acc, _ := r.Account("Alice")
	if acc.Wallet != 700 || acc.TotalSpent != 300 {
		t.Errorf("wallet/spent = %d/%d, want 700/300", acc.Wallet, acc.TotalSpent)
	}
	last := acc.Transactions[len(acc.Transactions)-1]
	if last.Type != types.TxExpense || last.Amount != 300 || last.BalanceAfter != 700 {
		t.Errorf("last tx = %+v", last)
	}
}

func TestTransactionCap_FIFO(t *testing.T) {
	r, _ := newTestRegistry(t)
	for i := int64(1); i <= 105; i++ {
		if _, err := r.Credit("Alice", i, fmt.Sprintf("c%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	acc, _ := r.Account("Alice")
	if len(acc.Transactions) != 100 {
		t.Fatalf("len = %d, want 100", len(acc.Transactions))
	}
	if acc.Transactions[0].Amount != 6 {
		t.Errorf("oldest kept amount = %d, want 6", acc.Transactions[0].Amount)
	}
	if acc.Transactions[99].Amount != 105 {
		t.Errorf("newest amount = %d, want 105", acc.Transactions[99].Amount)
	}
	if got := r.Global().TotalTransactions; got != 105 {
		t.Errorf("totalTransactions = %d, want 105", got)
	}
}

func TestTransfer_Rejections(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.GetOrCreateAccount("Alice")
	tests := []struct {
		name     string
		from, to string
		amount   int64
	}{
		{"self", "Alice", "Alice", 10},
		{"zero", "Alice", "Bob", 0},
		{"insufficient", "Alice", "Bob", 5000},
		{"blank recipient", "Alice", " ", 10},
	}
	for _, tt := range tests {
		if r.Transfer(tt.from, tt.to, tt.amount, "x") {
			t.Errorf("%s: Transfer succeeded, want false", tt.name)
		}
	}
	if r.Exists("Bob") {
		t.Error("failed transfer created recipient")
	}
}

func TestBankDepositWithdraw(t *testing.T) {
	r, _ := newTestRegistry(t)
	if !r.DepositToBank("Alice", 600) {
		t.Fatal("deposit failed")
	}
	acc, _ := r.Account("Alice")
	if acc.Wallet != 400 || acc.BankBalance != 600 {
		t.Errorf("wallet/bank = %d/%d, want 400/600", acc.Wallet, acc.BankBalance)
	}
	if acc.TotalSpent != 0 {
		t.Errorf("deposit counted as spending: %d", acc.TotalSpent)
	}
	if got := acc.Transactions[len(acc.Transactions)-1].Type; got != types.TxBankDeposit {
		t.Errorf("tx type = %s, want bank_deposit", got)
	}

	if r.WithdrawFromBank("Alice", 601) {
		t.Error("overdrawn withdraw succeeded")
	}
	if !r.WithdrawFromBank("Alice", 100) {
		t.Fatal("withdraw failed")
	}
	acc, _ = r.Account("Alice")
	if acc.Wallet != 500 || acc.BankBalance != 500 {
		t.Errorf("wallet/bank = %d/%d, want 500/500", acc.Wallet, acc.BankBalance)
	}
	if got := acc.Transactions[len(acc.Transactions)-1].Type; got != types.TxBankWithdraw {
		t.Errorf("tx type = %s, want bank_withdraw", got)
	}
	if got := r.Global().TotalMoney; got != 1000 {
		t.Errorf("totalMoney = %d, want 1000 (internal moves)", got)
	}
}

func TestBankTransferFee_SinksFee(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.DepositToBank("Alice", 1000)

	if !r.BankTransferFee("Alice", "Bob", 500, 5) {
		t.Fatal("transfer failed")
	}
	alice, _ := r.Account("Alice")
	bob, _ := r.Account("Bob")
	if alice.BankBalance != 495 {
		t.Errorf("Alice bank = %d, want 495", alice.BankBalance)
	}
	if bob.BankBalance != 500 || bob.Wallet != 1000 {
		t.Errorf("Bob bank/wallet = %d/%d, want 500/1000", bob.BankBalance, bob.Wallet)
	}
	out := alice.Transactions[len(alice.Transactions)-1]
	if out.Type != types.TxBankTransferOut || out.Amount != 505 {
		t.Errorf("sender tx = %+v", out)
	}
	in := bob.Transactions[len(bob.Transactions)-1]
	if in.Type != types.TxBankTransferIn || in.Amount != 500 {
		t.Errorf("recipient tx = %+v", in)
	}
	if got, want := r.Global().TotalMoney, int64(2000-5); got != want {
		t.Errorf("totalMoney = %d, want %d", got, want)
	}
	if r.Circulation() != r.Global().TotalMoney {
		t.Errorf("circulation %d != totalMoney %d", r.Circulation(), r.Global().TotalMoney)
	}

	if r.BankTransferFee("Alice", "Bob", 491, 5) {
		t.Error("transfer succeeded without room for the fee")
	}
}

func TestBankTransferFee_UnknownSender(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.DepositToBank("Bob", 100)
	before := r.Global().TotalMoney

	if r.BankTransferFee("Ghost", "Bob", 10, 1) {
		t.Fatal("transfer from a missing account succeeded")
	}
	if r.Exists("Ghost") {
		t.Error("failed transfer created the sender")
	}
	if got := r.Global().TotalMoney; got != before {
		t.Errorf("totalMoney = %d, want %d", got, before)
	}
}

func TestBankDebit_AboveMaxAmount(t *testing.T) {
	r, _ := newTestRegistry(t)
	big := DefaultMaxAmount + 50_000_000
	if err := r.SetBankBalance("Alice", big); err != nil {
		t.Fatal(err)
	}
	if !r.BankDebit("Alice", big, types.TxLoanPayoff, "Loan paid off") {
		t.Fatal("debit above the per-move limit failed")
	}
	if r.BankDebit("Alice", 0, types.TxLoanPayoff, "zero") {
		t.Error("zero debit succeeded")
	}
	if acc, _ := r.Account("Alice"); acc.BankBalance != 0 {
		t.Errorf("bank = %d, want 0", acc.BankBalance)
	}
}

func TestWithMaxAmount(t *testing.T) {
	tests := []struct {
		name  string
		limit int64
		want  int64
	}{
		{"custom", 500, 500},
		{"zero keeps default", 0, DefaultMaxAmount},
		{"negative keeps default", -1, DefaultMaxAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(WithMaxAmount(tt.limit))
			if got := r.MaxAmount(); got != tt.want {
				t.Fatalf("MaxAmount = %d, want %d", got, tt.want)
			}
			if !r.ValidAmount(tt.want) || r.ValidAmount(tt.want+1) {
				t.Errorf("ValidAmount boundary wrong at %d", tt.want)
			}
		})
	}

	r := New(WithMaxAmount(500))
	if _, err := r.Credit("Alice", 501, "gift"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Credit(501) err = %v, want ErrInvalidAmount", err)
	}
	if _, err := r.Credit("Alice", 500, "gift"); err != nil {
		t.Errorf("Credit(500): %v", err)
	}
	if r.Transfer("Alice", "Bob", 501, "") {
		t.Error("Transfer(501) succeeded above limit")
	}
}

func TestConservation_Transfers(t *testing.T) {
	r, _ := newTestRegistry(t)
	players := []string{"Alice", "Bob", "Carol"}
	for _, p := range players {
		r.GetOrCreateAccount(p)
		r.DepositToBank(p, 400)
	}
	total := r.Circulation()

	for i := 0; i < 60; i++ {
		from := players[i%3]
		to := players[(i+1)%3]
		amount := int64(i*37%500 + 1)
		if i%2 == 0 {
			r.Transfer(from, to, amount, "")
		} else {
			r.BankTransfer(from, to, amount)
		}
		if got := r.Circulation(); got != total {
			t.Fatalf("step %d: circulation = %d, want %d", i, got, total)
		}
	}
	for _, p := range players {
		acc, _ := r.Account(p)
		if acc.Wallet < 0 || acc.BankBalance < 0 {
			t.Errorf("%s negative: %+v", p, acc)
		}
	}
	if r.Global().TotalMoney != total {
		t.Errorf("totalMoney = %d, want %d", r.Global().TotalMoney, total)
	}
}

func TestSetBalances_ClampToZero(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.SetWalletBalance("Alice", -50)
	r.SetBankBalance("Alice", -1)
	acc, _ := r.Account("Alice")
	if acc.Wallet != 0 || acc.BankBalance != 0 {
		t.Errorf("wallet/bank = %d/%d, want 0/0", acc.Wallet, acc.BankBalance)
	}
	if len(acc.Transactions) != 0 {
		t.Errorf("set recorded %d transactions", len(acc.Transactions))
	}
	r.SetBankBalance("Alice", 700)
	acc, _ = r.Account("Alice")
	if acc.BankBalance != 700 {
		t.Errorf("bank = %d, want 700", acc.BankBalance)
	}
}

func TestBankDebitCredit(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.SetBankBalance("Alice", 100)
	if r.BankDebit("Alice", 101, types.TxLoanPayment, "x") {
		t.Error("BankDebit over balance succeeded")
	}
	if !r.BankDebit("Alice", 40, types.TxLoanPayment, "installment") {
		t.Fatal("BankDebit failed")
	}
	if err := r.BankCredit("Alice", 0, types.TxInvestmentWithdraw, "nothing"); err != nil {
		t.Errorf("zero BankCredit err = %v", err)
	}
	if err := r.BankCredit("Alice", -1, types.TxInvestmentWithdraw, "bad"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative BankCredit err = %v", err)
	}
	if err := r.BankCredit("Alice", 15, types.TxInvestmentWithdraw, "payout"); err != nil {
		t.Fatal(err)
	}
	acc, _ := r.Account("Alice")
	if acc.BankBalance != 75 {
		t.Errorf("bank = %d, want 75", acc.BankBalance)
	}
	if len(acc.Transactions) != 2 {
		t.Errorf("transactions = %d, want 2", len(acc.Transactions))
	}
}

func TestTransactions_NewestFirst(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Credit("Alice", 1, "a")
	r.DepositToBank("Alice", 2)
	r.Credit("Alice", 3, "c")

	got := r.Transactions("Alice", 2)
	if len(got) != 2 || got[0].Amount != 3 || got[1].Amount != 2 {
		t.Errorf("Transactions = %+v", got)
	}
	stmt := r.Statement("Alice", 10)
	if len(stmt) != 1 || stmt[0].Type != types.TxBankDeposit {
		t.Errorf("Statement = %+v", stmt)
	}
	if r.Transactions("Nobody", 5) != nil {
		t.Error("unknown player returned transactions")
	}
}

func TestCheckDailyReset(t *testing.T) {
	r, clock := newTestRegistry(t)
	r.Credit("Alice", 10, "x")
	if r.CheckDailyReset() {
		t.Error("reset on the same day")
	}
	if r.Global().DailyTransactions != 1 {
		t.Errorf("daily = %d, want 1", r.Global().DailyTransactions)
	}

	clock.t = clock.t.Add(24 * time.Hour)
	if !r.CheckDailyReset() {
		t.Error("no reset on a new day")
	}
	if r.CheckDailyReset() {
		t.Error("second check reset again")
	}
	g := r.Global()
	if g.DailyTransactions != 0 || g.TotalTransactions != 1 {
		t.Errorf("stats = %+v", g)
	}
	if g.LastResetDate != "2025-03-11" {
		t.Errorf("lastResetDate = %q", g.LastResetDate)
	}
}

func TestSnapshotRestore(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Credit("Alice", 50, "x")
	r.Transfer("Alice", "Bob", 25, "")
	accounts, stats := r.Snapshot()

	r2, _ := newTestRegistry(t)
	r2.Restore(accounts, stats)
	if r2.Count() != 2 {
		t.Errorf("count = %d, want 2", r2.Count())
	}
	a1, _ := r.Account("Alice")
	a2, _ := r2.Account("Alice")
	if !reflect.DeepEqual(a1, a2) {
		t.Errorf("restored account differs:\n%+v\n%+v", a1, a2)
	}
	if r2.Global() != stats {
		t.Errorf("stats = %+v, want %+v", r2.Global(), stats)
	}

	// Snapshot copies must not alias live records.
	accounts["Alice"] = types.Account{Name: "Alice", Wallet: 1}
	if a, _ := r.Account("Alice"); a.Wallet == 1 {
		t.Error("snapshot aliases live account")
	}
}

func TestOnChangeHook(t *testing.T) {
	calls := 0
	r := New(WithOnChange(func() { calls++ }))
	r.Credit("Alice", 5, "x")
	if calls == 0 {
		t.Error("onChange not called")
	}
	before := calls
	r.Debit("Alice", 1_000_000, "no")
	if calls != before {
		t.Error("onChange called for a rejected debit")
	}
}
