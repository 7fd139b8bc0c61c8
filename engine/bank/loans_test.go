package bank

import (
	"errors"
	"testing"
	"time"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

func TestLoanAmortization(t *testing.T) {
	b, reg, _ := newTestBank(t)

	loan, err := b.ApplyForLoan("Alice", 10_000, 0.05, 6)
	if err != nil {
		t.Fatalf("ApplyForLoan: %v", err)
	}
	if loan.TotalAmount != 10_500 {
		t.Errorf("total = %d, want 10500", loan.TotalAmount)
	}
	if loan.MonthlyPayment != 1750 {
		t.Errorf("monthly = %d, want 1750", loan.MonthlyPayment)
	}
	acc, _ := reg.Account("Alice")
	if acc.Wallet != 11_000 {
		t.Errorf("wallet = %d, want 11000 (bonus + principal)", acc.Wallet)
	}
	approved, _ := b.BankAccount("Alice")
	if approved.CreditScore != 65 {
		t.Errorf("score after approval = %d, want 65", approved.CreditScore)
	}

	fund(t, reg, "Alice", 10_500)
	var res InstallmentResult
	for i := 1; i <= 6; i++ {
		res, err = b.PayInstallment("Alice")
		if err != nil {
			t.Fatalf("installment %d: %v", i, err)
		}
		if res.Paid != 1750 {
			t.Errorf("installment %d paid = %d, want 1750", i, res.Paid)
		}
		if i < 6 && res.Closed {
			t.Fatalf("loan closed early at installment %d", i)
		}
	}
	if !res.Closed || res.RemainingInstallments != 0 || res.Remaining != 0 {
		t.Errorf("final result = %+v", res)
	}
	if _, ok := b.Loan("Alice"); ok {
		t.Error("loan still exists after final installment")
	}
	done, _ := b.BankAccount("Alice")
	if done.CreditScore != approved.CreditScore+15 {
		t.Errorf("score = %d, want %d", done.CreditScore, approved.CreditScore+15)
	}
	if got := bankBalance(reg, "Alice"); got != 0 {
		t.Errorf("bank = %d, want 0", got)
	}
	if _, err := b.PayInstallment("Alice"); !errors.Is(err, ledger.ErrNoActiveLoan) {
		t.Errorf("err = %v, want ErrNoActiveLoan", err)
	}
}

func TestPayInstallment_FinalCappedAtRemaining(t *testing.T) {
	b, reg, _ := newTestBank(t)
	// 1000 * 1.05 = 1050; ceil(1050/4) = 263; 3*263 = 789, last = 261.
	if _, err := b.ApplyForLoan("Alice", 1000, 0.05, 4); err != nil {
		t.Fatal(err)
	}
	fund(t, reg, "Alice", 5000)
	var paid []int64
	for {
		res, err := b.PayInstallment("Alice")
		if err != nil {
			t.Fatal(err)
		}
		paid = append(paid, res.Paid)
		if res.Closed {
			break
		}
	}
	want := []int64{263, 263, 263, 261}
	if len(paid) != len(want) {
		t.Fatalf("payments = %v, want %v", paid, want)
	}
	for i := range want {
		if paid[i] != want[i] {
			t.Errorf("payment %d = %d, want %d", i, paid[i], want[i])
		}
	}
}

func TestPayInstallment_NextPaymentDate(t *testing.T) {
	b, reg, clock := newTestBank(t)
	if _, err := b.ApplyForLoan("Alice", 1200, 0, 12); err != nil {
		t.Fatal(err)
	}
	loan, _ := b.Loan("Alice")
	if want := clock.t.AddDate(0, 1, 0); !loan.NextPaymentDate.Equal(want) {
		t.Errorf("next payment = %v, want %v", loan.NextPaymentDate, want)
	}
	fund(t, reg, "Alice", 100)
	if _, err := b.PayInstallment("Alice"); err != nil {
		t.Fatal(err)
	}
	loan, _ = b.Loan("Alice")
	if want := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC); !loan.NextPaymentDate.Equal(want) {
		t.Errorf("next payment = %v, want %v", loan.NextPaymentDate, want)
	}
	if loan.RemainingInstallments != 11 || loan.RemainingAmount != 1100 {
		t.Errorf("loan = %+v", loan)
	}
}

func TestPayInstallment_InsufficientBankFunds(t *testing.T) {
	b, reg, _ := newTestBank(t)
	if _, err := b.ApplyForLoan("Alice", 10_000, 0.05, 6); err != nil {
		t.Fatal(err)
	}
	fund(t, reg, "Alice", 1749)
	before, _ := b.Loan("Alice")
	if _, err := b.PayInstallment("Alice"); !errors.Is(err, ledger.ErrInsufficientBankFunds) {
		t.Fatalf("err = %v, want ErrInsufficientBankFunds", err)
	}
	after, _ := b.Loan("Alice")
	if after.RemainingAmount != before.RemainingAmount || after.RemainingInstallments != before.RemainingInstallments {
		t.Errorf("loan changed after failed payment: %+v", after)
	}
	if got := bankBalance(reg, "Alice"); got != 1749 {
		t.Errorf("bank = %d, want 1749", got)
	}
}

func TestPayOffLoan(t *testing.T) {
	b, reg, _ := newTestBank(t)
	if _, err := b.ApplyForLoan("Alice", 10_000, 0.05, 6); err != nil {
		t.Fatal(err)
	}
	fund(t, reg, "Alice", 10_499)
	if _, err := b.PayOffLoan("Alice"); !errors.Is(err, ledger.ErrInsufficientBankFunds) {
		t.Fatalf("err = %v, want ErrInsufficientBankFunds", err)
	}
	fund(t, reg, "Alice", 10_500)
	paid, err := b.PayOffLoan("Alice")
	if err != nil {
		t.Fatalf("PayOffLoan: %v", err)
	}
	if paid != 10_500 {
		t.Errorf("paid = %d, want 10500", paid)
	}
	if _, ok := b.Loan("Alice"); ok {
		t.Error("loan still exists")
	}
	acc, _ := b.BankAccount("Alice")
	if acc.CreditScore != 90 {
		t.Errorf("score = %d, want 90 (75 - 10 + 25)", acc.CreditScore)
	}
	last := reg.Transactions("Alice", 1)[0]
	if last.Type != types.TxLoanPayoff {
		t.Errorf("last tx type = %s, want loan_payoff", last.Type)
	}
}

func TestPayOffLoan_TotalAboveMaxAmount(t *testing.T) {
	b, reg, _ := newTestBank(t)
	loan, err := b.ApplyForLoan("Alice", ledger.DefaultMaxAmount, 0.05, 6)
	if err != nil {
		t.Fatal(err)
	}
	if loan.TotalAmount <= ledger.DefaultMaxAmount {
		t.Fatalf("total = %d, want above %d", loan.TotalAmount, ledger.DefaultMaxAmount)
	}
	fund(t, reg, "Alice", 2_000_000_000)
	paid, err := b.PayOffLoan("Alice")
	if err != nil {
		t.Fatalf("PayOffLoan: %v", err)
	}
	if paid != loan.TotalAmount {
		t.Errorf("paid = %d, want %d", paid, loan.TotalAmount)
	}
	if got, want := bankBalance(reg, "Alice"), 2_000_000_000-loan.TotalAmount; got != want {
		t.Errorf("bank = %d, want %d", got, want)
	}
	if _, ok := b.Loan("Alice"); ok {
		t.Error("loan still exists")
	}
}

func TestApplyForLoan_Rejections(t *testing.T) {
	b, _, _ := newTestBank(t)
	if _, err := b.ApplyForLoan("Alice", 1000, 0.05, 6); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ApplyForLoan("Alice", 1000, 0.05, 6); !errors.Is(err, ledger.ErrActiveLoan) {
		t.Errorf("second loan err = %v, want ErrActiveLoan", err)
	}

	tests := []struct {
		name         string
		typeID       string
		principal    int64
		installments int
		want         error
	}{
		{"unknown type", "huge", 1000, 6, ledger.ErrUnknownLoanType},
		{"over max", "small", 10_001, 6, ledger.ErrLoanTooLarge},
		{"bad installments", "small", 1000, 7, ledger.ErrInvalidInstallments},
		{"zero principal", "small", 0, 6, ledger.ErrInvalidAmount},
	}
	for _, tt := range tests {
		if _, err := b.ApplyForLoanType("Bob", tt.typeID, tt.principal, tt.installments); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
	if _, ok := b.Loan("Bob"); ok {
		t.Error("rejected application created a loan")
	}
}

func TestApplyForLoan_CreditScoreTooLow(t *testing.T) {
	b, reg, _ := newTestBank(t)
	fund(t, reg, "Alice", 100_000)

	snap := b.Snapshot()
	acc, _ := b.GetOrCreateBankAccount("Alice")
	acc.CreditScore = 49
	snap.BankAccounts["Alice"] = acc
	b.Restore(snap)

	walletBefore, _ := reg.Account("Alice")
	if _, err := b.ApplyForLoan("Alice", 1000, 0.05, 6); !errors.Is(err, ledger.ErrCreditScoreTooLow) {
		t.Fatalf("err = %v, want ErrCreditScoreTooLow", err)
	}
	walletAfter, _ := reg.Account("Alice")
	if walletAfter.Wallet != walletBefore.Wallet {
		t.Errorf("wallet changed on rejection: %d -> %d", walletBefore.Wallet, walletAfter.Wallet)
	}
}
