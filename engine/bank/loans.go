package bank

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

// CustomLoanType labels loans created through ApplyForLoan directly.
const CustomLoanType = "custom"

// InstallmentResult reports the state of a loan after one payment.
type InstallmentResult struct {
	Paid                  int64
	Remaining             int64
	RemainingInstallments int
	Closed                bool
}

// Loan returns a copy of the player's active loan.
func (b *Bank) Loan(player string) (types.Loan, bool) {
	l, ok := b.loans[ledger.NormalizeName(player)]
	if !ok {
		return types.Loan{}, false
	}
	return *l, true
}

// ApplyForLoanType applies for a catalog loan product.
func (b *Bank) ApplyForLoanType(player, typeID string, principal int64, installments int) (types.Loan, error) {
	lt, ok := b.defs.LoanTypes[typeID]
	if !ok {
		return types.Loan{}, fmt.Errorf("loan type %q: %w", typeID, ledger.ErrUnknownLoanType)
	}
	if principal > lt.MaxAmount {
		return types.Loan{}, fmt.Errorf("%s max %d: %w", lt.ID, lt.MaxAmount, ledger.ErrLoanTooLarge)
	}
	if !slices.Contains(lt.Installments, installments) {
		return types.Loan{}, fmt.Errorf("%d installments: %w", installments, ledger.ErrInvalidInstallments)
	}
	return b.applyForLoan(player, lt.ID, principal, lt.InterestRate, installments)
}

// ApplyForLoan approves a loan when the player has no active loan and a
// credit score of at least MinLoanCreditScore. The principal is credited
// to the wallet and the score takes a temporary penalty.
func (b *Bank) ApplyForLoan(player string, principal int64, interestRate float64, installments int) (types.Loan, error) {
	return b.applyForLoan(player, CustomLoanType, principal, interestRate, installments)
}

func (b *Bank) applyForLoan(player, typeID string, principal int64, interestRate float64, installments int) (types.Loan, error) {
	if !b.reg.ValidAmount(principal) {
		return types.Loan{}, fmt.Errorf("loan %d: %w", principal, ledger.ErrInvalidAmount)
	}
	if installments < 1 {
		return types.Loan{}, fmt.Errorf("%d installments: %w", installments, ledger.ErrInvalidInstallments)
	}
	acc, err := b.account(player)
	if err != nil {
		return types.Loan{}, err
	}
	if _, ok := b.loans[acc.Player]; ok {
		return types.Loan{}, ledger.ErrActiveLoan
	}
	if acc.CreditScore < MinLoanCreditScore {
		return types.Loan{}, ledger.ErrCreditScoreTooLow
	}

	total := decimal.NewFromInt(principal).
		Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(interestRate))).
		Ceil()
	monthly := total.Div(decimal.NewFromInt(int64(installments))).Ceil()

	desc := fmt.Sprintf("Loan approved (%d installments)", installments)
	if _, err := b.reg.Credit(acc.Player, principal, desc); err != nil {
		return types.Loan{}, err
	}

	now := b.now()
	loan := &types.Loan{
		Player:                acc.Player,
		Type:                  typeID,
		OriginalAmount:        principal,
		TotalAmount:           total.IntPart(),
		RemainingAmount:       total.IntPart(),
		MonthlyPayment:        monthly.IntPart(),
		Installments:          installments,
		RemainingInstallments: installments,
		InterestRate:          interestRate,
		StartDate:             now,
		NextPaymentDate:       now.AddDate(0, 1, 0),
		Status:                types.LoanActive,
	}
	b.loans[acc.Player] = loan
	acc.TotalLoans++
	b.adjustScore(acc, loanApprovalPenalty)
	acc.LastActivity = now
	b.log.Info("loan approved", "player", acc.Player, "type", typeID, "principal", principal,
		"total", loan.TotalAmount, "installments", installments)
	b.changed()
	return *loan, nil
}

// PayInstallment pays one monthly installment from the bank balance. The
// last installment is capped at the remaining amount. Completing the
// schedule deletes the loan and raises the credit score.
func (b *Bank) PayInstallment(player string) (InstallmentResult, error) {
	player = ledger.NormalizeName(player)
	loan, ok := b.loans[player]
	if !ok {
		return InstallmentResult{}, ledger.ErrNoActiveLoan
	}
	payment := min(loan.MonthlyPayment, loan.RemainingAmount)
	if payment > 0 {
		desc := fmt.Sprintf("Loan installment %d/%d", loan.Installments-loan.RemainingInstallments+1, loan.Installments)
		if !b.reg.BankDebit(player, payment, types.TxLoanPayment, desc) {
			return InstallmentResult{}, ledger.ErrInsufficientBankFunds
		}
	}
	loan.RemainingAmount -= payment
	loan.RemainingInstallments--
	if loan.RemainingAmount <= 0 {
		loan.RemainingInstallments = 0
	}

	acc, err := b.account(player)
	if err != nil {
		return InstallmentResult{}, err
	}
	acc.LastActivity = b.now()

	res := InstallmentResult{
		Paid:                  payment,
		Remaining:             loan.RemainingAmount,
		RemainingInstallments: loan.RemainingInstallments,
	}
	if loan.RemainingInstallments <= 0 {
		loan.Status = types.LoanPaid
		delete(b.loans, player)
		b.adjustScore(acc, loanCompletedBonus)
		res.Closed = true
		b.log.Info("loan paid", "player", player)
	} else {
		loan.NextPaymentDate = loan.NextPaymentDate.AddDate(0, 1, 0)
	}
	b.changed()
	return res, nil
}

// PayOffLoan settles the remaining amount in one payment. Returns the
// amount paid.
func (b *Bank) PayOffLoan(player string) (int64, error) {
	player = ledger.NormalizeName(player)
	loan, ok := b.loans[player]
	if !ok {
		return 0, ledger.ErrNoActiveLoan
	}
	paid := loan.RemainingAmount
	if paid > 0 && !b.reg.BankDebit(player, paid, types.TxLoanPayoff, "Loan paid off") {
		return 0, ledger.ErrInsufficientBankFunds
	}
	acc, err := b.account(player)
	if err != nil {
		return 0, err
	}
	loan.RemainingAmount = 0
	loan.RemainingInstallments = 0
	loan.Status = types.LoanPaidOff
	delete(b.loans, player)
	b.adjustScore(acc, loanPayoffBonus)
	acc.LastActivity = b.now()
	b.log.Info("loan paid off", "player", player, "amount", paid)
	b.changed()
	return paid, nil
}
