package ledger

import "errors"

// Sentinel errors for every rejection the economy can produce.
var (
	ErrInvalidAmount          = errors.New("econ: invalid amount")
	ErrInsufficientFunds      = errors.New("econ: insufficient wallet funds")
	ErrInsufficientBankFunds  = errors.New("econ: insufficient bank funds")
	ErrCreditScoreTooLow      = errors.New("econ: credit score too low")
	ErrActiveLoan             = errors.New("econ: player already has an active loan")
	ErrActiveInvestment       = errors.New("econ: player already has an active investment")
	ErrBelowMinimumInvestment = errors.New("econ: amount below investment minimum")
	ErrOverDailyLimit         = errors.New("econ: daily sell limit exceeded")
	ErrUnknownItem            = errors.New("econ: unknown item")
	ErrAlreadyMaxTier         = errors.New("econ: account already at highest tier")
	ErrStorageFailure         = errors.New("econ: storage failure")

	ErrUnknownPlayer         = errors.New("econ: unknown player")
	ErrSelfTransfer          = errors.New("econ: cannot transfer to yourself")
	ErrNoActiveLoan          = errors.New("econ: no active loan")
	ErrNoActiveInvestment    = errors.New("econ: no active investment")
	ErrUnknownLoanType       = errors.New("econ: unknown loan type")
	ErrUnknownInvestmentType = errors.New("econ: unknown investment type")
	ErrLoanTooLarge          = errors.New("econ: loan exceeds type maximum")
	ErrInvalidInstallments   = errors.New("econ: unsupported installment count")
	ErrUnknownShop           = errors.New("econ: unknown shop")
	ErrShopExists            = errors.New("econ: shop already exists")
	ErrOutOfStock            = errors.New("econ: item out of stock")
	ErrInventoryFull         = errors.New("econ: not enough free inventory slots")
	ErrNotEnoughItems        = errors.New("econ: not enough items in inventory")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrInvalidAmount, "Invalid amount. Use a positive whole number within the economy's limit."},
	{ErrInsufficientFunds, "You don't have enough money in your wallet."},
	{ErrInsufficientBankFunds, "You don't have enough money in the bank."},
	{ErrCreditScoreTooLow, "Loan denied: your credit score is below 50."},
	{ErrActiveLoan, "You already have an active loan. Pay it off first."},
	{ErrActiveInvestment, "You already have an active investment. Withdraw it first."},
	{ErrBelowMinimumInvestment, "That amount is below the minimum for this investment."},
	{ErrOverDailyLimit, "You've reached today's sell limit for that item."},
	{ErrUnknownItem, "That item isn't traded here."},
	{ErrAlreadyMaxTier, "Your account is already at the highest tier."},
	{ErrStorageFailure, "Your change was applied but could not be saved. Tell an admin."},
	{ErrUnknownPlayer, "No account exists for that player."},
	{ErrSelfTransfer, "You can't transfer money to yourself."},
	{ErrNoActiveLoan, "You don't have an active loan."},
	{ErrNoActiveInvestment, "You don't have an active investment."},
	{ErrUnknownLoanType, "Unknown loan type."},
	{ErrUnknownInvestmentType, "Unknown investment type."},
	{ErrLoanTooLarge, "That amount is above the maximum for this loan type."},
	{ErrInvalidInstallments, "That number of installments isn't offered."},
	{ErrUnknownShop, "Unknown shop."},
	{ErrShopExists, "A shop with that ID already exists."},
	{ErrOutOfStock, "That item is out of stock."},
	{ErrInventoryFull, "Your inventory is full."},
	{ErrNotEnoughItems, "You don't have enough of that item."},
}

// Message returns the user-facing sentence for err. Unknown errors fall
// back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}

// IsMessage reports whether line is one of the user-facing rejection
// sentences returned by Message.
func IsMessage(line string) bool {
	for _, m := range messages {
		if m.msg == line {
			return true
		}
	}
	return false
}
