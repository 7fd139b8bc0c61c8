// Package types defines the shared data structures for the econcore ledger.
// The package holds type definitions only, with no logic.
package types

import "time"

// TxType identifies the kind of a Transaction.
type TxType string

// Transaction kinds recorded in an account's log.
const (
	TxIncome             TxType = "income"
	TxExpense            TxType = "expense"
	TxBankDeposit        TxType = "bank_deposit"
	TxBankWithdraw       TxType = "bank_withdraw"
	TxBankTransferIn     TxType = "bank_transfer_in"
	TxBankTransferOut    TxType = "bank_transfer_out"
	TxLoanPayment        TxType = "loan_payment"
	TxLoanPayoff         TxType = "loan_payoff"
	TxInvestment         TxType = "investment"
	TxInvestmentWithdraw TxType = "investment_withdraw"
	TxAccountUpgrade     TxType = "account_upgrade"
)

// Transaction is an immutable entry in an account's bounded log.
type Transaction struct {
	ID           string    `json:"id"`
	Type         TxType    `json:"type"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	BalanceAfter int64     `json:"balanceAfter"`
	Timestamp    time.Time `json:"timestamp"`
}

// Account is a player's money record. Keyed by player name.
type Account struct {
	Name          string        `json:"name"`
	Wallet        int64         `json:"wallet"`
	BankBalance   int64         `json:"bankBalance"`
	TotalEarned   int64         `json:"totalEarned"`
	TotalSpent    int64         `json:"totalSpent"`
	LoyaltyPoints int64         `json:"loyaltyPoints,omitempty"`
	Transactions  []Transaction `json:"transactions"`
	JoinDate      time.Time     `json:"joinDate"`
	LastActive    time.Time     `json:"lastActive"`
}

// AccountStats is the summary returned by a stats query.
type AccountStats struct {
	TotalWealth      int64
	TotalEarned      int64
	TotalSpent       int64
	TransactionCount int
	JoinDate         time.Time
	LastActive       time.Time
}

// GlobalStats holds process-wide running counters.
type GlobalStats struct {
	TotalMoney        int64  `json:"totalMoney"`
	TotalTransactions int64  `json:"totalTransactions"`
	DailyTransactions int64  `json:"dailyTransactions"`
	LastResetDate     string `json:"lastResetDate"`
}

// Tier is a bank account tier name.
type Tier string

// Account tiers, lowest first.
const (
	TierBasic   Tier = "Basic"
	TierPremium Tier = "Premium"
	TierVIP     Tier = "VIP"
	TierBlack   Tier = "Black"
)

// TierDef is one step of the upgrade ladder.
type TierDef struct {
	Tier        Tier
	UpgradeCost int64 // cost to reach this tier from the previous one
}

// BankAccount is the per-player bank metadata layered on top of Account.
type BankAccount struct {
	Player                 string    `json:"player"`
	AccountType            Tier      `json:"accountType"`
	CreditScore            int       `json:"creditScore"`
	TotalDeposits          int64     `json:"totalDeposits"`
	TotalWithdrawals       int64     `json:"totalWithdrawals"`
	TotalTransfersSent     int64     `json:"totalTransfersSent"`
	TotalTransfersReceived int64     `json:"totalTransfersReceived"`
	TotalLoans             int       `json:"totalLoans"`
	CreatedDate            time.Time `json:"createdDate"`
	LastActivity           time.Time `json:"lastActivity"`
}

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

// Loan states.
const (
	LoanActive  LoanStatus = "active"
	LoanPaid    LoanStatus = "paid"
	LoanPaidOff LoanStatus = "paid_off"
)

// Loan is a player's single active loan.
type Loan struct {
	Player                string     `json:"player"`
	Type                  string     `json:"type"`
	OriginalAmount        int64      `json:"originalAmount"`
	TotalAmount           int64      `json:"totalAmount"`
	RemainingAmount       int64      `json:"remainingAmount"`
	MonthlyPayment        int64      `json:"monthlyPayment"`
	Installments          int        `json:"installments"`
	RemainingInstallments int        `json:"remainingInstallments"`
	InterestRate          float64    `json:"interestRate"`
	StartDate             time.Time  `json:"startDate"`
	NextPaymentDate       time.Time  `json:"nextPaymentDate"`
	Status                LoanStatus `json:"status"`
}

// LoanType is a catalog entry for loan applications.
type LoanType struct {
	ID           string
	Name         string
	MaxAmount    int64
	InterestRate float64
	Installments []int
}

// Investment is a player's single active investment. Realized holds the
// outcome of each resolved month (true = gain) so the value never changes
// once a month has been observed.
type Investment struct {
	Player         string    `json:"player"`
	Type           string    `json:"type"`
	OriginalAmount int64     `json:"originalAmount"`
	Amount         int64     `json:"amount"`
	Rate           float64   `json:"rate"`
	Risk           float64   `json:"risk"`
	StartDate      time.Time `json:"startDate"`
	Realized       []bool    `json:"realized"`
}

// InvestmentType is a catalog entry for investments.
type InvestmentType struct {
	ID        string
	Name      string
	Rate      float64 // monthly
	Risk      float64 // probability of a losing month
	MinAmount int64
}

// ItemDef is a tradable item in the exchange catalog.
type ItemDef struct {
	ID         string
	BasePrice  int64
	DailyLimit int
	Category   string
}

// ExchangeRate is the live price state of a catalog item.
type ExchangeRate struct {
	ItemID      string    `json:"itemId"`
	BasePrice   int64     `json:"price"`
	DailyLimit  int       `json:"dailyLimit"`
	Category    string    `json:"category"`
	Fluctuation float64   `json:"fluctuation"`
	LastUpdate  time.Time `json:"lastUpdate"`
}

// DailyUsage tracks units sold by one player of one item on Date.
type DailyUsage struct {
	Date string `json:"date"`
	Used int    `json:"used"`
}

// ExchangeRecord is one entry of a player's sell history.
type ExchangeRecord struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"itemId"`
	Quantity   int       `json:"amount"`
	UnitPrice  int64     `json:"unitPrice"`
	Bonus      int64     `json:"bonus"`
	TotalValue int64     `json:"totalValue"`
	Timestamp  time.Time `json:"timestamp"`
}

// SaleResult is returned by a successful sell.
type SaleResult struct {
	UnitPrice  int64
	GrossValue int64
	Bonus      int64
	TotalValue int64
}

// Denomination is a physical money item.
type Denomination struct {
	ItemID string
	Value  int64
	Name   string
}

// ShopItem is a purchasable catalog line. Stock -1 means unlimited.
type ShopItem struct {
	ItemID string `json:"id"`
	Count  int    `json:"count"`
	Price  int64  `json:"price"`
	Stock  int    `json:"stock"`
}

// ShopCategory groups shop items.
type ShopCategory struct {
	Name  string     `json:"name"`
	Items []ShopItem `json:"items"`
}

// Shop is a store with a catalog and running sales totals.
type Shop struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Categories   []ShopCategory `json:"categories"`
	TotalSales   int            `json:"totalSales"`
	TotalRevenue int64          `json:"totalRevenue"`
	Custom       bool           `json:"custom,omitempty"` // created at runtime by an admin
}

// Purchase is one entry of a player's purchase history.
type Purchase struct {
	ID         string    `json:"id"`
	ShopID     string    `json:"shopId"`
	ShopName   string    `json:"shopName"`
	ItemID     string    `json:"itemId"`
	Quantity   int       `json:"quantity"`
	TotalItems int       `json:"totalItems"`
	TotalPrice int64     `json:"totalPrice"`
	Timestamp  time.Time `json:"timestamp"`
}

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb string
	Args []string
}

// Effect is a single scripted action applied through the ledger.
type Effect struct {
	Type   string
	Params map[string]any
}

// Event is raised by the host (player join, NPC interaction, item use, chat)
// or emitted by a command.
type Event struct {
	Type   string
	Player string
	Data   map[string]any
}

// Result is the output of a single command or event.
type Result struct {
	Effects []Effect
	Events  []Event
	Output  []string
	Mutated bool // true when ledger state changed
}

// Condition is a predicate that must be true for a handler to fire.
type Condition struct {
	Type   string         // "has_tag", "wallet_at_least", "wallet_below", etc.
	Params map[string]any // condition-specific parameters
	Negate bool           // true if wrapped in Not()
	Inner  *Condition     // for Not(): the negated inner condition
}

// EventHandler is a scripted reaction to a host event.
type EventHandler struct {
	EventType  string
	Conditions []Condition
	Effects    []Effect
}

// EconomyDef holds global economy tunables.
type EconomyDef struct {
	SignupBonus        int64
	MaxAmount          int64
	TransactionCap     int
	ExchangeHistoryCap int
	PurchaseHistoryCap int
}
