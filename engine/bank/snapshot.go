package bank

import "github.com/nathoo/econcore/types"

// Snapshot is the persisted form of the bank.
type Snapshot struct {
	BankAccounts map[string]types.BankAccount `json:"bankAccounts"`
	Loans        map[string]types.Loan        `json:"loans"`
	Investments  map[string]types.Investment  `json:"investments"`
}

// Snapshot returns copies of every bank record.
func (b *Bank) Snapshot() Snapshot {
	s := Snapshot{
		BankAccounts: make(map[string]types.BankAccount, len(b.accounts)),
		Loans:        make(map[string]types.Loan, len(b.loans)),
		Investments:  make(map[string]types.Investment, len(b.investments)),
	}
	for k, v := range b.accounts {
		s.BankAccounts[k] = *v
	}
	for k, v := range b.loans {
		s.Loans[k] = *v
	}
	for k := range b.investments {
		s.Investments[k], _ = b.Investment(k)
	}
	return s
}

// Restore replaces all bank state with s.
func (b *Bank) Restore(s Snapshot) {
	b.accounts = make(map[string]*types.BankAccount, len(s.BankAccounts))
	b.loans = make(map[string]*types.Loan, len(s.Loans))
	b.investments = make(map[string]*types.Investment, len(s.Investments))
	for k, v := range s.BankAccounts {
		if v.Player == "" {
			v.Player = k
		}
		b.accounts[k] = &v
	}
	for k, v := range s.Loans {
		b.loans[k] = &v
	}
	for k, v := range s.Investments {
		v.Realized = append([]bool{}, v.Realized...)
		b.investments[k] = &v
	}
}

// Reset drops every bank account, loan and investment.
func (b *Bank) Reset() {
	b.Restore(Snapshot{})
	b.changed()
}

// Players returns the names that hold a loan or investment, for integrity
// checks.
func (b *Bank) Players() (loans, investments []string) {
	for k := range b.loans {
		loans = append(loans, k)
	}
	for k := range b.investments {
		investments = append(investments, k)
	}
	return loans, investments
}
