// Package parser converts chat and console command strings into Intent
// structs. Intentionally dumb: no NLP, just an alias table.
package parser

import (
	"strings"

	"github.com/nathoo/econcore/types"
)

// Verbs lists every canonical verb the engine understands.
var Verbs = []string{
	"balance", "pay", "statement", "stats", "history", "help",
	"deposit", "withdraw", "transfer", "bank", "report",
	"loan", "installment", "payoff", "loans",
	"invest", "investment", "cashout", "investments",
	"upgrade", "rates", "quote", "sell", "exchanges",
	"tocash", "fromcash",
	"shops", "shop", "buy", "purchases",
}

var verbAliases = map[string]string{
	// Wallet
	"bal":       "balance",
	"money":     "balance",
	"wallet":    "balance",
	"saldo":     "balance",
	"carteira":  "balance",
	"send":      "pay",
	"give":      "pay",
	"pagar":     "pay",
	"extrato":   "statement",
	"hist":      "history",
	"historico": "history",
	"tx":        "history",
	"?":         "help",
	"ajuda":     "help",
	"h":         "help",

	// Bank
	"dep":        "deposit",
	"depositar":  "deposit",
	"wd":         "withdraw",
	"sacar":      "withdraw",
	"wire":       "transfer",
	"transferir": "transfer",
	"banco":      "bank",
	"account":    "bank",
	"relatorio":  "report",

	// Loans
	"borrow":       "loan",
	"emprestimo":   "loan",
	"repay":        "installment",
	"parcela":      "installment",
	"pagarparcela": "installment",
	"quitar":       "payoff",

	// Investments
	"investir":           "invest",
	"portfolio":          "investment",
	"investimento":       "investment",
	"withdrawinvestment": "cashout",
	"resgatar":           "cashout",

	// Exchange
	"melhorar": "upgrade",
	"prices":   "rates",
	"cotacao":  "rates",
	"price":    "quote",
	"vender":   "sell",
	"trocas":   "exchanges",

	// Physical money
	"cash":            "tocash",
	"sacarfisico":     "tocash",
	"redeem":          "fromcash",
	"depositarfisico": "fromcash",

	// Shop
	"stores":   "shops",
	"lojas":    "shops",
	"store":    "shop",
	"loja":     "shop",
	"purchase": "buy",
	"comprar":  "buy",
	"compras":  "purchases",
}

var known = func() map[string]bool {
	m := make(map[string]bool, len(Verbs))
	for _, v := range Verbs {
		m[v] = true
	}
	return m
}()

// Parse converts a raw command string into an Intent. A leading "!" or "/"
// chat prefix is dropped and the verb is lowercased. Arguments keep their
// case so player names survive.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	input = strings.TrimLeft(input, "!/")
	words := strings.Fields(input)
	if len(words) == 0 {
		return types.Intent{}
	}

	verb := strings.ToLower(words[0])
	verb = strings.ReplaceAll(verb, "-", "")
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}

	var args []string
	if len(words) > 1 {
		args = words[1:]
	}
	return types.Intent{Verb: verb, Args: args}
}

// Known reports whether verb is a canonical verb.
func Known(verb string) bool {
	return known[verb]
}
