// Package effects applies scripted effects through the ledger API.
// Every effect type is one atomic operation. No logic in effects.
package effects

import (
	"strconv"
	"strings"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

// Ledger is the slice of the economy an effect may touch.
type Ledger interface {
	Wallet(player string) int64
	Credit(player string, amount int64, reason string) (int64, error)
	Debit(player string, amount int64, reason string) bool
	ValidAmount(amount int64) bool
	AddTag(player, tag string)
}

// Types lists the effect types Apply understands.
var Types = []string{"say", "credit", "debit", "open_menu", "tag"}

// Valid reports whether typ is an effect type Apply understands.
func Valid(typ string) bool {
	for _, t := range Types {
		if t == typ {
			return true
		}
	}
	return false
}

// Apply runs effects for player in order. It returns collected output,
// host-facing events (menus to open) and whether money moved. A failed
// effect reports its message and the rest still run.
func Apply(effs []types.Effect, player string, l Ledger) types.Result {
	var res types.Result

	for _, eff := range effs {
		switch eff.Type {
		case "say":
			text, _ := eff.Params["text"].(string)
			res.Output = append(res.Output, interpolate(text, player, eff, l))

		case "credit":
			amount := toInt64(eff.Params["amount"])
			reason, _ := eff.Params["reason"].(string)
			if _, err := l.Credit(player, amount, reason); err != nil {
				res.Output = append(res.Output, ledger.Message(err))
				continue
			}
			res.Mutated = true
			res.Effects = append(res.Effects, eff)

		case "debit":
			amount := toInt64(eff.Params["amount"])
			reason, _ := eff.Params["reason"].(string)
			if !l.ValidAmount(amount) {
				res.Output = append(res.Output, ledger.Message(ledger.ErrInvalidAmount))
				continue
			}
			if !l.Debit(player, amount, reason) {
				res.Output = append(res.Output, ledger.Message(ledger.ErrInsufficientFunds))
				continue
			}
			res.Mutated = true
			res.Effects = append(res.Effects, eff)

		case "open_menu":
			menu, _ := eff.Params["menu"].(string)
			res.Events = append(res.Events, types.Event{
				Type:   "open_menu",
				Player: player,
				Data:   map[string]any{"menu": menu},
			})
			res.Effects = append(res.Effects, eff)

		case "tag":
			tag, _ := eff.Params["tag"].(string)
			if tag != "" {
				l.AddTag(player, tag)
				res.Effects = append(res.Effects, eff)
			}
		}
	}

	return res
}

// interpolate replaces {player}, {wallet} and {amount} in text.
func interpolate(text, player string, eff types.Effect, l Ledger) string {
	if !strings.Contains(text, "{") {
		return text
	}
	r := strings.NewReplacer(
		"{player}", player,
		"{wallet}", ledger.FormatMoney(l.Wallet(player)),
		"{amount}", strconv.FormatInt(toInt64(eff.Params["amount"]), 10),
	)
	return r.Replace(text)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
