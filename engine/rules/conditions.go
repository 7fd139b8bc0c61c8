// Package rules evaluates the conditions attached to scripted event
// handlers.
package rules

import (
	"github.com/nathoo/econcore/types"
)

// View is the read-only economy state conditions are evaluated against.
type View interface {
	Wallet(player string) int64
	CreditScore(player string) int
	HasTag(player, tag string) bool
	IsNewPlayer(player string) bool
}

// EvalCondition evaluates a single condition for the event's player.
func EvalCondition(c types.Condition, ev types.Event, v View) bool {
	switch c.Type {
	case "has_tag":
		tag, _ := c.Params["tag"].(string)
		return eventHasTag(ev, tag) || v.HasTag(ev.Player, tag)

	case "wallet_at_least":
		return v.Wallet(ev.Player) >= ToInt64(c.Params["amount"])

	case "wallet_below":
		return v.Wallet(ev.Player) < ToInt64(c.Params["amount"])

	case "credit_score_at_least":
		return int64(v.CreditScore(ev.Player)) >= ToInt64(c.Params["score"])

	case "is_new_player":
		return v.IsNewPlayer(ev.Player)

	case "not":
		if c.Inner == nil {
			return true
		}
		return !EvalCondition(*c.Inner, ev, v)

	default:
		return false
	}
}

// EvalAllConditions returns true if all conditions pass (AND logic).
// An empty condition list is vacuously true.
func EvalAllConditions(conditions []types.Condition, ev types.Event, v View) bool {
	for _, c := range conditions {
		if !EvalCondition(c, ev, v) {
			return false
		}
	}
	return true
}

// Valid reports whether typ is a condition type EvalCondition understands.
func Valid(typ string) bool {
	switch typ {
	case "has_tag", "wallet_at_least", "wallet_below", "credit_score_at_least", "is_new_player", "not":
		return true
	}
	return false
}

// eventHasTag checks tags the host attached to the event itself.
func eventHasTag(ev types.Event, tag string) bool {
	switch tags := ev.Data["tags"].(type) {
	case []string:
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok && s == tag {
				return true
			}
		}
	}
	return false
}

// ToInt64 converts an any value to int64, handling float64 from JSON/Lua.
func ToInt64(v any) int64 {
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
