package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/econcore/engine/effects"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/rules"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/types"
)

// ValidationError collects every validation error found in one pass.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// KnownEvents lists host and command events handlers may subscribe to.
var KnownEvents = map[string]bool{
	"player_join": true, "npc_interact": true, "item_use": true, "chat": true,
	"payment": true, "deposit": true, "withdraw": true, "bank_transfer": true,
	"account_upgrade": true, "loan_approved": true, "loan_paid": true,
	"investment": true, "investment_withdrawn": true, "sale": true,
	"cash_out": true, "cash_in": true, "purchase": true,
}

// validate checks the merged defs. Warnings never fail the load.
func validate(defs *state.Defs) (warnings []string, err error) {
	ve := &ValidationError{}
	errf := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(format, args...))
	}

	maxAmount := defs.Economy.MaxAmount
	if maxAmount <= 0 {
		maxAmount = ledger.DefaultMaxAmount
	}
	validAmount := func(n int64) bool { return n >= 1 && n <= maxAmount }

	if defs.Economy.SignupBonus < 0 || defs.Economy.SignupBonus > maxAmount {
		errf("economy signup_bonus %d out of range", defs.Economy.SignupBonus)
	}
	for _, c := range []struct {
		name string
		n    int
	}{
		{"transaction_cap", defs.Economy.TransactionCap},
		{"exchange_history_cap", defs.Economy.ExchangeHistoryCap},
		{"purchase_history_cap", defs.Economy.PurchaseHistoryCap},
	} {
		if c.n <= 0 {
			errf("economy %s must be positive", c.name)
		}
	}

	for _, id := range sortedKeys(defs.Items) {
		it := defs.Items[id]
		if it.BasePrice <= 0 {
			errf("item %q: price must be positive", id)
		}
		if it.DailyLimit <= 0 {
			errf("item %q: daily_limit must be positive", id)
		}
		if it.Category == "" {
			errf("item %q: category is required", id)
		}
	}

	for _, id := range sortedKeys(defs.LoanTypes) {
		lt := defs.LoanTypes[id]
		if lt.MaxAmount <= 0 {
			errf("loan %q: max must be positive", id)
		}
		if lt.InterestRate < 0 {
			errf("loan %q: rate must not be negative", id)
		}
		if len(lt.Installments) == 0 {
			errf("loan %q: installments must not be empty", id)
		}
		for _, n := range lt.Installments {
			if n <= 0 {
				errf("loan %q: installment count %d must be positive", id, n)
			}
		}
	}

	for _, id := range sortedKeys(defs.Investments) {
		it := defs.Investments[id]
		if it.Risk < 0 || it.Risk > 1 {
			errf("investment %q: risk %v outside [0,1]", id, it.Risk)
		}
		if it.Rate < 0 {
			errf("investment %q: rate must not be negative", id)
		}
		if it.MinAmount <= 0 {
			errf("investment %q: min must be positive", id)
		}
	}

	shopIDs := map[string]bool{}
	for _, s := range defs.Shops {
		if shopIDs[s.ID] {
			errf("duplicate shop %q", s.ID)
		}
		shopIDs[s.ID] = true
		seen := map[string]bool{}
		for _, cat := range s.Categories {
			for _, it := range cat.Items {
				switch {
				case it.ItemID == "":
					errf("shop %q: item without id", s.ID)
				case seen[it.ItemID]:
					errf("shop %q: duplicate item %q", s.ID, it.ItemID)
				}
				seen[it.ItemID] = true
				if it.Price <= 0 {
					errf("shop %q item %q: price must be positive", s.ID, it.ItemID)
				}
				if it.Count <= 0 {
					errf("shop %q item %q: count must be positive", s.ID, it.ItemID)
				}
				if it.Stock < -1 {
					errf("shop %q item %q: stock must be -1 or more", s.ID, it.ItemID)
				}
			}
		}
	}

	for _, h := range defs.Handlers {
		if !KnownEvents[h.EventType] {
			warnings = append(warnings, fmt.Sprintf("handler for unknown event %q", h.EventType))
		}
		validateConditions(h.EventType, h.Conditions, errf)
		for _, eff := range h.Effects {
			if !effects.Valid(eff.Type) {
				errf("handler %q: unknown effect type %q", h.EventType, eff.Type)
				continue
			}
			if eff.Type == "credit" || eff.Type == "debit" {
				if amount := rules.ToInt64(eff.Params["amount"]); !validAmount(amount) {
					errf("handler %q: %s amount %d out of range", h.EventType, eff.Type, amount)
				}
			}
		}
	}

	if len(ve.Errors) > 0 {
		return warnings, ve
	}
	return warnings, nil
}

func validateConditions(event string, conds []types.Condition, errf func(string, ...any)) {
	for _, c := range conds {
		if !rules.Valid(c.Type) {
			errf("handler %q: unknown condition type %q", event, c.Type)
			continue
		}
		if c.Type == "not" {
			if c.Inner == nil {
				errf("handler %q: Not() without inner condition", event)
				continue
			}
			validateConditions(event, []types.Condition{*c.Inner}, errf)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
