package loader

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/types"
)

// rawDef holds a curried constructor's id and table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// rawHandler holds an event handler before compilation.
type rawHandler struct {
	eventType string
	table     *lua.LTable
}

func has(tbl *lua.LTable, key string) bool {
	return tbl.RawGetString(key) != lua.LNil
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

func getInt64(tbl *lua.LTable, key string) int64 {
	return int64(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// each calls fn for every table element of the array part, in order.
func each(tbl *lua.LTable, fn func(*lua.LTable)) {
	if tbl == nil {
		return
	}
	for i := 1; i <= tbl.Len(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			fn(t)
		}
	}
}

// toGoValue converts a Lua value to a Go value recursively. Integral
// numbers become int.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int64(f)) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// params collects every string-keyed field except type.
func params(tbl *lua.LTable) map[string]any {
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok && ks != "type" {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}

// compile applies the collected definitions over defs, in source order.
// Later definitions of the same ID replace earlier ones field by field.
func compile(coll *collector, defs *state.Defs) error {
	for _, tbl := range coll.economy {
		compileEconomy(tbl, &defs.Economy)
	}
	for _, raw := range coll.items {
		defs.Items[raw.id] = compileItem(raw, defs.Items[raw.id])
	}
	for _, raw := range coll.loans {
		defs.LoanTypes[raw.id] = compileLoan(raw, defs.LoanTypes[raw.id])
	}
	for _, raw := range coll.investments {
		defs.Investments[raw.id] = compileInvestment(raw, defs.Investments[raw.id])
	}
	for _, raw := range coll.shops {
		s, err := compileShop(raw)
		if err != nil {
			return fmt.Errorf("compiling shop %s: %w", raw.id, err)
		}
		replaced := false
		for i := range defs.Shops {
			if defs.Shops[i].ID == s.ID {
				defs.Shops[i] = s
				replaced = true
			}
		}
		if !replaced {
			defs.Shops = append(defs.Shops, s)
		}
	}
	for _, raw := range coll.handlers {
		defs.Handlers = append(defs.Handlers, compileHandler(raw))
	}
	return nil
}

func compileEconomy(tbl *lua.LTable, eco *types.EconomyDef) {
	if has(tbl, "signup_bonus") {
		eco.SignupBonus = getInt64(tbl, "signup_bonus")
	}
	if has(tbl, "transaction_cap") {
		eco.TransactionCap = int(getNumber(tbl, "transaction_cap"))
	}
	if has(tbl, "exchange_history_cap") {
		eco.ExchangeHistoryCap = int(getNumber(tbl, "exchange_history_cap"))
	}
	if has(tbl, "purchase_history_cap") {
		eco.PurchaseHistoryCap = int(getNumber(tbl, "purchase_history_cap"))
	}
}

func compileItem(raw rawDef, it types.ItemDef) types.ItemDef {
	it.ID = raw.id
	if has(raw.table, "price") {
		it.BasePrice = getInt64(raw.table, "price")
	}
	if has(raw.table, "daily_limit") {
		it.DailyLimit = int(getNumber(raw.table, "daily_limit"))
	}
	if c := getString(raw.table, "category"); c != "" {
		it.Category = strings.ToLower(c)
	}
	return it
}

func compileLoan(raw rawDef, lt types.LoanType) types.LoanType {
	lt.ID = raw.id
	if name := getString(raw.table, "name"); name != "" {
		lt.Name = name
	} else if lt.Name == "" {
		lt.Name = raw.id
	}
	if has(raw.table, "max") {
		lt.MaxAmount = getInt64(raw.table, "max")
	}
	if has(raw.table, "rate") {
		lt.InterestRate = getNumber(raw.table, "rate")
	}
	if tbl := getTable(raw.table, "installments"); tbl != nil {
		lt.Installments = nil
		for i := 1; i <= tbl.Len(); i++ {
			if n, ok := tbl.RawGetInt(i).(lua.LNumber); ok {
				lt.Installments = append(lt.Installments, int(n))
			}
		}
	}
	return lt
}

func compileInvestment(raw rawDef, it types.InvestmentType) types.InvestmentType {
	it.ID = raw.id
	if name := getString(raw.table, "name"); name != "" {
		it.Name = name
	} else if it.Name == "" {
		it.Name = raw.id
	}
	if has(raw.table, "rate") {
		it.Rate = getNumber(raw.table, "rate")
	}
	if has(raw.table, "risk") {
		it.Risk = getNumber(raw.table, "risk")
	}
	if has(raw.table, "min") {
		it.MinAmount = getInt64(raw.table, "min")
	}
	return it
}

func compileShop(raw rawDef) (types.Shop, error) {
	s := types.Shop{
		ID:          raw.id,
		Name:        getString(raw.table, "name"),
		Description: getString(raw.table, "description"),
	}
	if s.Name == "" {
		s.Name = raw.id
	}
	cats := getTable(raw.table, "categories")
	if cats == nil {
		return s, fmt.Errorf("categories table is required")
	}
	each(cats, func(ct *lua.LTable) {
		cat := types.ShopCategory{Name: getString(ct, "name")}
		each(getTable(ct, "items"), func(it *lua.LTable) {
			item := types.ShopItem{
				ItemID: getString(it, "id"),
				Count:  1,
				Price:  getInt64(it, "price"),
				Stock:  -1,
			}
			if has(it, "count") {
				item.Count = int(getNumber(it, "count"))
			}
			if has(it, "stock") {
				item.Stock = int(getNumber(it, "stock"))
			}
			cat.Items = append(cat.Items, item)
		})
		s.Categories = append(s.Categories, cat)
	})
	return s, nil
}

func compileConditions(tbl *lua.LTable) []types.Condition {
	var conditions []types.Condition
	each(tbl, func(ct *lua.LTable) {
		conditions = append(conditions, compileCondition(ct))
	})
	return conditions
}

func compileCondition(tbl *lua.LTable) types.Condition {
	condType := getString(tbl, "type")
	if condType == "not" {
		if innerTbl := getTable(tbl, "inner"); innerTbl != nil {
			inner := compileCondition(innerTbl)
			return types.Condition{Type: "not", Negate: true, Inner: &inner}
		}
	}
	return types.Condition{Type: condType, Params: params(tbl)}
}

func compileEffects(tbl *lua.LTable) []types.Effect {
	var effs []types.Effect
	each(tbl, func(et *lua.LTable) {
		effs = append(effs, types.Effect{Type: getString(et, "type"), Params: params(et)})
	})
	return effs
}

func compileHandler(raw rawHandler) types.EventHandler {
	h := types.EventHandler{EventType: raw.eventType}
	if tbl := getTable(raw.table, "conditions"); tbl != nil {
		h.Conditions = compileConditions(tbl)
	}
	if tbl := getTable(raw.table, "effects"); tbl != nil {
		h.Effects = compileEffects(tbl)
	}
	return h
}
