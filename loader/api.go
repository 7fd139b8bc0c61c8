package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the constructors and helpers as Lua globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerEffectHelpers(L)
}

// curried returns a global of the form Name "id" { ... }.
func curried(L *lua.LState, add func(id string, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}

func registerConstructors(L *lua.LState, coll *collector) {
	L.SetGlobal("Item", curried(L, func(id string, tbl *lua.LTable) {
		coll.items = append(coll.items, rawDef{id: id, table: tbl})
	}))
	L.SetGlobal("Loan", curried(L, func(id string, tbl *lua.LTable) {
		coll.loans = append(coll.loans, rawDef{id: id, table: tbl})
	}))
	L.SetGlobal("Investment", curried(L, func(id string, tbl *lua.LTable) {
		coll.investments = append(coll.investments, rawDef{id: id, table: tbl})
	}))
	L.SetGlobal("Shop", curried(L, func(id string, tbl *lua.LTable) {
		coll.shops = append(coll.shops, rawDef{id: id, table: tbl})
	}))

	// Economy { signup_bonus = 1000, ... }
	L.SetGlobal("Economy", L.NewFunction(func(L *lua.LState) int {
		coll.economy = append(coll.economy, L.CheckTable(1))
		return 0
	}))

	// On("event_type", { conditions = {...}, effects = {...} })
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		eventType := L.CheckString(1)
		tbl := L.CheckTable(2)
		coll.handlers = append(coll.handlers, rawHandler{eventType: eventType, table: tbl})
		return 0
	}))
}

// typed builds { type = typ, key1 = v1, ... }.
func typed(L *lua.LState, typ string, kv ...any) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(typ))
	for i := 0; i+1 < len(kv); i += 2 {
		tbl.RawSetString(kv[i].(string), kv[i+1].(lua.LValue))
	}
	return tbl
}

func registerConditionHelpers(L *lua.LState) {
	L.SetGlobal("HasTag", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "has_tag", "tag", lua.LString(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("WalletAtLeast", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "wallet_at_least", "amount", L.CheckNumber(1)))
		return 1
	}))
	L.SetGlobal("WalletBelow", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "wallet_below", "amount", L.CheckNumber(1)))
		return 1
	}))
	L.SetGlobal("CreditScoreAtLeast", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "credit_score_at_least", "score", L.CheckNumber(1)))
		return 1
	}))
	L.SetGlobal("IsNewPlayer", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "is_new_player"))
		return 1
	}))
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "not", "inner", L.CheckTable(1)))
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	L.SetGlobal("Say", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "say", "text", lua.LString(L.CheckString(1))))
		return 1
	}))
	// Credit(amount, reason) and Debit(amount, reason); reason is optional.
	L.SetGlobal("Credit", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "credit", "amount", L.CheckNumber(1), "reason", lua.LString(L.OptString(2, "Reward"))))
		return 1
	}))
	L.SetGlobal("Debit", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "debit", "amount", L.CheckNumber(1), "reason", lua.LString(L.OptString(2, "Charge"))))
		return 1
	}))
	L.SetGlobal("OpenMenu", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "open_menu", "menu", lua.LString(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("Tag", L.NewFunction(func(L *lua.LState) int {
		L.Push(typed(L, "tag", "tag", lua.LString(L.CheckString(1))))
		return 1
	}))
}
