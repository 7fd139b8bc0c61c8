package effects

import (
	"testing"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

type fakeLedger struct {
	wallet map[string]int64
	tags   map[string][]string
}

func newFake() *fakeLedger {
	return &fakeLedger{wallet: map[string]int64{"Alice": 1000}, tags: map[string][]string{}}
}

func (f *fakeLedger) Wallet(p string) int64 { return f.wallet[p] }

func (f *fakeLedger) ValidAmount(amount int64) bool {
	return amount >= 1 && amount <= ledger.DefaultMaxAmount
}

func (f *fakeLedger) Credit(p string, amount int64, _ string) (int64, error) {
	if !f.ValidAmount(amount) {
		return 0, ledger.ErrInvalidAmount
	}
	f.wallet[p] += amount
	return f.wallet[p], nil
}

func (f *fakeLedger) Debit(p string, amount int64, _ string) bool {
	if f.wallet[p] < amount {
		return false
	}
	f.wallet[p] -= amount
	return true
}

func (f *fakeLedger) AddTag(p, tag string) { f.tags[p] = append(f.tags[p], tag) }

func eff(typ string, params map[string]any) types.Effect {
	return types.Effect{Type: typ, Params: params}
}

func TestApply_MoneyEffects(t *testing.T) {
	l := newFake()
	res := Apply([]types.Effect{
		eff("credit", map[string]any{"amount": float64(500), "reason": "welcome gift"}),
		eff("debit", map[string]any{"amount": 200, "reason": "entry fee"}),
		eff("say", map[string]any{"text": "{player} now has {wallet}"}),
	}, "Alice", l)

	if l.wallet["Alice"] != 1300 {
		t.Errorf("wallet = %d, want 1300", l.wallet["Alice"])
	}
	if !res.Mutated {
		t.Error("Mutated = false, want true")
	}
	if len(res.Output) != 1 || res.Output[0] != "Alice now has $1.3K" {
		t.Errorf("output = %v", res.Output)
	}
	if len(res.Effects) != 2 {
		t.Errorf("applied effects = %d, want 2", len(res.Effects))
	}
}

func TestApply_FailuresReportAndContinue(t *testing.T) {
	l := newFake()
	res := Apply([]types.Effect{
		eff("debit", map[string]any{"amount": 5000}),
		eff("credit", map[string]any{"amount": 0}),
		eff("say", map[string]any{"text": "done"}),
	}, "Alice", l)

	want := []string{
		ledger.Message(ledger.ErrInsufficientFunds),
		ledger.Message(ledger.ErrInvalidAmount),
		"done",
	}
	if len(res.Output) != len(want) {
		t.Fatalf("output = %v, want %v", res.Output, want)
	}
	for i := range want {
		if res.Output[i] != want[i] {
			t.Errorf("output[%d] = %q, want %q", i, res.Output[i], want[i])
		}
	}
	if res.Mutated {
		t.Error("Mutated = true, want false")
	}
	if l.wallet["Alice"] != 1000 {
		t.Errorf("wallet = %d, want 1000", l.wallet["Alice"])
	}
}

func TestApply_MenuAndTag(t *testing.T) {
	l := newFake()
	res := Apply([]types.Effect{
		eff("open_menu", map[string]any{"menu": "bank"}),
		eff("tag", map[string]any{"tag": "banker"}),
	}, "Alice", l)

	if len(res.Events) != 1 || res.Events[0].Type != "open_menu" || res.Events[0].Data["menu"] != "bank" {
		t.Errorf("events = %+v", res.Events)
	}
	if len(l.tags["Alice"]) != 1 || l.tags["Alice"][0] != "banker" {
		t.Errorf("tags = %v", l.tags["Alice"])
	}
}

func TestValid(t *testing.T) {
	for _, typ := range Types {
		if !Valid(typ) {
			t.Errorf("Valid(%q) = false", typ)
		}
	}
	if Valid("give_item") {
		t.Error("Valid(give_item) = true")
	}
}
