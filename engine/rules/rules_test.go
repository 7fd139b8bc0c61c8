package rules

import (
	"testing"

	"github.com/nathoo/econcore/types"
)

type fakeView struct {
	wallet map[string]int64
	score  map[string]int
	tags   map[string][]string
	known  map[string]bool
}

func (f fakeView) Wallet(p string) int64     { return f.wallet[p] }
func (f fakeView) CreditScore(p string) int  { return f.score[p] }
func (f fakeView) IsNewPlayer(p string) bool { return !f.known[p] }
func (f fakeView) HasTag(p, tag string) bool {
	for _, t := range f.tags[p] {
		if t == tag {
			return true
		}
	}
	return false
}

func newView() fakeView {
	return fakeView{
		wallet: map[string]int64{"Alice": 1500, "Bob": 10},
		score:  map[string]int{"Alice": 75, "Bob": 40},
		tags:   map[string][]string{"Alice": {"admin"}},
		known:  map[string]bool{"Alice": true, "Bob": true},
	}
}

func cond(typ string, params map[string]any) types.Condition {
	return types.Condition{Type: typ, Params: params}
}

func TestEvalCondition(t *testing.T) {
	v := newView()
	alice := types.Event{Type: "chat", Player: "Alice"}
	bob := types.Event{Type: "chat", Player: "Bob"}
	carol := types.Event{Type: "player_join", Player: "Carol", Data: map[string]any{"tags": []any{"vip"}}}

	notAdmin := cond("has_tag", map[string]any{"tag": "admin"})
	tests := []struct {
		name string
		c    types.Condition
		ev   types.Event
		want bool
	}{
		{"tag from view", cond("has_tag", map[string]any{"tag": "admin"}), alice, true},
		{"tag missing", cond("has_tag", map[string]any{"tag": "admin"}), bob, false},
		{"tag from event data", cond("has_tag", map[string]any{"tag": "vip"}), carol, true},
		{"wallet at least exact", cond("wallet_at_least", map[string]any{"amount": 1500}), alice, true},
		{"wallet at least lua float", cond("wallet_at_least", map[string]any{"amount": float64(1501)}), alice, false},
		{"wallet below", cond("wallet_below", map[string]any{"amount": int64(100)}), bob, true},
		{"score at least", cond("credit_score_at_least", map[string]any{"score": 50}), alice, true},
		{"score too low", cond("credit_score_at_least", map[string]any{"score": 50}), bob, false},
		{"new player", cond("is_new_player", nil), carol, true},
		{"known player", cond("is_new_player", nil), alice, false},
		{"not", types.Condition{Type: "not", Negate: true, Inner: &notAdmin}, bob, true},
		{"not without inner", types.Condition{Type: "not"}, bob, true},
		{"unknown type", cond("moon_phase", nil), alice, false},
	}
	for _, tt := range tests {
		if got := EvalCondition(tt.c, tt.ev, v); got != tt.want {
			t.Errorf("%s: EvalCondition = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEvalAllConditions_Empty(t *testing.T) {
	if !EvalAllConditions(nil, types.Event{Player: "Bob"}, newView()) {
		t.Error("empty conditions should pass")
	}
}

func TestSelect(t *testing.T) {
	handlers := []types.EventHandler{
		{EventType: "player_join", Effects: []types.Effect{{Type: "say", Params: map[string]any{"text": "welcome"}}}},
		{EventType: "player_join", Conditions: []types.Condition{cond("has_tag", map[string]any{"tag": "admin"})}},
		{EventType: "chat"},
		{EventType: "player_join", Conditions: []types.Condition{cond("wallet_at_least", map[string]any{"amount": 1000})}},
	}
	got := Select(handlers, types.Event{Type: "player_join", Player: "Alice"}, newView())
	if len(got) != 3 {
		t.Fatalf("matched = %d, want 3", len(got))
	}
	if got[0].Effects[0].Params["text"] != "welcome" {
		t.Errorf("first handler = %+v, want declaration order", got[0])
	}

	got = Select(handlers, types.Event{Type: "player_join", Player: "Bob"}, newView())
	if len(got) != 1 {
		t.Errorf("matched = %d, want 1", len(got))
	}
}

func TestValid(t *testing.T) {
	if !Valid("wallet_below") || Valid("has_item") {
		t.Error("Valid table mismatch")
	}
}
