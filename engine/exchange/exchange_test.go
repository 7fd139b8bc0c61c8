package exchange

import (
	"errors"
	"testing"
	"time"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/types"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func testDefs() *state.Defs {
	d := state.DefaultDefs()
	d.Items = map[string]types.ItemDef{
		"minecraft:diamond":    {ID: "minecraft:diamond", BasePrice: 800, DailyLimit: 50, Category: "minerals"},
		"minecraft:coal":       {ID: "minecraft:coal", BasePrice: 15, DailyLimit: 1000, Category: "minerals"},
		"minecraft:blaze_rod":  {ID: "minecraft:blaze_rod", BasePrice: 200, DailyLimit: 100, Category: "nether"},
		"minecraft:iron_ingot": {ID: "minecraft:iron_ingot", BasePrice: 100, DailyLimit: 500, Category: "minerals"},
	}
	return d
}

func newTestMarket(t *testing.T) (*Market, *ledger.Registry, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	reg := ledger.New(ledger.WithClock(clock.Now))
	m := New(reg, testDefs(), WithClock(clock.Now))
	return m, reg, clock
}

func wallet(reg *ledger.Registry, player string) int64 {
	acc, _ := reg.Account(player)
	return acc.Wallet
}

func TestQuote(t *testing.T) {
	m, _, _ := newTestMarket(t)
	got, err := m.Quote("minecraft:diamond")
	if err != nil {
		t.Fatal(err)
	}
	if got != 800 {
		t.Errorf("quote = %d, want 800", got)
	}
	if _, err := m.Quote("minecraft:dirt"); !errors.Is(err, ledger.ErrUnknownItem) {
		t.Errorf("unknown item err = %v", err)
	}
}

func TestSell_DailyLimit(t *testing.T) {
	m, _, clock := newTestMarket(t)
	if _, err := m.Sell("Alice", "minecraft:diamond", 50); err != nil {
		t.Fatalf("Sell(50): %v", err)
	}
	if got := m.RemainingDailyLimit("Alice", "minecraft:diamond"); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
	if _, err := m.Sell("Alice", "minecraft:diamond", 1); !errors.Is(err, ledger.ErrOverDailyLimit) {
		t.Fatalf("Sell over limit err = %v, want ErrOverDailyLimit", err)
	}
	// Another player has their own limit.
	if got := m.RemainingDailyLimit("Bob", "minecraft:diamond"); got != 50 {
		t.Errorf("Bob remaining = %d, want 50", got)
	}

	clock.t = clock.t.Add(24 * time.Hour)
	if got := m.RemainingDailyLimit("Alice", "minecraft:diamond"); got != 50 {
		t.Errorf("remaining next day = %d, want 50", got)
	}
	if _, err := m.Sell("Alice", "minecraft:diamond", 1); err != nil {
		t.Errorf("Sell next day: %v", err)
	}
}

func TestSell_BulkBonusBoundary(t *testing.T) {
	tests := []struct {
		qty       int
		wantBonus int64
		wantTotal int64
	}{
		{63, 0, 100 * 63},
		{64, 640, 7040}, // floor(6400 * 1.10)
	}
	for _, tt := range tests {
		m, reg, _ := newTestMarket(t)
		res, err := m.Sell("Alice", "minecraft:iron_ingot", tt.qty)
		if err != nil {
			t.Fatalf("Sell(%d): %v", tt.qty, err)
		}
		if res.UnitPrice != 100 {
			t.Errorf("qty %d: unit = %d, want 100", tt.qty, res.UnitPrice)
		}
		if res.Bonus != tt.wantBonus || res.TotalValue != tt.wantTotal {
			t.Errorf("qty %d: bonus/total = %d/%d, want %d/%d", tt.qty, res.Bonus, res.TotalValue, tt.wantBonus, tt.wantTotal)
		}
		if got := wallet(reg, "Alice"); got != 1000+tt.wantTotal {
			t.Errorf("qty %d: wallet = %d, want %d", tt.qty, got, 1000+tt.wantTotal)
		}
	}
}

func TestSell_Rejections(t *testing.T) {
	m, reg, _ := newTestMarket(t)
	tests := []struct {
		name string
		item string
		qty  int
		want error
	}{
		{"zero quantity", "minecraft:coal", 0, ledger.ErrInvalidAmount},
		{"unknown item", "minecraft:dirt", 1, ledger.ErrUnknownItem},
		{"over limit", "minecraft:diamond", 51, ledger.ErrOverDailyLimit},
	}
	for _, tt := range tests {
		if _, err := m.Sell("Alice", tt.item, tt.qty); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
	if reg.Exists("Alice") {
		t.Error("rejected sells created an account")
	}
	if len(m.HistoryFor("Alice", 0)) != 0 {
		t.Error("rejected sells recorded history")
	}
}

func TestSell_Fluctuation(t *testing.T) {
	m, _, _ := newTestMarket(t)
	if _, err := m.Sell("Alice", "minecraft:coal", 100); err != nil {
		t.Fatal(err)
	}
	r, _ := m.Rate("minecraft:coal")
	// 1.0 - 0.1 = 0.9, then 0.9 + 0.1*0.01 = 0.901.
	if diff := r.Fluctuation - 0.901; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("fluctuation = %v, want 0.901", r.Fluctuation)
	}
	if got, _ := m.Quote("minecraft:coal"); got != 13 {
		t.Errorf("quote = %d, want 13 (floor 15*0.901)", got)
	}
	if got := m.TrendOf("minecraft:coal"); got != TrendDown {
		t.Errorf("trend = %s, want down", got)
	}
}

func TestSell_FluctuationClamped(t *testing.T) {
	m, _, _ := newTestMarket(t)
	if _, err := m.Sell("Alice", "minecraft:coal", 1000); err != nil {
		t.Fatal(err)
	}
	r, _ := m.Rate("minecraft:coal")
	// Clamped to 0.5, then recovers 0.5*0.01.
	if diff := r.Fluctuation - 0.505; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("fluctuation = %v, want 0.505", r.Fluctuation)
	}
}

func TestHistoryFor_NewestFirstAndCapped(t *testing.T) {
	clock := &testClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	reg := ledger.New(ledger.WithClock(clock.Now))
	m := New(reg, testDefs(), WithClock(clock.Now), WithHistoryCap(3))

	for i := 1; i <= 5; i++ {
		if _, err := m.Sell("Alice", "minecraft:blaze_rod", i); err != nil {
			t.Fatal(err)
		}
	}
	h := m.HistoryFor("Alice", 0)
	if len(h) != 3 {
		t.Fatalf("history = %d, want 3", len(h))
	}
	if h[0].Quantity != 5 || h[2].Quantity != 3 {
		t.Errorf("history quantities = %d..%d, want 5..3", h[0].Quantity, h[2].Quantity)
	}
	if got := m.HistoryFor("Alice", 2); len(got) != 2 {
		t.Errorf("limited history = %d, want 2", len(got))
	}
}

func TestRates_Category(t *testing.T) {
	m, _, _ := newTestMarket(t)
	nether := m.Rates("nether")
	if len(nether) != 1 || nether[0].ItemID != "minecraft:blaze_rod" {
		t.Errorf("nether rates = %+v", nether)
	}
	all := m.Rates("")
	if len(all) != 4 {
		t.Fatalf("all rates = %d, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ItemID > all[i].ItemID {
			t.Errorf("rates not sorted: %s > %s", all[i-1].ItemID, all[i].ItemID)
		}
	}
}

func TestRestore_MergesOverCatalog(t *testing.T) {
	m, _, _ := newTestMarket(t)
	m.Sell("Alice", "minecraft:coal", 100)
	snap := m.Snapshot()
	snap.ExchangeRates["minecraft:removed_item"] = RateState{Fluctuation: 1.5}
	snap.ExchangeRates["minecraft:diamond"] = RateState{Fluctuation: 9}

	// The catalog changed between runs: coal got more expensive.
	defs := testDefs()
	defs.Items["minecraft:coal"] = types.ItemDef{ID: "minecraft:coal", BasePrice: 30, DailyLimit: 1000, Category: "minerals"}
	clock := &testClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	m2 := New(ledger.New(), defs, WithClock(clock.Now))
	m2.Restore(snap)

	coal, _ := m2.Rate("minecraft:coal")
	if coal.BasePrice != 30 {
		t.Errorf("base price = %d, want 30 from catalog", coal.BasePrice)
	}
	if diff := coal.Fluctuation - 0.901; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("fluctuation = %v, want 0.901 from save", coal.Fluctuation)
	}
	if _, ok := m2.Rate("minecraft:removed_item"); ok {
		t.Error("unknown saved item resurrected")
	}
	if d, _ := m2.Rate("minecraft:diamond"); d.Fluctuation != MaxFluctuation {
		t.Errorf("diamond fluctuation = %v, want clamped %v", d.Fluctuation, MaxFluctuation)
	}
	if got := m2.RemainingDailyLimit("Alice", "minecraft:coal"); got != 900 {
		t.Errorf("restored remaining = %d, want 900", got)
	}
	if len(m2.HistoryFor("Alice", 0)) != 1 {
		t.Error("history not restored")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"minecraft:iron_ingot", "iron ingot"},
		{"economic:note_8", "note 8"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
