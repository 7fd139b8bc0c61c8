package shop

import (
	"errors"
	"testing"
	"time"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/state"
)

func newTestCatalog(t *testing.T) (*Catalog, *ledger.Registry) {
	t.Helper()
	now := func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }
	reg := ledger.New(ledger.WithClock(now))
	return New(reg, state.DefaultDefs(), WithClock(now)), reg
}

func TestDefaultShops(t *testing.T) {
	c, _ := newTestCatalog(t)
	shops := c.Shops()
	want := []string{"general_store", "equipment_store", "rare_materials"}
	if len(shops) != len(want) {
		t.Fatalf("shops = %d, want %d", len(shops), len(want))
	}
	for i, id := range want {
		if shops[i].ID != id {
			t.Errorf("shops[%d] = %s, want %s", i, shops[i].ID, id)
		}
	}
}

func TestPurchase(t *testing.T) {
	c, reg := newTestCatalog(t)
	p, err := c.Purchase("Alice", "general_store", "minecraft:cobblestone", 3)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if p.TotalPrice != 300 || p.TotalItems != 192 {
		t.Errorf("price/items = %d/%d, want 300/192", p.TotalPrice, p.TotalItems)
	}
	acc, _ := reg.Account("Alice")
	if acc.Wallet != 700 {
		t.Errorf("wallet = %d, want 700", acc.Wallet)
	}
	s, _ := c.Shop("general_store")
	if s.TotalSales != 3 || s.TotalRevenue != 300 {
		t.Errorf("shop totals = %d/%d, want 3/300", s.TotalSales, s.TotalRevenue)
	}
	if got := c.Purchases("Alice", 0); len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("purchases = %+v", got)
	}
}

func TestPurchase_Stock(t *testing.T) {
	c, reg := newTestCatalog(t)
	reg.Credit("Alice", 10_000, "seed")

	if _, err := c.Purchase("Alice", "general_store", "minecraft:golden_apple", 6); !errors.Is(err, ledger.ErrOutOfStock) {
		t.Fatalf("err = %v, want ErrOutOfStock", err)
	}
	if _, err := c.Purchase("Alice", "general_store", "minecraft:golden_apple", 5); err != nil {
		t.Fatal(err)
	}
	it, _ := c.Item("general_store", "minecraft:golden_apple")
	if it.Stock != 0 {
		t.Errorf("stock = %d, want 0", it.Stock)
	}
	if _, err := c.Purchase("Alice", "general_store", "minecraft:golden_apple", 1); !errors.Is(err, ledger.ErrOutOfStock) {
		t.Errorf("err = %v, want ErrOutOfStock", err)
	}
	// Defaults are untouched.
	if def := state.DefaultDefs().Shops[0]; def.Categories[2].Items[3].Stock != 5 {
		t.Error("purchase mutated default definitions")
	}
}

func TestPurchase_Rejections(t *testing.T) {
	c, reg := newTestCatalog(t)
	tests := []struct {
		name string
		shop string
		item string
		qty  int
		want error
	}{
		{"zero quantity", "general_store", "minecraft:bread", 0, ledger.ErrInvalidAmount},
		{"unknown shop", "nope", "minecraft:bread", 1, ledger.ErrUnknownShop},
		{"unknown item", "general_store", "minecraft:elytra", 1, ledger.ErrUnknownItem},
		{"too expensive", "rare_materials", "minecraft:netherite_ingot", 1, ledger.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		if _, err := c.Purchase("Alice", tt.shop, tt.item, tt.qty); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
	it, _ := c.Item("rare_materials", "minecraft:netherite_ingot")
	if it.Stock != 2 {
		t.Errorf("stock = %d after failed purchase, want 2", it.Stock)
	}
	if acc, ok := reg.Account("Alice"); ok && acc.Wallet != 1000 {
		t.Errorf("wallet = %d, want 1000", acc.Wallet)
	}
}

func TestPurchase_LoyaltyPoints(t *testing.T) {
	c, reg := newTestCatalog(t)
	reg.Credit("Alice", 20_000, "seed")
	if _, err := c.Purchase("Alice", "rare_materials", "minecraft:netherite_ingot", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Purchase("Alice", "general_store", "minecraft:bread", 1); err != nil {
		t.Fatal(err)
	}
	acc, _ := reg.Account("Alice")
	if acc.LoyaltyPoints != 10 {
		t.Errorf("loyalty = %d, want 10", acc.LoyaltyPoints)
	}
}

func TestPurchases_Capped(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }
	reg := ledger.New(ledger.WithClock(now))
	c := New(reg, state.DefaultDefs(), WithClock(now), WithHistoryCap(2))
	for i := 1; i <= 3; i++ {
		if _, err := c.Purchase("Alice", "general_store", "minecraft:wooden_sword", i); err != nil {
			t.Fatal(err)
		}
	}
	h := c.Purchases("Alice", 0)
	if len(h) != 2 || h[0].Quantity != 3 || h[1].Quantity != 2 {
		t.Errorf("purchases = %+v", h)
	}
}

func TestCreateShop(t *testing.T) {
	c, _ := newTestCatalog(t)
	s, err := c.CreateShop("dirt_shop", "Dirt Shop")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Custom || len(s.Categories) != 1 || s.Categories[0].Items[0].ItemID != "minecraft:dirt" {
		t.Errorf("shop = %+v", s)
	}
	if _, err := c.CreateShop("dirt_shop", "Again"); !errors.Is(err, ledger.ErrShopExists) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := c.CreateShop("general_store", "Clash"); !errors.Is(err, ledger.ErrShopExists) {
		t.Errorf("default clash err = %v", err)
	}
	if got := c.Shops(); got[len(got)-1].ID != "dirt_shop" {
		t.Errorf("custom shop not listed last")
	}
}

func TestRestore_MergesOverDefaults(t *testing.T) {
	c, _ := newTestCatalog(t)
	c.Purchase("Alice", "general_store", "minecraft:golden_apple", 1)
	c.CreateShop("dirt_shop", "Dirt Shop")
	snap := c.Snapshot()

	// A saved default shop with a stale catalog only restores totals.
	gs := snap.Shops["general_store"]
	gs.Categories = nil
	snap.Shops["general_store"] = gs

	c2, _ := newTestCatalog(t)
	c2.Restore(snap)
	s, _ := c2.Shop("general_store")
	if s.TotalSales != 1 || s.TotalRevenue != 1000 {
		t.Errorf("totals = %d/%d, want 1/1000", s.TotalSales, s.TotalRevenue)
	}
	if len(s.Categories) != 3 {
		t.Errorf("categories = %d, want default 3", len(s.Categories))
	}
	if it, _ := c2.Item("general_store", "minecraft:golden_apple"); it.Stock != 5 {
		t.Errorf("stock = %d, want catalog value 5", it.Stock)
	}
	if _, ok := c2.Shop("dirt_shop"); !ok {
		t.Error("custom shop not restored")
	}
	if len(c2.Purchases("Alice", 0)) != 1 {
		t.Error("purchases not restored")
	}

	c2.Reset()
	if _, ok := c2.Shop("dirt_shop"); ok {
		t.Error("Reset kept custom shop")
	}
	if len(c2.Purchases("Alice", 0)) != 0 {
		t.Error("Reset kept purchases")
	}
}

func TestSlotsNeeded(t *testing.T) {
	c, _ := newTestCatalog(t)
	it, _ := c.Item("general_store", "minecraft:cobblestone")
	tests := []struct{ qty, want int }{{1, 1}, {2, 2}}
	for _, tt := range tests {
		if got := SlotsNeeded(it, tt.qty); got != tt.want {
			t.Errorf("SlotsNeeded(%d) = %d, want %d", tt.qty, got, tt.want)
		}
	}
	bread, _ := c.Item("general_store", "minecraft:bread")
	if got := SlotsNeeded(bread, 5); got != 2 {
		t.Errorf("bread x5 = %d slots, want 2", got)
	}
}
