// Package state holds the immutable economy definitions: the exchange
// catalog, loan and investment products, the tier ladder, physical money
// denominations, default shops, and scripted event handlers.
package state

import (
	"sort"

	"github.com/nathoo/econcore/types"
)

// Defs holds the economy definitions built from DefaultDefs and any Lua
// scripts layered on top.
type Defs struct {
	Economy       types.EconomyDef
	Items         map[string]types.ItemDef
	LoanTypes     map[string]types.LoanType
	Investments   map[string]types.InvestmentType
	Tiers         []types.TierDef      // lowest first; Tiers[0].UpgradeCost is unused
	Denominations []types.Denomination // highest value first
	Shops         []types.Shop
	Handlers      []types.EventHandler
}

// Item returns the catalog entry for an item.
func (d *Defs) Item(id string) (types.ItemDef, bool) {
	it, ok := d.Items[id]
	return it, ok
}

// ItemIDs returns catalog item IDs, sorted. An empty category returns all.
func (d *Defs) ItemIDs(category string) []string {
	var ids []string
	for id, it := range d.Items {
		if category == "" || it.Category == category {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Categories returns the distinct item categories, sorted.
func (d *Defs) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range d.Items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	sort.Strings(out)
	return out
}

// NextTier returns the tier after current, or false at the top.
func (d *Defs) NextTier(current types.Tier) (types.TierDef, bool) {
	for i, t := range d.Tiers {
		if t.Tier == current && i+1 < len(d.Tiers) {
			return d.Tiers[i+1], true
		}
	}
	return types.TierDef{}, false
}

// LoanTypeIDs returns the loan product IDs ordered by maximum principal.
func (d *Defs) LoanTypeIDs() []string {
	ids := make([]string, 0, len(d.LoanTypes))
	for id := range d.LoanTypes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := d.LoanTypes[ids[i]], d.LoanTypes[ids[j]]
		if a.MaxAmount != b.MaxAmount {
			return a.MaxAmount < b.MaxAmount
		}
		return ids[i] < ids[j]
	})
	return ids
}

// InvestmentTypeIDs returns the investment product IDs ordered by minimum.
func (d *Defs) InvestmentTypeIDs() []string {
	ids := make([]string, 0, len(d.Investments))
	for id := range d.Investments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := d.Investments[ids[i]], d.Investments[ids[j]]
		if a.MinAmount != b.MinAmount {
			return a.MinAmount < b.MinAmount
		}
		return ids[i] < ids[j]
	})
	return ids
}

// SortDenominations orders denominations highest value first.
func (d *Defs) SortDenominations() {
	sort.SliceStable(d.Denominations, func(i, j int) bool {
		return d.Denominations[i].Value > d.Denominations[j].Value
	})
}

// DefaultDefs returns a fresh copy of the built-in economy.
func DefaultDefs() *Defs {
	return &Defs{
		Economy: types.EconomyDef{
			SignupBonus:        1000,
			MaxAmount:          999_999_999,
			TransactionCap:     100,
			ExchangeHistoryCap: 100,
			PurchaseHistoryCap: 50,
		},
		Items:       defaultItems(),
		LoanTypes:   defaultLoanTypes(),
		Investments: defaultInvestments(),
		Tiers: []types.TierDef{
			{Tier: types.TierBasic},
			{Tier: types.TierPremium, UpgradeCost: 10_000},
			{Tier: types.TierVIP, UpgradeCost: 50_000},
			{Tier: types.TierBlack, UpgradeCost: 200_000},
		},
		Denominations: []types.Denomination{
			{ItemID: "economic:note_8", Value: 1000, Name: "$1000 note"},
			{ItemID: "economic:note_7", Value: 500, Name: "$500 note"},
			{ItemID: "economic:note_6", Value: 100, Name: "$100 note"},
			{ItemID: "economic:note_5", Value: 50, Name: "$50 note"},
			{ItemID: "economic:note_4", Value: 20, Name: "$20 note"},
			{ItemID: "economic:coin_3", Value: 10, Name: "$10 coin"},
			{ItemID: "economic:coin_2", Value: 5, Name: "$5 coin"},
			{ItemID: "economic:coin_1", Value: 1, Name: "$1 coin"},
		},
		Shops: defaultShops(),
	}
}

func defaultItems() map[string]types.ItemDef {
	rows := []struct {
		id       string
		price    int64
		limit    int
		category string
	}{
		{"minecraft:coal", 15, 1000, "minerals"},
		{"minecraft:iron_ingot", 75, 500, "minerals"},
		{"minecraft:gold_ingot", 150, 200, "minerals"},
		{"minecraft:diamond", 800, 50, "minerals"},
		{"minecraft:emerald", 600, 75, "minerals"},
		{"minecraft:netherite_ingot", 5000, 10, "minerals"},
		{"minecraft:redstone", 25, 2000, "minerals"},
		{"minecraft:lapis_lazuli", 30, 1500, "minerals"},
		{"minecraft:quartz", 40, 1000, "minerals"},

		{"minecraft:glowstone_dust", 50, 800, "nether"},
		{"minecraft:blaze_rod", 200, 100, "nether"},
		{"minecraft:ghast_tear", 400, 50, "nether"},
		{"minecraft:nether_wart", 35, 500, "nether"},
		{"minecraft:magma_cream", 80, 200, "nether"},
		{"minecraft:netherrack", 10, 2000, "nether"},

		{"minecraft:ender_pearl", 300, 100, "end"},
		{"minecraft:chorus_fruit", 60, 300, "end"},
		{"minecraft:shulker_shell", 1500, 20, "end"},
		{"minecraft:dragon_breath", 2000, 5, "end"},
		{"minecraft:end_stone", 80, 300, "end"},

		{"minecraft:nether_star", 10000, 3, "rare"},
		{"minecraft:totem_of_undying", 8000, 5, "rare"},
		{"minecraft:elytra", 15000, 2, "rare"},
		{"minecraft:beacon", 12000, 3, "rare"},

		{"minecraft:diamond_block", 7200, 20, "blocks"},
		{"minecraft:gold_block", 1350, 100, "blocks"},
		{"minecraft:iron_block", 675, 200, "blocks"},
		{"minecraft:emerald_block", 5400, 30, "blocks"},
		{"minecraft:obsidian", 100, 500, "blocks"},
		{"minecraft:prismarine", 120, 200, "blocks"},

		{"minecraft:wheat", 5, 5000, "farming"},
		{"minecraft:carrot", 8, 3000, "farming"},
		{"minecraft:potato", 8, 3000, "farming"},
		{"minecraft:beetroot", 10, 2000, "farming"},
		{"minecraft:sugar_cane", 15, 1500, "farming"},
		{"minecraft:pumpkin", 25, 1000, "farming"},
		{"minecraft:melon", 20, 1200, "farming"},

		{"minecraft:bone", 20, 1000, "mob_drops"},
		{"minecraft:string", 15, 1500, "mob_drops"},
		{"minecraft:gunpowder", 45, 800, "mob_drops"},
		{"minecraft:spider_eye", 30, 600, "mob_drops"},
		{"minecraft:slime_ball", 60, 400, "mob_drops"},
		{"minecraft:phantom_membrane", 150, 100, "mob_drops"},
	}
	items := make(map[string]types.ItemDef, len(rows))
	for _, r := range rows {
		items[r.id] = types.ItemDef{ID: r.id, BasePrice: r.price, DailyLimit: r.limit, Category: r.category}
	}
	return items
}

func defaultLoanTypes() map[string]types.LoanType {
	installments := []int{6, 12, 24, 36}
	return map[string]types.LoanType{
		"small":  {ID: "small", Name: "Small loan", MaxAmount: 10_000, InterestRate: 0.05, Installments: append([]int{}, installments...)},
		"medium": {ID: "medium", Name: "Medium loan", MaxAmount: 50_000, InterestRate: 0.08, Installments: append([]int{}, installments...)},
		"large":  {ID: "large", Name: "Large loan", MaxAmount: 200_000, InterestRate: 0.12, Installments: append([]int{}, installments...)},
	}
}

func defaultInvestments() map[string]types.InvestmentType {
	return map[string]types.InvestmentType{
		"savings":    {ID: "savings", Name: "Savings", Rate: 0.02, Risk: 0, MinAmount: 1_000},
		"moderate":   {ID: "moderate", Name: "Moderate fund", Rate: 0.05, Risk: 0.1, MinAmount: 5_000},
		"aggressive": {ID: "aggressive", Name: "Aggressive fund", Rate: 0.10, Risk: 0.3, MinAmount: 10_000},
	}
}

func item(id string, count int, price int64, stock int) types.ShopItem {
	return types.ShopItem{ItemID: id, Count: count, Price: price, Stock: stock}
}

func defaultShops() []types.Shop {
	const unlimited = -1
	return []types.Shop{
		{
			ID:          "general_store",
			Name:        "General Store",
			Description: "Everything you need to survive.",
			Categories: []types.ShopCategory{
				{Name: "Basic Tools", Items: []types.ShopItem{
					item("minecraft:wooden_pickaxe", 1, 50, unlimited),
					item("minecraft:stone_pickaxe", 1, 150, unlimited),
					item("minecraft:iron_pickaxe", 1, 500, unlimited),
					item("minecraft:wooden_sword", 1, 40, unlimited),
					item("minecraft:stone_sword", 1, 120, unlimited),
					item("minecraft:iron_sword", 1, 400, unlimited),
				}},
				{Name: "Building Blocks", Items: []types.ShopItem{
					item("minecraft:cobblestone", 64, 100, unlimited),
					item("minecraft:stone", 64, 150, unlimited),
					item("minecraft:oak_planks", 64, 200, unlimited),
					item("minecraft:bricks", 32, 300, unlimited),
					item("minecraft:glass", 32, 250, unlimited),
				}},
				{Name: "Food", Items: []types.ShopItem{
					item("minecraft:bread", 16, 200, unlimited),
					item("minecraft:cooked_beef", 8, 300, unlimited),
					item("minecraft:apple", 12, 150, unlimited),
					item("minecraft:golden_apple", 1, 1000, 5),
					item("minecraft:milk_bucket", 1, 100, unlimited),
				}},
			},
		},
		{
			ID:          "equipment_store",
			Name:        "Equipment Store",
			Description: "Weapons and armor for warriors.",
			Categories: []types.ShopCategory{
				{Name: "Leather Armor", Items: []types.ShopItem{
					item("minecraft:leather_helmet", 1, 100, unlimited),
					item("minecraft:leather_chestplate", 1, 200, unlimited),
					item("minecraft:leather_leggings", 1, 150, unlimited),
					item("minecraft:leather_boots", 1, 80, unlimited),
				}},
				{Name: "Iron Armor", Items: []types.ShopItem{
					item("minecraft:iron_helmet", 1, 800, unlimited),
					item("minecraft:iron_chestplate", 1, 1200, unlimited),
					item("minecraft:iron_leggings", 1, 1000, unlimited),
					item("minecraft:iron_boots", 1, 600, unlimited),
				}},
				{Name: "Special Weapons", Items: []types.ShopItem{
					item("minecraft:bow", 1, 300, unlimited),
					item("minecraft:crossbow", 1, 500, unlimited),
					item("minecraft:arrow", 64, 200, unlimited),
					item("minecraft:shield", 1, 400, unlimited),
				}},
			},
		},
		{
			ID:          "rare_materials",
			Name:        "Rare Materials",
			Description: "Special items that are hard to find.",
			Categories: []types.ShopCategory{
				{Name: "Precious Minerals", Items: []types.ShopItem{
					item("minecraft:diamond", 1, 2000, 10),
					item("minecraft:emerald", 1, 1500, 15),
					item("minecraft:gold_ingot", 1, 500, unlimited),
					item("minecraft:iron_ingot", 1, 200, unlimited),
					item("minecraft:netherite_ingot", 1, 10000, 2),
				}},
				{Name: "Nether Items", Items: []types.ShopItem{
					item("minecraft:blaze_rod", 1, 800, 20),
					item("minecraft:ghast_tear", 1, 1200, 10),
					item("minecraft:nether_wart", 16, 400, unlimited),
					item("minecraft:magma_cream", 4, 600, 25),
				}},
				{Name: "End Items", Items: []types.ShopItem{
					item("minecraft:ender_pearl", 1, 1000, 15),
					item("minecraft:end_stone", 32, 800, unlimited),
					item("minecraft:chorus_fruit", 8, 500, 30),
					item("minecraft:dragon_breath", 1, 5000, 3),
				}},
			},
		},
	}
}
