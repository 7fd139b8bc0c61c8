package shop

import (
	"sort"

	"github.com/nathoo/econcore/types"
)

// Snapshot is the persisted form of the catalog.
type Snapshot struct {
	Shops           map[string]types.Shop       `json:"shops"`
	PlayerPurchases map[string][]types.Purchase `json:"playerPurchases"`
}

// Snapshot returns copies of every shop and purchase history.
func (c *Catalog) Snapshot() Snapshot {
	s := Snapshot{
		Shops:           make(map[string]types.Shop, len(c.shops)),
		PlayerPurchases: make(map[string][]types.Purchase, len(c.purchases)),
	}
	for id, sh := range c.shops {
		s.Shops[id] = copyShop(*sh)
	}
	for player, h := range c.purchases {
		s.PlayerPurchases[player] = append([]types.Purchase{}, h...)
	}
	return s
}

// Restore rebuilds the default shops and merges s over them. Default shops
// keep their catalog and restore only their totals; custom shops come back
// whole.
func (c *Catalog) Restore(s Snapshot) {
	c.resetState()
	var custom []string
	for id, saved := range s.Shops {
		if live, ok := c.shops[id]; ok {
			live.TotalSales = saved.TotalSales
			live.TotalRevenue = saved.TotalRevenue
			continue
		}
		if saved.ID == "" {
			saved.ID = id
		}
		saved.Custom = true
		cp := copyShop(saved)
		c.shops[id] = &cp
		custom = append(custom, id)
	}
	sort.Strings(custom)
	c.order = append(c.order, custom...)
	for player, h := range s.PlayerPurchases {
		if over := len(h) - c.historyCap; over > 0 {
			h = h[over:]
		}
		c.purchases[player] = append([]types.Purchase{}, h...)
	}
}

// Reset restores the default shops and clears purchase history.
func (c *Catalog) Reset() {
	c.resetState()
	c.changed()
}
