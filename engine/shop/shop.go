// Package shop implements the shop catalog and player purchases.
package shop

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/types"
)

// Shop policy.
const (
	Unlimited          = -1
	DefaultHistory     = 50
	StackSize          = 64
	LoyaltyThreshold   = 10_000
	loyaltyPointsUnit  = 1_000
	customCategoryName = "General"
)

// Catalog owns the shops and per-player purchase history.
type Catalog struct {
	reg        *ledger.Registry
	defs       *state.Defs
	shops      map[string]*types.Shop
	order      []string
	purchases  map[string][]types.Purchase
	historyCap int
	now        func() time.Time
	newID      func(prefix string) string
	onChange   func()
	log        *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// WithOnChange registers a hook run after every mutation.
func WithOnChange(fn func()) Option {
	return func(c *Catalog) { c.onChange = fn }
}

// WithHistoryCap sets the per-player purchase history size.
func WithHistoryCap(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.historyCap = n
		}
	}
}

// New creates a catalog stocked with the shops in defs.
func New(reg *ledger.Registry, defs *state.Defs, opts ...Option) *Catalog {
	c := &Catalog{
		reg:        reg,
		defs:       defs,
		historyCap: DefaultHistory,
		now:        time.Now,
		newID:      ledger.NewID,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "shop")
	c.resetState()
	return c
}

func (c *Catalog) resetState() {
	c.shops = map[string]*types.Shop{}
	c.order = nil
	for _, s := range c.defs.Shops {
		cp := copyShop(s)
		c.shops[s.ID] = &cp
		c.order = append(c.order, s.ID)
	}
	c.purchases = map[string][]types.Purchase{}
}

func (c *Catalog) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func copyShop(s types.Shop) types.Shop {
	cp := s
	cp.Categories = make([]types.ShopCategory, len(s.Categories))
	for i, cat := range s.Categories {
		cp.Categories[i] = types.ShopCategory{Name: cat.Name, Items: append([]types.ShopItem{}, cat.Items...)}
	}
	return cp
}

// Shops returns every shop in display order.
func (c *Catalog) Shops() []types.Shop {
	out := make([]types.Shop, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, copyShop(*c.shops[id]))
	}
	return out
}

// Shop returns a copy of one shop.
func (c *Catalog) Shop(id string) (types.Shop, bool) {
	s, ok := c.shops[id]
	if !ok {
		return types.Shop{}, false
	}
	return copyShop(*s), true
}

func (c *Catalog) find(shopID, itemID string) (*types.Shop, *types.ShopItem, error) {
	s, ok := c.shops[shopID]
	if !ok {
		return nil, nil, fmt.Errorf("shop %q: %w", shopID, ledger.ErrUnknownShop)
	}
	for ci := range s.Categories {
		items := s.Categories[ci].Items
		for ii := range items {
			if items[ii].ItemID == itemID {
				return s, &items[ii], nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%s in %s: %w", itemID, shopID, ledger.ErrUnknownItem)
}

// Item returns a copy of a shop line.
func (c *Catalog) Item(shopID, itemID string) (types.ShopItem, error) {
	_, it, err := c.find(shopID, itemID)
	if err != nil {
		return types.ShopItem{}, err
	}
	return *it, nil
}

// SlotsNeeded returns the inventory slots a purchase of quantity lines of
// item occupies.
func SlotsNeeded(item types.ShopItem, quantity int) int {
	total := item.Count * quantity
	return (total + StackSize - 1) / StackSize
}

// Purchase charges the player for quantity lines of an item. The caller
// has already checked inventory space and adds the items afterwards.
func (c *Catalog) Purchase(player, shopID, itemID string, quantity int) (types.Purchase, error) {
	if quantity < 1 {
		return types.Purchase{}, fmt.Errorf("purchase %d: %w", quantity, ledger.ErrInvalidAmount)
	}
	s, it, err := c.find(shopID, itemID)
	if err != nil {
		return types.Purchase{}, err
	}
	if it.Stock != Unlimited && it.Stock < quantity {
		return types.Purchase{}, ledger.ErrOutOfStock
	}
	player = ledger.NormalizeName(player)
	total := it.Price * int64(quantity)
	if !c.reg.ValidAmount(total) {
		return types.Purchase{}, fmt.Errorf("purchase total %d: %w", total, ledger.ErrInvalidAmount)
	}
	reason := fmt.Sprintf("Purchase at %s: %s", s.Name, itemID)
	if !c.reg.Debit(player, total, reason) {
		return types.Purchase{}, ledger.ErrInsufficientFunds
	}
	if it.Stock != Unlimited {
		it.Stock -= quantity
	}
	p := types.Purchase{
		ID:         c.newID("buy"),
		ShopID:     s.ID,
		ShopName:   s.Name,
		ItemID:     itemID,
		Quantity:   quantity,
		TotalItems: it.Count * quantity,
		TotalPrice: total,
		Timestamp:  c.now(),
	}
	c.record(player, p)
	s.TotalSales += quantity
	s.TotalRevenue += total
	if total >= LoyaltyThreshold {
		if err := c.reg.AddLoyaltyPoints(player, total/loyaltyPointsUnit); err != nil {
			c.log.Warn("loyalty points not added", "player", player, "error", err)
		}
	}
	c.log.Info("purchase", "player", player, "shop", s.ID, "item", itemID, "quantity", quantity, "total", total)
	c.changed()
	return p, nil
}

func (c *Catalog) record(player string, p types.Purchase) {
	h := append(c.purchases[player], p)
	if over := len(h) - c.historyCap; over > 0 {
		h = append([]types.Purchase{}, h[over:]...)
	}
	c.purchases[player] = h
}

// Purchases returns up to limit purchases, newest first.
func (c *Catalog) Purchases(player string, limit int) []types.Purchase {
	h := c.purchases[ledger.NormalizeName(player)]
	var out []types.Purchase
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, h[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// CreateShop adds an admin shop with a single starter line.
func (c *Catalog) CreateShop(id, name string) (types.Shop, error) {
	if id == "" {
		return types.Shop{}, fmt.Errorf("empty shop id: %w", ledger.ErrUnknownShop)
	}
	if _, ok := c.shops[id]; ok {
		return types.Shop{}, fmt.Errorf("shop %q: %w", id, ledger.ErrShopExists)
	}
	if name == "" {
		name = id
	}
	s := &types.Shop{
		ID:          id,
		Name:        name,
		Description: "Custom shop",
		Categories: []types.ShopCategory{{
			Name:  customCategoryName,
			Items: []types.ShopItem{{ItemID: "minecraft:dirt", Count: 64, Price: 50, Stock: Unlimited}},
		}},
		Custom: true,
	}
	c.shops[id] = s
	c.order = append(c.order, id)
	c.log.Info("shop created", "shop", id)
	c.changed()
	return copyShop(*s), nil
}
