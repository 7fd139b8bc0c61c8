// Package exchange implements the item sell market: a price table with
// volume-driven fluctuation, per-player daily sell limits and a bounded
// sell history.
package exchange

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/types"
)

// Price dynamics.
const (
	MinFluctuation = 0.5
	MaxFluctuation = 2.0
	recoveryRate   = 0.01
	impactDivisor  = 1000.0
	BulkBonusQty   = 64
	DefaultHistory = 100
	trendUpAbove   = 1.05
	trendDownBelow = 0.95
)

var bulkBonusRate = decimal.NewFromFloat(0.10)

// Trend describes where a price sits relative to its base.
type Trend string

// Price trends.
const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Market owns the exchange rates, daily usage and sell history.
type Market struct {
	reg        *ledger.Registry
	defs       *state.Defs
	rates      map[string]*types.ExchangeRate
	usage      map[string]map[string]*types.DailyUsage
	history    map[string][]types.ExchangeRecord
	historyCap int
	now        func() time.Time
	newID      func(prefix string) string
	onChange   func()
	log        *slog.Logger
}

// Option configures a Market.
type Option func(*Market)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Market) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Market) { m.log = l }
}

// WithOnChange registers a hook run after every mutation.
func WithOnChange(fn func()) Option {
	return func(m *Market) { m.onChange = fn }
}

// WithHistoryCap sets the per-player sell history size.
func WithHistoryCap(n int) Option {
	return func(m *Market) {
		if n > 0 {
			m.historyCap = n
		}
	}
}

// New creates a market priced from the catalog in defs.
func New(reg *ledger.Registry, defs *state.Defs, opts ...Option) *Market {
	m := &Market{
		reg:        reg,
		defs:       defs,
		historyCap: DefaultHistory,
		now:        time.Now,
		newID:      ledger.NewID,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("component", "exchange")
	m.resetState()
	return m
}

func (m *Market) resetState() {
	now := m.now()
	m.rates = make(map[string]*types.ExchangeRate, len(m.defs.Items))
	for id, it := range m.defs.Items {
		m.rates[id] = &types.ExchangeRate{
			ItemID:      id,
			BasePrice:   it.BasePrice,
			DailyLimit:  it.DailyLimit,
			Category:    it.Category,
			Fluctuation: 1.0,
			LastUpdate:  now,
		}
	}
	m.usage = map[string]map[string]*types.DailyUsage{}
	m.history = map[string][]types.ExchangeRecord{}
}

func (m *Market) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}

func clamp(f float64) float64 {
	return min(max(f, MinFluctuation), MaxFluctuation)
}

func price(r *types.ExchangeRate) int64 {
	return decimal.NewFromInt(r.BasePrice).Mul(decimal.NewFromFloat(r.Fluctuation)).Floor().IntPart()
}

// Quote returns the current unit price of an item.
func (m *Market) Quote(itemID string) (int64, error) {
	r, ok := m.rates[itemID]
	if !ok {
		return 0, fmt.Errorf("quote %q: %w", itemID, ledger.ErrUnknownItem)
	}
	return price(r), nil
}

// Rate returns a copy of an item's rate.
func (m *Market) Rate(itemID string) (types.ExchangeRate, bool) {
	r, ok := m.rates[itemID]
	if !ok {
		return types.ExchangeRate{}, false
	}
	return *r, true
}

// Rates returns the rates in a category, sorted by item ID. An empty
// category returns every rate.
func (m *Market) Rates(category string) []types.ExchangeRate {
	var out []types.ExchangeRate
	for _, r := range m.rates {
		if category == "" || r.Category == category {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// TrendOf classifies an item's fluctuation.
func (m *Market) TrendOf(itemID string) Trend {
	r, ok := m.rates[itemID]
	switch {
	case !ok:
		return TrendFlat
	case r.Fluctuation > trendUpAbove:
		return TrendUp
	case r.Fluctuation < trendDownBelow:
		return TrendDown
	default:
		return TrendFlat
	}
}

// usageFor returns the live usage record, zeroing it on a new day.
func (m *Market) usageFor(player, itemID string) *types.DailyUsage {
	today := ledger.DateKey(m.now())
	byItem, ok := m.usage[player]
	if !ok {
		byItem = map[string]*types.DailyUsage{}
		m.usage[player] = byItem
	}
	u, ok := byItem[itemID]
	if !ok {
		u = &types.DailyUsage{Date: today}
		byItem[itemID] = u
	}
	if u.Date != today {
		u.Date = today
		u.Used = 0
	}
	return u
}

// RemainingDailyLimit returns how many more units of an item the player
// may sell today. Unknown items return 0.
func (m *Market) RemainingDailyLimit(player, itemID string) int {
	r, ok := m.rates[itemID]
	if !ok {
		return 0
	}
	player = ledger.NormalizeName(player)
	used := 0
	if u, ok := m.usage[player][itemID]; ok && u.Date == ledger.DateKey(m.now()) {
		used = u.Used
	}
	return max(0, r.DailyLimit-used)
}

// Sell credits the player for quantity units of an item. The caller has
// already removed the items from the player's inventory.
func (m *Market) Sell(player, itemID string, quantity int) (types.SaleResult, error) {
	if quantity < 1 {
		return types.SaleResult{}, fmt.Errorf("sell %d: %w", quantity, ledger.ErrInvalidAmount)
	}
	r, ok := m.rates[itemID]
	if !ok {
		return types.SaleResult{}, fmt.Errorf("sell %q: %w", itemID, ledger.ErrUnknownItem)
	}
	player = ledger.NormalizeName(player)
	if player == "" {
		return types.SaleResult{}, ledger.ErrUnknownPlayer
	}
	if quantity > m.RemainingDailyLimit(player, itemID) {
		return types.SaleResult{}, ledger.ErrOverDailyLimit
	}

	unit := price(r)
	gross := decimal.NewFromInt(unit).Mul(decimal.NewFromInt(int64(quantity)))
	bonus := decimal.Zero
	if quantity >= BulkBonusQty {
		bonus = gross.Mul(bulkBonusRate).Floor()
	}
	res := types.SaleResult{
		UnitPrice:  unit,
		GrossValue: gross.IntPart(),
		Bonus:      bonus.IntPart(),
		TotalValue: gross.Add(bonus).IntPart(),
	}
	if res.TotalValue > 0 {
		reason := fmt.Sprintf("Sold %dx %s", quantity, displayName(itemID))
		if _, err := m.reg.Credit(player, res.TotalValue, reason); err != nil {
			return types.SaleResult{}, err
		}
	}

	now := m.now()
	m.record(player, types.ExchangeRecord{
		ID:         m.newID("exch"),
		ItemID:     itemID,
		Quantity:   quantity,
		UnitPrice:  unit,
		Bonus:      res.Bonus,
		TotalValue: res.TotalValue,
		Timestamp:  now,
	})
	m.usageFor(player, itemID).Used += quantity

	r.Fluctuation = clamp(r.Fluctuation - float64(quantity)/impactDivisor)
	r.Fluctuation = clamp(r.Fluctuation + (1-r.Fluctuation)*recoveryRate)
	r.LastUpdate = now

	m.log.Info("item sold", "player", player, "item", itemID, "quantity", quantity,
		"total", res.TotalValue, "fluctuation", r.Fluctuation)
	m.changed()
	return res, nil
}

func (m *Market) record(player string, rec types.ExchangeRecord) {
	h := append(m.history[player], rec)
	if over := len(h) - m.historyCap; over > 0 {
		h = append([]types.ExchangeRecord{}, h[over:]...)
	}
	m.history[player] = h
}

// HistoryFor returns up to limit sell records, newest first. A limit <= 0
// returns everything.
func (m *Market) HistoryFor(player string, limit int) []types.ExchangeRecord {
	h := m.history[ledger.NormalizeName(player)]
	var out []types.ExchangeRecord
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, h[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// displayName turns "minecraft:iron_ingot" into "iron ingot".
func displayName(itemID string) string {
	if i := strings.IndexByte(itemID, ':'); i >= 0 {
		itemID = itemID[i+1:]
	}
	return strings.ReplaceAll(itemID, "_", " ")
}

// DisplayName is the human-readable form of an item ID.
func DisplayName(itemID string) string { return displayName(itemID) }
