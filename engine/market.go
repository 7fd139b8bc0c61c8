package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/econcore/engine/cash"
	"github.com/nathoo/econcore/engine/exchange"
	"github.com/nathoo/econcore/engine/inventory"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/resolve"
	"github.com/nathoo/econcore/engine/shop"
	"github.com/nathoo/econcore/types"
)

// AdminTag marks players allowed to run admin chat commands.
const AdminTag = "admin"

var trendMarks = map[exchange.Trend]string{
	exchange.TrendUp:   "+",
	exchange.TrendDown: "-",
	exchange.TrendFlat: "=",
}

// --- Exchange ---

func (e *Engine) itemIDs() []string {
	return e.defs.ItemIDs("")
}

func (e *Engine) cmdRates(args []string) []string {
	category := ""
	if len(args) > 0 {
		category = strings.ToLower(args[0])
		known := false
		for _, c := range e.defs.Categories() {
			if c == category {
				known = true
				break
			}
		}
		if !known {
			return []string{"Categories: " + strings.Join(e.defs.Categories(), ", ")}
		}
	}
	rates := e.market.Rates(category)
	out := make([]string, 0, len(rates)+1)
	out = append(out, "Exchange rates (price per unit, daily limit):")
	for _, r := range rates {
		p, _ := e.market.Quote(r.ItemID)
		out = append(out, fmt.Sprintf("  %s %-22s %8s  %4d  [%s]",
			trendMarks[e.market.TrendOf(r.ItemID)], exchange.DisplayName(r.ItemID), money(p), r.DailyLimit, r.Category))
	}
	return out
}

func (e *Engine) cmdQuote(player string, args []string) []string {
	if len(args) < 1 {
		return usage("quote <item>")
	}
	id, err := resolve.Item(strings.Join(args, " "), e.itemIDs())
	if err != nil {
		return fail(err)
	}
	p, err := e.market.Quote(id)
	if err != nil {
		return fail(err)
	}
	r, _ := e.market.Rate(id)
	return []string{
		fmt.Sprintf("%s: %s per unit (base %s, trend %s)", exchange.DisplayName(id), money(p), money(r.BasePrice), e.market.TrendOf(id)),
		fmt.Sprintf("You can sell %d more today. Selling %d or more at once earns a 10%% bonus.",
			e.market.RemainingDailyLimit(player, id), exchange.BulkBonusQty),
	}
}

func (e *Engine) cmdSell(player string, args []string) ([]string, []types.Event) {
	if len(args) < 2 {
		return usage("sell <item> <qty>"), nil
	}
	qty, err := parseQuantity(args[len(args)-1])
	if err != nil {
		return fail(err), nil
	}
	id, err := resolve.Item(strings.Join(args[:len(args)-1], " "), e.itemIDs())
	if err != nil {
		return fail(err), nil
	}
	inv := e.inv.For(player)
	if inv.Count(id) < qty {
		return fail(ledger.ErrNotEnoughItems), nil
	}
	sold := []stack{{id, qty}}
	if err := e.takeAll(player, inv, sold); err != nil {
		return fail(err), nil
	}
	res, err := e.market.Sell(player, id, qty)
	if err != nil {
		e.restore(player, inv, sold, true)
		return fail(err), nil
	}

	out := []string{fmt.Sprintf("Sold %dx %s for %s.", qty, exchange.DisplayName(id), money(res.TotalValue))}
	if res.Bonus > 0 {
		out = append(out, fmt.Sprintf("Bulk bonus: %s.", money(res.Bonus)))
	}
	return out, []types.Event{event("sale", player, map[string]any{"item": id, "quantity": qty, "total": res.TotalValue})}
}

func (e *Engine) cmdExchanges(player string, args []string) []string {
	recs := e.market.HistoryFor(player, listLimit(args))
	if len(recs) == 0 {
		return []string{"No sales yet."}
	}
	out := []string{"Sales (newest first):"}
	for _, r := range recs {
		out = append(out, fmt.Sprintf("%s  %dx %s  %s", r.Timestamp.Format("01/02 15:04"), r.Quantity, exchange.DisplayName(r.ItemID), money(r.TotalValue)))
	}
	return out
}

// --- Physical money ---

func (e *Engine) cmdToCash(player string, args []string) ([]string, []types.Event) {
	if len(args) < 1 {
		return usage("tocash <amount>"), nil
	}
	amount, err := e.parseAmount(args[0])
	if err != nil {
		return fail(err), nil
	}
	inv := e.inv.For(player)
	if cash.Slots(e.cash.Breakdown(amount), inventory.DefaultStackSize) > inv.FreeSlots() {
		return fail(ledger.ErrInventoryFull), nil
	}
	pieces, err := e.cash.ToPhysical(player, amount)
	if err != nil {
		return fail(err), nil
	}
	if err := e.giveAll(player, inv, pieceStacks(pieces)); err != nil {
		if _, rerr := e.reg.Credit(player, amount, "Refund: physical money not delivered"); rerr != nil {
			e.log.Error("cash-out refund failed", "player", player, "amount", amount, "error", rerr)
		}
		return fail(err), nil
	}
	out := []string{fmt.Sprintf("Withdrew %s as physical money:", money(amount))}
	for _, p := range pieces {
		out = append(out, fmt.Sprintf("  %dx %s", p.Count, p.Denomination.Name))
	}
	return out, []types.Event{event("cash_out", player, map[string]any{"amount": amount})}
}

func (e *Engine) cmdFromCash(player string) ([]string, []types.Event) {
	inv := e.inv.For(player)
	counts := map[string]int{}
	var held []stack
	for _, d := range e.cash.Denominations() {
		if n := inv.Count(d.ItemID); n > 0 {
			counts[d.ItemID] = n
			held = append(held, stack{d.ItemID, n})
		}
	}
	if len(held) == 0 {
		return []string{"You have no physical money in your inventory."}, nil
	}
	if err := e.takeAll(player, inv, held); err != nil {
		return fail(err), nil
	}
	total, err := e.cash.ToDigital(player, counts)
	if err != nil {
		e.restore(player, inv, held, true)
		return fail(err), nil
	}
	return []string{fmt.Sprintf("Deposited %s of physical money into your wallet.", money(total))},
		[]types.Event{event("cash_in", player, map[string]any{"amount": total})}
}

// --- Shop ---

func (e *Engine) shopIDs() []string {
	shops := e.shops.Shops()
	ids := make([]string, len(shops))
	for i, s := range shops {
		ids[i] = s.ID
	}
	return ids
}

func shopItemIDs(s types.Shop) []string {
	var ids []string
	for _, c := range s.Categories {
		for _, it := range c.Items {
			ids = append(ids, it.ItemID)
		}
	}
	return ids
}

func (e *Engine) cmdShops() []string {
	out := []string{"Shops:"}
	for _, s := range e.shops.Shops() {
		out = append(out, fmt.Sprintf("  %-16s %s: %s", s.ID, s.Name, s.Description))
	}
	return out
}

func stockLabel(stock int) string {
	if stock == shop.Unlimited {
		return ""
	}
	return fmt.Sprintf(" (%d left)", stock)
}

func (e *Engine) cmdShop(args []string) []string {
	if len(args) < 1 {
		return usage("shop <id>")
	}
	id, err := resolve.Shop(args[0], e.shopIDs())
	if err != nil {
		return fail(err)
	}
	s, _ := e.shops.Shop(id)
	out := []string{s.Name}
	for _, c := range s.Categories {
		out = append(out, "["+c.Name+"]")
		for _, it := range c.Items {
			out = append(out, fmt.Sprintf("  %-26s x%-3d %8s%s", it.ItemID, it.Count, money(it.Price), stockLabel(it.Stock)))
		}
	}
	return out
}

func (e *Engine) cmdBuy(player string, args []string) ([]string, []types.Event) {
	if len(args) < 3 {
		return usage("buy <shop> <item> <qty>"), nil
	}
	qty, err := parseQuantity(args[len(args)-1])
	if err != nil {
		return fail(err), nil
	}
	shopID, err := resolve.Shop(args[0], e.shopIDs())
	if err != nil {
		return fail(err), nil
	}
	s, _ := e.shops.Shop(shopID)
	itemID, err := resolve.Item(strings.Join(args[1:len(args)-1], " "), shopItemIDs(s))
	if err != nil {
		return fail(err), nil
	}
	it, err := e.shops.Item(shopID, itemID)
	if err != nil {
		return fail(err), nil
	}
	inv := e.inv.For(player)
	if shop.SlotsNeeded(it, qty) > inv.FreeSlots() {
		return fail(ledger.ErrInventoryFull), nil
	}
	bought := []stack{{itemID, it.Count * qty}}
	if err := e.giveAll(player, inv, bought); err != nil {
		return fail(err), nil
	}
	p, err := e.shops.Purchase(player, shopID, itemID, qty)
	if err != nil {
		e.restore(player, inv, bought, false)
		return fail(err), nil
	}
	return []string{fmt.Sprintf("Bought %dx %s at %s for %s.", p.TotalItems, exchange.DisplayName(itemID), p.ShopName, money(p.TotalPrice))},
		[]types.Event{event("purchase", player, map[string]any{"shop": shopID, "item": itemID, "total": p.TotalPrice})}
}

func (e *Engine) cmdPurchases(player string, args []string) []string {
	ps := e.shops.Purchases(player, listLimit(args))
	if len(ps) == 0 {
		return []string{"No purchases yet."}
	}
	out := []string{"Purchases (newest first):"}
	for _, p := range ps {
		out = append(out, fmt.Sprintf("%s  %dx %s at %s  %s", p.Timestamp.Format("01/02 15:04"), p.TotalItems, exchange.DisplayName(p.ItemID), p.ShopName, money(p.TotalPrice)))
	}
	return out
}

func (e *Engine) cmdShopCreate(player string, args []string) []string {
	if !e.hasTag(player, AdminTag) {
		return []string{fmt.Sprintf("Unknown command %q. Type 'help' for a list of commands.", "shopcreate")}
	}
	if len(args) < 1 {
		return usage("shop-create <id> <name>")
	}
	s, err := e.shops.CreateShop(strings.ToLower(args[0]), strings.Join(args[1:], " "))
	if err != nil {
		return fail(err)
	}
	return []string{fmt.Sprintf("Shop %s (%s) created.", s.Name, s.ID)}
}

// --- Inventory moves ---

// stack is a count of one item moved in or out of an inventory.
type stack struct {
	id string
	n  int
}

func pieceStacks(pieces []cash.Piece) []stack {
	out := make([]stack, len(pieces))
	for i, p := range pieces {
		out[i] = stack{p.Denomination.ItemID, p.Count}
	}
	return out
}

// giveAll adds every stack or none: on the first failure the stacks
// already added are taken back.
func (e *Engine) giveAll(player string, inv inventory.Inventory, stacks []stack) error {
	for i, s := range stacks {
		if err := inv.Add(s.id, s.n); err != nil {
			e.restore(player, inv, stacks[:i], false)
			return fmt.Errorf("%w: add %dx %s: %w", ledger.ErrInventoryFull, s.n, s.id, err)
		}
	}
	return nil
}

// takeAll removes every stack or none.
func (e *Engine) takeAll(player string, inv inventory.Inventory, stacks []stack) error {
	for i, s := range stacks {
		if err := inv.Remove(s.id, s.n); err != nil {
			e.restore(player, inv, stacks[:i], true)
			return fmt.Errorf("%w: remove %dx %s: %w", ledger.ErrNotEnoughItems, s.n, s.id, err)
		}
	}
	return nil
}

// restore undoes a move: it adds stacks back when they were taken, or
// removes them when they were given. Failures leave the inventory out of
// sync with the ledger and are logged.
func (e *Engine) restore(player string, inv inventory.Inventory, stacks []stack, taken bool) {
	for _, s := range stacks {
		var err error
		if taken {
			err = inv.Add(s.id, s.n)
		} else {
			err = inv.Remove(s.id, s.n)
		}
		if err != nil {
			e.log.Error("inventory out of sync", "player", player, "item", s.id, "count", s.n, "error", err)
		}
	}
}
