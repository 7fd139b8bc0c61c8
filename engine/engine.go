// Package engine provides the Engine: the application context that owns
// every economy component, the store, and the logger, and turns one chat
// command or host event into a single serialized turn.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nathoo/econcore/engine/bank"
	"github.com/nathoo/econcore/engine/cash"
	"github.com/nathoo/econcore/engine/effects"
	"github.com/nathoo/econcore/engine/events"
	"github.com/nathoo/econcore/engine/exchange"
	"github.com/nathoo/econcore/engine/inventory"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/parser"
	"github.com/nathoo/econcore/engine/save"
	"github.com/nathoo/econcore/engine/shop"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/store"
	"github.com/nathoo/econcore/types"
)

// Default periodic task intervals.
const (
	DefaultFlushInterval      = time.Minute
	DefaultDailyCheckInterval = time.Hour
	storeTimeout              = 10 * time.Second
)

// Engine serializes every operation behind one mutex. Components are not
// locked themselves.
type Engine struct {
	mu sync.Mutex

	defs   *state.Defs
	store  store.Store
	reg    *ledger.Registry
	bank   *bank.Bank
	market *exchange.Market
	cash   *cash.Converter
	shops  *shop.Catalog
	inv    inventory.Provider

	tags  map[string]map[string]bool
	dirty map[string]bool

	now        func() time.Time
	log        *slog.Logger
	flushEvery time.Duration
	dailyEvery time.Duration
}

// Option configures an Engine. Options run before the components are
// built, so clock and logger settings reach every component.
type Option func(*Engine)

// WithLogger sets the logger shared by every component. Each component
// adds its own component attribute. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the time source shared by every component: transaction
// timestamps, loan schedules, investment maturity and daily resets all
// read it. The default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithInventories sets the host inventory collaborator used by sell, buy
// and the physical money commands. Without it each player gets an
// in-memory inventory with DefaultSlots slots.
func WithInventories(p inventory.Provider) Option {
	return func(e *Engine) { e.inv = p }
}

// WithIntervals sets how often RunPeriodic flushes dirty state to the store and
// checks for the daily reset. Non-positive values keep
// DefaultFlushInterval and DefaultDailyCheckInterval.
func WithIntervals(flush, daily time.Duration) Option {
	return func(e *Engine) {
		if flush > 0 {
			e.flushEvery = flush
		}
		if daily > 0 {
			e.dailyEvery = daily
		}
	}
}

// New wires the components over defs and st. Call Load to restore saved
// state.
func New(defs *state.Defs, st store.Store, opts ...Option) *Engine {
	if st == nil {
		st = store.NewMemory()
	}
	e := &Engine{
		defs:       defs,
		store:      st,
		tags:       map[string]map[string]bool{},
		dirty:      map[string]bool{},
		now:        time.Now,
		log:        slog.Default(),
		flushEvery: DefaultFlushInterval,
		dailyEvery: DefaultDailyCheckInterval,
	}
	for _, o := range opts {
		o(e)
	}
	if e.inv == nil {
		e.inv = inventory.NewMemoryProvider(inventory.DefaultSlots, inventory.DefaultStackSize)
	}

	eco := defs.Economy
	e.reg = ledger.New(
		ledger.WithClock(e.now),
		ledger.WithLogger(e.log),
		ledger.WithSignupBonus(eco.SignupBonus),
		ledger.WithMaxAmount(eco.MaxAmount),
		ledger.WithTransactionCap(eco.TransactionCap),
		ledger.WithOnChange(e.markDirty(save.KeyEconomy)),
	)
	e.bank = bank.New(e.reg, defs,
		bank.WithClock(e.now),
		bank.WithLogger(e.log),
		bank.WithOnChange(e.markDirty(save.KeyBank)),
	)
	e.market = exchange.New(e.reg, defs,
		exchange.WithClock(e.now),
		exchange.WithLogger(e.log),
		exchange.WithHistoryCap(eco.ExchangeHistoryCap),
		exchange.WithOnChange(e.markDirty(save.KeyExchange)),
	)
	e.cash = cash.New(e.reg, defs.Denominations)
	e.shops = shop.New(e.reg, defs,
		shop.WithClock(e.now),
		shop.WithLogger(e.log),
		shop.WithHistoryCap(eco.PurchaseHistoryCap),
		shop.WithOnChange(e.markDirty(save.KeyShop)),
	)
	e.log = e.log.With("component", "engine")
	return e
}

func (e *Engine) markDirty(key string) func() {
	return func() { e.dirty[key] = true }
}

// Defs returns the economy definitions.
func (e *Engine) Defs() *state.Defs { return e.defs }

// Store returns the primary store.
func (e *Engine) Store() store.Store { return e.store }

// Tx exposes the components to a function running inside the engine's
// critical section.
type Tx struct {
	e           *Engine
	Defs        *state.Defs
	Registry    *ledger.Registry
	Bank        *bank.Bank
	Market      *exchange.Market
	Cash        *cash.Converter
	Shops       *shop.Catalog
	Inventories inventory.Provider
}

func (e *Engine) tx() *Tx {
	return &Tx{
		e:           e,
		Defs:        e.defs,
		Registry:    e.reg,
		Bank:        e.bank,
		Market:      e.market,
		Cash:        e.cash,
		Shops:       e.shops,
		Inventories: e.inv,
	}
}

// Now returns the engine clock's current time.
func (tx *Tx) Now() time.Time { return tx.e.now() }

// Step parses one chat/console command from player and runs it. Emitted
// events go through the scripted handlers once; their effects never emit
// further handler runs.
func (e *Engine) Step(player, input string) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result types.Result
	player = ledger.NormalizeName(player)
	if player == "" {
		result.Output = append(result.Output, ledger.Message(ledger.ErrUnknownPlayer))
		return result
	}

	intent := parser.Parse(input)
	if intent.Verb == "" {
		result.Output = append(result.Output, "Type 'help' for a list of commands.")
		return result
	}

	out, evts := e.run(player, intent)
	result.Output = append(result.Output, out...)
	result.Events = append(result.Events, evts...)

	for _, ev := range evts {
		e.dispatch(ev, &result)
	}

	e.finish(&result)
	return result
}

// Fire dispatches a host event (player_join, npc_interact, item_use,
// chat) through the scripted handlers.
func (e *Engine) Fire(ev types.Event) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result types.Result
	ev.Player = ledger.NormalizeName(ev.Player)
	if ev.Player == "" {
		result.Output = append(result.Output, ledger.Message(ledger.ErrUnknownPlayer))
		return result
	}

	e.dispatch(ev, &result)
	if ev.Type == "player_join" {
		if _, err := e.reg.GetOrCreateAccount(ev.Player); err != nil {
			e.log.Error("player join", "player", ev.Player, "error", err)
		}
	}

	e.finish(&result)
	return result
}

// dispatch evaluates every handler against ev, then applies the matched
// effects.
func (e *Engine) dispatch(ev types.Event, result *types.Result) {
	host := scriptHost{e}
	effs := events.Dispatch(ev, e.defs.Handlers, host)
	if len(effs) == 0 {
		return
	}
	applied := effects.Apply(effs, ev.Player, host)
	result.Effects = append(result.Effects, applied.Effects...)
	result.Events = append(result.Events, applied.Events...)
	result.Output = append(result.Output, applied.Output...)
}

// finish flushes dirty subsystems. A storage failure is reported but the
// operation stands.
func (e *Engine) finish(result *types.Result) {
	if len(e.dirty) == 0 {
		return
	}
	result.Mutated = true
	ctx, cancel := storeContext()
	defer cancel()
	if err := e.flushLocked(ctx); err != nil {
		result.Output = append(result.Output, ledger.Message(err))
	}
}

// Update runs fn inside the critical section and flushes afterwards.
func (e *Engine) Update(fn func(tx *Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.tx())
	if len(e.dirty) > 0 {
		ctx, cancel := storeContext()
		defer cancel()
		if ferr := e.flushLocked(ctx); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// View runs fn inside the critical section without flushing. Lazily
// resolved state (investment months, new bank records) is flushed by the
// next write or the periodic task.
func (e *Engine) View(fn func(tx *Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.tx())
}

// AddTag attaches a session tag to a player (the host's entity tags).
func (e *Engine) AddTag(player, tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addTag(ledger.NormalizeName(player), tag)
}

func (e *Engine) addTag(player, tag string) {
	set, ok := e.tags[player]
	if !ok {
		set = map[string]bool{}
		e.tags[player] = set
	}
	set[tag] = true
}

func (e *Engine) hasTag(player, tag string) bool {
	return e.tags[player][tag]
}

// scriptHost adapts the engine to the rules and effects interfaces. It is
// only used while e.mu is held.
type scriptHost struct{ e *Engine }

func (h scriptHost) Wallet(player string) int64 {
	acc, _ := h.e.reg.Account(player)
	return acc.Wallet
}

func (h scriptHost) CreditScore(player string) int {
	if acc, ok := h.e.bank.BankAccount(player); ok {
		return acc.CreditScore
	}
	return bank.InitialCreditScore
}

func (h scriptHost) HasTag(player, tag string) bool { return h.e.hasTag(player, tag) }

func (h scriptHost) IsNewPlayer(player string) bool { return !h.e.reg.Exists(player) }

func (h scriptHost) Credit(player string, amount int64, reason string) (int64, error) {
	return h.e.reg.Credit(player, amount, reason)
}

func (h scriptHost) Debit(player string, amount int64, reason string) bool {
	return h.e.reg.Debit(player, amount, reason)
}

func (h scriptHost) ValidAmount(amount int64) bool { return h.e.reg.ValidAmount(amount) }

func (h scriptHost) AddTag(player, tag string) { h.e.addTag(player, tag) }
