// Package admin implements the operator commands: balance adjustments,
// subsystem resets, forced save/reload, integrity checks, backups and
// player lookup. Every operation runs inside the engine's critical section.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/save"
	"github.com/nathoo/econcore/store"
)

// Admin wraps an engine with operator commands.
type Admin struct {
	e       *engine.Engine
	backups store.Store
	log     *slog.Logger
}

// Option configures an Admin.
type Option func(*Admin)

// WithBackupStore sets where archived backups are written, in addition to
// the economyBackup key of the primary store.
func WithBackupStore(st store.Store) Option {
	return func(a *Admin) { a.backups = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Admin) { a.log = l }
}

// New creates the admin layer for e.
func New(e *engine.Engine, opts ...Option) *Admin {
	a := &Admin{e: e, log: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.With("component", "admin")
	return a
}

// GiveMoney credits the player's wallet. Returns the new wallet balance.
func (a *Admin) GiveMoney(name string, amount int64) (int64, error) {
	var wallet int64
	err := a.e.Update(func(tx *engine.Tx) error {
		var err error
		wallet, err = tx.Registry.Credit(name, amount, "Admin grant")
		return err
	})
	if err == nil {
		a.log.Info("money given", "player", name, "amount", amount)
	}
	return wallet, err
}

// TakeMoney debits the player's wallet.
func (a *Admin) TakeMoney(name string, amount int64) error {
	err := a.e.Update(func(tx *engine.Tx) error {
		if !tx.Registry.ValidAmount(amount) {
			return fmt.Errorf("take %d: %w", amount, ledger.ErrInvalidAmount)
		}
		if !tx.Registry.Debit(name, amount, "Admin deduction") {
			return ledger.ErrInsufficientFunds
		}
		return nil
	})
	if err == nil {
		a.log.Info("money taken", "player", name, "amount", amount)
	}
	return err
}

// Balance selects which balance SetBalance overwrites.
type Balance string

// Balances.
const (
	Wallet Balance = "wallet"
	Bank   Balance = "bank"
)

// SetBalance overwrites a balance, clamping negatives to 0. Global stats
// are not adjusted; CheckIntegrity reports the resulting drift.
func (a *Admin) SetBalance(name string, which Balance, amount int64) error {
	err := a.e.Update(func(tx *engine.Tx) error {
		switch Balance(strings.ToLower(string(which))) {
		case Wallet:
			return tx.Registry.SetWalletBalance(name, amount)
		case Bank:
			return tx.Registry.SetBankBalance(name, amount)
		}
		return fmt.Errorf("balance %q: %w", which, ledger.ErrInvalidAmount)
	})
	if err == nil {
		a.log.Info("balance set", "player", name, "balance", which, "amount", amount)
	}
	return err
}

// ResetAccounts drops every account and erases the economy key.
func (a *Admin) ResetAccounts(ctx context.Context) error {
	return a.reset(ctx, save.KeyEconomy, func(tx *engine.Tx) { tx.Registry.Reset() })
}

// ResetBank drops bank accounts, loans and investments.
func (a *Admin) ResetBank(ctx context.Context) error {
	return a.reset(ctx, save.KeyBank, func(tx *engine.Tx) { tx.Bank.Reset() })
}

// ResetExchange restores base rates and clears limits and sell history.
func (a *Admin) ResetExchange(ctx context.Context) error {
	return a.reset(ctx, save.KeyExchange, func(tx *engine.Tx) { tx.Market.Reset() })
}

// ResetShop restores the default shops and clears purchase history.
func (a *Admin) ResetShop(ctx context.Context) error {
	return a.reset(ctx, save.KeyShop, func(tx *engine.Tx) { tx.Shops.Reset() })
}

// ResetAll resets every subsystem.
func (a *Admin) ResetAll(ctx context.Context) error {
	err := a.e.Update(func(tx *engine.Tx) error {
		tx.Registry.Reset()
		tx.Bank.Reset()
		tx.Market.Reset()
		tx.Shops.Reset()
		return tx.Erase(ctx, save.Keys...)
	})
	if err == nil {
		a.log.Warn("economy reset")
	}
	return err
}

func (a *Admin) reset(ctx context.Context, key string, fn func(tx *engine.Tx)) error {
	err := a.e.Update(func(tx *engine.Tx) error {
		fn(tx)
		return tx.Erase(ctx, key)
	})
	if err == nil {
		a.log.Warn("subsystem reset", "key", key)
	}
	return err
}

// ForceSave writes every subsystem blob.
func (a *Admin) ForceSave(ctx context.Context) error {
	return a.e.Save(ctx)
}

// ForceReload discards in-memory state and reloads from the store.
func (a *Admin) ForceReload(ctx context.Context) error {
	return a.e.Load(ctx)
}

type nameSource []string

func (s nameSource) String(i int) string { return s[i] }
func (s nameSource) Len() int            { return len(s) }

// FindPlayers returns account names ranked by fuzzy match against query.
// A limit <= 0 returns every match.
func (a *Admin) FindPlayers(query string, limit int) []string {
	var names []string
	a.e.View(func(tx *engine.Tx) error {
		names = tx.Registry.Names()
		return nil
	})
	lower := make(nameSource, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}
	matches := fuzzy.FindFrom(strings.ToLower(strings.TrimSpace(query)), lower)
	var out []string
	for _, m := range matches {
		out = append(out, names[m.Index])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
