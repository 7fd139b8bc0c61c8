package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/save"
	"github.com/nathoo/econcore/store"
)

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// encode serializes the current state of one subsystem.
func (e *Engine) encode(key string) ([]byte, error) {
	now := e.now()
	switch key {
	case save.KeyEconomy:
		accounts, stats := e.reg.Snapshot()
		return save.Encode(save.EconomyData{
			Version:     save.Version,
			Timestamp:   now,
			PlayerData:  accounts,
			GlobalStats: stats,
		})
	case save.KeyBank:
		return save.Encode(save.BankData{Snapshot: e.bank.Snapshot(), Timestamp: now})
	case save.KeyExchange:
		return save.Encode(save.ExchangeData{Snapshot: e.market.Snapshot(), Timestamp: now})
	case save.KeyShop:
		return save.Encode(save.ShopData{Snapshot: e.shops.Snapshot(), Timestamp: now})
	}
	return nil, fmt.Errorf("unknown key %q", key)
}

func (e *Engine) writeKey(ctx context.Context, key string) error {
	data, err := e.encode(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := e.store.Set(ctx, key, store.Value(string(data))); err != nil {
		return fmt.Errorf("%w: write %s: %w", ledger.ErrStorageFailure, key, err)
	}
	delete(e.dirty, key)
	return nil
}

// flushLocked writes the dirty subsystems. Failed keys stay dirty and are
// retried by the next flush.
func (e *Engine) flushLocked(ctx context.Context) error {
	var errs []error
	for _, key := range save.Keys {
		if !e.dirty[key] {
			continue
		}
		if err := e.writeKey(ctx, key); err != nil {
			e.log.Warn("storage failure", "key", key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) saveLocked(ctx context.Context) error {
	for _, key := range save.Keys {
		e.dirty[key] = true
	}
	return e.flushLocked(ctx)
}

// Save writes every subsystem blob.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked(ctx)
}

// Flush writes the subsystems changed since the last write.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked(ctx)
}

// Load replaces in-memory state with the stored blobs merged over the
// defaults. A missing or unreadable blob leaves that subsystem at its
// defaults; only store errors are returned.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) error {
	blobs := make(map[string][]byte, len(save.Keys))
	for _, key := range save.Keys {
		v, ok, err := e.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: load %s: %w", ledger.ErrStorageFailure, key, err)
		}
		if ok {
			blobs[key] = []byte(v)
		}
	}

	if data, ok := blobs[save.KeyEconomy]; ok {
		if d, err := save.LoadEconomy(data); err != nil {
			e.corrupt(save.KeyEconomy, err)
			e.reg.Reset()
		} else {
			e.reg.Restore(d.PlayerData, d.GlobalStats)
		}
	} else {
		e.reg.Reset()
	}

	if data, ok := blobs[save.KeyBank]; ok {
		if d, err := save.LoadBank(data); err != nil {
			e.corrupt(save.KeyBank, err)
			e.bank.Reset()
		} else {
			e.bank.Restore(d.Snapshot)
		}
	} else {
		e.bank.Reset()
	}

	if data, ok := blobs[save.KeyExchange]; ok {
		if d, err := save.LoadExchange(data); err != nil {
			e.corrupt(save.KeyExchange, err)
			e.market.Reset()
		} else {
			e.market.Restore(d.Snapshot)
		}
	} else {
		e.market.Reset()
	}

	if data, ok := blobs[save.KeyShop]; ok {
		if d, err := save.LoadShop(data); err != nil {
			e.corrupt(save.KeyShop, err)
			e.shops.Reset()
		} else {
			e.shops.Restore(d.Snapshot)
		}
	} else {
		e.shops.Reset()
	}

	clear(e.dirty)
	e.log.Info("economy loaded", "players", e.reg.Count(), "keys", len(blobs))
	return nil
}

func (e *Engine) corrupt(key string, err error) {
	e.log.Error("unreadable blob, using defaults", "key", key, "error", err)
}

// RunPeriodic flushes dirty state and checks the daily counter rollover on
// fixed intervals until ctx is cancelled, then flushes one last time.
func (e *Engine) RunPeriodic(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return every(gctx, e.flushEvery, func() {
			if err := e.Flush(gctx); err != nil {
				e.log.Warn("periodic flush", "error", err)
			}
		})
	})
	g.Go(func() error {
		return every(gctx, e.dailyEvery, e.dailyCheck)
	})
	err := g.Wait()

	final, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if ferr := e.Flush(final); ferr != nil {
		e.log.Warn("final flush", "error", ferr)
	}
	return err
}

func (e *Engine) dailyCheck() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.CheckDailyReset()
}

func every(ctx context.Context, d time.Duration, fn func()) error {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fn()
		}
	}
}

// Save writes every subsystem blob.
func (tx *Tx) Save(ctx context.Context) error { return tx.e.saveLocked(ctx) }

// Load reloads every subsystem from the store.
func (tx *Tx) Load(ctx context.Context) error { return tx.e.loadLocked(ctx) }

// Store returns the primary store.
func (tx *Tx) Store() store.Store { return tx.e.store }

// Erase writes null to keys and drops their pending writes, so a reset
// subsystem is not written back by the next flush.
func (tx *Tx) Erase(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := tx.e.store.Set(ctx, key, nil); err != nil {
			errs = append(errs, fmt.Errorf("%w: erase %s: %w", ledger.ErrStorageFailure, key, err))
			continue
		}
		delete(tx.e.dirty, key)
	}
	return errors.Join(errs...)
}

// Encode returns the current serialized blob for a subsystem key.
func (tx *Tx) Encode(key string) ([]byte, error) { return tx.e.encode(key) }
