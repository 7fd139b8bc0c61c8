package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/save"
	"github.com/nathoo/econcore/store"
)

const backupPrefix = "backups/"

// ErrNoBackup is returned when the requested backup does not exist.
var ErrNoBackup = errors.New("econ: backup not found")

// ErrListUnsupported is returned by ListBackups when the backup store
// cannot enumerate keys.
var ErrListUnsupported = errors.New("econ: backup store cannot list")

func backupKey(id string) string {
	return backupPrefix + id + ".json"
}

// CreateBackup archives every subsystem blob under economyBackup in the
// primary store and, when configured, as backups/<id>.json in the backup
// store. Returns the backup ID.
func (a *Admin) CreateBackup(ctx context.Context) (string, error) {
	var data []byte
	var b save.Backup
	err := a.e.Update(func(tx *engine.Tx) error {
		b = save.Backup{ID: ledger.NewID("bkp"), Timestamp: tx.Now()}
		for _, key := range save.Keys {
			blob, err := tx.Encode(key)
			if err != nil {
				return err
			}
			b.SetBlob(key, json.RawMessage(blob))
		}
		var err error
		if data, err = save.Encode(b); err != nil {
			return err
		}
		if err := tx.Store().Set(ctx, save.KeyBackup, store.Value(string(data))); err != nil {
			return fmt.Errorf("%w: write backup: %w", ledger.ErrStorageFailure, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if a.backups != nil {
		if err := a.backups.Set(ctx, backupKey(b.ID), store.Value(string(data))); err != nil {
			return b.ID, fmt.Errorf("%w: archive backup %s: %w", ledger.ErrStorageFailure, b.ID, err)
		}
	}
	a.log.Info("backup created", "id", b.ID, "archived", a.backups != nil)
	return b.ID, nil
}

// RestoreBackup copies an archived backup's blobs over the live keys and
// reloads. An empty id restores the economyBackup key of the primary store.
func (a *Admin) RestoreBackup(ctx context.Context, id string) error {
	var (
		raw string
		ok  bool
		err error
	)
	if id == "" {
		raw, ok, err = a.e.Store().Get(ctx, save.KeyBackup)
	} else {
		if a.backups == nil {
			return ErrNoBackup
		}
		raw, ok, err = a.backups.Get(ctx, backupKey(id))
	}
	if err != nil {
		return fmt.Errorf("%w: read backup: %w", ledger.ErrStorageFailure, err)
	}
	if !ok {
		return ErrNoBackup
	}
	b, err := save.LoadBackup([]byte(raw))
	if err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}

	err = a.e.Update(func(tx *engine.Tx) error {
		for _, key := range save.Keys {
			var v *string
			if blob := b.Blob(key); blob != nil {
				v = store.Value(string(blob))
			}
			if err := tx.Store().Set(ctx, key, v); err != nil {
				return fmt.Errorf("%w: restore %s: %w", ledger.ErrStorageFailure, key, err)
			}
		}
		return tx.Load(ctx)
	})
	if err == nil {
		a.log.Warn("backup restored", "id", b.ID)
	}
	return err
}

// ListBackups returns archived backup IDs, newest first.
func (a *Admin) ListBackups(ctx context.Context) ([]string, error) {
	if a.backups == nil {
		return nil, nil
	}
	l, ok := a.backups.(store.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	keys, err := l.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(k, backupPrefix), ".json")
		if id != "" && strings.HasSuffix(k, ".json") {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}
