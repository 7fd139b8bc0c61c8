package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nathoo/econcore/config"
	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/admin"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/loader"
	"github.com/nathoo/econcore/logging"
	"github.com/nathoo/econcore/store"
	"github.com/nathoo/econcore/store/mongostore"
	"github.com/nathoo/econcore/store/mysqlstore"
	"github.com/nathoo/econcore/store/pgstore"
	"github.com/nathoo/econcore/store/s3store"
)

const closeTimeout = 10 * time.Second

// app is everything a command needs once the config is loaded.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	backups store.Store // nil when no backup store is configured
	eng     *engine.Engine
	adm     *admin.Admin
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp opens the stores, compiles the economy scripts and restores saved
// state. A nil log installs the configured logger.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	if log == nil {
		var err error
		if log, err = logging.Setup(cfg.Log); err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
	}
	a := &app{cfg: cfg, log: log}

	base := state.DefaultDefs()
	cfg.ApplyEconomy(base)
	defs, err := loader.Load(cfg.Economy.ScriptsDir, loader.WithBase(base), loader.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("load economy scripts: %w", err)
	}

	if a.store, err = openStore(ctx, cfg.Store); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.Backup.Driver != "" {
		if a.backups, err = openStore(ctx, cfg.Backup); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("open backup store: %w", err)
		}
	}

	a.eng = engine.New(defs, a.store,
		engine.WithLogger(log),
		engine.WithIntervals(cfg.Tasks.FlushInterval, cfg.Tasks.DailyCheckInterval))
	if err := a.eng.Load(ctx); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("load saved state: %w", err)
	}

	opts := []admin.Option{admin.WithLogger(log)}
	if a.backups != nil {
		opts = append(opts, admin.WithBackupStore(a.backups))
	}
	a.adm = admin.New(a.eng, opts...)

	log.Info("economy ready",
		"store", cfg.Store.Driver,
		"backup", cfg.Backup.Driver,
		"scripts", cfg.Economy.ScriptsDir)
	return a, nil
}

// close flushes pending state and releases the stores.
func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	var errs []error
	if a.eng != nil {
		if err := a.eng.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final flush: %w", err))
		}
	}
	if a.backups != nil {
		if err := store.Close(ctx, a.backups); err != nil {
			errs = append(errs, fmt.Errorf("close backup store: %w", err))
		}
	}
	if a.store != nil {
		if err := store.Close(ctx, a.store); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openStore builds the backend named by sc.Driver. SQL backends are
// migrated on open. A key prefix and an LRU read cache wrap the result
// when configured.
func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	var st store.Store
	switch sc.Driver {
	case "memory":
		st = store.NewMemory()
	case "file":
		f, err := store.NewFile(sc.Dir)
		if err != nil {
			return nil, err
		}
		st = f
	case "postgres":
		s, err := pgstore.Open(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(s.DB()); err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		st = s
	case "mysql":
		s, err := mysqlstore.Open(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		if err := mysqlstore.Migrate(s.DB()); err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("migrate mysql: %w", err)
		}
		st = s
	case "mongo":
		s, err := mongostore.Open(ctx, sc.DSN, sc.Database, sc.Collection)
		if err != nil {
			return nil, err
		}
		st = s
	case "s3":
		s, err := s3store.Open(ctx, s3store.Config{
			Bucket:    sc.Bucket,
			Region:    sc.Region,
			Endpoint:  sc.Endpoint,
			Prefix:    sc.Prefix,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}

	// s3store applies the prefix to object keys itself.
	if sc.Prefix != "" && sc.Driver != "s3" {
		st = store.NewPrefixed(st, sc.Prefix)
	}
	if sc.CacheSize > 0 && sc.Driver != "memory" {
		c, err := store.NewCached(st, sc.CacheSize)
		if err != nil {
			store.Close(ctx, st)
			return nil, err
		}
		st = c
	}
	return st, nil
}
