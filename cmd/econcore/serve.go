package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/econcore/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background tasks",
	Long: `Serve the economy over HTTP until interrupted.

Dirty state is flushed every tasks.flush_interval and the daily counters
are checked every tasks.daily_check_interval. Admin routes require the
X-Admin-Token header to match http.admin_token.

Example:
  econcore serve --config econcore.toml
  ECON_HTTP_ADMIN_TOKEN=secret econcore serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from http.addr)")
}

func runServe(cmd *cobra.Command, args []string) (retErr error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); cerr != nil {
			retErr = errors.Join(retErr, cerr)
		}
	}()
	if cfg.HTTP.AdminToken == "" {
		a.log.Warn("http.admin_token is empty, admin routes will reject every request")
	}

	router := httpapi.NewRouter(a.eng, a.adm,
		httpapi.WithAdminToken(cfg.HTTP.AdminToken),
		httpapi.WithLogger(a.log))
	srv := httpapi.NewServer(cfg.HTTP, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.eng.RunPeriodic(gctx)
	})
	g.Go(func() error {
		a.log.Info("API started", "addr", srv.Addr)
		// http.ErrServerClosed is the normal path during Shutdown
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shut down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}
		return nil
	})
	return g.Wait()
}
