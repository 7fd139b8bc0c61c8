// Package httpapi exposes the economy over HTTP: health, read-only account
// and market queries, player commands, and token-guarded admin operations.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nathoo/econcore/config"
	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/admin"
)

// Option configures the router.
type Option func(*HandlerProvider)

// WithAdminToken sets the X-Admin-Token value the admin routes require.
// Without one every admin request is rejected.
func WithAdminToken(token string) Option {
	return func(h *HandlerProvider) { h.token = token }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *HandlerProvider) { h.log = l }
}

// NewRouter builds the chi router over eng and adm.
func NewRouter(eng *engine.Engine, adm *admin.Admin, opts ...Option) http.Handler {
	h := NewHandler(eng, adm, opts...)
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/accounts/{player}", h.GetAccountHandler)
	r.Get("/accounts/{player}/transactions", h.GetTransactionsHandler)
	r.Get("/bank/{player}", h.GetBankHandler)
	r.Get("/rates", h.GetRatesHandler)
	r.Get("/stats", h.GetStatsHandler)
	r.Post("/players/{player}/command", h.CommandHandler)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireToken)
		r.Post("/give", h.GiveHandler)
		r.Post("/take", h.TakeHandler)
		r.Post("/set", h.SetHandler)
		r.Post("/save", h.SaveHandler)
		r.Post("/reload", h.ReloadHandler)
		r.Get("/integrity", h.IntegrityHandler)
		r.Post("/backup", h.BackupHandler)
		r.Post("/restore", h.RestoreHandler)
		r.Get("/backups", h.ListBackupsHandler)
		r.Get("/find", h.FindHandler)
	})

	return r
}

// NewServer creates a configured *http.Server for the economy API.
func NewServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start))
		})
	}
}
