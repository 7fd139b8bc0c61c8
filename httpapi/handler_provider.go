package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/admin"
	"github.com/nathoo/econcore/engine/exchange"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

const defaultListLimit = 10

// HandlerProvider wraps the engine and admin layer and exposes HTTP
// handlers.
type HandlerProvider struct {
	eng   *engine.Engine
	adm   *admin.Admin
	token string
	log   *slog.Logger
}

// NewHandler returns a new handler provider.
func NewHandler(eng *engine.Engine, adm *admin.Admin, opts ...Option) *HandlerProvider {
	h := &HandlerProvider{eng: eng, adm: adm, log: slog.Default()}
	for _, o := range opts {
		o(h)
	}
	h.log = h.log.With("component", "http")
	return h
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var invalidInput = []error{
	ledger.ErrInvalidAmount,
	ledger.ErrUnknownItem,
	ledger.ErrUnknownLoanType,
	ledger.ErrUnknownInvestmentType,
	ledger.ErrInvalidInstallments,
	ledger.ErrSelfTransfer,
}

// writeDomainError maps err to a status. Unknown players and missing
// backups are 404, malformed requests 400, other economy rejections 409.
func (h *HandlerProvider) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnknownPlayer):
		writeError(w, http.StatusNotFound, ledger.Message(err))
		return
	case errors.Is(err, admin.ErrNoBackup):
		writeError(w, http.StatusNotFound, "backup not found")
		return
	case errors.Is(err, admin.ErrListUnsupported):
		writeError(w, http.StatusNotImplemented, "backup store cannot list backups")
		return
	case errors.Is(err, ledger.ErrStorageFailure):
		h.log.Error("storage failure", "error", err)
		writeError(w, http.StatusInternalServerError, ledger.Message(err))
		return
	}
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			writeError(w, http.StatusBadRequest, ledger.Message(err))
			return
		}
	}
	if msg := ledger.Message(err); ledger.IsMessage(msg) {
		writeError(w, http.StatusConflict, msg)
		return
	}
	h.log.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// playerFromPath reads `{player}` from chi routes like:
//
//	GET  /accounts/{player}
//	POST /players/{player}/command
func playerFromPath(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "player")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid player: %w", err)
	}
	name = ledger.NormalizeName(name)
	if name == "" {
		return "", errors.New("missing player")
	}
	return name, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

// decodeBody decodes a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (h *HandlerProvider) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Admin-Token")
		if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Read-only handlers ---

type accountView struct {
	Name             string    `json:"name"`
	Wallet           int64     `json:"wallet"`
	Bank             int64     `json:"bank"`
	Total            int64     `json:"total"`
	TotalDisplay     string    `json:"totalDisplay"`
	TotalEarned      int64     `json:"totalEarned"`
	TotalSpent       int64     `json:"totalSpent"`
	LoyaltyPoints    int64     `json:"loyaltyPoints"`
	TransactionCount int       `json:"transactionCount"`
	JoinDate         time.Time `json:"joinDate"`
	LastActive       time.Time `json:"lastActive"`
}

// GetAccountHandler handles GET /accounts/{player}
func (h *HandlerProvider) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var acc types.Account
	var ok bool
	_ = h.eng.View(func(tx *engine.Tx) error {
		acc, ok = tx.Registry.Account(player)
		return nil
	})
	if !ok {
		writeError(w, http.StatusNotFound, ledger.Message(ledger.ErrUnknownPlayer))
		return
	}

	total := acc.Wallet + acc.BankBalance
	writeJSON(w, http.StatusOK, accountView{
		Name:             acc.Name,
		Wallet:           acc.Wallet,
		Bank:             acc.BankBalance,
		Total:            total,
		TotalDisplay:     ledger.FormatMoney(total),
		TotalEarned:      acc.TotalEarned,
		TotalSpent:       acc.TotalSpent,
		LoyaltyPoints:    acc.LoyaltyPoints,
		TransactionCount: len(acc.Transactions),
		JoinDate:         acc.JoinDate,
		LastActive:       acc.LastActive,
	})
}

// GetTransactionsHandler handles GET /accounts/{player}/transactions?limit=
func (h *HandlerProvider) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var txs []types.Transaction
	var ok bool
	_ = h.eng.View(func(tx *engine.Tx) error {
		ok = tx.Registry.Exists(player)
		txs = tx.Registry.Transactions(player, limit)
		return nil
	})
	if !ok {
		writeError(w, http.StatusNotFound, ledger.Message(ledger.ErrUnknownPlayer))
		return
	}
	if txs == nil {
		txs = []types.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

type bankView struct {
	Player          string             `json:"player"`
	Account         *types.BankAccount `json:"account"`
	Loan            *types.Loan        `json:"loan"`
	Investment      *types.Investment  `json:"investment"`
	InvestmentValue int64              `json:"investmentValue"`
}

// GetBankHandler handles GET /bank/{player}
func (h *HandlerProvider) GetBankHandler(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := bankView{Player: player}
	var ok bool
	_ = h.eng.View(func(tx *engine.Tx) error {
		if ok = tx.Registry.Exists(player); !ok {
			return nil
		}
		if acc, found := tx.Bank.BankAccount(player); found {
			view.Account = &acc
		}
		if loan, found := tx.Bank.Loan(player); found {
			view.Loan = &loan
		}
		if value, found := tx.Bank.InvestmentValue(player); found {
			view.InvestmentValue = value
			if inv, found := tx.Bank.Investment(player); found {
				view.Investment = &inv
			}
		}
		return nil
	})
	if !ok {
		writeError(w, http.StatusNotFound, ledger.Message(ledger.ErrUnknownPlayer))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type rateView struct {
	ItemID      string         `json:"itemId"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Price       int64          `json:"price"`
	BasePrice   int64          `json:"basePrice"`
	DailyLimit  int            `json:"dailyLimit"`
	Fluctuation float64        `json:"fluctuation"`
	Trend       exchange.Trend `json:"trend"`
}

// GetRatesHandler handles GET /rates?category=
func (h *HandlerProvider) GetRatesHandler(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category")))

	out := []rateView{}
	_ = h.eng.View(func(tx *engine.Tx) error {
		for _, rate := range tx.Market.Rates(category) {
			price, err := tx.Market.Quote(rate.ItemID)
			if err != nil {
				continue
			}
			out = append(out, rateView{
				ItemID:      rate.ItemID,
				Name:        exchange.DisplayName(rate.ItemID),
				Category:    rate.Category,
				Price:       price,
				BasePrice:   rate.BasePrice,
				DailyLimit:  rate.DailyLimit,
				Fluctuation: rate.Fluctuation,
				Trend:       tx.Market.TrendOf(rate.ItemID),
			})
		}
		return nil
	})
	writeJSON(w, http.StatusOK, out)
}

type statsView struct {
	types.GlobalStats
	Players     int   `json:"players"`
	Circulation int64 `json:"circulation"`
}

// GetStatsHandler handles GET /stats
func (h *HandlerProvider) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	var view statsView
	_ = h.eng.View(func(tx *engine.Tx) error {
		view = statsView{
			GlobalStats: tx.Registry.Global(),
			Players:     tx.Registry.Count(),
			Circulation: tx.Registry.Circulation(),
		}
		return nil
	})
	writeJSON(w, http.StatusOK, view)
}

// --- Player commands ---

type commandRequest struct {
	Input string `json:"input"`
}

type commandResponse struct {
	Output  []string `json:"output"`
	Events  []string `json:"events"`
	Mutated bool     `json:"mutated"`
}

// CommandHandler handles POST /players/{player}/command
func (h *HandlerProvider) CommandHandler(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req commandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input required")
		return
	}

	res := h.eng.Step(player, req.Input)
	resp := commandResponse{Output: res.Output, Events: []string{}, Mutated: res.Mutated}
	if resp.Output == nil {
		resp.Output = []string{}
	}
	for _, ev := range res.Events {
		resp.Events = append(resp.Events, ev.Type)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Admin handlers ---

type moneyRequest struct {
	Player  string `json:"player"`
	Amount  int64  `json:"amount"`
	Balance string `json:"balance,omitempty"`
}

type walletResponse struct {
	Player string `json:"player"`
	Wallet int64  `json:"wallet"`
}

func decodeMoney(w http.ResponseWriter, r *http.Request) (moneyRequest, bool) {
	var req moneyRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	req.Player = ledger.NormalizeName(req.Player)
	if req.Player == "" {
		writeError(w, http.StatusBadRequest, "player required")
		return req, false
	}
	return req, true
}

func (h *HandlerProvider) wallet(player string) int64 {
	var wallet int64
	_ = h.eng.View(func(tx *engine.Tx) error {
		acc, _ := tx.Registry.Account(player)
		wallet = acc.Wallet
		return nil
	})
	return wallet
}

// GiveHandler handles POST /admin/give
func (h *HandlerProvider) GiveHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMoney(w, r)
	if !ok {
		return
	}
	wallet, err := h.adm.GiveMoney(req.Player, req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Player: req.Player, Wallet: wallet})
}

// TakeHandler handles POST /admin/take
func (h *HandlerProvider) TakeHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMoney(w, r)
	if !ok {
		return
	}
	if err := h.adm.TakeMoney(req.Player, req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Player: req.Player, Wallet: h.wallet(req.Player)})
}

// SetHandler handles POST /admin/set
func (h *HandlerProvider) SetHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMoney(w, r)
	if !ok {
		return
	}
	if err := h.adm.SetBalance(req.Player, admin.Balance(req.Balance), req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SaveHandler handles POST /admin/save
func (h *HandlerProvider) SaveHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.adm.ForceSave(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReloadHandler handles POST /admin/reload
func (h *HandlerProvider) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.adm.ForceReload(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type integrityResponse struct {
	admin.IntegrityReport
	Clean bool `json:"clean"`
}

// IntegrityHandler handles GET /admin/integrity
func (h *HandlerProvider) IntegrityHandler(w http.ResponseWriter, r *http.Request) {
	rep := h.adm.CheckIntegrity()
	writeJSON(w, http.StatusOK, integrityResponse{IntegrityReport: rep, Clean: rep.Clean()})
}

// BackupHandler handles POST /admin/backup
func (h *HandlerProvider) BackupHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.adm.CreateBackup(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type restoreRequest struct {
	ID string `json:"id"`
}

// RestoreHandler handles POST /admin/restore. An empty body or id restores
// the latest backup in the primary store.
func (h *HandlerProvider) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	if err := h.adm.RestoreBackup(r.Context(), strings.TrimSpace(req.ID)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListBackupsHandler handles GET /admin/backups
func (h *HandlerProvider) ListBackupsHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := h.adm.ListBackups(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// FindHandler handles GET /admin/find?q=&limit=
func (h *HandlerProvider) FindHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	names := h.adm.FindPlayers(q, limit)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}
