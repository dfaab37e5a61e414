package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the ledger API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new ledger handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// Routes mounts the ledger routes
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/holdings", h.handleGetHoldings)
	r.Post("/holdings", h.handleOpen)
	r.Get("/holdings/all", h.handleGetAllHoldings)
	r.Get("/holdings/{id}", h.handleGetHolding)
	r.Post("/holdings/{id}/buy", h.handleBuyMore)
	r.Post("/holdings/{id}/sell", h.handleSell)
	r.Post("/holdings/{id}/adjust", h.handleAdjustCost)
	r.Get("/holdings/{id}/transactions", h.handleGetTransactions)
	r.Get("/holdings/{id}/history", h.handleGetCostHistory)
	r.Get("/holdings/{id}/verify", h.handleVerifyHistory)
	r.Get("/realized-gains", h.handleGetRealizedGains)
	r.Put("/prices/{symbol}", h.handleUpdatePrice)
}

// handleGetHoldings returns all open holdings
// GET /api/ledger/holdings
func (h *Handlers) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Repo().GetOpen()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holdings")
		h.writeError(w, http.StatusInternalServerError, "Failed to get holdings")
		return
	}

	if holdings == nil {
		holdings = []Holding{}
	}
	h.writeJSON(w, http.StatusOK, holdings)
}

// handleGetAllHoldings returns every holding, open and closed
// GET /api/ledger/holdings/all
func (h *Handlers) handleGetAllHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Repo().GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holdings")
		h.writeError(w, http.StatusInternalServerError, "Failed to get holdings")
		return
	}

	if holdings == nil {
		holdings = []Holding{}
	}
	h.writeJSON(w, http.StatusOK, holdings)
}

// handleGetHolding returns one holding by ID
// GET /api/ledger/holdings/{id}
func (h *Handlers) handleGetHolding(w http.ResponseWriter, r *http.Request) {
	holding, err := h.service.Repo().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holding")
		h.writeError(w, http.StatusInternalServerError, "Failed to get holding")
		return
	}
	if holding == nil {
		h.writeError(w, http.StatusNotFound, "Holding not found")
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// handleOpen opens a new position
// POST /api/ledger/holdings
func (h *Handlers) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string  `json:"symbol"`
		Name   string  `json:"name"`
		Shares int64   `json:"shares"`
		Price  float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.Open(req.Symbol, req.Name, req.Shares, req.Price)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, holding)
}

// handleBuyMore adds shares to an open position
// POST /api/ledger/holdings/{id}/buy
func (h *Handlers) handleBuyMore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shares int64   `json:"shares"`
		Price  float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.BuyMore(chi.URLParam(r, "id"), req.Shares, req.Price)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// handleSell sells shares; selling all remaining shares closes the position
// POST /api/ledger/holdings/{id}/sell
func (h *Handlers) handleSell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shares int64   `json:"shares"`
		Price  float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.Sell(chi.URLParam(r, "id"), req.Shares, req.Price)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// handleAdjustCost overwrites the average cost of a holding
// POST /api/ledger/holdings/{id}/adjust
func (h *Handlers) handleAdjustCost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AvgCost float64 `json:"avg_cost"`
		Notes   string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holding, err := h.service.AdjustCost(chi.URLParam(r, "id"), req.AvgCost, req.Notes)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// handleGetTransactions returns a holding's transactions
// GET /api/ledger/holdings/{id}/transactions?order=asc|desc
func (h *Handlers) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	ascending := r.URL.Query().Get("order") == "asc"

	txs, err := h.service.Repo().GetTransactions(chi.URLParam(r, "id"), ascending)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get transactions")
		h.writeError(w, http.StatusInternalServerError, "Failed to get transactions")
		return
	}

	if txs == nil {
		txs = []Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txs)
}

// handleGetCostHistory returns a holding's audit log
// GET /api/ledger/holdings/{id}/history?order=asc|desc
func (h *Handlers) handleGetCostHistory(w http.ResponseWriter, r *http.Request) {
	ascending := r.URL.Query().Get("order") == "asc"

	entries, err := h.service.Repo().GetCostHistory(chi.URLParam(r, "id"), ascending)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get cost history")
		h.writeError(w, http.StatusInternalServerError, "Failed to get cost history")
		return
	}

	if entries == nil {
		entries = []CostHistory{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// handleVerifyHistory replays the audit log and checks it against the
// stored state
// GET /api/ledger/holdings/{id}/verify
func (h *Handlers) handleVerifyHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.VerifyHistory(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrHoldingNotFound) {
			h.writeError(w, http.StatusNotFound, "Holding not found")
			return
		}
		h.writeJSON(w, http.StatusConflict, map[string]string{"status": "mismatch", "detail": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "consistent"})
}

// handleGetRealizedGains returns all realized-gain records
// GET /api/ledger/realized-gains
func (h *Handlers) handleGetRealizedGains(w http.ResponseWriter, r *http.Request) {
	gains, err := h.service.Repo().GetRealizedGains()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get realized gains")
		h.writeError(w, http.StatusInternalServerError, "Failed to get realized gains")
		return
	}

	if gains == nil {
		gains = []RealizedGain{}
	}
	h.writeJSON(w, http.StatusOK, gains)
}

// handleUpdatePrice sets the current price for a symbol
// PUT /api/ledger/prices/{symbol}
func (h *Handlers) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdatePrice(chi.URLParam(r, "symbol"), req.Price); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// writeDomainError maps ledger errors onto HTTP statuses
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrComputationInvalid):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrHoldingNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrHoldingClosed):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Msg("Ledger operation failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
