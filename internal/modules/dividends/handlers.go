package dividends

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the dividends API
type Handlers struct {
	repo    *Repository
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new dividend handlers instance
func NewHandlers(repo *Repository, service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:    repo,
		service: service,
		log:     log.With().Str("handler", "dividends").Logger(),
	}
}

// Routes mounts the dividend routes
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.handleGetDividends)
	r.Post("/", h.handleRecord)
	r.Get("/total", h.handleGetTotal)
	r.Get("/holding/{id}", h.handleGetByHolding)
}

// handleGetDividends returns recent dividends, newest first
// GET /api/dividends?limit=50
func (h *Handlers) handleGetDividends(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	dividends, err := h.repo.GetAll(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get dividends")
		h.writeError(w, http.StatusInternalServerError, "Failed to get dividends")
		return
	}

	if dividends == nil {
		dividends = []Dividend{}
	}
	h.writeJSON(w, http.StatusOK, dividends)
}

// handleRecord records a dividend payment against a holding
// POST /api/dividends
func (h *Handlers) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HoldingID      string  `json:"holding_id"`
		AmountPerShare float64 `json:"amount_per_share"`
		Shares         int64   `json:"shares"`
		PaymentDate    string  `json:"payment_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		parsed, err := time.Parse(dateFormat, req.PaymentDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid payment_date, expected YYYY-MM-DD")
			return
		}
		paymentDate = parsed
	}

	dividend, err := h.service.Record(req.HoldingID, req.AmountPerShare, req.Shares, paymentDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, dividend)
}

// handleGetTotal returns the all-time dividend total, or the total since a
// given date
// GET /api/dividends/total?since=2026-01-01
func (h *Handlers) handleGetTotal(w http.ResponseWriter, r *http.Request) {
	var total float64
	var err error

	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		since, perr := time.Parse(dateFormat, sinceParam)
		if perr != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid since parameter, expected YYYY-MM-DD")
			return
		}
		total, err = h.repo.TotalSince(since)
	} else {
		total, err = h.repo.TotalAllTime()
	}

	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute dividend total")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute dividend total")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]float64{"total": total})
}

// handleGetByHolding returns all dividends recorded against one holding
// GET /api/dividends/holding/{id}
func (h *Handlers) handleGetByHolding(w http.ResponseWriter, r *http.Request) {
	dividends, err := h.repo.GetByHolding(chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get dividends")
		h.writeError(w, http.StatusInternalServerError, "Failed to get dividends")
		return
	}

	if dividends == nil {
		dividends = []Dividend{}
	}
	h.writeJSON(w, http.StatusOK, dividends)
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
