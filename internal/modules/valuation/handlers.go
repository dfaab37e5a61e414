package valuation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the valuation API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new valuation handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// Routes mounts the valuation routes
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/{symbol}", h.handleEvaluate)
}

// handleEvaluate returns the full valuation report for a symbol
// GET /api/valuation/{symbol}
func (h *Handlers) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Evaluate(chi.URLParam(r, "symbol"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to evaluate symbol")
		h.writeError(w, http.StatusBadGateway, "Failed to evaluate symbol")
		return
	}

	h.writeJSON(w, http.StatusOK, report)
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
