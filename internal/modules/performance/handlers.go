package performance

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the performance API
type Handlers struct {
	analyzer *Analyzer
	repo     *SnapshotRepository
	log      zerolog.Logger
}

// NewHandlers creates a new performance handlers instance
func NewHandlers(analyzer *Analyzer, repo *SnapshotRepository, log zerolog.Logger) *Handlers {
	return &Handlers{
		analyzer: analyzer,
		repo:     repo,
		log:      log.With().Str("handler", "performance").Logger(),
	}
}

// Routes mounts the performance routes
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/snapshot", h.handleTakeSnapshot)
	r.Get("/snapshots", h.handleGetSnapshots)
	r.Get("/period", h.handleGetPeriod)
	r.Get("/breakdown", h.handleGetBreakdown)
	r.Get("/stats", h.handleGetStats)
}

// handleTakeSnapshot records a portfolio snapshot now
// POST /api/performance/snapshot
func (h *Handlers) handleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.analyzer.TakeSnapshot()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to take snapshot")
		h.writeError(w, http.StatusInternalServerError, "Failed to take snapshot")
		return
	}

	h.writeJSON(w, http.StatusCreated, snapshot)
}

// handleGetSnapshots returns all stored snapshots
// GET /api/performance/snapshots
func (h *Handlers) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get snapshots")
		h.writeError(w, http.StatusInternalServerError, "Failed to get snapshots")
		return
	}

	if snapshots == nil {
		snapshots = []PortfolioSnapshot{}
	}
	h.writeJSON(w, http.StatusOK, snapshots)
}

// handleGetPeriod returns performance over a trailing window
// GET /api/performance/period?days=30
func (h *Handlers) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	days, ok := h.parseDays(w, r, 30)
	if !ok {
		return
	}

	perf, err := h.analyzer.PerformanceForPeriod(days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute period performance")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute period performance")
		return
	}

	h.writeJSON(w, http.StatusOK, perf)
}

// handleGetBreakdown returns per-holding performance, best first
// GET /api/performance/breakdown
func (h *Handlers) handleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.analyzer.PerformanceBreakdown()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute performance breakdown")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute performance breakdown")
		return
	}

	if breakdown == nil {
		breakdown = []HoldingPerformance{}
	}
	h.writeJSON(w, http.StatusOK, breakdown)
}

// handleGetStats returns volatility and drawdown statistics over the
// snapshot series
// GET /api/performance/stats?days=90
func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	days, ok := h.parseDays(w, r, 90)
	if !ok {
		return
	}

	stats, err := h.analyzer.SeriesStatsForPeriod(days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute series stats")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute series stats")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) parseDays(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	days := fallback
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return 0, false
		}
		days = parsed
	}
	return days, true
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
