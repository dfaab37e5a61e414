package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"runtime"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "folio",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var openHoldings, snapshots int
	if err := s.db.Conn().QueryRow("SELECT COUNT(*) FROM holdings WHERE status = 'OPEN'").Scan(&openHoldings); err != nil && err != sql.ErrNoRows {
		s.log.Error().Err(err).Msg("Failed to count holdings")
	}
	if err := s.db.Conn().QueryRow("SELECT COUNT(*) FROM portfolio_snapshots").Scan(&snapshots); err != nil && err != sql.ErrNoRows {
		s.log.Error().Err(err).Msg("Failed to count snapshots")
	}

	response := map[string]interface{}{
		"status":        "running",
		"open_holdings": openHoldings,
		"snapshots":     snapshots,
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTriggerRefresh runs the price refresh cycle immediately
// POST /api/system/refresh
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refreshJob == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Refresh job not registered")
		return
	}

	s.log.Info().Msg("Manual price refresh triggered")

	if err := s.scheduler.RunNow(s.refreshJob); err != nil {
		s.log.Error().Err(err).Msg("Failed to trigger price refresh")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Price refresh cycle completed",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
