package certificates

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the certificates API
type Handlers struct {
	repo    *Repository
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new certificate handlers instance
func NewHandlers(repo *Repository, service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:    repo,
		service: service,
		log:     log.With().Str("handler", "certificates").Logger(),
	}
}

// Routes mounts the certificate routes
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.handleGetCertificates)
	r.Post("/", h.handleCreate)
	r.Get("/income", h.handleGetMonthlyIncome)
	r.Get("/income/range", h.handleGetIncomeRange)
	r.Get("/maturing", h.handleGetMaturing)
	r.Get("/{id}", h.handleGetCertificate)
	r.Get("/{id}/value", h.handleGetCurrentValue)
	r.Put("/{id}/status", h.handleUpdateStatus)
}

// handleGetCertificates returns all certificates, optionally filtered by status
// GET /api/certificates?status=ACTIVE
func (h *Handlers) handleGetCertificates(w http.ResponseWriter, r *http.Request) {
	var certs []Certificate
	var err error

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status, serr := StatusFromString(statusParam)
		if serr != nil {
			h.writeError(w, http.StatusBadRequest, serr.Error())
			return
		}
		certs, err = h.repo.GetByStatus(status)
	} else {
		certs, err = h.repo.GetAll()
	}

	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get certificates")
		h.writeError(w, http.StatusInternalServerError, "Failed to get certificates")
		return
	}

	if certs == nil {
		certs = []Certificate{}
	}
	h.writeJSON(w, http.StatusOK, certs)
}

// handleGetCertificate returns one certificate by ID
// GET /api/certificates/{id}
func (h *Handlers) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get certificate")
		h.writeError(w, http.StatusInternalServerError, "Failed to get certificate")
		return
	}
	if cert == nil {
		h.writeError(w, http.StatusNotFound, "Certificate not found")
		return
	}

	h.writeJSON(w, http.StatusOK, cert)
}

// handleCreate registers a new certificate
// POST /api/certificates
func (h *Handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string  `json:"name"`
		Principal     float64 `json:"principal"`
		DurationYears int     `json:"duration_years"`
		AnnualRate    float64 `json:"annual_rate"`
		PurchaseDate  string  `json:"purchase_date"`
		Frequency     string  `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchaseDate, err := time.Parse(dateFormat, req.PurchaseDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid purchase_date, expected YYYY-MM-DD")
		return
	}

	frequency, err := FrequencyFromString(req.Frequency)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cert := &Certificate{
		Name:          req.Name,
		Principal:     req.Principal,
		DurationYears: req.DurationYears,
		AnnualRate:    req.AnnualRate,
		PurchaseDate:  purchaseDate,
		Frequency:     frequency,
		Status:        StatusActive,
	}

	if err := h.repo.Create(cert); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, cert)
}

// handleGetCurrentValue returns principal plus accrued interest as of now
// GET /api/certificates/{id}/value
func (h *Handlers) handleGetCurrentValue(w http.ResponseWriter, r *http.Request) {
	cert, err := h.repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get certificate")
		h.writeError(w, http.StatusInternalServerError, "Failed to get certificate")
		return
	}
	if cert == nil {
		h.writeError(w, http.StatusNotFound, "Certificate not found")
		return
	}

	// Accrual stops being meaningful once the certificate leaves ACTIVE
	if cert.Status != StatusActive {
		h.writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "Certificate is not active, current value is undefined",
			"status": string(cert.Status),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"certificate_id":   cert.ID,
		"status":           string(cert.Status),
		"principal":        cert.Principal,
		"accrued_interest": cert.AccruedInterest(),
		"current_value":    cert.CurrentValue(),
		"maturity_date":    cert.MaturityDate().Format(dateFormat),
	})
}

// handleGetMonthlyIncome returns the income summary for one month
// GET /api/certificates/income?year=2026&month=9
func (h *Handlers) handleGetMonthlyIncome(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.parseYearMonth(w, r)
	if !ok {
		return
	}

	summary, err := h.service.IncomeForMonth(year, month)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute monthly income")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute monthly income")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// handleGetIncomeRange returns income summaries for a span of months
// GET /api/certificates/income/range?year=2026&month=9&months=12
func (h *Handlers) handleGetIncomeRange(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.parseYearMonth(w, r)
	if !ok {
		return
	}

	months := 12
	if monthsParam := r.URL.Query().Get("months"); monthsParam != "" {
		parsed, err := strconv.Atoi(monthsParam)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid months parameter")
			return
		}
		months = parsed
	}

	summaries, err := h.service.IncomeForRange(year, month, months)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute income range")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute income range")
		return
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

// handleGetMaturing returns ACTIVE certificates maturing within a window
// GET /api/certificates/maturing?within_days=90
func (h *Handlers) handleGetMaturing(w http.ResponseWriter, r *http.Request) {
	withinDays := 90
	if daysParam := r.URL.Query().Get("within_days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid within_days parameter")
			return
		}
		withinDays = parsed
	}

	maturing, err := h.service.UpcomingMaturities(withinDays)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get maturing certificates")
		h.writeError(w, http.StatusInternalServerError, "Failed to get maturing certificates")
		return
	}

	if maturing == nil {
		maturing = []MaturingCertificate{}
	}
	h.writeJSON(w, http.StatusOK, maturing)
}

// handleUpdateStatus transitions a certificate's lifecycle status
// PUT /api/certificates/{id}/status
func (h *Handlers) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := StatusFromString(req.Status)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	cert, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get certificate")
		h.writeError(w, http.StatusInternalServerError, "Failed to get certificate")
		return
	}
	if cert == nil {
		h.writeError(w, http.StatusNotFound, "Certificate not found")
		return
	}

	if err := h.repo.UpdateStatus(id, status); err != nil {
		h.log.Error().Err(err).Msg("Failed to update certificate status")
		h.writeError(w, http.StatusInternalServerError, "Failed to update certificate status")
		return
	}

	cert.Status = status
	h.writeJSON(w, http.StatusOK, cert)
}

// parseYearMonth reads year and month query parameters, defaulting to the
// current month
func (h *Handlers) parseYearMonth(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	now := time.Now()
	year := now.Year()
	month := now.Month()

	if yearParam := r.URL.Query().Get("year"); yearParam != "" {
		parsed, err := strconv.Atoi(yearParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid year parameter")
			return 0, 0, false
		}
		year = parsed
	}

	if monthParam := r.URL.Query().Get("month"); monthParam != "" {
		parsed, err := strconv.Atoi(monthParam)
		if err != nil || parsed < 1 || parsed > 12 {
			h.writeError(w, http.StatusBadRequest, "Invalid month parameter")
			return 0, 0, false
		}
		month = time.Month(parsed)
	}

	return year, month, true
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
