package certificates

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// CertificateIncome is one certificate's payout for a queried month
type CertificateIncome struct {
	CertificateID string     `json:"certificate_id"`
	Name          string     `json:"name"`
	Income        float64    `json:"income"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

// MonthlyIncomeSummary aggregates all certificate payouts for one month
type MonthlyIncomeSummary struct {
	Year        int                 `json:"year"`
	Month       time.Month          `json:"month"`
	Payments    []CertificateIncome `json:"payments"`
	TotalIncome float64             `json:"total_income"`
}

// MaturingCertificate pairs a certificate with its maturity date and the
// remaining days until it matures
type MaturingCertificate struct {
	Certificate  Certificate `json:"certificate"`
	MaturityDate time.Time   `json:"maturity_date"`
	DaysLeft     int         `json:"days_left"`
}

// Service assembles income summaries and maturity lists across certificates
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new certificate service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "certificates").Logger(),
	}
}

// IncomeForMonth returns the payout summary for one (year, month) across
// all certificates. Certificates that pay nothing that month are omitted.
func (s *Service) IncomeForMonth(year int, month time.Month) (*MonthlyIncomeSummary, error) {
	certs, err := s.repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get certificates: %w", err)
	}

	summary := &MonthlyIncomeSummary{
		Year:     year,
		Month:    month,
		Payments: []CertificateIncome{},
	}

	for _, cert := range certs {
		income := cert.MonthlyIncome(year, month)
		if income == 0 {
			continue
		}

		summary.Payments = append(summary.Payments, CertificateIncome{
			CertificateID: cert.ID,
			Name:          cert.Name,
			Income:        income,
			DueDate:       cert.DueDate(year, month),
		})
		summary.TotalIncome += income
	}

	return summary, nil
}

// IncomeForRange returns payout summaries for a span of months starting at
// (year, month)
func (s *Service) IncomeForRange(year int, month time.Month, months int) ([]MonthlyIncomeSummary, error) {
	if months <= 0 {
		return nil, fmt.Errorf("months must be positive")
	}

	summaries := make([]MonthlyIncomeSummary, 0, months)
	cursor := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < months; i++ {
		summary, err := s.IncomeForMonth(cursor.Year(), cursor.Month())
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
		cursor = cursor.AddDate(0, 1, 0)
	}

	return summaries, nil
}

// UpcomingMaturities returns ACTIVE certificates maturing within the given
// number of days, sorted ascending by maturity date
func (s *Service) UpcomingMaturities(withinDays int) ([]MaturingCertificate, error) {
	certs, err := s.repo.GetByStatus(StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get active certificates: %w", err)
	}

	now := time.Now()
	cutoff := now.AddDate(0, 0, withinDays)

	var maturing []MaturingCertificate
	for _, cert := range certs {
		maturity := cert.MaturityDate()
		if maturity.Before(now) || maturity.After(cutoff) {
			continue
		}

		maturing = append(maturing, MaturingCertificate{
			Certificate:  cert,
			MaturityDate: maturity,
			DaysLeft:     int(maturity.Sub(now).Hours() / 24),
		})
	}

	sort.Slice(maturing, func(i, j int) bool {
		return maturing[i].MaturityDate.Before(maturing[j].MaturityDate)
	})

	return maturing, nil
}
