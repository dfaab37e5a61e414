package dividends

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/ledger"
)

// Service records dividend receipts against holdings
type Service struct {
	repo       *Repository
	ledgerRepo *ledger.Repository
	events     *events.Manager
	log        zerolog.Logger
}

// NewService creates a new dividend service
func NewService(repo *Repository, ledgerRepo *ledger.Repository, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		events:     ev,
		log:        log.With().Str("service", "dividends").Logger(),
	}
}

// Record creates a dividend receipt for a holding. When shares is 0 the
// holding's current share count is captured as the shares at time of
// payment.
func (s *Service) Record(holdingID string, amountPerShare float64, shares int64, paymentDate time.Time) (*Dividend, error) {
	holding, err := s.ledgerRepo.GetByID(holdingID)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, fmt.Errorf("%w: %s", ledger.ErrHoldingNotFound, holdingID)
	}

	if shares == 0 {
		shares = holding.Shares
	}

	d := &Dividend{
		HoldingID:      holdingID,
		Symbol:         holding.Symbol,
		AmountPerShare: amountPerShare,
		Shares:         shares,
		PaymentDate:    paymentDate,
	}

	if err := s.repo.Create(d); err != nil {
		return nil, err
	}

	s.events.Emit(events.DividendRecorded, "dividends", map[string]interface{}{
		"symbol": d.Symbol,
		"total":  d.Total,
	})

	return d, nil
}
