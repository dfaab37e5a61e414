package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clients/marketdata"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/performance"
)

// RefreshCycleJob runs one price-refresh cycle: fetch a quote for every
// open holding, apply the prices that arrived, store the daily closes, and
// finish with exactly one portfolio snapshot. Feed failures skip the symbol
// and never abort the batch, so the snapshot reflects whatever prices were
// successfully applied.
type RefreshCycleJob struct {
	ledgerSvc   *ledger.Service
	analyzer    *performance.Analyzer
	historyRepo *history.Repository
	feed        marketdata.PriceFeed
	events      *events.Manager
	log         zerolog.Logger
}

// NewRefreshCycleJob creates a new price refresh job
func NewRefreshCycleJob(
	ledgerSvc *ledger.Service,
	analyzer *performance.Analyzer,
	historyRepo *history.Repository,
	feed marketdata.PriceFeed,
	ev *events.Manager,
	log zerolog.Logger,
) *RefreshCycleJob {
	return &RefreshCycleJob{
		ledgerSvc:   ledgerSvc,
		analyzer:    analyzer,
		historyRepo: historyRepo,
		feed:        feed,
		events:      ev,
		log:         log.With().Str("job", "refresh_cycle").Logger(),
	}
}

// Name returns the job name
func (j *RefreshCycleJob) Name() string {
	return "price_refresh_cycle"
}

// Run executes one refresh cycle
func (j *RefreshCycleJob) Run() error {
	holdings, err := j.ledgerSvc.Repo().GetOpen()
	if err != nil {
		return err
	}

	j.events.Emit(events.PriceRefreshStart, "scheduler", map[string]interface{}{
		"holdings": len(holdings),
	})

	updated := 0
	today := time.Now()

	for _, h := range holdings {
		quote, err := j.feed.GetQuote(h.Symbol)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote failed, skipping symbol")
			continue
		}

		if err := j.ledgerSvc.UpdatePrice(h.Symbol, quote.Price); err != nil {
			j.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Price update failed, skipping symbol")
			continue
		}

		if err := j.historyRepo.Record(h.Symbol, today, quote.Price); err != nil {
			j.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Failed to record price history")
		}

		updated++
	}

	// One snapshot per cycle, even when some prices failed to refresh
	snapshot, err := j.analyzer.TakeSnapshot()
	if err != nil {
		return err
	}

	j.events.Emit(events.PriceRefreshComplete, "scheduler", map[string]interface{}{
		"holdings":    len(holdings),
		"updated":     updated,
		"total_value": snapshot.TotalValue,
	})

	j.log.Info().
		Int("holdings", len(holdings)).
		Int("updated", updated).
		Float64("total_value", snapshot.TotalValue).
		Msg("Refresh cycle completed")

	return nil
}
