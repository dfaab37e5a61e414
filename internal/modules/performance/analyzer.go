package performance

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/dividends"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/pkg/formulas"
)

// Analyzer derives period returns and per-holding breakdowns from ledger
// state and the snapshot history. All reads; the only write is snapshot
// capture.
type Analyzer struct {
	ledgerRepo   *ledger.Repository
	dividendRepo *dividends.Repository
	snapshots    *SnapshotRepository
	events       *events.Manager
	log          zerolog.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(
	ledgerRepo *ledger.Repository,
	dividendRepo *dividends.Repository,
	snapshots *SnapshotRepository,
	ev *events.Manager,
	log zerolog.Logger,
) *Analyzer {
	return &Analyzer{
		ledgerRepo:   ledgerRepo,
		dividendRepo: dividendRepo,
		snapshots:    snapshots,
		events:       ev,
		log:          log.With().Str("service", "performance").Logger(),
	}
}

// TakeSnapshot aggregates all open holdings and cumulative dividends into
// one immutable snapshot. Called at the end of a price-refresh cycle; a
// partially-updated cycle still produces one snapshot reflecting whatever
// prices were applied.
func (a *Analyzer) TakeSnapshot() (*PortfolioSnapshot, error) {
	holdings, err := a.ledgerRepo.GetOpen()
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	dividendTotal, err := a.dividendRepo.TotalAllTime()
	if err != nil {
		return nil, fmt.Errorf("failed to get dividend total: %w", err)
	}

	snapshot := &PortfolioSnapshot{
		Timestamp:       time.Now(),
		DividendsToDate: dividendTotal,
		HoldingsCount:   len(holdings),
	}

	for _, h := range holdings {
		snapshot.TotalValue += h.MarketValue()
		snapshot.TotalCost += h.TotalCost()
	}

	snapshot.ProfitLoss = snapshot.TotalValue - snapshot.TotalCost
	if snapshot.TotalCost > 0 {
		snapshot.ProfitLossPct = snapshot.ProfitLoss / snapshot.TotalCost * 100
	}

	if err := a.snapshots.Insert(snapshot); err != nil {
		return nil, err
	}

	a.events.Emit(events.SnapshotCreated, "performance", map[string]interface{}{
		"total_value": snapshot.TotalValue,
		"holdings":    snapshot.HoldingsCount,
	})

	return snapshot, nil
}

// PerformanceForPeriod computes the portfolio's return over the trailing
// period. The baseline is the earliest snapshot at or after now−periodDays;
// when none qualifies the current total cost basis serves as a no-gain
// fallback. Percentages are 0 whenever the baseline value is not positive.
func (a *Analyzer) PerformanceForPeriod(periodDays int) (*PeriodPerformance, error) {
	if periodDays <= 0 {
		return nil, fmt.Errorf("period days must be positive")
	}

	startTime := time.Now().AddDate(0, 0, -periodDays)

	holdings, err := a.ledgerRepo.GetOpen()
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	var currentValue, currentCost float64
	for _, h := range holdings {
		currentValue += h.MarketValue()
		currentCost += h.TotalCost()
	}

	result := &PeriodPerformance{
		PeriodDays:   periodDays,
		CurrentValue: currentValue,
	}

	baseline, err := a.snapshots.FirstSince(startTime)
	if err != nil {
		return nil, err
	}

	if baseline != nil {
		result.BaselineValue = baseline.TotalValue
		result.BaselineTime = &baseline.Timestamp
	} else {
		// No snapshot inside the period: compare against cost basis so
		// the result reflects price movement, not a true period return.
		result.BaselineValue = currentCost
	}

	dividendsReceived, err := a.dividendRepo.TotalSince(startTime)
	if err != nil {
		return nil, err
	}

	result.ValueChange = currentValue - result.BaselineValue
	result.DividendsReceived = dividendsReceived
	result.TotalReturn = result.ValueChange + dividendsReceived

	if result.BaselineValue > 0 {
		result.ValueChangePct = result.ValueChange / result.BaselineValue * 100
		result.TotalReturnPct = result.TotalReturn / result.BaselineValue * 100
	}

	return result, nil
}

// PerformanceBreakdown combines each open holding's unrealized price gain
// with its all-time dividends, ordered descending by total return
func (a *Analyzer) PerformanceBreakdown() ([]HoldingPerformance, error) {
	holdings, err := a.ledgerRepo.GetOpen()
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	dividendTotals, err := a.dividendRepo.TotalsByHolding()
	if err != nil {
		return nil, err
	}

	breakdown := make([]HoldingPerformance, 0, len(holdings))
	for _, h := range holdings {
		perf := HoldingPerformance{
			HoldingID:      h.ID,
			Symbol:         h.Symbol,
			Name:           h.Name,
			Shares:         h.Shares,
			MarketValue:    h.MarketValue(),
			TotalCost:      h.TotalCost(),
			UnrealizedGain: h.ProfitLoss(),
			UnrealizedPct:  h.ProfitLossPct(),
			Dividends:      dividendTotals[h.ID],
		}

		perf.TotalReturn = perf.UnrealizedGain + perf.Dividends
		if perf.TotalCost > 0 {
			perf.TotalReturnPct = perf.TotalReturn / perf.TotalCost * 100
		}

		breakdown = append(breakdown, perf)
	}

	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].TotalReturn > breakdown[j].TotalReturn
	})

	return breakdown, nil
}

// SeriesStatsForPeriod summarizes the snapshot value series over the
// trailing period: annualized volatility of inter-snapshot returns, max
// drawdown and Sharpe ratio
func (a *Analyzer) SeriesStatsForPeriod(periodDays int) (*SeriesStats, error) {
	if periodDays <= 0 {
		return nil, fmt.Errorf("period days must be positive")
	}

	values, err := a.snapshots.ValuesSince(time.Now().AddDate(0, 0, -periodDays))
	if err != nil {
		return nil, err
	}

	returns := formulas.Returns(values)

	return &SeriesStats{
		Snapshots:   len(values),
		Volatility:  formulas.AnnualizedVolatility(returns),
		MaxDrawdown: formulas.MaxDrawdown(values),
		Sharpe:      formulas.SharpeRatio(returns, 0, 252),
	}, nil
}
