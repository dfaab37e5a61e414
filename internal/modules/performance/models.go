package performance

import "time"

// PortfolioSnapshot is an immutable, timestamped aggregate of the whole
// portfolio. Snapshots are created as a side effect of a price-refresh
// cycle, never on a fixed schedule, and are never edited after creation.
type PortfolioSnapshot struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	TotalValue      float64   `json:"total_value"`
	TotalCost       float64   `json:"total_cost"`
	ProfitLoss      float64   `json:"profit_loss"`
	ProfitLossPct   float64   `json:"profit_loss_pct"`
	DividendsToDate float64   `json:"dividends_to_date"`
	HoldingsCount   int       `json:"holdings_count"`
}

// PeriodPerformance is the result of a period-return query
type PeriodPerformance struct {
	PeriodDays        int        `json:"period_days"`
	BaselineValue     float64    `json:"baseline_value"`
	BaselineTime      *time.Time `json:"baseline_time,omitempty"` // nil when the cost-basis fallback was used
	CurrentValue      float64    `json:"current_value"`
	ValueChange       float64    `json:"value_change"`
	ValueChangePct    float64    `json:"value_change_pct"`
	DividendsReceived float64    `json:"dividends_received"`
	TotalReturn       float64    `json:"total_return"`
	TotalReturnPct    float64    `json:"total_return_pct"`
}

// HoldingPerformance combines unrealized price gain with all-time dividends
// for one open holding
type HoldingPerformance struct {
	HoldingID      string  `json:"holding_id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Shares         int64   `json:"shares"`
	MarketValue    float64 `json:"market_value"`
	TotalCost      float64 `json:"total_cost"`
	UnrealizedGain float64 `json:"unrealized_gain"`
	UnrealizedPct  float64 `json:"unrealized_pct"`
	Dividends      float64 `json:"dividends"`
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// SeriesStats summarizes the snapshot value series over a period
type SeriesStats struct {
	Snapshots   int      `json:"snapshots"`
	Volatility  float64  `json:"volatility"` // annualized, from inter-snapshot returns
	MaxDrawdown float64  `json:"max_drawdown"`
	Sharpe      *float64 `json:"sharpe,omitempty"`
}
