package valuation

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/clients/marketdata"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/modules/ledger"
)

type stubFeed struct {
	quote *marketdata.Quote
	err   error
}

func (s *stubFeed) GetQuote(symbol string) (*marketdata.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func setupValuation(t *testing.T, feed marketdata.PriceFeed) (*Service, *ledger.Service, *history.Repository, *sql.DB) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, ledger.InitSchema(db))
	require.NoError(t, history.InitSchema(db))

	ledgerRepo := ledger.NewRepository(db, zerolog.Nop())
	ledgerSvc := ledger.NewService(ledgerRepo, events.NewManager(zerolog.Nop()), zerolog.Nop())
	historyRepo := history.NewRepository(db, zerolog.Nop())

	svc := NewService(feed, ledgerRepo, historyRepo, zerolog.Nop())
	return svc, ledgerSvc, historyRepo, db
}

func TestEvaluate(t *testing.T) {
	feed := &stubFeed{quote: &marketdata.Quote{
		Symbol: "AAPL",
		Price:  100,
		High:   f(110),
		Low:    f(90),
		Open:   f(98),
	}}

	svc, ledgerSvc, _, db := setupValuation(t, feed)
	defer db.Close()

	_, err := ledgerSvc.Open("AAPL", "Apple Inc.", 100, 95.0)
	require.NoError(t, err)

	report, err := svc.Evaluate("AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Symbol)
	require.NotNil(t, report.Inputs.AvgCost)
	assert.Equal(t, 95.0, *report.Inputs.AvgCost)
	require.NotNil(t, report.FairValue)
	assert.Equal(t, 5, report.FairValue.Candidates)
	assert.NotEmpty(t, report.BuyZones)
	assert.NotEmpty(t, report.Recommendation)
}

func TestEvaluate_NoHolding(t *testing.T) {
	feed := &stubFeed{quote: &marketdata.Quote{
		Symbol: "NVDA",
		Price:  500,
		High:   f(510),
		Low:    f(480),
	}}

	svc, _, _, db := setupValuation(t, feed)
	defer db.Close()

	report, err := svc.Evaluate("NVDA")
	require.NoError(t, err)

	assert.Nil(t, report.Inputs.AvgCost)
	require.NotNil(t, report.FairValue)
	assert.Equal(t, 3, report.FairValue.Candidates)
}

func TestEvaluate_FeedError(t *testing.T) {
	feed := &stubFeed{err: fmt.Errorf("feed unavailable")}

	svc, _, _, db := setupValuation(t, feed)
	defer db.Close()

	_, err := svc.Evaluate("AAPL")
	assert.Error(t, err)
}

func TestEvaluate_MomentumFromHistory(t *testing.T) {
	feed := &stubFeed{quote: &marketdata.Quote{
		Symbol: "AAPL",
		Price:  100,
		High:   f(102),
		Low:    f(98),
	}}

	svc, _, historyRepo, db := setupValuation(t, feed)
	defer db.Close()

	// Enough closes for a 14-period RSI
	day := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	price := 90.0
	for i := 0; i < 30; i++ {
		require.NoError(t, historyRepo.Record("AAPL", day, price))
		day = day.AddDate(0, 0, 1)
		if i%2 == 0 {
			price += 1.5
		} else {
			price -= 0.5
		}
	}

	report, err := svc.Evaluate("AAPL")
	require.NoError(t, err)

	require.NotNil(t, report.RSI)
	assert.Greater(t, *report.RSI, 0.0)
	assert.LessOrEqual(t, *report.RSI, 100.0)
	require.NotNil(t, report.Volatility)
	assert.Greater(t, *report.Volatility, 0.0)
}
