package ledger

import (
	"database/sql"
	"sync"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/events"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A second pool connection would see a fresh empty in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(db))
	return db
}

func setupService(t *testing.T) (*Service, *sql.DB) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, events.NewManager(zerolog.Nop()), zerolog.Nop())
	return svc, db
}

func TestOpen(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("aapl", "Apple Inc.", 100, 150.0)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, int64(100), h.Shares)
	assert.Equal(t, 150.0, h.AvgCost)
	assert.Equal(t, 150.0, h.CurrentPrice)
	assert.Equal(t, HoldingOpen, h.Status)

	// One BUY transaction and one cost-history entry from (0, 0)
	txs, err := svc.Repo().GetTransactions(h.ID, true)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, TransactionBuy, txs[0].Type)
	assert.Equal(t, 15000.0, txs[0].Total)

	hist, err := svc.Repo().GetCostHistory(h.ID, true)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, ChangeBuy, hist[0].ChangeType)
	assert.Equal(t, int64(0), hist[0].PrevShares)
	assert.Equal(t, 0.0, hist[0].PrevAvgCost)
	assert.Equal(t, int64(100), hist[0].NewShares)
}

func TestOpen_DuplicateSymbol(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	_, err := svc.Open("AAPL", "Apple Inc.", 100, 150.0)
	require.NoError(t, err)

	_, err = svc.Open("aapl", "Apple Inc.", 50, 140.0)
	assert.Error(t, err)
}

func TestOpen_InvalidQuantity(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	_, err := svc.Open("AAPL", "Apple", 0, 150.0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Open("AAPL", "Apple", -5, 150.0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Open("AAPL", "Apple", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Open("AAPL", "Apple", 10, -1.5)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestBuyMore_WeightedAverage(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 10.0)
	require.NoError(t, err)

	// 100 @ 10.00 plus 50 @ 16.00 averages to 12.00
	h, err = svc.BuyMore(h.ID, 50, 16.0)
	require.NoError(t, err)

	assert.Equal(t, int64(150), h.Shares)
	assert.InDelta(t, 12.0, h.AvgCost, 1e-9)
}

func TestSell_PartialKeepsAvgCost(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 20.0)
	require.NoError(t, err)

	h, err = svc.Sell(h.ID, 40, 30.0)
	require.NoError(t, err)

	assert.Equal(t, int64(60), h.Shares)
	assert.Equal(t, 20.0, h.AvgCost)
	assert.Equal(t, HoldingOpen, h.Status)

	// No realized gain until the position fully closes
	gains, err := svc.Repo().GetRealizedGains()
	require.NoError(t, err)
	assert.Empty(t, gains)
}

func TestSell_FullClose(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 20.0)
	require.NoError(t, err)

	h, err = svc.Sell(h.ID, 100, 25.0)
	require.NoError(t, err)

	assert.Equal(t, int64(0), h.Shares)
	assert.Equal(t, HoldingClosed, h.Status)
	require.NotNil(t, h.ClosedAt)

	// Closed holdings disappear from the open set but stay queryable
	open, err := svc.Repo().GetOpen()
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := svc.Repo().GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, HoldingClosed, all[0].Status)

	// Audit trail is retained in full
	hist, err := svc.Repo().GetCostHistory(h.ID, true)
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	// Realized gain: proceeds 2500, basis 2000
	gains, err := svc.Repo().GetRealizedGains()
	require.NoError(t, err)
	require.Len(t, gains, 1)
	assert.Equal(t, "MSFT", gains[0].Symbol)
	assert.InDelta(t, 2500.0, gains[0].Proceeds, 1e-9)
	assert.InDelta(t, 2000.0, gains[0].CostBasis, 1e-9)
	assert.InDelta(t, 500.0, gains[0].Gain, 1e-9)
	assert.InDelta(t, 25.0, gains[0].GainPct, 1e-9)
}

func TestSell_OversellClosesPosition(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 20.0)
	require.NoError(t, err)

	// Selling more than held closes the current share count
	h, err = svc.Sell(h.ID, 500, 25.0)
	require.NoError(t, err)

	assert.Equal(t, HoldingClosed, h.Status)

	gains, err := svc.Repo().GetRealizedGains()
	require.NoError(t, err)
	require.Len(t, gains, 1)
	assert.Equal(t, int64(100), gains[0].Shares)
}

func TestSell_ClosedHolding(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 10, 20.0)
	require.NoError(t, err)

	_, err = svc.Sell(h.ID, 10, 25.0)
	require.NoError(t, err)

	_, err = svc.Sell(h.ID, 5, 25.0)
	assert.ErrorIs(t, err, ErrHoldingClosed)

	_, err = svc.BuyMore(h.ID, 5, 25.0)
	assert.ErrorIs(t, err, ErrHoldingClosed)
}

func TestSell_NotFound(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	_, err := svc.Sell("no-such-id", 5, 25.0)
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}

func TestReopenAfterClose(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h1, err := svc.Open("MSFT", "Microsoft", 10, 20.0)
	require.NoError(t, err)
	_, err = svc.Sell(h1.ID, 10, 25.0)
	require.NoError(t, err)

	// A new purchase of the same symbol starts a fresh holding
	h2, err := svc.Open("MSFT", "Microsoft", 5, 30.0)
	require.NoError(t, err)
	assert.NotEqual(t, h1.ID, h2.ID)
	assert.Equal(t, 30.0, h2.AvgCost)
}

func TestAdjustCost(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 20.0)
	require.NoError(t, err)

	h, err = svc.AdjustCost(h.ID, 18.5, "broker statement correction")
	require.NoError(t, err)

	assert.Equal(t, 18.5, h.AvgCost)
	assert.Equal(t, int64(100), h.Shares)

	// An adjustment writes an audit entry but no transaction
	txs, err := svc.Repo().GetTransactions(h.ID, true)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	hist, err := svc.Repo().GetCostHistory(h.ID, true)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, ChangeAdjustment, hist[1].ChangeType)
	assert.Equal(t, 20.0, hist[1].PrevAvgCost)
	assert.Equal(t, 18.5, hist[1].NewAvgCost)
	assert.Equal(t, "broker statement correction", hist[1].Notes)
}

func TestUpdatePrice(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 20.0)
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePrice("msft", 22.5))

	got, err := svc.Repo().GetByID(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 22.5, got.CurrentPrice)
	assert.InDelta(t, 2250.0, got.MarketValue(), 1e-9)
	assert.InDelta(t, 250.0, got.ProfitLoss(), 1e-9)
	assert.InDelta(t, 12.5, got.ProfitLossPct(), 1e-9)
}

func TestSaveMutation_PreservesConcurrentPriceUpdate(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 20.0)
	require.NoError(t, err)

	// A sell that loaded its holding copy before a price update landed
	// must not write the old price back.
	stale, err := svc.Repo().GetByID(h.ID)
	require.NoError(t, err)

	_, err = svc.Repo().UpdatePrice("MSFT", 42.0)
	require.NoError(t, err)

	stale.Shares = 60
	hist := svc.newHistory(stale.ID, ChangeSell, stale.AvgCost, stale.AvgCost, 100, 60, 30.0, 40, "", stale.UpdatedAt)
	txRec := svc.newTransaction(stale, TransactionSell, 40, 30.0, stale.UpdatedAt)
	require.NoError(t, svc.Repo().SaveMutation(stale, txRec, hist))

	got, err := svc.Repo().GetByID(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.CurrentPrice)
	assert.Equal(t, int64(60), got.Shares)
}

func TestConcurrentMutations_OneHolding(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 10.0)
	require.NoError(t, err)

	// Buys at distinct prices racing with price updates on the same
	// holding. The weighted average is order-independent, so the final
	// (shares, avgCost) must match the sequential result and no price
	// update may be lost.
	prices := []float64{11, 12, 13, 14, 15, 16, 17, 18}

	var wg sync.WaitGroup
	for _, p := range prices {
		wg.Add(2)
		go func(price float64) {
			defer wg.Done()
			_, err := svc.BuyMore(h.ID, 10, price)
			assert.NoError(t, err)
		}(p)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.UpdatePrice("MSFT", 42.0))
		}()
	}
	wg.Wait()

	got, err := svc.Repo().GetByID(h.ID)
	require.NoError(t, err)

	totalCost := 100.0 * 10.0
	for _, p := range prices {
		totalCost += 10.0 * p
	}
	totalShares := int64(100 + 10*len(prices))

	assert.Equal(t, totalShares, got.Shares)
	assert.InDelta(t, totalCost/float64(totalShares), got.AvgCost, 1e-9)
	assert.Equal(t, 42.0, got.CurrentPrice)

	assert.NoError(t, svc.VerifyHistory(h.ID))
}

func TestVerifyHistory(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 10.0)
	require.NoError(t, err)
	_, err = svc.BuyMore(h.ID, 50, 16.0)
	require.NoError(t, err)
	_, err = svc.Sell(h.ID, 30, 20.0)
	require.NoError(t, err)
	_, err = svc.AdjustCost(h.ID, 11.0, "")
	require.NoError(t, err)

	assert.NoError(t, svc.VerifyHistory(h.ID))
}

func TestVerifyHistory_DetectsTampering(t *testing.T) {
	svc, db := setupService(t)
	defer db.Close()

	h, err := svc.Open("MSFT", "Microsoft", 100, 10.0)
	require.NoError(t, err)

	// Corrupt the stored state behind the audit log's back
	_, err = db.Exec("UPDATE holdings SET avg_cost = 99.0 WHERE id = ?", h.ID)
	require.NoError(t, err)

	assert.Error(t, svc.VerifyHistory(h.ID))
}

func TestReplayCostHistory(t *testing.T) {
	entries := []CostHistory{
		{ChangeType: ChangeBuy, TxShares: 100, TxPrice: 10.0},
		{ChangeType: ChangeBuy, TxShares: 50, TxPrice: 16.0},
		{ChangeType: ChangeSell, TxShares: 30, TxPrice: 20.0},
		{ChangeType: ChangeAdjustment, NewAvgCost: 11.0},
	}

	shares, avgCost := ReplayCostHistory(entries)
	assert.Equal(t, int64(120), shares)
	assert.InDelta(t, 11.0, avgCost, 1e-9)
}

func TestProfitLossPct_ZeroCost(t *testing.T) {
	h := &Holding{Shares: 0, AvgCost: 0, CurrentPrice: 50}
	assert.Equal(t, 0.0, h.ProfitLossPct())
}
