package valuation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clients/marketdata"
	"github.com/aristath/folio/internal/modules/history"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/pkg/formulas"
)

// Service assembles valuation reports: quote fields from the price feed,
// cost basis from the ledger, momentum context from stored daily closes
type Service struct {
	feed        marketdata.PriceFeed
	ledgerRepo  *ledger.Repository
	historyRepo *history.Repository
	log         zerolog.Logger
}

// NewService creates a new valuation service
func NewService(feed marketdata.PriceFeed, ledgerRepo *ledger.Repository, historyRepo *history.Repository, log zerolog.Logger) *Service {
	return &Service{
		feed:        feed,
		ledgerRepo:  ledgerRepo,
		historyRepo: historyRepo,
		log:         log.With().Str("service", "valuation").Logger(),
	}
}

// Evaluate produces the full valuation report for a symbol
func (s *Service) Evaluate(symbol string) (*Report, error) {
	quote, err := s.feed.GetQuote(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	in := Inputs{
		Current:   &quote.Price,
		High:      quote.High,
		Low:       quote.Low,
		Open:      quote.Open,
		PrevClose: quote.PrevClose,
	}

	holding, err := s.ledgerRepo.GetOpenBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if holding != nil && holding.AvgCost > 0 {
		avgCost := holding.AvgCost
		in.AvgCost = &avgCost
	}

	fv := FairValue(in)
	zones := BuyZones(quote.Price, in)

	report := &Report{
		Symbol:         quote.Symbol,
		Inputs:         in,
		FairValue:      fv,
		BuyZones:       zones,
		Recommendation: Recommend(quote.Price, fv, zones),
	}

	// Momentum context from stored closes; decision support only, never
	// an input to the heuristics above.
	closes, err := s.historyRepo.Closes(quote.Symbol, 90)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", quote.Symbol).Msg("Failed to load price history")
		return report, nil
	}

	report.RSI = formulas.RSI(closes, 14)
	if returns := formulas.Returns(closes); len(returns) > 0 {
		vol := formulas.AnnualizedVolatility(returns)
		report.Volatility = &vol
	}

	return report, nil
}
