package ledger

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Domain errors returned by ledger operations
var (
	// ErrInvalidQuantity rejects non-positive shares or prices
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrComputationInvalid rejects NaN/Inf before they reach stored state
	ErrComputationInvalid = errors.New("computation produced an invalid number")

	// ErrHoldingNotFound signals a missing holding
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrHoldingClosed rejects mutations of a closed holding
	ErrHoldingClosed = errors.New("holding is closed")
)

// HoldingStatus represents the lifecycle state of a holding
type HoldingStatus string

const (
	HoldingOpen   HoldingStatus = "OPEN"
	HoldingClosed HoldingStatus = "CLOSED"
)

// TransactionType represents the kind of transaction
type TransactionType string

const (
	TransactionBuy      TransactionType = "BUY"
	TransactionSell     TransactionType = "SELL"
	TransactionDividend TransactionType = "DIVIDEND"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionBuy || t == TransactionSell || t == TransactionDividend
}

// ChangeType classifies a cost-history entry
type ChangeType string

const (
	ChangeBuy        ChangeType = "BUY"
	ChangeSell       ChangeType = "SELL"
	ChangeAdjustment ChangeType = "ADJUSTMENT"
)

// IsValid checks if the change type is valid
func (c ChangeType) IsValid() bool {
	return c == ChangeBuy || c == ChangeSell || c == ChangeAdjustment
}

// Holding represents one position in an instrument. A holding is OPEN from
// its first purchase until it is fully sold; closing is terminal and a new
// purchase of the same symbol creates a fresh holding.
type Holding struct {
	ID           string        `json:"id"`
	Symbol       string        `json:"symbol"`
	Name         string        `json:"name"`
	Shares       int64         `json:"shares"`
	AvgCost      float64       `json:"avg_cost"`
	CurrentPrice float64       `json:"current_price"`
	TargetPct    *float64      `json:"target_pct,omitempty"`
	FairValue    *float64      `json:"fair_value,omitempty"`
	EPS          *float64      `json:"eps,omitempty"`
	GrowthRate   *float64      `json:"growth_rate,omitempty"`
	PERatio      *float64      `json:"pe_ratio,omitempty"`
	Status       HoldingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	ClosedAt     *time.Time    `json:"closed_at,omitempty"`
}

// MarketValue is shares × current price. Derived, never stored.
func (h *Holding) MarketValue() float64 {
	return float64(h.Shares) * h.CurrentPrice
}

// TotalCost is shares × average cost. Derived, never stored.
func (h *Holding) TotalCost() float64 {
	return float64(h.Shares) * h.AvgCost
}

// ProfitLoss is market value minus total cost
func (h *Holding) ProfitLoss() float64 {
	return h.MarketValue() - h.TotalCost()
}

// ProfitLossPct is profit/loss as a percentage of total cost, 0 when the
// cost basis is not positive
func (h *Holding) ProfitLossPct() float64 {
	cost := h.TotalCost()
	if cost <= 0 {
		return 0
	}
	return h.ProfitLoss() / cost * 100
}

// Transaction is an immutable record of one buy/sell/dividend event
type Transaction struct {
	ID        string          `json:"id"`
	HoldingID string          `json:"holding_id"`
	Symbol    string          `json:"symbol"`
	Type      TransactionType `json:"type"`
	Shares    int64           `json:"shares"`
	Price     float64         `json:"price"`
	Total     float64         `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// CostHistory is an immutable audit entry created on every ledger mutation.
// Replaying a holding's entries from (0 shares, 0 avgCost) reproduces its
// current state exactly.
type CostHistory struct {
	ID          string     `json:"id"`
	HoldingID   string     `json:"holding_id"`
	ChangeType  ChangeType `json:"change_type"`
	PrevAvgCost float64    `json:"prev_avg_cost"`
	NewAvgCost  float64    `json:"new_avg_cost"`
	PrevShares  int64      `json:"prev_shares"`
	NewShares   int64      `json:"new_shares"`
	TxPrice     float64    `json:"tx_price"`
	TxShares    int64      `json:"tx_shares"`
	Notes       string     `json:"notes,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// RealizedGain is derived and persisted when a position fully closes
type RealizedGain struct {
	ID        string    `json:"id"`
	HoldingID string    `json:"holding_id"`
	Symbol    string    `json:"symbol"`
	Shares    int64     `json:"shares"`
	AvgCost   float64   `json:"avg_cost"`
	SellPrice float64   `json:"sell_price"`
	Proceeds  float64   `json:"proceeds"`
	CostBasis float64   `json:"cost_basis"`
	Gain      float64   `json:"gain"`
	GainPct   float64   `json:"gain_pct"`
	ClosedAt  time.Time `json:"closed_at"`
}

// NormalizeSymbol uppercases and trims an instrument symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// validQuantity rejects non-positive or non-finite share counts and prices
func validQuantity(shares int64, price float64) error {
	if shares <= 0 || price <= 0 {
		return fmt.Errorf("%w: shares=%d price=%f", ErrInvalidQuantity, shares, price)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: price=%f", ErrComputationInvalid, price)
	}
	return nil
}

// ReplayCostHistory folds a holding's audit entries, oldest first, from
// (0 shares, 0 avgCost), re-deriving each step from the triggering
// transaction rather than trusting the recorded after-state. The result
// must reproduce the holding's current (shares, avgCost) exactly.
func ReplayCostHistory(entries []CostHistory) (shares int64, avgCost float64) {
	for _, e := range entries {
		switch e.ChangeType {
		case ChangeBuy:
			total := float64(shares)*avgCost + float64(e.TxShares)*e.TxPrice
			shares += e.TxShares
			if shares > 0 {
				avgCost = total / float64(shares)
			}
		case ChangeSell:
			// A sell never moves the average cost
			shares -= e.TxShares
		case ChangeAdjustment:
			avgCost = e.NewAvgCost
		}
	}
	return shares, avgCost
}
