package dividends

import (
	"fmt"
	"strings"
	"time"
)

// Dividend represents one dividend receipt tied to a holding. Dividends are
// independent of the cost-basis ledger and never affect the average cost.
type Dividend struct {
	ID             string     `json:"id"`
	HoldingID      string     `json:"holding_id"`
	Symbol         string     `json:"symbol"`
	AmountPerShare float64    `json:"amount_per_share"`
	Shares         int64      `json:"shares"` // shares held at time of payment
	Total          float64    `json:"total"`
	PaymentDate    time.Time  `json:"payment_date"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// Validate validates dividend data and normalizes the symbol
func (d *Dividend) Validate() error {
	if d.HoldingID == "" {
		return fmt.Errorf("holding_id cannot be empty")
	}

	if strings.TrimSpace(d.Symbol) == "" {
		return fmt.Errorf("symbol cannot be empty")
	}

	if d.AmountPerShare <= 0 {
		return fmt.Errorf("amount per share must be positive")
	}

	if d.Shares <= 0 {
		return fmt.Errorf("shares must be positive")
	}

	if d.PaymentDate.IsZero() {
		return fmt.Errorf("payment date is required")
	}

	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
	d.Total = d.AmountPerShare * float64(d.Shares)

	return nil
}
