package certificates

import (
	"fmt"
	"strings"
	"time"
)

// PaymentFrequency represents how often certificate interest is paid out
type PaymentFrequency string

const (
	FrequencyMonthly    PaymentFrequency = "MONTHLY"
	FrequencyQuarterly  PaymentFrequency = "QUARTERLY"
	FrequencyAnnually   PaymentFrequency = "ANNUALLY"
	FrequencyAtMaturity PaymentFrequency = "AT_MATURITY"
)

// IsValid checks if the payment frequency is valid
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually, FrequencyAtMaturity:
		return true
	}
	return false
}

// FrequencyFromString creates a PaymentFrequency from a string (case-insensitive)
func FrequencyFromString(value string) (PaymentFrequency, error) {
	f := PaymentFrequency(strings.ToUpper(strings.TrimSpace(value)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid payment frequency: %s", value)
	}
	return f, nil
}

// Status represents the lifecycle state of a certificate
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusMatured   Status = "MATURED"
	StatusRenewed   Status = "RENEWED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusMatured, StatusRenewed, StatusWithdrawn:
		return true
	}
	return false
}

// StatusFromString creates a Status from a string (case-insensitive)
func StatusFromString(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid certificate status: %s", value)
	}
	return s, nil
}

// Certificate represents a fixed-income certificate. All interest figures
// are derived from these static terms, never stored.
type Certificate struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Principal     float64          `json:"principal"`
	DurationYears int              `json:"duration_years"`
	AnnualRate    float64          `json:"annual_rate"` // percent, e.g. 20 for 20%
	PurchaseDate  time.Time        `json:"purchase_date"`
	Frequency     PaymentFrequency `json:"frequency"`
	Status        Status           `json:"status"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
}

// Validate validates certificate terms
func (c *Certificate) Validate() error {
	if c.Principal <= 0 {
		return fmt.Errorf("principal must be positive")
	}

	if c.DurationYears <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	if c.AnnualRate < 0 {
		return fmt.Errorf("annual rate cannot be negative")
	}

	if c.PurchaseDate.IsZero() {
		return fmt.Errorf("purchase date is required")
	}

	if !c.Frequency.IsValid() {
		return fmt.Errorf("invalid payment frequency: %s", c.Frequency)
	}

	if !c.Status.IsValid() {
		return fmt.Errorf("invalid certificate status: %s", c.Status)
	}

	return nil
}

// MaturityDate returns purchase date + duration in calendar years
func (c *Certificate) MaturityDate() time.Time {
	return c.PurchaseDate.AddDate(c.DurationYears, 0, 0)
}
