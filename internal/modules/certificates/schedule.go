package certificates

import (
	"time"
)

// Schedule functions are pure over a certificate's static terms plus a
// queried (year, month). Recurring frequencies pay inside the window
// [purchase month, maturity month); the lump-sum AT_MATURITY payment lands
// exactly in the maturity month. Months since purchase are counted from the
// purchase month inclusive, so a quarterly certificate pays in its purchase
// month (m=0), then every third month after.

// monthIndex flattens a (year, month) pair for month arithmetic
func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

// MonthlyIncome returns the interest paid out in the queried month, or 0
// when the certificate is not ACTIVE, the month falls outside the payment
// window, or the frequency does not pay that month.
func (c *Certificate) MonthlyIncome(year int, month time.Month) float64 {
	if c.Status != StatusActive {
		return 0
	}

	q := monthIndex(year, month)
	purchase := monthIndex(c.PurchaseDate.Year(), c.PurchaseDate.Month())
	maturity := c.MaturityDate()
	matured := monthIndex(maturity.Year(), maturity.Month())

	if q < purchase || q > matured {
		return 0
	}

	monthly := c.Principal * c.AnnualRate / 100 / 12

	switch c.Frequency {
	case FrequencyMonthly:
		if q < matured {
			return monthly
		}
	case FrequencyQuarterly:
		if q < matured && (q-purchase)%3 == 0 {
			return monthly * 3
		}
	case FrequencyAnnually:
		if q < matured && (q-purchase)%12 == 0 {
			return monthly * 12
		}
	case FrequencyAtMaturity:
		if q == matured {
			return c.Principal * c.AnnualRate / 100 * float64(c.DurationYears)
		}
	}

	return 0
}

// DueDate returns the payment due date for the queried month, or nil when
// no payment is due. The due day is the purchase day-of-month, clamped down
// to the last valid day of the target month (day 31 in a 30-day month pays
// on the 30th).
func (c *Certificate) DueDate(year int, month time.Month) *time.Time {
	if c.MonthlyIncome(year, month) == 0 {
		return nil
	}

	day := c.PurchaseDate.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}

	due := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &due
}

// AccruedInterestAt returns simple (non-compounding) interest accrued up to
// now: principal × rate/100 × days/365. The fixed 365-day year is an
// intentional approximation. Returns 0 unless the certificate is ACTIVE.
func (c *Certificate) AccruedInterestAt(now time.Time) float64 {
	if c.Status != StatusActive {
		return 0
	}

	days := now.Sub(c.PurchaseDate).Hours() / 24
	if days < 0 {
		days = 0
	}

	return c.Principal * c.AnnualRate / 100 * days / 365
}

// AccruedInterest returns interest accrued up to the current wall clock
func (c *Certificate) AccruedInterest() float64 {
	return c.AccruedInterestAt(time.Now())
}

// CurrentValueAt returns principal plus accrued interest at the given time.
// Only meaningful while the certificate is ACTIVE; callers must check status.
func (c *Certificate) CurrentValueAt(now time.Time) float64 {
	return c.Principal + c.AccruedInterestAt(now)
}

// CurrentValue returns principal plus interest accrued to now
func (c *Certificate) CurrentValue() float64 {
	return c.CurrentValueAt(time.Now())
}

// lastDayOfMonth returns the number of days in the given month
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
