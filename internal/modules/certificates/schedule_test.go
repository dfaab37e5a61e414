package certificates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCert(frequency PaymentFrequency) Certificate {
	return Certificate{
		ID:            "cert-1",
		Name:          "12m deposit",
		Principal:     10000,
		DurationYears: 1,
		AnnualRate:    20,
		PurchaseDate:  date(2026, time.March, 15),
		Frequency:     frequency,
		Status:        StatusActive,
	}
}

func TestMonthlyIncome_Monthly(t *testing.T) {
	cert := testCert(FrequencyMonthly)

	// 10000 × 20% / 12 per month, paid every month of the term
	assert.InDelta(t, 166.6667, cert.MonthlyIncome(2026, time.March), 0.001)
	assert.InDelta(t, 166.6667, cert.MonthlyIncome(2026, time.September), 0.001)
	assert.InDelta(t, 166.6667, cert.MonthlyIncome(2027, time.February), 0.001)

	// Nothing before purchase or from the maturity month on
	assert.Equal(t, 0.0, cert.MonthlyIncome(2026, time.February))
	assert.Equal(t, 0.0, cert.MonthlyIncome(2027, time.March))
	assert.Equal(t, 0.0, cert.MonthlyIncome(2027, time.April))
}

func TestMonthlyIncome_Quarterly(t *testing.T) {
	cert := testCert(FrequencyQuarterly)

	// Pays in the purchase month and every third month after
	assert.InDelta(t, 500.0, cert.MonthlyIncome(2026, time.March), 0.001)
	assert.InDelta(t, 500.0, cert.MonthlyIncome(2026, time.June), 0.001)
	assert.InDelta(t, 500.0, cert.MonthlyIncome(2026, time.September), 0.001)
	assert.InDelta(t, 500.0, cert.MonthlyIncome(2026, time.December), 0.001)

	assert.Equal(t, 0.0, cert.MonthlyIncome(2026, time.April))
	assert.Equal(t, 0.0, cert.MonthlyIncome(2026, time.May))
	assert.Equal(t, 0.0, cert.MonthlyIncome(2027, time.March))
}

func TestMonthlyIncome_Annually(t *testing.T) {
	cert := testCert(FrequencyAnnually)
	cert.DurationYears = 3

	assert.InDelta(t, 2000.0, cert.MonthlyIncome(2026, time.March), 0.001)
	assert.InDelta(t, 2000.0, cert.MonthlyIncome(2027, time.March), 0.001)
	assert.InDelta(t, 2000.0, cert.MonthlyIncome(2028, time.March), 0.001)

	assert.Equal(t, 0.0, cert.MonthlyIncome(2026, time.April))
	assert.Equal(t, 0.0, cert.MonthlyIncome(2029, time.March))
}

func TestMonthlyIncome_AtMaturity(t *testing.T) {
	cert := testCert(FrequencyAtMaturity)
	cert.DurationYears = 2

	// Lump sum of principal × rate × years, only in the maturity month
	assert.Equal(t, 0.0, cert.MonthlyIncome(2026, time.March))
	assert.Equal(t, 0.0, cert.MonthlyIncome(2027, time.March))
	assert.InDelta(t, 4000.0, cert.MonthlyIncome(2028, time.March), 0.001)
	assert.Equal(t, 0.0, cert.MonthlyIncome(2028, time.April))
}

func TestMonthlyIncome_TotalsMatchAcrossFrequencies(t *testing.T) {
	// Every frequency pays principal × rate × years over the full term
	for _, freq := range []PaymentFrequency{
		FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually, FrequencyAtMaturity,
	} {
		cert := testCert(freq)
		cert.DurationYears = 2

		total := 0.0
		cursor := date(2026, time.January, 1)
		for i := 0; i < 40; i++ {
			total += cert.MonthlyIncome(cursor.Year(), cursor.Month())
			cursor = cursor.AddDate(0, 1, 0)
		}

		assert.InDelta(t, 4000.0, total, 0.001, "frequency %s", freq)
	}
}

func TestMonthlyIncome_NonActive(t *testing.T) {
	for _, status := range []Status{StatusMatured, StatusRenewed, StatusWithdrawn} {
		cert := testCert(FrequencyMonthly)
		cert.Status = status
		assert.Equal(t, 0.0, cert.MonthlyIncome(2026, time.June))
	}
}

func TestDueDate(t *testing.T) {
	cert := testCert(FrequencyMonthly)

	due := cert.DueDate(2026, time.June)
	if assert.NotNil(t, due) {
		assert.Equal(t, date(2026, time.June, 15), *due)
	}

	// No payment, no due date
	assert.Nil(t, cert.DueDate(2026, time.January))
}

func TestDueDate_ClampsToShortMonths(t *testing.T) {
	cert := testCert(FrequencyMonthly)
	cert.PurchaseDate = date(2026, time.January, 31)

	due := cert.DueDate(2026, time.April)
	if assert.NotNil(t, due) {
		assert.Equal(t, date(2026, time.April, 30), *due)
	}

	due = cert.DueDate(2026, time.February)
	if assert.NotNil(t, due) {
		assert.Equal(t, date(2026, time.February, 28), *due)
	}
}

func TestAccruedInterest(t *testing.T) {
	cert := testCert(FrequencyAtMaturity)

	// Half a year in: 10000 × 20% × (182.5/365)
	halfYear := cert.PurchaseDate.Add(time.Duration(182.5 * 24 * float64(time.Hour)))
	assert.InDelta(t, 1000.0, cert.AccruedInterestAt(halfYear), 0.01)

	// Nothing accrues before purchase
	assert.Equal(t, 0.0, cert.AccruedInterestAt(cert.PurchaseDate.AddDate(0, -1, 0)))

	// Accrual is monotonic
	prev := 0.0
	for d := 0; d <= 365; d += 30 {
		accrued := cert.AccruedInterestAt(cert.PurchaseDate.AddDate(0, 0, d))
		assert.GreaterOrEqual(t, accrued, prev)
		prev = accrued
	}
}

func TestAccruedInterest_NonActive(t *testing.T) {
	cert := testCert(FrequencyAtMaturity)
	cert.Status = StatusWithdrawn
	assert.Equal(t, 0.0, cert.AccruedInterestAt(cert.PurchaseDate.AddDate(0, 6, 0)))
}

func TestCurrentValueAt(t *testing.T) {
	cert := testCert(FrequencyAtMaturity)

	oneYear := cert.PurchaseDate.AddDate(1, 0, 0)
	value := cert.CurrentValueAt(oneYear)
	assert.InDelta(t, 10000+2000, value, 2000*0.01)
}

func TestMaturityDate(t *testing.T) {
	cert := testCert(FrequencyMonthly)
	cert.DurationYears = 3
	assert.Equal(t, date(2029, time.March, 15), cert.MaturityDate())
}

func TestValidate(t *testing.T) {
	cert := testCert(FrequencyMonthly)
	assert.NoError(t, cert.Validate())

	bad := cert
	bad.Principal = 0
	assert.Error(t, bad.Validate())

	bad = cert
	bad.DurationYears = 0
	assert.Error(t, bad.Validate())

	bad = cert
	bad.AnnualRate = -1
	assert.Error(t, bad.Validate())

	bad = cert
	bad.Frequency = "WEEKLY"
	assert.Error(t, bad.Validate())
}
