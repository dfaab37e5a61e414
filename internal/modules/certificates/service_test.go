package certificates

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitSchema(db))
	return db
}

func seedCertificate(t *testing.T, repo *Repository, name string, frequency PaymentFrequency, purchase time.Time, years int) *Certificate {
	cert := &Certificate{
		Name:          name,
		Principal:     10000,
		DurationYears: years,
		AnnualRate:    20,
		PurchaseDate:  purchase,
		Frequency:     frequency,
		Status:        StatusActive,
	}
	require.NoError(t, repo.Create(cert))
	return cert
}

func TestIncomeForMonth(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, zerolog.Nop())

	seedCertificate(t, repo, "monthly", FrequencyMonthly, date(2026, time.March, 15), 1)
	seedCertificate(t, repo, "quarterly", FrequencyQuarterly, date(2026, time.March, 1), 1)

	// June pays both: monthly 166.67 and quarterly 500
	summary, err := svc.IncomeForMonth(2026, time.June)
	require.NoError(t, err)

	assert.Len(t, summary.Payments, 2)
	assert.InDelta(t, 666.67, summary.TotalIncome, 0.01)

	// April pays only the monthly certificate
	summary, err = svc.IncomeForMonth(2026, time.April)
	require.NoError(t, err)

	require.Len(t, summary.Payments, 1)
	assert.Equal(t, "monthly", summary.Payments[0].Name)
	assert.NotNil(t, summary.Payments[0].DueDate)
}

func TestIncomeForMonth_EmptyMonth(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, zerolog.Nop())

	seedCertificate(t, repo, "monthly", FrequencyMonthly, date(2026, time.March, 15), 1)

	summary, err := svc.IncomeForMonth(2025, time.June)
	require.NoError(t, err)

	assert.Empty(t, summary.Payments)
	assert.Equal(t, 0.0, summary.TotalIncome)
}

func TestIncomeForRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, zerolog.Nop())

	seedCertificate(t, repo, "monthly", FrequencyMonthly, date(2026, time.March, 15), 1)

	summaries, err := svc.IncomeForRange(2026, time.November, 4)
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	// Range crosses the year boundary: Nov, Dec, Jan, Feb
	assert.Equal(t, time.November, summaries[0].Month)
	assert.Equal(t, 2026, summaries[0].Year)
	assert.Equal(t, time.January, summaries[2].Month)
	assert.Equal(t, 2027, summaries[2].Year)

	for _, s := range summaries {
		assert.InDelta(t, 166.67, s.TotalIncome, 0.01)
	}

	_, err = svc.IncomeForRange(2026, time.November, 0)
	assert.Error(t, err)
}

func TestUpcomingMaturities(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, zerolog.Nop())

	now := time.Now()

	// Matures in ~30 days
	near := seedCertificate(t, repo, "near", FrequencyAtMaturity, now.AddDate(-1, 0, 30), 1)
	// Matures in ~5 days
	soonest := seedCertificate(t, repo, "soonest", FrequencyAtMaturity, now.AddDate(-1, 0, 5), 1)
	// Matures in ~2 years, outside the window
	seedCertificate(t, repo, "far", FrequencyAtMaturity, now, 2)
	// Already matured, excluded
	seedCertificate(t, repo, "past", FrequencyAtMaturity, now.AddDate(-2, 0, 0), 1)

	maturing, err := svc.UpcomingMaturities(90)
	require.NoError(t, err)
	require.Len(t, maturing, 2)

	// Sorted soonest first
	assert.Equal(t, soonest.ID, maturing[0].Certificate.ID)
	assert.Equal(t, near.ID, maturing[1].Certificate.ID)
	assert.LessOrEqual(t, maturing[0].DaysLeft, maturing[1].DaysLeft)
}

func TestRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	cert := seedCertificate(t, repo, "deposit", FrequencyQuarterly, date(2026, time.January, 10), 2)
	require.NotEmpty(t, cert.ID)

	got, err := repo.GetByID(cert.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cert.Name, got.Name)
	assert.Equal(t, FrequencyQuarterly, got.Frequency)
	assert.True(t, got.PurchaseDate.Equal(date(2026, time.January, 10)))

	missing, err := repo.GetByID("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	cert := seedCertificate(t, repo, "deposit", FrequencyMonthly, date(2026, time.January, 10), 1)

	require.NoError(t, repo.UpdateStatus(cert.ID, StatusRenewed))

	got, err := repo.GetByID(cert.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRenewed, got.Status)

	// A renewed certificate pays no further income
	assert.Equal(t, 0.0, got.MonthlyIncome(2026, time.February))

	assert.Error(t, repo.UpdateStatus(cert.ID, Status("BOGUS")))

	active, err := repo.GetByStatus(StatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)
}
