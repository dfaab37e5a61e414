package dividends

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dateFormat = "2006-01-02"

// Repository handles dividend database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new dividend repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "dividends").Logger(),
	}
}

// Create inserts a new dividend record
func (r *Repository) Create(d *Dividend) error {
	if err := d.Validate(); err != nil {
		return err
	}

	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	now := time.Now()
	d.CreatedAt = &now

	_, err := r.db.Exec(`
		INSERT INTO dividends (id, holding_id, symbol, amount_per_share, shares, total, payment_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID, d.HoldingID, d.Symbol, d.AmountPerShare, d.Shares, d.Total,
		d.PaymentDate.Format(dateFormat), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dividend: %w", err)
	}

	r.log.Info().Str("symbol", d.Symbol).Float64("total", d.Total).Msg("Dividend recorded")
	return nil
}

// GetAll returns dividend records, newest payment first
func (r *Repository) GetAll(limit int) ([]Dividend, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT id, holding_id, symbol, amount_per_share, shares, total, payment_date, created_at
		FROM dividends
		ORDER BY payment_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends: %w", err)
	}
	defer rows.Close()

	return scanDividends(rows)
}

// GetByHolding returns all dividends for a holding, oldest payment first
func (r *Repository) GetByHolding(holdingID string) ([]Dividend, error) {
	rows, err := r.db.Query(`
		SELECT id, holding_id, symbol, amount_per_share, shares, total, payment_date, created_at
		FROM dividends
		WHERE holding_id = ?
		ORDER BY payment_date ASC
	`, holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends by holding: %w", err)
	}
	defer rows.Close()

	return scanDividends(rows)
}

// TotalAllTime returns the cumulative dividend total across all holdings
func (r *Repository) TotalAllTime() (float64, error) {
	var total float64
	err := r.db.QueryRow("SELECT COALESCE(SUM(total), 0) FROM dividends").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum dividends: %w", err)
	}
	return total, nil
}

// TotalSince returns the sum of dividend totals with payment date on or
// after the given time
func (r *Repository) TotalSince(since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRow(
		"SELECT COALESCE(SUM(total), 0) FROM dividends WHERE payment_date >= ?",
		since.Format(dateFormat),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum dividends since date: %w", err)
	}
	return total, nil
}

// TotalsByHolding returns all-time dividend totals keyed by holding ID
func (r *Repository) TotalsByHolding() (map[string]float64, error) {
	rows, err := r.db.Query("SELECT holding_id, COALESCE(SUM(total), 0) FROM dividends GROUP BY holding_id")
	if err != nil {
		return nil, fmt.Errorf("failed to sum dividends by holding: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var holdingID string
		var total float64
		if err := rows.Scan(&holdingID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan dividend total: %w", err)
		}
		totals[holdingID] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend totals: %w", err)
	}

	return totals, nil
}

func scanDividends(rows *sql.Rows) ([]Dividend, error) {
	var dividends []Dividend
	for rows.Next() {
		var d Dividend
		var paymentDate, createdAt string
		if err := rows.Scan(&d.ID, &d.HoldingID, &d.Symbol, &d.AmountPerShare,
			&d.Shares, &d.Total, &paymentDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}

		var err error
		d.PaymentDate, err = time.Parse(dateFormat, paymentDate)
		if err != nil {
			return nil, fmt.Errorf("invalid payment date %q: %w", paymentDate, err)
		}

		if created, err := time.Parse(time.RFC3339, createdAt); err == nil {
			d.CreatedAt = &created
		}

		dividends = append(dividends, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividends: %w", err)
	}

	return dividends, nil
}
