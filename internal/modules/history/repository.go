package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const dateFormat = "2006-01-02"

// PricePoint is one stored daily close for a symbol
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// Repository stores daily closing prices captured by the refresh cycle.
// One row per (symbol, date); a later capture on the same day wins.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "price_history").Logger(),
	}
}

// Record upserts the closing price for a symbol on a date
func (r *Repository) Record(symbol string, date time.Time, close float64) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO price_history (symbol, date, close)
		VALUES (?, ?, ?)
	`, symbol, date.Format(dateFormat), close)
	if err != nil {
		return fmt.Errorf("failed to record price: %w", err)
	}

	return nil
}

// Closes returns up to limit daily closes for a symbol, oldest first
func (r *Repository) Closes(symbol string, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 90
	}

	rows, err := r.db.Query(`
		SELECT close FROM (
			SELECT date, close FROM price_history
			WHERE symbol = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date ASC
	`, strings.ToUpper(strings.TrimSpace(symbol)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closes: %w", err)
	}

	return closes, nil
}
