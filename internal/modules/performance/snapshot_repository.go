package performance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Timestamps are stored fixed-width in UTC so that the text comparisons in
// the range queries below order chronologically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SnapshotRepository handles snapshot database operations
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Insert appends a new snapshot
func (r *SnapshotRepository) Insert(s *PortfolioSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO portfolio_snapshots
		(id, timestamp, total_value, total_cost, profit_loss, profit_loss_pct, dividends_to_date, holdings_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.Timestamp.UTC().Format(timeFormat), s.TotalValue, s.TotalCost,
		s.ProfitLoss, s.ProfitLossPct, s.DividendsToDate, s.HoldingsCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	r.log.Info().
		Float64("total_value", s.TotalValue).
		Int("holdings", s.HoldingsCount).
		Msg("Snapshot recorded")
	return nil
}

// GetAll returns snapshots ordered oldest first
func (r *SnapshotRepository) GetAll() ([]PortfolioSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, timestamp, total_value, total_cost, profit_loss, profit_loss_pct, dividends_to_date, holdings_count
		FROM portfolio_snapshots
		ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// FirstSince returns the earliest snapshot with a timestamp at or after the
// given time, or nil when no snapshot qualifies
func (r *SnapshotRepository) FirstSince(t time.Time) (*PortfolioSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, timestamp, total_value, total_cost, profit_loss, profit_loss_pct, dividends_to_date, holdings_count
		FROM portfolio_snapshots
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
		LIMIT 1
	`, t.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot since: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

// ValuesSince returns the total-value series of snapshots at or after the
// given time, oldest first
func (r *SnapshotRepository) ValuesSince(t time.Time) ([]float64, error) {
	rows, err := r.db.Query(`
		SELECT total_value FROM portfolio_snapshots
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`, t.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot values: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot value: %w", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot values: %w", err)
	}

	return values, nil
}

func scanSnapshots(rows *sql.Rows) ([]PortfolioSnapshot, error) {
	var snapshots []PortfolioSnapshot
	for rows.Next() {
		var s PortfolioSnapshot
		var ts string
		if err := rows.Scan(&s.ID, &ts, &s.TotalValue, &s.TotalCost,
			&s.ProfitLoss, &s.ProfitLossPct, &s.DividendsToDate, &s.HoldingsCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Timestamp, _ = time.Parse(timeFormat, ts)
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
