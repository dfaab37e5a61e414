package performance

import "database/sql"

// SnapshotsSchema defines the portfolio_snapshots table. Rows are
// insert-only; there is no update path.
const SnapshotsSchema = `
CREATE TABLE IF NOT EXISTS portfolio_snapshots (
    id TEXT PRIMARY KEY,
    timestamp TEXT NOT NULL,
    total_value REAL NOT NULL,
    total_cost REAL NOT NULL,
    profit_loss REAL NOT NULL,
    profit_loss_pct REAL NOT NULL,
    dividends_to_date REAL NOT NULL,
    holdings_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON portfolio_snapshots(timestamp);
`

// InitSchema ensures the snapshots table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(SnapshotsSchema)
	return err
}
