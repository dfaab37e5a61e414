package dividends

import "database/sql"

// DividendsSchema defines the dividends table
const DividendsSchema = `
CREATE TABLE IF NOT EXISTS dividends (
    id TEXT PRIMARY KEY,
    holding_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    amount_per_share REAL NOT NULL,
    shares INTEGER NOT NULL,
    total REAL NOT NULL,
    payment_date TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dividends_holding ON dividends(holding_id);
CREATE INDEX IF NOT EXISTS idx_dividends_payment_date ON dividends(payment_date);
`

// InitSchema ensures the dividends table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(DividendsSchema)
	return err
}
