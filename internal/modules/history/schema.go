package history

import "database/sql"

// PriceHistorySchema defines the price_history table
const PriceHistorySchema = `
CREATE TABLE IF NOT EXISTS price_history (
    symbol TEXT NOT NULL,
    date TEXT NOT NULL,
    close REAL NOT NULL,
    PRIMARY KEY (symbol, date)
);
`

// InitSchema ensures the price_history table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(PriceHistorySchema)
	return err
}
