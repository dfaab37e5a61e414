package ledger

import "database/sql"

// LedgerSchema defines the holdings, transactions, cost_history and
// realized_gains tables. Transactions and cost history are append-only;
// closed holdings are retained with status CLOSED.
const LedgerSchema = `
CREATE TABLE IF NOT EXISTS holdings (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    name TEXT NOT NULL,
    shares INTEGER NOT NULL,
    avg_cost REAL NOT NULL,
    current_price REAL NOT NULL DEFAULT 0,
    target_pct REAL,
    fair_value REAL,
    eps REAL,
    growth_rate REAL,
    pe_ratio REAL,
    status TEXT NOT NULL DEFAULT 'OPEN',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    closed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_holdings_symbol ON holdings(symbol);
CREATE INDEX IF NOT EXISTS idx_holdings_status ON holdings(status);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    holding_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    type TEXT NOT NULL,
    shares INTEGER NOT NULL,
    price REAL NOT NULL,
    total REAL NOT NULL,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_holding ON transactions(holding_id);
CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(timestamp);

CREATE TABLE IF NOT EXISTS cost_history (
    id TEXT PRIMARY KEY,
    holding_id TEXT NOT NULL,
    change_type TEXT NOT NULL,
    prev_avg_cost REAL NOT NULL,
    new_avg_cost REAL NOT NULL,
    prev_shares INTEGER NOT NULL,
    new_shares INTEGER NOT NULL,
    tx_price REAL NOT NULL,
    tx_shares INTEGER NOT NULL,
    notes TEXT,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cost_history_holding ON cost_history(holding_id);
CREATE INDEX IF NOT EXISTS idx_cost_history_timestamp ON cost_history(timestamp);

CREATE TABLE IF NOT EXISTS realized_gains (
    id TEXT PRIMARY KEY,
    holding_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    shares INTEGER NOT NULL,
    avg_cost REAL NOT NULL,
    sell_price REAL NOT NULL,
    proceeds REAL NOT NULL,
    cost_basis REAL NOT NULL,
    gain REAL NOT NULL,
    gain_pct REAL NOT NULL,
    closed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_realized_gains_symbol ON realized_gains(symbol);
`

// InitSchema ensures the ledger tables exist
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(LedgerSchema)
	return err
}
