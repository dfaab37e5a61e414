package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository owns the ledger tables. Every mutation is written as one SQL
// transaction so the holding row and its audit entries move together.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// CreateHolding inserts a new holding together with its opening BUY
// transaction and first cost-history entry
func (r *Repository) CreateHolding(h *Holding, txRec *Transaction, hist *CostHistory) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO holdings
		(id, symbol, name, shares, avg_cost, current_price, target_pct, fair_value,
		 eps, growth_rate, pe_ratio, status, created_at, updated_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`,
		h.ID, h.Symbol, h.Name, h.Shares, h.AvgCost, h.CurrentPrice,
		h.TargetPct, h.FairValue, h.EPS, h.GrowthRate, h.PERatio,
		string(h.Status),
		h.CreatedAt.Format(time.RFC3339Nano),
		h.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	if err := insertTransaction(tx, txRec); err != nil {
		return err
	}

	if err := insertHistory(tx, hist); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Str("symbol", h.Symbol).Int64("shares", h.Shares).Msg("Holding created")
	return nil
}

// SaveMutation updates a holding row and appends the audit records of one
// buy/sell/adjust operation. txRec may be nil (cost adjustments emit no
// transaction record).
func (r *Repository) SaveMutation(h *Holding, txRec *Transaction, hist *CostHistory) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateHolding(tx, h); err != nil {
		return err
	}

	if txRec != nil {
		if err := insertTransaction(tx, txRec); err != nil {
			return err
		}
	}

	if err := insertHistory(tx, hist); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Debug().
		Str("symbol", h.Symbol).
		Str("change", string(hist.ChangeType)).
		Int64("shares", h.Shares).
		Float64("avg_cost", h.AvgCost).
		Msg("Holding mutated")
	return nil
}

// CloseHolding transitions a holding to CLOSED and appends the final SELL
// transaction, the closing cost-history entry and the derived realized-gain
// record in one unit. The audit trail is retained.
func (r *Repository) CloseHolding(h *Holding, txRec *Transaction, hist *CostHistory, gain *RealizedGain) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateHolding(tx, h); err != nil {
		return err
	}

	if err := insertTransaction(tx, txRec); err != nil {
		return err
	}

	if err := insertHistory(tx, hist); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO realized_gains
		(id, holding_id, symbol, shares, avg_cost, sell_price, proceeds, cost_basis, gain, gain_pct, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		gain.ID, gain.HoldingID, gain.Symbol, gain.Shares, gain.AvgCost,
		gain.SellPrice, gain.Proceeds, gain.CostBasis, gain.Gain, gain.GainPct,
		gain.ClosedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert realized gain: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().
		Str("symbol", h.Symbol).
		Float64("gain", gain.Gain).
		Msg("Position closed")
	return nil
}

// UpdatePrice sets the current price of the open holding for a symbol.
// Price changes are not part of the cost-basis narrative, so no audit entry
// is written. Returns the number of holdings touched.
func (r *Repository) UpdatePrice(symbol string, price float64) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE holdings SET current_price = ?, updated_at = ?
		WHERE symbol = ? AND status = 'OPEN'
	`, price, time.Now().Format(time.RFC3339Nano), NormalizeSymbol(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to update price: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// GetOpen returns all open holdings
func (r *Repository) GetOpen() ([]Holding, error) {
	return r.queryHoldings("SELECT * FROM holdings WHERE status = 'OPEN' ORDER BY symbol ASC")
}

// GetAll returns every holding, open and closed
func (r *Repository) GetAll() ([]Holding, error) {
	return r.queryHoldings("SELECT * FROM holdings ORDER BY symbol ASC, created_at ASC")
}

// GetByID returns a holding by ID, or nil when not found
func (r *Repository) GetByID(id string) (*Holding, error) {
	holdings, err := r.queryHoldings("SELECT * FROM holdings WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, nil
	}
	return &holdings[0], nil
}

// GetOpenBySymbol returns the open holding for a symbol, or nil when the
// symbol has no open position
func (r *Repository) GetOpenBySymbol(symbol string) (*Holding, error) {
	holdings, err := r.queryHoldings(
		"SELECT * FROM holdings WHERE symbol = ? AND status = 'OPEN'",
		NormalizeSymbol(symbol),
	)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, nil
	}
	return &holdings[0], nil
}

// GetTransactions returns a holding's transactions in insertion order,
// which for an append-only table is chronological order
func (r *Repository) GetTransactions(holdingID string, ascending bool) ([]Transaction, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}

	rows, err := r.db.Query(`
		SELECT id, holding_id, symbol, type, shares, price, total, timestamp
		FROM transactions
		WHERE holding_id = ?
		ORDER BY rowid `+order,
		holdingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var txType, ts string
		if err := rows.Scan(&t.ID, &t.HoldingID, &t.Symbol, &txType, &t.Shares, &t.Price, &t.Total, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = TransactionType(txType)
		t.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// GetCostHistory returns a holding's audit log in insertion order. Replay
// depends on this order being chronological.
func (r *Repository) GetCostHistory(holdingID string, ascending bool) ([]CostHistory, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}

	rows, err := r.db.Query(`
		SELECT id, holding_id, change_type, prev_avg_cost, new_avg_cost,
		       prev_shares, new_shares, tx_price, tx_shares, notes, timestamp
		FROM cost_history
		WHERE holding_id = ?
		ORDER BY rowid `+order,
		holdingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost history: %w", err)
	}
	defer rows.Close()

	var entries []CostHistory
	for rows.Next() {
		var e CostHistory
		var changeType, ts string
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.HoldingID, &changeType, &e.PrevAvgCost, &e.NewAvgCost,
			&e.PrevShares, &e.NewShares, &e.TxPrice, &e.TxShares, &notes, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan cost history: %w", err)
		}
		e.ChangeType = ChangeType(changeType)
		if notes.Valid {
			e.Notes = notes.String
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cost history: %w", err)
	}

	return entries, nil
}

// GetRealizedGains returns all realized-gain records, newest first
func (r *Repository) GetRealizedGains() ([]RealizedGain, error) {
	rows, err := r.db.Query(`
		SELECT id, holding_id, symbol, shares, avg_cost, sell_price, proceeds, cost_basis, gain, gain_pct, closed_at
		FROM realized_gains
		ORDER BY rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query realized gains: %w", err)
	}
	defer rows.Close()

	var gains []RealizedGain
	for rows.Next() {
		var g RealizedGain
		var closedAt string
		if err := rows.Scan(&g.ID, &g.HoldingID, &g.Symbol, &g.Shares, &g.AvgCost,
			&g.SellPrice, &g.Proceeds, &g.CostBasis, &g.Gain, &g.GainPct, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan realized gain: %w", err)
		}
		g.ClosedAt, _ = time.Parse(time.RFC3339Nano, closedAt)
		gains = append(gains, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realized gains: %w", err)
	}

	return gains, nil
}

// queryHoldings runs a SELECT * over holdings and scans the results
func (r *Repository) queryHoldings(query string, args ...interface{}) ([]Holding, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

func scanHolding(rows *sql.Rows) (Holding, error) {
	var h Holding
	var status, createdAt, updatedAt string
	var closedAt sql.NullString
	var targetPct, fairValue, eps, growthRate, peRatio sql.NullFloat64

	err := rows.Scan(
		&h.ID, &h.Symbol, &h.Name, &h.Shares, &h.AvgCost, &h.CurrentPrice,
		&targetPct, &fairValue, &eps, &growthRate, &peRatio,
		&status, &createdAt, &updatedAt, &closedAt,
	)
	if err != nil {
		return h, err
	}

	h.Status = HoldingStatus(status)
	h.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	h.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	if closedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, closedAt.String); err == nil {
			h.ClosedAt = &t
		}
	}
	if targetPct.Valid {
		h.TargetPct = &targetPct.Float64
	}
	if fairValue.Valid {
		h.FairValue = &fairValue.Float64
	}
	if eps.Valid {
		h.EPS = &eps.Float64
	}
	if growthRate.Valid {
		h.GrowthRate = &growthRate.Float64
	}
	if peRatio.Valid {
		h.PERatio = &peRatio.Float64
	}

	return h, nil
}

// updateHolding writes back the cost-basis state of one mutation. The SET
// list deliberately excludes current_price: prices move only through
// UpdatePrice, which locks on the symbol, so writing the price from a copy
// read under the id lock would revert a concurrent price update.
func updateHolding(tx *sql.Tx, h *Holding) error {
	var closedAt interface{}
	if h.ClosedAt != nil {
		closedAt = h.ClosedAt.Format(time.RFC3339Nano)
	}

	_, err := tx.Exec(`
		UPDATE holdings SET
			shares = ?, avg_cost = ?, target_pct = ?,
			fair_value = ?, eps = ?, growth_rate = ?, pe_ratio = ?,
			status = ?, updated_at = ?, closed_at = ?
		WHERE id = ?
	`,
		h.Shares, h.AvgCost, h.TargetPct,
		h.FairValue, h.EPS, h.GrowthRate, h.PERatio,
		string(h.Status), h.UpdatedAt.Format(time.RFC3339Nano), closedAt,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return nil
}

func insertTransaction(tx *sql.Tx, t *Transaction) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (id, holding_id, symbol, type, shares, price, total, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.HoldingID, t.Symbol, string(t.Type), t.Shares, t.Price, t.Total,
		t.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func insertHistory(tx *sql.Tx, e *CostHistory) error {
	var notes interface{}
	if e.Notes != "" {
		notes = e.Notes
	}

	_, err := tx.Exec(`
		INSERT INTO cost_history
		(id, holding_id, change_type, prev_avg_cost, new_avg_cost, prev_shares, new_shares, tx_price, tx_shares, notes, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.HoldingID, string(e.ChangeType), e.PrevAvgCost, e.NewAvgCost,
		e.PrevShares, e.NewShares, e.TxPrice, e.TxShares, notes,
		e.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cost history: %w", err)
	}
	return nil
}
