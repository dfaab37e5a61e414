package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/events"
)

// Service executes ledger operations. Operations on the same holding
// identity are serialized with a per-key mutex so concurrent buys and sells
// cannot lose updates to (shares, avgCost); operations on different
// holdings proceed in parallel. Each operation is a single atomic
// read-modify-append unit.
type Service struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new ledger service
func NewService(repo *Repository, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: ev,
		log:    log.With().Str("service", "ledger").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing operations for one key. Open and
// UpdatePrice lock on the symbol (the holding identity does not exist yet
// or is not known); id-based mutations lock on the holding ID.
func (s *Service) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Open creates a new holding from a first purchase. Emits one BUY
// transaction and one cost-history entry with previous state (0, 0).
func (s *Service) Open(symbol, name string, shares int64, price float64) (*Holding, error) {
	if err := validQuantity(shares, price); err != nil {
		return nil, err
	}

	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol cannot be empty", ErrInvalidQuantity)
	}

	lock := s.keyLock("symbol:" + symbol)
	lock.Lock()
	defer lock.Unlock()

	// One open position per instrument
	existing, err := s.repo.GetOpenBySymbol(symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("open holding already exists for %s (id %s)", symbol, existing.ID)
	}

	now := time.Now()
	h := &Holding{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Name:         name,
		Shares:       shares,
		AvgCost:      price,
		CurrentPrice: price,
		Status:       HoldingOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	txRec := s.newTransaction(h, TransactionBuy, shares, price, now)
	hist := s.newHistory(h.ID, ChangeBuy, 0, price, 0, shares, price, shares, "", now)

	if err := s.repo.CreateHolding(h, txRec, hist); err != nil {
		return nil, err
	}

	s.events.Emit(events.HoldingOpened, "ledger", map[string]interface{}{
		"symbol": symbol,
		"shares": shares,
		"price":  price,
	})

	return h, nil
}

// BuyMore adds shares to an open holding, recomputing the weighted-average
// cost: (existingShares×existingAvgCost + addedShares×price) / totalShares.
func (s *Service) BuyMore(holdingID string, shares int64, price float64) (*Holding, error) {
	if err := validQuantity(shares, price); err != nil {
		return nil, err
	}

	lock := s.keyLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	h, err := s.mutableHolding(holdingID)
	if err != nil {
		return nil, err
	}

	prevShares, prevAvg := h.Shares, h.AvgCost
	newShares := prevShares + shares
	newAvg := (float64(prevShares)*prevAvg + float64(shares)*price) / float64(newShares)

	if math.IsNaN(newAvg) || math.IsInf(newAvg, 0) {
		return nil, fmt.Errorf("%w: average cost", ErrComputationInvalid)
	}

	now := time.Now()
	h.Shares = newShares
	h.AvgCost = newAvg
	h.UpdatedAt = now

	txRec := s.newTransaction(h, TransactionBuy, shares, price, now)
	hist := s.newHistory(h.ID, ChangeBuy, prevAvg, newAvg, prevShares, newShares, price, shares, "", now)

	if err := s.repo.SaveMutation(h, txRec, hist); err != nil {
		return nil, err
	}

	s.events.Emit(events.SharesPurchased, "ledger", map[string]interface{}{
		"symbol": h.Symbol,
		"shares": shares,
		"price":  price,
	})

	return h, nil
}

// Sell removes shares from an open holding. A partial sell never changes
// the average cost. Selling all remaining shares (or more) fully closes
// the position: the holding transitions to CLOSED, its audit trail is
// retained, and a realized-gain record is derived and persisted.
func (s *Service) Sell(holdingID string, shares int64, price float64) (*Holding, error) {
	if err := validQuantity(shares, price); err != nil {
		return nil, err
	}

	lock := s.keyLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	h, err := s.mutableHolding(holdingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if shares >= h.Shares {
		// Full close. An oversell is treated as closing the current
		// share count, not as an error.
		return s.close(h, price, now)
	}

	prevShares := h.Shares
	h.Shares = prevShares - shares
	h.UpdatedAt = now

	txRec := s.newTransaction(h, TransactionSell, shares, price, now)
	hist := s.newHistory(h.ID, ChangeSell, h.AvgCost, h.AvgCost, prevShares, h.Shares, price, shares, "", now)

	if err := s.repo.SaveMutation(h, txRec, hist); err != nil {
		return nil, err
	}

	s.events.Emit(events.SharesSold, "ledger", map[string]interface{}{
		"symbol": h.Symbol,
		"shares": shares,
		"price":  price,
	})

	return h, nil
}

// close finalizes a full sell under the caller's lock
func (s *Service) close(h *Holding, price float64, now time.Time) (*Holding, error) {
	closedShares := h.Shares
	proceeds := float64(closedShares) * price
	costBasis := float64(closedShares) * h.AvgCost

	gain := &RealizedGain{
		ID:        uuid.New().String(),
		HoldingID: h.ID,
		Symbol:    h.Symbol,
		Shares:    closedShares,
		AvgCost:   h.AvgCost,
		SellPrice: price,
		Proceeds:  proceeds,
		CostBasis: costBasis,
		Gain:      proceeds - costBasis,
		ClosedAt:  now,
	}
	if costBasis > 0 {
		gain.GainPct = gain.Gain / costBasis * 100
	}

	txRec := s.newTransaction(h, TransactionSell, closedShares, price, now)
	hist := s.newHistory(h.ID, ChangeSell, h.AvgCost, h.AvgCost, closedShares, 0, price, closedShares, "", now)

	h.Shares = 0
	h.Status = HoldingClosed
	h.UpdatedAt = now
	h.ClosedAt = &now

	if err := s.repo.CloseHolding(h, txRec, hist, gain); err != nil {
		return nil, err
	}

	s.events.Emit(events.PositionClosed, "ledger", map[string]interface{}{
		"symbol":   h.Symbol,
		"shares":   closedShares,
		"price":    price,
		"gain":     gain.Gain,
		"gain_pct": gain.GainPct,
	})

	return h, nil
}

// AdjustCost overwrites a holding's average cost without touching shares.
// Used for manual corrections; emits an ADJUSTMENT cost-history entry but
// no transaction record.
func (s *Service) AdjustCost(holdingID string, newAvgCost float64, notes string) (*Holding, error) {
	if newAvgCost < 0 || math.IsNaN(newAvgCost) || math.IsInf(newAvgCost, 0) {
		return nil, fmt.Errorf("%w: avg cost must be >= 0", ErrInvalidQuantity)
	}

	lock := s.keyLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	h, err := s.mutableHolding(holdingID)
	if err != nil {
		return nil, err
	}

	prevAvg := h.AvgCost
	now := time.Now()
	h.AvgCost = newAvgCost
	h.UpdatedAt = now

	hist := s.newHistory(h.ID, ChangeAdjustment, prevAvg, newAvgCost, h.Shares, h.Shares, 0, 0, notes, now)

	if err := s.repo.SaveMutation(h, nil, hist); err != nil {
		return nil, err
	}

	s.events.Emit(events.CostAdjusted, "ledger", map[string]interface{}{
		"symbol":   h.Symbol,
		"prev_avg": prevAvg,
		"new_avg":  newAvgCost,
		"notes":    notes,
	})

	return h, nil
}

// UpdatePrice sets the current price of a symbol's open holding. A feed
// failure upstream simply means this is never called for that symbol.
func (s *Service) UpdatePrice(symbol string, price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidQuantity)
	}

	lock := s.keyLock("symbol:" + NormalizeSymbol(symbol))
	lock.Lock()
	defer lock.Unlock()

	_, err := s.repo.UpdatePrice(symbol, price)
	return err
}

// VerifyHistory replays a holding's cost history from (0, 0) and checks
// that the replay reproduces the stored (shares, avgCost) exactly
func (s *Service) VerifyHistory(holdingID string) error {
	h, err := s.repo.GetByID(holdingID)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrHoldingNotFound, holdingID)
	}

	entries, err := s.repo.GetCostHistory(holdingID, true)
	if err != nil {
		return err
	}

	shares, avgCost := ReplayCostHistory(entries)
	if shares != h.Shares || math.Abs(avgCost-h.AvgCost) > 1e-9 {
		return fmt.Errorf("cost history replay mismatch for %s: replayed (%d, %f) stored (%d, %f)",
			h.Symbol, shares, avgCost, h.Shares, h.AvgCost)
	}

	return nil
}

// Repo exposes the repository for read-side consumers
func (s *Service) Repo() *Repository {
	return s.repo
}

// mutableHolding loads a holding that must exist and be open
func (s *Service) mutableHolding(holdingID string) (*Holding, error) {
	h, err := s.repo.GetByID(holdingID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, holdingID)
	}
	if h.Status != HoldingOpen {
		return nil, fmt.Errorf("%w: %s", ErrHoldingClosed, h.Symbol)
	}
	return h, nil
}

func (s *Service) newTransaction(h *Holding, txType TransactionType, shares int64, price float64, now time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New().String(),
		HoldingID: h.ID,
		Symbol:    h.Symbol,
		Type:      txType,
		Shares:    shares,
		Price:     price,
		Total:     float64(shares) * price,
		Timestamp: now,
	}
}

func (s *Service) newHistory(holdingID string, change ChangeType, prevAvg, newAvg float64, prevShares, newShares int64, txPrice float64, txShares int64, notes string, now time.Time) *CostHistory {
	return &CostHistory{
		ID:          uuid.New().String(),
		HoldingID:   holdingID,
		ChangeType:  change,
		PrevAvgCost: prevAvg,
		NewAvgCost:  newAvg,
		PrevShares:  prevShares,
		NewShares:   newShares,
		TxPrice:     txPrice,
		TxShares:    txShares,
		Notes:       notes,
		Timestamp:   now,
	}
}
