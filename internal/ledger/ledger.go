// Package ledger owns the paper-trading portfolio: cash, open positions and
// the trade history. Decisions are executed against it at the current price
// and every mutation is persisted through the snapshot store.
package ledger

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TradeAgent/models"
)

// SnapshotKey is the fixed persistence key for the whole portfolio.
const SnapshotKey = "trading-portfolio"

// Ledger is safe for use from a single orchestrator goroutine; the internal
// mutex only guards against concurrent snapshot readers.
type Ledger struct {
	mu          sync.Mutex
	initialCash float64
	portfolio   models.Portfolio
	store       models.SnapshotStore
	entropy     *ulid.MonotonicEntropy
	logger      zerolog.Logger
}

// New creates a ledger with the given initial cash balance, restoring any
// previously persisted snapshot from the store.
func New(initialCash float64, st models.SnapshotStore) (*Ledger, error) {
	l := &Ledger{
		initialCash: initialCash,
		store:       st,
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		logger:      log.With().Str("component", "ledger").Logger(),
	}

	saved, err := st.Load(SnapshotKey)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		l.portfolio = *saved
	} else {
		l.portfolio = emptyPortfolio(initialCash)
	}

	return l, nil
}

// Portfolio returns a defensive copy of the current state
func (l *Ledger) Portfolio() models.Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyPortfolio(l.portfolio)
}

// Position returns a copy of the open position in symbol, or nil
func (l *Ledger) Position(symbol string) *models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.portfolio.Positions {
		if l.portfolio.Positions[i].Symbol == symbol {
			pos := l.portfolio.Positions[i]
			return &pos
		}
	}
	return nil
}

// ExecuteTrade applies a decision at the current price. It returns nil for
// HOLD decisions and for rejected trades (insufficient funds, no position to
// sell); rejections are logged at warn level, never returned as errors.
func (l *Ledger) ExecuteTrade(decision models.TradingDecision, currentPrice, quantity float64) *models.Trade {
	if decision.Action == models.ActionHold {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	trade := models.Trade{
		ID:         ulid.MustNew(ulid.Timestamp(now), l.entropy).String(),
		Symbol:     decision.Symbol,
		Type:       decision.Action,
		Quantity:   quantity,
		Price:      currentPrice,
		Timestamp:  now.UnixMilli(),
		Reason:     decision.Reasoning,
		Confidence: decision.Confidence,
	}

	switch decision.Action {
	case models.ActionBuy:
		cost := quantity * currentPrice
		if cost > l.portfolio.Cash {
			l.logger.Warn().
				Str("symbol", decision.Symbol).
				Float64("cost", cost).
				Float64("cash", l.portfolio.Cash).
				Msg("Insufficient funds, trade rejected")
			return nil
		}

		l.portfolio.Cash -= cost
		l.applyBuy(decision, currentPrice, quantity, now)

	case models.ActionSell:
		idx := l.positionIndex(decision.Symbol)
		if idx == -1 {
			l.logger.Warn().
				Str("symbol", decision.Symbol).
				Msg("No position to sell, trade rejected")
			return nil
		}

		pos := &l.portfolio.Positions[idx]
		sellQuantity := quantity
		if sellQuantity > pos.Quantity {
			sellQuantity = pos.Quantity
		}

		l.portfolio.Cash += sellQuantity * currentPrice
		pos.Quantity -= sellQuantity
		if pos.Quantity <= 0 {
			l.portfolio.Positions = append(
				l.portfolio.Positions[:idx], l.portfolio.Positions[idx+1:]...)
		}

		trade.Quantity = sellQuantity

	default:
		l.logger.Warn().Str("action", decision.Action).Msg("Unknown trade action ignored")
		return nil
	}

	// Newest first
	l.portfolio.Trades = append([]models.Trade{trade}, l.portfolio.Trades...)
	l.persist()

	l.logger.Info().
		Str("id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("type", trade.Type).
		Float64("quantity", trade.Quantity).
		Float64("price", trade.Price).
		Msg("Trade executed")

	return &trade
}

func (l *Ledger) applyBuy(decision models.TradingDecision, price, quantity float64, now time.Time) {
	if idx := l.positionIndex(decision.Symbol); idx != -1 {
		pos := &l.portfolio.Positions[idx]
		totalQuantity := pos.Quantity + quantity
		pos.EntryPrice = (pos.EntryPrice*pos.Quantity + price*quantity) / totalQuantity
		pos.Quantity = totalQuantity
		pos.CurrentPrice = price
		pos.StopLoss = decision.StopLoss
		pos.TakeProfit = decision.TakeProfit
		pos.StopLossHit = false
		pos.TakeProfitHit = false
		return
	}

	l.portfolio.Positions = append(l.portfolio.Positions, models.Position{
		Symbol:       decision.Symbol,
		Quantity:     quantity,
		EntryPrice:   price,
		CurrentPrice: price,
		EntryTime:    now.UnixMilli(),
		StopLoss:     decision.StopLoss,
		TakeProfit:   decision.TakeProfit,
	})
}

// UpdatePositions marks every open position with a known current price,
// recomputes total value and return, and flags stop-loss/take-profit
// crossings. Positions with no price in the map keep their stale mark.
func (l *Ledger) UpdatePositions(prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.portfolio.Positions {
		pos := &l.portfolio.Positions[i]
		currentPrice, ok := prices[pos.Symbol]
		if !ok || currentPrice <= 0 {
			continue
		}

		pos.CurrentPrice = currentPrice
		pos.UnrealizedPnl = (currentPrice - pos.EntryPrice) * pos.Quantity

		// Crossings are detected for observability only, never auto-closed
		if pos.StopLoss > 0 && currentPrice <= pos.StopLoss && !pos.StopLossHit {
			pos.StopLossHit = true
			l.logger.Warn().
				Str("symbol", pos.Symbol).
				Float64("price", currentPrice).
				Float64("stop_loss", pos.StopLoss).
				Msg("Stop loss crossed")
		}
		if pos.TakeProfit > 0 && currentPrice >= pos.TakeProfit && !pos.TakeProfitHit {
			pos.TakeProfitHit = true
			l.logger.Info().
				Str("symbol", pos.Symbol).
				Float64("price", currentPrice).
				Float64("take_profit", pos.TakeProfit).
				Msg("Take profit crossed")
		}
	}

	var positionValue float64
	for i := range l.portfolio.Positions {
		pos := &l.portfolio.Positions[i]
		positionValue += pos.CurrentPrice * pos.Quantity
	}

	l.portfolio.TotalValue = l.portfolio.Cash + positionValue
	l.portfolio.TotalReturn = (l.portfolio.TotalValue - l.initialCash) / l.initialCash * 100

	l.persist()
}

// Reset restores the initial cash balance and discards all positions and
// trade history.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.portfolio = emptyPortfolio(l.initialCash)
	l.persist()
	l.logger.Info().Float64("cash", l.initialCash).Msg("Portfolio reset")
}

func (l *Ledger) positionIndex(symbol string) int {
	for i := range l.portfolio.Positions {
		if l.portfolio.Positions[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

func (l *Ledger) persist() {
	snapshot := copyPortfolio(l.portfolio)
	if err := l.store.Save(SnapshotKey, &snapshot); err != nil {
		l.logger.Error().Err(err).Msg("Failed to persist portfolio snapshot")
	}
}

func emptyPortfolio(cash float64) models.Portfolio {
	return models.Portfolio{
		Cash:       cash,
		TotalValue: cash,
		Positions:  []models.Position{},
		Trades:     []models.Trade{},
	}
}

func copyPortfolio(p models.Portfolio) models.Portfolio {
	snapshot := p
	snapshot.Positions = append([]models.Position(nil), p.Positions...)
	snapshot.Trades = append([]models.Trade(nil), p.Trades...)
	return snapshot
}
