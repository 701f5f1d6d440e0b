// Package engine drives the trading loop: for each tick of new prices it
// computes indicators, obtains decisions, sizes and executes trades against
// the ledger, marks positions to market and publishes the refreshed state.
package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TradeAgent/internal/decision"
	"github.com/Alias1177/TradeAgent/internal/indicator"
	"github.com/Alias1177/TradeAgent/internal/ledger"
	"github.com/Alias1177/TradeAgent/internal/risk"
	"github.com/Alias1177/TradeAgent/models"
)

const reportCap = 50

// Feed supplies one round of prices and the per-symbol rolling histories.
type Feed interface {
	Step(now time.Time) (prices map[string]float64, history map[string][]models.PriceSample)
}

// Config holds the orchestrator tuning knobs.
type Config struct {
	MinHistory     int     // samples required before a symbol is analyzed
	ConfidenceGate float64 // decisions at or below this confidence never trade
	Periods        indicator.Periods
}

// Engine is the tick orchestrator. A tick arriving while a previous tick is
// still running is dropped, not queued.
type Engine struct {
	cfg    Config
	ledger *ledger.Ledger
	policy *decision.Policy
	logger zerolog.Logger

	running atomic.Bool

	mu         sync.Mutex
	decisions  []models.TradingDecision
	reports    []models.Report
	subscriber func(models.Snapshot)
}

// New creates a trading engine
func New(cfg Config, l *ledger.Ledger, p *decision.Policy) *Engine {
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = 20
	}
	if cfg.ConfidenceGate <= 0 {
		cfg.ConfidenceGate = 0.65
	}
	if cfg.Periods == (indicator.Periods{}) {
		cfg.Periods = indicator.DefaultPeriods()
	}

	return &Engine{
		cfg:    cfg,
		ledger: l,
		policy: p,
		logger: log.With().Str("component", "engine").Logger(),
	}
}

// Subscribe registers a callback invoked with the published snapshot after
// every completed tick.
func (e *Engine) Subscribe(fn func(models.Snapshot)) {
	e.mu.Lock()
	e.subscriber = fn
	e.mu.Unlock()
}

// Tick runs one decision round over the given prices and histories. It
// returns false when the tick was dropped because a previous round is still
// in flight.
func (e *Engine) Tick(ctx context.Context, prices map[string]float64, history map[string][]models.PriceSample) bool {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Debug().Msg("Tick dropped, previous round still in flight")
		return false
	}
	defer e.running.Store(false)

	// Stable symbol order keeps runs replayable
	symbols := make([]string, 0, len(prices))
	for symbol := range prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	tickDecisions := make([]models.TradingDecision, 0, len(symbols))
	var tickTrades []models.Trade

	for _, symbol := range symbols {
		samples := history[symbol]
		if len(samples) < e.cfg.MinHistory {
			e.logger.Debug().
				Str("symbol", symbol).
				Int("samples", len(samples)).
				Msg("Not enough history, skipping")
			continue
		}

		d, trade := e.processSymbol(ctx, symbol, prices[symbol], samples)
		tickDecisions = append(tickDecisions, d)
		if trade != nil {
			tickTrades = append(tickTrades, *trade)
		}
	}

	e.ledger.UpdatePositions(prices)

	snapshot := e.record(tickDecisions, tickTrades)

	e.mu.Lock()
	subscriber := e.subscriber
	e.mu.Unlock()
	if subscriber != nil {
		subscriber(snapshot)
	}

	return true
}

func (e *Engine) processSymbol(ctx context.Context, symbol string, price float64, samples []models.PriceSample) (models.TradingDecision, *models.Trade) {
	closes := make([]float64, len(samples))
	for i, s := range samples {
		closes[i] = s.Price
	}

	snap, err := indicator.Compute(closes, e.cfg.Periods)
	if err != nil {
		e.logger.Debug().Err(err).Str("symbol", symbol).Msg("Indicators unavailable, holding")
		return models.TradingDecision{
			Symbol:     symbol,
			Action:     models.ActionHold,
			Confidence: 0,
			Reasoning:  "insufficient data",
			Timestamp:  time.Now().UnixMilli(),
		}, nil
	}

	portfolio := e.ledger.Portfolio()
	d := e.policy.Decide(ctx, decision.Request{
		Symbol:         symbol,
		Price:          price,
		Indicators:     snap,
		Position:       e.ledger.Position(symbol),
		PortfolioValue: portfolio.TotalValue,
		AvailableCash:  portfolio.Cash,
	})

	var trade *models.Trade
	if d.Action != models.ActionHold && d.Confidence > e.cfg.ConfidenceGate {
		trade = e.executeDecision(d, price, portfolio.Cash)
	}

	return d, trade
}

func (e *Engine) executeDecision(d models.TradingDecision, price, cash float64) *models.Trade {
	switch d.Action {
	case models.ActionBuy:
		quantity := risk.PositionSize(cash, price, d.Confidence)
		if quantity <= 0 {
			return nil
		}
		return e.ledger.ExecuteTrade(d, price, quantity)

	case models.ActionSell:
		// Sells always close out the full held quantity
		pos := e.ledger.Position(d.Symbol)
		if pos == nil {
			return nil
		}
		return e.ledger.ExecuteTrade(d, price, pos.Quantity)
	}

	return nil
}

// record stores the tick's decisions, appends reports (capped at the most
// recent entries) and builds the published snapshot.
func (e *Engine) record(decisions []models.TradingDecision, trades []models.Trade) models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.decisions = decisions
	for _, d := range decisions {
		e.reports = append(e.reports, models.Report{
			Symbol:     d.Symbol,
			Action:     d.Action,
			Reasoning:  d.Reasoning,
			Confidence: d.Confidence,
			Timestamp:  d.Timestamp,
		})
	}
	if len(e.reports) > reportCap {
		e.reports = e.reports[len(e.reports)-reportCap:]
	}

	return models.Snapshot{
		Portfolio: e.ledger.Portfolio(),
		Decisions: append([]models.TradingDecision(nil), decisions...),
		Trades:    append([]models.Trade(nil), trades...),
		Reports:   append([]models.Report(nil), e.reports...),
	}
}

// Snapshot returns the current published state without running a tick
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.Snapshot{
		Portfolio: e.ledger.Portfolio(),
		Decisions: append([]models.TradingDecision(nil), e.decisions...),
		Reports:   append([]models.Report(nil), e.reports...),
	}
}

// Run drives the engine from a feed until the context is cancelled
func (e *Engine) Run(ctx context.Context, feed Feed, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info().Dur("interval", interval).Msg("Trading loop started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Trading loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			prices, history := feed.Step(now)
			e.Tick(ctx, prices, history)
		}
	}
}
