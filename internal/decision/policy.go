// Package decision turns a symbol's price and indicators into a trading
// decision. The primary path delegates to an external analyzer; any failure
// degrades to a deterministic rule-based fallback and never surfaces an error.
package decision

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/TradeAgent/models"
)

// Request carries the full context for one decision.
type Request struct {
	Symbol         string
	Price          float64
	Indicators     models.IndicatorSnapshot
	Position       *models.Position // current position in Symbol, nil if none
	PortfolioValue float64
	AvailableCash  float64
}

// Policy produces trading decisions. A nil analyzer makes every decision
// through the fallback rules, which keeps the policy usable offline.
type Policy struct {
	analyzer models.Analyzer
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates a decision policy. timeout bounds each analyzer call; zero
// disables the bound.
func New(analyzer models.Analyzer, timeout time.Duration) *Policy {
	return &Policy{
		analyzer: analyzer,
		timeout:  timeout,
		logger:   log.With().Str("component", "decision_policy").Logger(),
	}
}

// Decide produces a decision for the request. Exactly one outbound analyzer
// call is made per invocation; timeouts, transport errors and unparseable
// responses all map to the fallback analysis.
func (p *Policy) Decide(ctx context.Context, req Request) models.TradingDecision {
	analysis := p.analyze(ctx, req)

	return models.TradingDecision{
		Symbol:                req.Symbol,
		Action:                analysis.Decision,
		Confidence:            analysis.Confidence,
		Reasoning:             analysis.Reasoning,
		ChainOfThought:        analysis.ChainOfThought,
		StopLoss:              analysis.StopLoss,
		TakeProfit:            analysis.TakeProfit,
		InvalidationCondition: analysis.InvalidationCondition,
		Timestamp:             time.Now().UnixMilli(),
	}
}

func (p *Policy) analyze(ctx context.Context, req Request) models.MarketAnalysis {
	if p.analyzer == nil {
		return Fallback(req.Indicators, req.Price)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	response, err := p.analyzer.Analyze(ctx, BuildPrompt(req))
	if err != nil {
		p.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("analyzer call failed, using fallback")
		return Fallback(req.Indicators, req.Price)
	}

	analysis, err := ParseAnalysis(response)
	if err != nil {
		p.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("unparseable analyzer response, using fallback")
		return Fallback(req.Indicators, req.Price)
	}

	return analysis
}

// Fallback is the deterministic rule set used when the analyzer is
// unavailable or its response cannot be parsed.
func Fallback(ind models.IndicatorSnapshot, price float64) models.MarketAnalysis {
	if ind.RSIShort < 30 && ind.MACD > 0 && price > ind.EMA {
		return models.MarketAnalysis{
			Decision:              models.ActionBuy,
			Confidence:            0.75,
			Reasoning:             "RSI oversold with bullish MACD and price above EMA",
			ChainOfThought:        "Oversold conditions (RSI < 30) combined with bullish momentum (MACD > 0) and price trading above the EMA suggest a potential reversal.",
			StopLoss:              price * 0.98,
			TakeProfit:            price * 1.04,
			InvalidationCondition: "Price closes below the EMA",
		}
	}

	if ind.RSIShort > 70 && ind.MACD < 0 && price < ind.EMA {
		return models.MarketAnalysis{
			Decision:              models.ActionSell,
			Confidence:            0.75,
			Reasoning:             "RSI overbought with bearish MACD and price below EMA",
			ChainOfThought:        "Overbought conditions (RSI > 70) with bearish momentum (MACD < 0) and price below the EMA indicate potential downside.",
			InvalidationCondition: "Price closes above the EMA",
		}
	}

	return models.MarketAnalysis{
		Decision:              models.ActionHold,
		Confidence:            0.5,
		Reasoning:             "No clear trading signal",
		ChainOfThought:        "Current conditions do not present a clear opportunity. RSI is neutral and MACD shows mixed signals.",
		InvalidationCondition: "N/A",
	}
}
