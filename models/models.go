package models

// Trade actions produced by the decision policy and recorded on trades.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// PriceSample is one point of a per-symbol price history, oldest first.
type PriceSample struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// IndicatorSnapshot holds the technical indicators for a single symbol,
// plus trailing history windows used to build the analyzer prompt.
type IndicatorSnapshot struct {
	RSIShort float64 `json:"rsi_short"`
	RSILong  float64 `json:"rsi_long"`
	EMA      float64 `json:"ema"`
	MACD     float64 `json:"macd"`

	PriceHistory []float64 `json:"price_history,omitempty"`
	EMAHistory   []float64 `json:"ema_history,omitempty"`
	MACDHistory  []float64 `json:"macd_history,omitempty"`
	RSIHistory   []float64 `json:"rsi_history,omitempty"`
}

// MarketAnalysis is the structured result extracted from an analyzer response.
type MarketAnalysis struct {
	Decision              string  `json:"decision"`
	Confidence            float64 `json:"confidence"`
	Reasoning             string  `json:"reasoning"`
	ChainOfThought        string  `json:"chainOfThought,omitempty"`
	StopLoss              float64 `json:"stopLoss,omitempty"`
	TakeProfit            float64 `json:"takeProfit,omitempty"`
	InvalidationCondition string  `json:"invalidationCondition,omitempty"`
}

// TradingDecision is the per-symbol output of the decision policy for one tick.
// A zero StopLoss/TakeProfit means the level is not set.
type TradingDecision struct {
	Symbol                string  `json:"symbol"`
	Action                string  `json:"action"`
	Confidence            float64 `json:"confidence"`
	Reasoning             string  `json:"reasoning"`
	ChainOfThought        string  `json:"chain_of_thought,omitempty"`
	StopLoss              float64 `json:"stop_loss,omitempty"`
	TakeProfit            float64 `json:"take_profit,omitempty"`
	InvalidationCondition string  `json:"invalidation_condition,omitempty"`
	Timestamp             int64   `json:"timestamp"`
}

// Position is an open holding. At most one position exists per symbol.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	EntryTime     int64   `json:"entry_time"`
	StopLoss      float64 `json:"stop_loss,omitempty"`
	TakeProfit    float64 `json:"take_profit,omitempty"`

	// Crossing flags are observability only; positions are never auto-closed.
	StopLossHit   bool `json:"stop_loss_hit,omitempty"`
	TakeProfitHit bool `json:"take_profit_hit,omitempty"`
}

// Trade is an immutable ledger entry. IDs are unique and monotonic.
type Trade struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Timestamp  int64   `json:"timestamp"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Portfolio is the full ledger state. Trades are ordered newest first.
type Portfolio struct {
	Cash        float64    `json:"cash"`
	TotalValue  float64    `json:"total_value"`
	Positions   []Position `json:"positions"`
	Trades      []Trade    `json:"trades"`
	TotalReturn float64    `json:"total_return"`
}

// Report is one human-readable entry of the capped decision log.
type Report struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// Snapshot is the published output of one orchestrator tick.
type Snapshot struct {
	Portfolio Portfolio         `json:"portfolio"`
	Decisions []TradingDecision `json:"decisions"`
	Trades    []Trade           `json:"trades,omitempty"`
	Reports   []Report          `json:"reports"`
}
