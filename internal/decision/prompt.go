package decision

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the analyzer prompt deterministically from the request:
// current price and indicators, the trailing history windows, account state
// and the current position summary.
func BuildPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional crypto trader analyzing %s. Provide a detailed trading decision.\n\n", req.Symbol)

	fmt.Fprintf(&sb, "CURRENT MARKET STATE FOR %s\n", req.Symbol)
	fmt.Fprintf(&sb, "Current Price: $%.2f\n", req.Price)
	fmt.Fprintf(&sb, "Current EMA: $%.2f\n", req.Indicators.EMA)
	fmt.Fprintf(&sb, "Current MACD: %.3f\n", req.Indicators.MACD)
	fmt.Fprintf(&sb, "Current RSI (short): %.2f\n", req.Indicators.RSIShort)
	fmt.Fprintf(&sb, "Current RSI (long): %.2f\n\n", req.Indicators.RSILong)

	fmt.Fprintf(&sb, "Price History (oldest -> newest):\n%s\n\n", joinFloats(req.Indicators.PriceHistory, 2))
	fmt.Fprintf(&sb, "EMA History:\n%s\n\n", joinFloats(req.Indicators.EMAHistory, 2))
	fmt.Fprintf(&sb, "MACD History:\n%s\n\n", joinFloats(req.Indicators.MACDHistory, 3))
	fmt.Fprintf(&sb, "RSI History:\n%s\n\n", joinFloats(req.Indicators.RSIHistory, 2))

	sb.WriteString("YOUR ACCOUNT INFORMATION\n")
	fmt.Fprintf(&sb, "Portfolio Value: $%.2f\n", req.PortfolioValue)
	fmt.Fprintf(&sb, "Available Cash: $%.2f\n\n", req.AvailableCash)

	if pos := req.Position; pos != nil {
		fmt.Fprintf(&sb, "CURRENT POSITION IN %s:\n", req.Symbol)
		fmt.Fprintf(&sb, "Quantity: %v\n", pos.Quantity)
		fmt.Fprintf(&sb, "Entry Price: $%.2f\n", pos.EntryPrice)
		fmt.Fprintf(&sb, "Current Price: $%.2f\n", req.Price)
		fmt.Fprintf(&sb, "Unrealized P&L: $%.2f\n", pos.UnrealizedPnl)
		fmt.Fprintf(&sb, "Stop Loss: %s\n", levelOrNotSet(pos.StopLoss))
		fmt.Fprintf(&sb, "Take Profit: %s\n\n", levelOrNotSet(pos.TakeProfit))
	} else {
		sb.WriteString("No current position in this asset.\n\n")
	}

	sb.WriteString(`INSTRUCTIONS:
1. Analyze the technical indicators (EMA, MACD, RSI)
2. Consider the trend direction and momentum
3. Evaluate risk/reward ratio
4. Provide your decision: BUY, SELL, or HOLD

Respond in this EXACT JSON format:
{
  "chainOfThought": "Your detailed analysis process here. Explain what you see in the data, why you're making this decision, and what conditions would invalidate your thesis.",
  "decision": "BUY|SELL|HOLD",
  "confidence": 0.0-1.0,
  "reasoning": "Brief summary of your decision",
  "stopLoss": price_number,
  "takeProfit": price_number,
  "invalidationCondition": "What would make you exit this trade"
}`)

	return sb.String()
}

func joinFloats(values []float64, decimals int) string {
	if len(values) == 0 {
		return "n/a"
	}
	format := fmt.Sprintf("%%.%df", decimals)
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf(format, v)
	}
	return strings.Join(parts, ", ")
}

func levelOrNotSet(level float64) string {
	if level <= 0 {
		return "Not set"
	}
	return fmt.Sprintf("$%.2f", level)
}
