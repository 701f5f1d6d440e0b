package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TradeAgent/models"
)

type stubAnalyzer struct {
	response string
	err      error
}

func (s stubAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func buySetup() (models.IndicatorSnapshot, float64) {
	return models.IndicatorSnapshot{RSIShort: 25, RSILong: 40, MACD: 1, EMA: 90}, 100.0
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name       string
		indicators models.IndicatorSnapshot
		price      float64
		action     string
		confidence float64
		stopLoss   float64
		takeProfit float64
	}{
		{
			name:       "oversold bullish momentum buys",
			indicators: models.IndicatorSnapshot{RSIShort: 25, MACD: 1, EMA: 90},
			price:      100,
			action:     models.ActionBuy,
			confidence: 0.75,
			stopLoss:   98,
			takeProfit: 104,
		},
		{
			name:       "overbought bearish momentum sells",
			indicators: models.IndicatorSnapshot{RSIShort: 75, MACD: -1, EMA: 110},
			price:      100,
			action:     models.ActionSell,
			confidence: 0.75,
		},
		{
			name:       "neutral conditions hold",
			indicators: models.IndicatorSnapshot{RSIShort: 50, MACD: 0.5, EMA: 100},
			price:      100,
			action:     models.ActionHold,
			confidence: 0.5,
		},
		{
			name:       "oversold but bearish macd holds",
			indicators: models.IndicatorSnapshot{RSIShort: 25, MACD: -1, EMA: 90},
			price:      100,
			action:     models.ActionHold,
			confidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.indicators, tt.price)
			assert.Equal(t, tt.action, got.Decision)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.InDelta(t, tt.stopLoss, got.StopLoss, 1e-9)
			assert.InDelta(t, tt.takeProfit, got.TakeProfit, 1e-9)
		})
	}
}

func TestDecideNilAnalyzerUsesFallback(t *testing.T) {
	ind, price := buySetup()
	p := New(nil, 0)

	d := p.Decide(context.Background(), Request{Symbol: "BTC", Price: price, Indicators: ind})

	assert.Equal(t, models.ActionBuy, d.Action)
	assert.InDelta(t, 0.75, d.Confidence, 1e-9)
	assert.InDelta(t, 98, d.StopLoss, 1e-9)
	assert.InDelta(t, 104, d.TakeProfit, 1e-9)
	assert.Equal(t, "BTC", d.Symbol)
}

func TestDecideParsesAnalyzerResponse(t *testing.T) {
	response := `Looking at the chart I conclude the following.
{
  "chainOfThought": "Momentum is strong and the pullback is shallow.",
  "decision": "BUY",
  "confidence": 0.82,
  "reasoning": "Breakout continuation",
  "stopLoss": 97.5,
  "takeProfit": 108,
  "invalidationCondition": "Close below 97"
}
Good luck out there.`

	p := New(stubAnalyzer{response: response}, time.Second)
	d := p.Decide(context.Background(), Request{Symbol: "ETH", Price: 100})

	assert.Equal(t, models.ActionBuy, d.Action)
	assert.InDelta(t, 0.82, d.Confidence, 1e-9)
	assert.Equal(t, "Breakout continuation", d.Reasoning)
	assert.Equal(t, "Momentum is strong and the pullback is shallow.", d.ChainOfThought)
	assert.InDelta(t, 97.5, d.StopLoss, 1e-9)
	assert.InDelta(t, 108, d.TakeProfit, 1e-9)
	assert.Equal(t, "Close below 97", d.InvalidationCondition)
}

func TestDecideDegradesToFallback(t *testing.T) {
	ind, price := buySetup()
	want := Fallback(ind, price)

	tests := []struct {
		name     string
		analyzer models.Analyzer
	}{
		{"analyzer error", stubAnalyzer{err: errors.New("connection refused")}},
		{"no JSON in response", stubAnalyzer{response: "I would buy here, looks bullish."}},
		{"malformed JSON", stubAnalyzer{response: `{"decision": "BUY", "confidence": }`}},
		{"unknown action", stubAnalyzer{response: `{"decision": "WAIT", "confidence": 0.9}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.analyzer, time.Second)
			d := p.Decide(context.Background(), Request{Symbol: "BTC", Price: price, Indicators: ind})

			assert.Equal(t, want.Decision, d.Action)
			assert.InDelta(t, want.Confidence, d.Confidence, 1e-9)
			assert.Equal(t, want.Reasoning, d.Reasoning)
			assert.InDelta(t, want.StopLoss, d.StopLoss, 1e-9)
			assert.InDelta(t, want.TakeProfit, d.TakeProfit, 1e-9)
		})
	}
}

func TestParseAnalysisDefaults(t *testing.T) {
	analysis, err := ParseAnalysis(`{"stopLoss": 95}`)
	require.NoError(t, err)

	assert.Equal(t, models.ActionHold, analysis.Decision)
	assert.InDelta(t, 0.5, analysis.Confidence, 1e-9)
	assert.Equal(t, "AI analysis", analysis.Reasoning)
	assert.InDelta(t, 95, analysis.StopLoss, 1e-9)
}

func TestParseAnalysisClampsConfidence(t *testing.T) {
	analysis, err := ParseAnalysis(`{"decision": "SELL", "confidence": 1.4}`)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, analysis.Confidence, 1e-9)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "bare object",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
		},
		{
			name:     "object inside prose",
			input:    `thinking... {"a": {"b": 2}} done`,
			expected: `{"a": {"b": 2}}`,
		},
		{
			name:     "braces inside strings are skipped",
			input:    `{"note": "use {curly} braces"}`,
			expected: `{"note": "use {curly} braces"}`,
		},
		{
			name:    "no object",
			input:   "nothing to see here",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"a": 1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	ind, price := buySetup()
	req := Request{
		Symbol:         "BTC",
		Price:          price,
		Indicators:     ind,
		PortfolioValue: 10000,
		AvailableCash:  5000,
		Position: &models.Position{
			Symbol:     "BTC",
			Quantity:   0.5,
			EntryPrice: 95,
			StopLoss:   90,
		},
	}

	first := BuildPrompt(req)
	second := BuildPrompt(req)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "CURRENT MARKET STATE FOR BTC")
	assert.Contains(t, first, "CURRENT POSITION IN BTC")
	assert.Contains(t, first, "Stop Loss: $90.00")
	assert.Contains(t, first, "Take Profit: Not set")
	assert.Contains(t, first, "EXACT JSON format")
}

func TestBuildPromptWithoutPosition(t *testing.T) {
	prompt := BuildPrompt(Request{Symbol: "ETH", Price: 3000})
	assert.Contains(t, prompt, "No current position in this asset.")
}
