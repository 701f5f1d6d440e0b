// Package indicator computes technical indicators over an ordered sequence of
// closing prices (oldest first). All functions are pure and recompute from
// scratch on each call so results are replayable.
package indicator

import (
	"errors"

	"github.com/Alias1177/TradeAgent/models"
)

// ErrInsufficientData is returned when a price sequence is too short to
// compute anything meaningful. Callers should skip the symbol, not abort.
var ErrInsufficientData = errors.New("insufficient price data")

// Periods configures the indicator set computed by Compute.
type Periods struct {
	RSIShort      int
	RSILong       int
	EMA           int
	MACDFast      int
	MACDSlow      int
	HistoryWindow int
}

// DefaultPeriods matches the standard RSI(7)/RSI(14)/EMA(20)/MACD(12,26) set.
func DefaultPeriods() Periods {
	return Periods{
		RSIShort:      7,
		RSILong:       14,
		EMA:           20,
		MACDFast:      12,
		MACDSlow:      26,
		HistoryWindow: 10,
	}
}

// RSI calculates the Wilder relative strength index over the last period
// deltas. It returns the neutral value 50 when fewer than period deltas are
// available and clamps to 100/0 when all deltas are gains or losses.
func RSI(prices []float64, period int) (float64, error) {
	if len(prices) < 2 {
		return 0, ErrInsufficientData
	}
	if len(prices) < period+1 {
		return 50.0, nil
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder smoothing over the remaining deltas
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain = (avgGain*float64(period-1) + change) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - change) / float64(period)
		}
	}

	if avgLoss == 0 {
		return 100.0, nil
	}
	if avgGain == 0 {
		return 0.0, nil
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), nil
}

// EMA calculates the exponential moving average with multiplier 2/(period+1),
// seeded by the simple average of the first period samples.
func EMA(prices []float64, period int) (float64, error) {
	if len(prices) < 2 {
		return 0, ErrInsufficientData
	}
	if len(prices) < period {
		return prices[len(prices)-1], nil
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}

	return ema, nil
}

// MACD calculates the difference between the fast and slow EMA. The signal
// line and histogram are not used by the decision policy and are omitted.
func MACD(prices []float64, fastPeriod, slowPeriod int) (float64, error) {
	fast, err := EMA(prices, fastPeriod)
	if err != nil {
		return 0, err
	}
	slow, err := EMA(prices, slowPeriod)
	if err != nil {
		return 0, err
	}
	return fast - slow, nil
}

// Compute builds the full indicator snapshot for a price sequence, including
// the trailing history windows consumed by the analyzer prompt. Each
// indicator is independent: a failure in one leaves the others intact.
func Compute(prices []float64, p Periods) (models.IndicatorSnapshot, error) {
	var snap models.IndicatorSnapshot
	if len(prices) < 2 {
		return snap, ErrInsufficientData
	}

	snap.RSIShort, _ = RSI(prices, p.RSIShort)
	snap.RSILong, _ = RSI(prices, p.RSILong)
	snap.EMA, _ = EMA(prices, p.EMA)
	snap.MACD, _ = MACD(prices, p.MACDFast, p.MACDSlow)

	window := p.HistoryWindow
	if window <= 0 {
		window = 10
	}
	start := len(prices) - window + 1
	if start < 2 {
		start = 2
	}

	for i := start; i <= len(prices); i++ {
		prefix := prices[:i]
		snap.PriceHistory = append(snap.PriceHistory, prefix[len(prefix)-1])
		if v, err := EMA(prefix, p.EMA); err == nil {
			snap.EMAHistory = append(snap.EMAHistory, v)
		}
		if v, err := MACD(prefix, p.MACDFast, p.MACDSlow); err == nil {
			snap.MACDHistory = append(snap.MACDHistory, v)
		}
		if v, err := RSI(prefix, p.RSIShort); err == nil {
			snap.RSIHistory = append(snap.RSIHistory, v)
		}
	}

	return snap, nil
}
