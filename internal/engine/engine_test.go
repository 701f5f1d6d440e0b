package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/TradeAgent/internal/decision"
	"github.com/Alias1177/TradeAgent/internal/ledger"
	"github.com/Alias1177/TradeAgent/internal/store"
	"github.com/Alias1177/TradeAgent/models"
)

type stubAnalyzer struct {
	response string
	started  chan struct{}
	release  chan struct{}
}

func (s *stubAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.response, nil
}

func analysisJSON(action string, confidence float64) string {
	return fmt.Sprintf(`{"decision": %q, "confidence": %v, "reasoning": "stub"}`, action, confidence)
}

func constantHistory(n int, price float64) []models.PriceSample {
	samples := make([]models.PriceSample, n)
	for i := range samples {
		samples[i] = models.PriceSample{Price: price, Timestamp: int64(i)}
	}
	return samples
}

func newTestEngine(t *testing.T, analyzer models.Analyzer) (*Engine, *ledger.Ledger) {
	t.Helper()
	l, err := ledger.New(10000, store.NewMemory())
	require.NoError(t, err)
	policy := decision.New(analyzer, time.Second)
	return New(Config{MinHistory: 20, ConfidenceGate: 0.65}, l, policy), l
}

func TestTickExecutesConfidentBuy(t *testing.T) {
	eng, l := newTestEngine(t, &stubAnalyzer{response: analysisJSON("BUY", 0.9)})

	var published models.Snapshot
	eng.Subscribe(func(s models.Snapshot) { published = s })

	ok := eng.Tick(context.Background(),
		map[string]float64{"AAA": 100},
		map[string][]models.PriceSample{"AAA": constantHistory(25, 100)})
	require.True(t, ok)

	p := l.Portfolio()
	require.Len(t, p.Positions, 1)
	// risk 0.02 + 0.9*0.03 = 0.047 of 10000 cash at price 100
	assert.InDelta(t, 4.7, p.Positions[0].Quantity, 1e-9)
	assert.InDelta(t, 10000-470, p.Cash, 1e-9)

	require.Len(t, published.Decisions, 1)
	assert.Equal(t, models.ActionBuy, published.Decisions[0].Action)
	require.Len(t, published.Trades, 1)
	assert.InDelta(t, 4.7, published.Trades[0].Quantity, 1e-9)
	require.Len(t, published.Reports, 1)
}

func TestTickSellClosesFullPosition(t *testing.T) {
	history := map[string][]models.PriceSample{"AAA": constantHistory(25, 100)}
	prices := map[string]float64{"AAA": 100}

	buyEng, l := newTestEngine(t, &stubAnalyzer{response: analysisJSON("BUY", 0.9)})
	require.True(t, buyEng.Tick(context.Background(), prices, history))
	held := l.Portfolio().Positions[0].Quantity

	sellPolicy := decision.New(&stubAnalyzer{response: analysisJSON("SELL", 0.9)}, time.Second)
	sellEng := New(Config{MinHistory: 20, ConfidenceGate: 0.65}, l, sellPolicy)
	require.True(t, sellEng.Tick(context.Background(), prices, history))

	p := l.Portfolio()
	assert.Empty(t, p.Positions)
	require.Len(t, p.Trades, 2)
	assert.Equal(t, models.ActionSell, p.Trades[0].Type)
	assert.InDelta(t, held, p.Trades[0].Quantity, 1e-9)
}

func TestTickSkipsShortHistory(t *testing.T) {
	eng, l := newTestEngine(t, &stubAnalyzer{response: analysisJSON("BUY", 0.9)})

	ok := eng.Tick(context.Background(),
		map[string]float64{"AAA": 100},
		map[string][]models.PriceSample{"AAA": constantHistory(10, 100)})
	require.True(t, ok)

	snap := eng.Snapshot()
	assert.Empty(t, snap.Decisions)
	assert.Empty(t, snap.Reports)
	assert.Empty(t, l.Portfolio().Positions)
}

func TestTickLowConfidenceDoesNotTrade(t *testing.T) {
	eng, l := newTestEngine(t, &stubAnalyzer{response: analysisJSON("BUY", 0.6)})

	ok := eng.Tick(context.Background(),
		map[string]float64{"AAA": 100},
		map[string][]models.PriceSample{"AAA": constantHistory(25, 100)})
	require.True(t, ok)

	assert.Empty(t, l.Portfolio().Positions)
	snap := eng.Snapshot()
	require.Len(t, snap.Decisions, 1)
	assert.Equal(t, models.ActionBuy, snap.Decisions[0].Action)
}

func TestTickDroppedWhileInFlight(t *testing.T) {
	analyzer := &stubAnalyzer{
		response: analysisJSON("HOLD", 0.5),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	eng, _ := newTestEngine(t, analyzer)

	prices := map[string]float64{"AAA": 100}
	history := map[string][]models.PriceSample{"AAA": constantHistory(25, 100)}

	first := make(chan bool)
	go func() {
		first <- eng.Tick(context.Background(), prices, history)
	}()

	<-analyzer.started

	// Second tick arrives while the first round is still in flight
	assert.False(t, eng.Tick(context.Background(), prices, history))

	close(analyzer.release)
	assert.True(t, <-first)

	// Exactly one decision round happened
	assert.Len(t, eng.Snapshot().Reports, 1)
}

func TestReportLogCapped(t *testing.T) {
	eng, _ := newTestEngine(t, &stubAnalyzer{response: analysisJSON("HOLD", 0.5)})

	prices := map[string]float64{"AAA": 100}
	history := map[string][]models.PriceSample{"AAA": constantHistory(25, 100)}

	for i := 0; i < reportCap+5; i++ {
		require.True(t, eng.Tick(context.Background(), prices, history))
	}

	assert.Len(t, eng.Snapshot().Reports, reportCap)
}

func TestTickMultipleSymbolsIndependent(t *testing.T) {
	eng, l := newTestEngine(t, &stubAnalyzer{response: analysisJSON("BUY", 0.9)})

	ok := eng.Tick(context.Background(),
		map[string]float64{"AAA": 100, "BBB": 50, "CCC": 10},
		map[string][]models.PriceSample{
			"AAA": constantHistory(25, 100),
			"BBB": constantHistory(5, 50), // skipped: not enough history
			"CCC": constantHistory(25, 10),
		})
	require.True(t, ok)

	snap := eng.Snapshot()
	assert.Len(t, snap.Decisions, 2)
	assert.Len(t, l.Portfolio().Positions, 2)
}
