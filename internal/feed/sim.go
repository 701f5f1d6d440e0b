// Package feed provides the price input the engine consumes. The simulated
// feed stands in for a live exchange: it walks each symbol's price randomly
// and maintains the rolling history buffer per symbol.
package feed

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Alias1177/TradeAgent/models"
)

// DefaultStartPrices seeds well-known symbols with plausible levels; unknown
// symbols start at 100.
var DefaultStartPrices = map[string]float64{
	"BTC": 60000,
	"ETH": 3000,
	"SOL": 150,
}

// Sim is a seedable random-walk price feed.
type Sim struct {
	mu       sync.Mutex
	rng      *rand.Rand
	prices   map[string]float64
	history  map[string][]models.PriceSample
	capacity int
}

// NewSim creates a simulated feed for the given symbols. A zero seed uses
// the current time; any other seed makes the walk reproducible.
func NewSim(symbols []string, seed int64, capacity int) *Sim {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if capacity <= 0 {
		capacity = 200
	}

	s := &Sim{
		rng:      rand.New(rand.NewSource(seed)),
		prices:   make(map[string]float64, len(symbols)),
		history:  make(map[string][]models.PriceSample, len(symbols)),
		capacity: capacity,
	}

	for _, symbol := range symbols {
		start, ok := DefaultStartPrices[symbol]
		if !ok {
			start = 100
		}
		s.prices[symbol] = start
	}

	return s
}

// Step advances every symbol one tick and returns the current price map plus
// copies of the rolling histories.
func (s *Sim) Step(now time.Time) (map[string]float64, map[string][]models.PriceSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prices := make(map[string]float64, len(s.prices))
	history := make(map[string][]models.PriceSample, len(s.prices))

	for symbol, price := range s.prices {
		// Up to ±0.4% move per tick
		price *= 1 + (s.rng.Float64()-0.5)*0.008
		s.prices[symbol] = price

		buf := append(s.history[symbol], models.PriceSample{
			Price:     price,
			Timestamp: now.UnixMilli(),
		})
		if len(buf) > s.capacity {
			buf = buf[len(buf)-s.capacity:]
		}
		s.history[symbol] = buf

		prices[symbol] = price
		history[symbol] = append([]models.PriceSample(nil), buf...)
	}

	return prices, history
}

// Warmup pre-fills every symbol's history with n ticks so the engine can
// start deciding immediately.
func (s *Sim) Warmup(n int) {
	now := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		s.Step(now.Add(time.Duration(i) * time.Minute))
	}
}
