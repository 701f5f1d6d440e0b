package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionSize(t *testing.T) {
	tests := []struct {
		name       string
		cash       float64
		price      float64
		confidence float64
		expected   float64
	}{
		{
			name:       "high confidence risks more",
			cash:       10000,
			price:      100,
			confidence: 0.9,
			expected:   4.7, // 10000 * (0.02 + 0.9*0.03) / 100
		},
		{
			name:       "truncates to two decimals",
			cash:       100,
			price:      10,
			confidence: 0.75,
			expected:   0.42, // 100 * 0.0425 / 10 = 0.425
		},
		{
			name:       "zero price yields zero",
			cash:       10000,
			price:      0,
			confidence: 0.9,
			expected:   0,
		},
		{
			name:       "no cash yields zero",
			cash:       0,
			price:      100,
			confidence: 0.9,
			expected:   0,
		},
		{
			name:       "tiny cash truncates to zero",
			cash:       10,
			price:      100,
			confidence: 0.7,
			expected:   0, // 10 * 0.041 / 100 = 0.0041
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PositionSize(tt.cash, tt.price, tt.confidence)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}
