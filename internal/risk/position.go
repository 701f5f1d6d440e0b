package risk

import "math"

// PositionSize determines the buy quantity for a decision. The risked share
// of cash scales with the decision's confidence and the resulting quantity
// is truncated to 2 decimal places.
func PositionSize(cash, price, confidence float64) float64 {
	if price <= 0 || cash <= 0 {
		return 0
	}

	riskPercent := 0.02 + confidence*0.03
	riskAmount := cash * riskPercent

	return math.Floor(riskAmount/price*100) / 100
}
