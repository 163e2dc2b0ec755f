package calculator

import "math"

// Bands is a Bollinger envelope around a simple moving average.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// CalculateBollinger computes Bollinger bands over the last period prices
// using the population standard deviation.
func CalculateBollinger(prices []float64, period int, k float64) (Bands, error) {
	middle, err := CalculateSMA(prices, period)
	if err != nil {
		return Bands{}, err
	}
	variance := 0.0
	for _, p := range prices[len(prices)-period:] {
		variance += (p - middle) * (p - middle)
	}
	variance /= float64(period)
	band := k * math.Sqrt(variance)
	return Bands{Upper: middle + band, Middle: middle, Lower: middle - band}, nil
}
