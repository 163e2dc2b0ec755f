package calculator

import "errors"

var (
	errBadPeriod   = errors.New("period must be positive")
	errNotEnoughMA = errors.New("not enough data for moving average")
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(prices) < period {
		return 0, errNotEnoughMA
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA computes the exponential moving average over the whole series.
// The average is seeded with the first price and smoothed with 2/(period+1),
// so the result depends on the full history, not only the last period points.
func CalculateEMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(prices) < period {
		return 0, errNotEnoughMA
	}
	mult := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*mult + ema*(1-mult)
	}
	return ema, nil
}
