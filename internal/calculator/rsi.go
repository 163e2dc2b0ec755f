package calculator

import "errors"

// CalculateRSI computes the RSI from simple averages of the last period
// close-to-close changes. Requires at least period+1 prices.
// A window with no losses yields exactly 100.
func CalculateRSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(prices) < period+1 {
		return 0, errors.New("not enough data for RSI calculation")
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change // make positive
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
