package calculator

import "errors"

// MACD holds the MACD line, its signal line and the histogram.
type MACD struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// signalWindow bounds how many trailing points feed the signal line.
const signalWindow = 50

// CalculateMACD computes MACD(fast, slow) on the full series.
//
// The signal line is the mean of the MACD line recomputed on every prefix
// of the series ending inside the trailing signalWindow points (prefixes
// shorter than slow are skipped). It is not a running EMA of the MACD line;
// signalPeriod is accepted for parity with the usual MACD(12,26,9) notation.
func CalculateMACD(prices []float64, fast, slow, signalPeriod int) (MACD, error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return MACD{}, errBadPeriod
	}
	if fast >= slow {
		return MACD{}, errors.New("fast period must be shorter than slow period")
	}
	if len(prices) < slow {
		return MACD{}, errors.New("not enough data for MACD calculation")
	}

	line, err := macdLine(prices, fast, slow)
	if err != nil {
		return MACD{}, err
	}

	start := len(prices) - signalWindow + 1
	if start < slow {
		start = slow
	}
	sum := 0.0
	count := 0
	for end := start; end <= len(prices); end++ {
		v, err := macdLine(prices[:end], fast, slow)
		if err != nil {
			return MACD{}, err
		}
		sum += v
		count++
	}
	signal := sum / float64(count)

	return MACD{Line: line, Signal: signal, Histogram: line - signal}, nil
}

func macdLine(prices []float64, fast, slow int) (float64, error) {
	fastEMA, err := CalculateEMA(prices, fast)
	if err != nil {
		return 0, err
	}
	slowEMA, err := CalculateEMA(prices, slow)
	if err != nil {
		return 0, err
	}
	return fastEMA - slowEMA, nil
}
