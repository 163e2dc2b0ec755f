package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorSnapshot holds the technical indicators computed for one series.
// Optional values are None when the series is too short for that window.
type IndicatorSnapshot struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`

	SMA20 optional.Option[float64] `json:"sma20"`
	SMA50 optional.Option[float64] `json:"sma50"`
	EMA12 optional.Option[float64] `json:"ema12"`
	EMA26 optional.Option[float64] `json:"ema26"`
	RSI14 optional.Option[float64] `json:"rsi14"`

	MACDLine      optional.Option[float64] `json:"macd_line"`
	MACDSignal    optional.Option[float64] `json:"macd_signal"`
	MACDHistogram optional.Option[float64] `json:"macd_histogram"`

	BollingerUpper  optional.Option[float64] `json:"bollinger_upper"`
	BollingerMiddle optional.Option[float64] `json:"bollinger_middle"`
	BollingerLower  optional.Option[float64] `json:"bollinger_lower"`

	CurrentPrice float64 `json:"current_price"`
}

// BollingerWidthRatio returns (upper-lower)/middle when the bands are present.
func (s IndicatorSnapshot) BollingerWidthRatio() optional.Option[float64] {
	if s.BollingerUpper.IsNone() || s.BollingerMiddle.IsNone() || s.BollingerLower.IsNone() {
		return optional.None[float64]()
	}
	middle := s.BollingerMiddle.Unwrap()
	if middle == 0 {
		return optional.None[float64]()
	}
	return optional.Some((s.BollingerUpper.Unwrap() - s.BollingerLower.Unwrap()) / middle)
}
