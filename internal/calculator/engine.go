package calculator

import (
	"github.com/moznion/go-optional"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

// Indicator windows.
const (
	PeriodSMAFast   = 20
	PeriodSMASlow   = 50
	PeriodEMAFast   = 12
	PeriodEMASlow   = 26
	PeriodRSI       = 14
	PeriodMACDSig   = 9
	PeriodBollinger = 20
	BollingerK      = 2.0
)

// Compute builds the indicator snapshot for an ordered (oldest first) bar series.
// Series shorter than cfg.MinHistoryBars fail with an InsufficientDataError.
// Indicators whose own window is not covered are left as None.
func Compute(ticker string, bars []model.PriceBar, cfg config.Engine) (model.IndicatorSnapshot, error) {
	if len(bars) == 0 {
		return model.IndicatorSnapshot{}, errors.Newf(errors.ErrCodeNoData, "no price bars for %s", ticker)
	}
	if len(bars) < cfg.MinHistoryBars {
		return model.IndicatorSnapshot{}, errors.NewInsufficientDataError(cfg.MinHistoryBars, len(bars), ticker)
	}

	closes := model.Closes(bars)
	snap := model.IndicatorSnapshot{
		Ticker:       ticker,
		Timestamp:    bars[len(bars)-1].Time,
		CurrentPrice: closes[len(closes)-1],
	}

	snap.SMA20 = toOption(CalculateSMA(closes, PeriodSMAFast))
	snap.SMA50 = toOption(CalculateSMA(closes, PeriodSMASlow))
	snap.EMA12 = toOption(CalculateEMA(closes, PeriodEMAFast))
	snap.EMA26 = toOption(CalculateEMA(closes, PeriodEMASlow))
	snap.RSI14 = toOption(CalculateRSI(closes, PeriodRSI))

	if m, err := CalculateMACD(closes, PeriodEMAFast, PeriodEMASlow, PeriodMACDSig); err == nil {
		snap.MACDLine = optional.Some(m.Line)
		snap.MACDSignal = optional.Some(m.Signal)
		snap.MACDHistogram = optional.Some(m.Histogram)
	}

	if b, err := CalculateBollinger(closes, PeriodBollinger, BollingerK); err == nil {
		snap.BollingerUpper = optional.Some(b.Upper)
		snap.BollingerMiddle = optional.Some(b.Middle)
		snap.BollingerLower = optional.Some(b.Lower)
	}

	return snap, nil
}

func toOption(v float64, err error) optional.Option[float64] {
	if err != nil {
		return optional.None[float64]()
	}
	return optional.Some(v)
}
