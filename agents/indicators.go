package agents

import (
	"stock-researcher/models"
)

// Trend classifications produced by ClassifyTrend.
const (
	TrendStrongUptrend   = "strong uptrend"
	TrendStrongDowntrend = "strong downtrend"
	TrendConsolidating   = "consolidating"
)

// Stochastic signal classifications produced by ClassifyStochastic.
const (
	StochBullishCrossover = "bullish crossover (oversold)"
	StochBearishCrossover = "bearish crossover (overbought)"
	StochBullishMomentum  = "bullish momentum"
	StochBearishMomentum  = "bearish momentum"
)

// ResampleWeekly aggregates daily bars into weekly candles keyed on each
// week's last trading day: open=first, high=max, low=min, close=last,
// volume=sum. Bars are assumed to be in ascending time order.
func ResampleWeekly(bars []models.Bar) []models.Candle {
	if len(bars) == 0 {
		return nil
	}

	weekly := make([]models.Candle, 0, len(bars)/5+1)
	var current models.Candle
	var haveWeek bool
	var currentYear, currentWeek int

	for _, bar := range bars {
		year, week := bar.Timestamp.ISOWeek()
		open := bar.Open.InexactFloat64()
		high := bar.High.InexactFloat64()
		low := bar.Low.InexactFloat64()
		closePrice := bar.Close.InexactFloat64()

		if !haveWeek || year != currentYear || week != currentWeek {
			if haveWeek {
				weekly = append(weekly, current)
			}
			current = models.Candle{
				Time:   bar.Timestamp,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePrice,
				Volume: bar.Volume,
			}
			currentYear, currentWeek = year, week
			haveWeek = true
			continue
		}

		if high > current.High {
			current.High = high
		}
		if low < current.Low {
			current.Low = low
		}
		current.Close = closePrice
		current.Time = bar.Timestamp
		current.Volume += bar.Volume
	}
	weekly = append(weekly, current)

	return weekly
}

// SMA returns the simple moving average of the last period values, or 0
// when there is not enough data.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// EMA returns the full exponential moving average series. The series is
// seeded with the first value and carries no smoothing adjustment, so
// early values weight recent data the same way later ones do.
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	ema := make([]float64, len(values))
	ema[0] = values[0]
	for i := 1; i < len(values); i++ {
		ema[i] = (values[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// RSI computes the relative strength index over the last period deltas
// using rolling-mean gains and losses. Returns 50 (neutral) when there is
// not enough data and 100 when there are no losses in the window.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := len(values) - period; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// MACD computes the 12-26 EMA difference and its 9-period EMA signal line,
// returning the latest value of each.
func MACD(values []float64) (macd, signal float64) {
	if len(values) == 0 {
		return 0, 0
	}

	ema12 := EMA(values, 12)
	ema26 := EMA(values, 26)

	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = ema12[i] - ema26[i]
	}
	signalLine := EMA(macdLine, 9)

	return macdLine[len(macdLine)-1], signalLine[len(signalLine)-1]
}

// Stochastic computes the fast %K over the last period candles and %D as
// the 3-period simple moving average of the %K series.
func Stochastic(candles []models.Candle, period int) (k, d float64) {
	if period <= 0 || len(candles) < period {
		return 50.0, 50.0
	}

	kSeries := make([]float64, 0, len(candles)-period+1)
	for end := period; end <= len(candles); end++ {
		window := candles[end-period : end]
		high, low := window[0].High, window[0].Low
		for _, c := range window[1:] {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
		}

		closePrice := window[len(window)-1].Close
		if high == low {
			kSeries = append(kSeries, 50.0)
			continue
		}
		kSeries = append(kSeries, 100.0*(closePrice-low)/(high-low))
	}

	k = kSeries[len(kSeries)-1]
	d = SMA(kSeries, 3)
	if len(kSeries) < 3 {
		d = k
	}
	return k, d
}

// ClassifyTrend compares the latest close against the 20- and 50-period
// moving averages.
func ClassifyTrend(price, sma20, sma50 float64) string {
	switch {
	case price > sma20 && sma20 > sma50:
		return TrendStrongUptrend
	case price < sma20 && sma20 < sma50:
		return TrendStrongDowntrend
	default:
		return TrendConsolidating
	}
}

// ClassifyStochastic labels the %K/%D relationship, flagging crossovers
// in the oversold (<20) and overbought (>80) zones.
func ClassifyStochastic(k, d float64) string {
	switch {
	case k > d && k < 20:
		return StochBullishCrossover
	case k < d && k > 80:
		return StochBearishCrossover
	case k > d:
		return StochBullishMomentum
	default:
		return StochBearishMomentum
	}
}
