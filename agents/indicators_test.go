package agents

import (
	"math"
	"testing"
	"time"

	"stock-researcher/models"

	"github.com/shopspring/decimal"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func dayBar(t time.Time, open, high, low, closePrice float64, volume int64) models.Bar {
	return models.Bar{
		Symbol:    "TEST",
		Timestamp: t,
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(closePrice),
		Volume:    volume,
	}
}

func TestResampleWeekly(t *testing.T) {
	// Mon 2024-01-01 through Wed 2024-01-10, spanning two ISO weeks
	mon1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		dayBar(mon1, 10, 12, 9, 11, 100),
		dayBar(mon1.AddDate(0, 0, 1), 11, 15, 10, 14, 200),
		dayBar(mon1.AddDate(0, 0, 4), 14, 14.5, 8, 9, 300), // Friday
		dayBar(mon1.AddDate(0, 0, 7), 9, 10, 8.5, 9.5, 150),
		dayBar(mon1.AddDate(0, 0, 9), 9.5, 11, 9, 10.5, 250),
	}

	weekly := ResampleWeekly(bars)
	if len(weekly) != 2 {
		t.Fatalf("expected 2 weekly candles, got %d", len(weekly))
	}

	first := weekly[0]
	if first.Open != 10 {
		t.Errorf("week 1 open = %v, want 10 (first day's open)", first.Open)
	}
	if first.High != 15 {
		t.Errorf("week 1 high = %v, want 15", first.High)
	}
	if first.Low != 8 {
		t.Errorf("week 1 low = %v, want 8", first.Low)
	}
	if first.Close != 9 {
		t.Errorf("week 1 close = %v, want 9 (last day's close)", first.Close)
	}
	if first.Volume != 600 {
		t.Errorf("week 1 volume = %v, want 600", first.Volume)
	}
	// Keyed on the week's last trading day
	if !first.Time.Equal(mon1.AddDate(0, 0, 4)) {
		t.Errorf("week 1 time = %v, want the Friday", first.Time)
	}

	second := weekly[1]
	if second.Open != 9 || second.Close != 10.5 || second.Volume != 400 {
		t.Errorf("week 2 = %+v, want open 9 close 10.5 volume 400", second)
	}
}

func TestResampleWeekly_Empty(t *testing.T) {
	if got := ResampleWeekly(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   float64
	}{
		{"simple average", []float64{1, 2, 3, 4}, 4, 2.5},
		{"uses only last period values", []float64{100, 1, 2, 3}, 3, 2},
		{"insufficient data", []float64{1, 2}, 3, 0},
		{"zero period", []float64{1, 2, 3}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.values, tt.period); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("SMA = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEMA(t *testing.T) {
	// Seeded with the first value, no startup smoothing adjustment
	ema := EMA([]float64{2, 4}, 2)
	if len(ema) != 2 {
		t.Fatalf("expected 2 values, got %d", len(ema))
	}
	if ema[0] != 2 {
		t.Errorf("ema[0] = %v, want the first input value", ema[0])
	}
	// multiplier = 2/3: (4-2)*2/3 + 2 = 3.333...
	if !almostEqual(ema[1], 10.0/3.0, 1e-9) {
		t.Errorf("ema[1] = %v, want %v", ema[1], 10.0/3.0)
	}
}

func TestEMA_ConstantSeries(t *testing.T) {
	ema := EMA([]float64{5, 5, 5, 5, 5}, 3)
	for i, v := range ema {
		if v != 5 {
			t.Errorf("ema[%d] = %v, want 5", i, v)
		}
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   float64
	}{
		{"all gains", []float64{1, 2, 3, 4, 5}, 4, 100},
		{"insufficient data is neutral", []float64{1, 2}, 14, 50},
		{"mixed", []float64{1, 1, 2, 3, 2, 3}, 3, 100 - 100/(1+2.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RSI(tt.values, tt.period); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("RSI = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMACD_ConstantSeries(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 42
	}
	macd, signal := MACD(values)
	if !almostEqual(macd, 0, 1e-9) || !almostEqual(signal, 0, 1e-9) {
		t.Errorf("MACD of a constant series = (%v, %v), want (0, 0)", macd, signal)
	}
}

func TestMACD_RisingSeriesIsPositive(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = float64(i + 1)
	}
	macd, signal := MACD(values)
	if macd <= 0 {
		t.Errorf("MACD of a steadily rising series = %v, want > 0", macd)
	}
	if signal <= 0 {
		t.Errorf("signal = %v, want > 0", signal)
	}
}

func TestStochastic(t *testing.T) {
	// 14 candles rising steadily; latest close equals the window high
	candles := make([]models.Candle, 14)
	for i := range candles {
		price := float64(i + 1)
		candles[i] = models.Candle{High: price + 0.5, Low: price - 0.5, Close: price}
	}
	k, d := Stochastic(candles, 14)
	want := 100.0 * (14.0 - 0.5) / (14.0 + 0.5 - 0.5 - 0.5)
	if !almostEqual(k, want, 1e-9) {
		t.Errorf("%%K = %v, want %v", k, want)
	}
	if d != k {
		t.Errorf("%%D with a single %%K value = %v, want %v", d, k)
	}
}

func TestStochastic_FlatWindowIsNeutral(t *testing.T) {
	candles := make([]models.Candle, 14)
	for i := range candles {
		candles[i] = models.Candle{High: 10, Low: 10, Close: 10}
	}
	k, d := Stochastic(candles, 14)
	if k != 50 || d != 50 {
		t.Errorf("flat window stochastic = (%v, %v), want (50, 50)", k, d)
	}
}

func TestStochastic_InsufficientData(t *testing.T) {
	k, d := Stochastic([]models.Candle{{Close: 1}}, 14)
	if k != 50 || d != 50 {
		t.Errorf("insufficient data stochastic = (%v, %v), want (50, 50)", k, d)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name                string
		price, sma20, sma50 float64
		want                string
	}{
		{"strong uptrend", 110, 105, 100, TrendStrongUptrend},
		{"strong downtrend", 90, 95, 100, TrendStrongDowntrend},
		{"price between averages", 102, 105, 100, TrendConsolidating},
		{"averages inverted", 110, 100, 105, TrendConsolidating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.price, tt.sma20, tt.sma50); got != tt.want {
				t.Errorf("ClassifyTrend = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyStochastic(t *testing.T) {
	tests := []struct {
		name string
		k, d float64
		want string
	}{
		{"bullish crossover oversold", 15, 10, StochBullishCrossover},
		{"bearish crossover overbought", 85, 90, StochBearishCrossover},
		{"bullish momentum", 60, 50, StochBullishMomentum},
		{"bearish momentum", 40, 50, StochBearishMomentum},
		{"equal is bearish momentum", 50, 50, StochBearishMomentum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStochastic(tt.k, tt.d); got != tt.want {
				t.Errorf("ClassifyStochastic = %q, want %q", got, tt.want)
			}
		})
	}
}
