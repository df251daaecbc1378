package calculator

import (
	"math"
	"testing"
	"time"

	"LevelScan/internal/model"
)

func closeBars(closes []float64) []model.OHLCV {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	sma, err := CalculateSMA(prices, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sma != 4 {
		t.Errorf("expected SMA 4, got %.2f", sma)
	}
}

func TestCalculateSMA_NotEnoughData(t *testing.T) {
	if _, err := CalculateSMA([]float64{1, 2}, 3); err == nil {
		t.Error("expected error for insufficient data")
	}
}

func TestSMASeries(t *testing.T) {
	bars := closeBars([]float64{1, 2, 3, 4, 5})
	out, err := SMASeries(bars, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 values, got %d", len(out))
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("expected NaN during warm-up at %d, got %.2f", i, out[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(out[i+2]-w) > 1e-9 {
			t.Errorf("expected %.2f at index %d, got %.2f", w, i+2, out[i+2])
		}
	}
}

func TestSMASeries_InvalidPeriod(t *testing.T) {
	if _, err := SMASeries(closeBars([]float64{1, 2, 3}), 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}

func TestTradingRange(t *testing.T) {
	bars := closeBars([]float64{10, 20, 30})
	for i := range bars {
		bars[i].High = bars[i].Close + 1
		bars[i].Low = bars[i].Close - 1
	}
	high, low, err := TradingRange(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 31 || low != 19 {
		t.Errorf("expected range [19, 31], got [%.0f, %.0f]", low, high)
	}

	pos, err := RangePosition(25, high, low)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos != 0.5 {
		t.Errorf("expected position 0.5, got %.2f", pos)
	}
}
