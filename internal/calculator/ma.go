package calculator

import (
	"errors"
	"math"

	"LevelScan/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the simple moving average of closing prices at every
// bar index. Positions before the warm-up window are NaN so chart code
// can leave them blank.
func SMASeries(bars []model.OHLCV, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	closes := extractCloses(bars)
	out := make([]float64, len(closes))
	for i := range closes {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		v, err := CalculateSMA(closes[:i+1], period)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
