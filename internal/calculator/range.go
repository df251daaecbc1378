package calculator

import (
	"errors"
	"math"

	"LevelScan/internal/model"
)

// TradingRange scans the most recent `days` bars and returns the high and low.
func TradingRange(bars []model.OHLCV, days int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if days <= 0 {
		return 0, 0, errors.New("days must be positive")
	}
	start := len(bars) - days
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// RangePosition returns where price sits within [low, high], clamped to 0.0~1.0.
func RangePosition(price, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
