package levels

import (
	"fmt"

	"LevelScan/internal/model"
)

// Annotate checks each level against the full bar series and returns
// only the levels that actually held.
//
// A level is discarded when, between its first and last touch, any
// close crossed the level by more than tolerance*price: the market
// never respected it, so it was noise rather than a barrier. A level
// that held is marked breached when a close after the last touch
// crossed it by more than the same margin; BreachTime records the first
// such close.
func Annotate(lvls []model.Level, bars []model.OHLCV, tolerance float64) ([]model.Level, error) {
	if tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrInvalidParameter, tolerance)
	}

	var out []model.Level
	for _, lvl := range lvls {
		if len(lvl.Touches) == 0 {
			continue
		}
		band := lvl.Price * tolerance
		first, last := lvl.FirstTouch(), lvl.LastTouch()

		held := true
		for _, b := range bars {
			if b.Time.Before(first) || b.Time.After(last) {
				continue
			}
			if crossed(lvl.Kind, lvl.Price, band, b.Close) {
				held = false
				break
			}
		}
		if !held {
			continue
		}

		for _, b := range bars {
			if !b.Time.After(last) {
				continue
			}
			if crossed(lvl.Kind, lvl.Price, band, b.Close) {
				lvl.Breached = true
				lvl.BreachTime = b.Time
				break
			}
		}
		out = append(out, lvl)
	}
	return out, nil
}

func crossed(kind model.LevelKind, price, band, c float64) bool {
	if kind == model.Support {
		return c < price-band
	}
	return c > price+band
}
