package levels

import (
	"errors"
	"fmt"

	"LevelScan/internal/model"
)

// ErrInvalidParameter reports malformed detector or filter parameters.
var ErrInvalidParameter = errors.New("invalid parameter")

// Detect scans the bar series for local extrema that qualify as level
// candidates. A bar's low is a support candidate when it is the minimum
// low within `window` bars to each side; a bar's high is a resistance
// candidate when it is the maximum high within the same span. Ties all
// qualify; duplicates at the same price are merged later by the filter.
//
// Bars without a full window on both sides are never candidates. A
// series shorter than 2*window+1 bars yields no candidates and no error.
func Detect(bars []model.OHLCV, window int) ([]model.Candidate, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidParameter, window)
	}
	if len(bars) < 2*window+1 {
		return nil, nil
	}

	var cands []model.Candidate
	for i := window; i <= len(bars)-1-window; i++ {
		isSupport, isResistance := true, true
		for j := i - window; j <= i+window; j++ {
			if bars[j].Low < bars[i].Low {
				isSupport = false
			}
			if bars[j].High > bars[i].High {
				isResistance = false
			}
			if !isSupport && !isResistance {
				break
			}
		}
		if isSupport {
			cands = append(cands, model.Candidate{
				Kind:  model.Support,
				Index: i,
				Time:  bars[i].Time,
				Price: bars[i].Low,
			})
		}
		if isResistance {
			cands = append(cands, model.Candidate{
				Kind:  model.Resistance,
				Index: i,
				Time:  bars[i].Time,
				Price: bars[i].High,
			})
		}
	}
	return cands, nil
}
