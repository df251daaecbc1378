package collector

import (
	"errors"
	"time"

	"LevelScan/internal/model"
)

// ErrDataUnavailable indicates the data source has no data for the
// requested symbol or date range. Callers skip the symbol rather than
// treating this as a fatal failure.
var ErrDataUnavailable = errors.New("data unavailable")

// Fetcher defines the interface for fetching historical market data.
// Implementations return daily bars ordered ascending by time.
type Fetcher interface {
	FetchDailyBars(symbol string, from, to time.Time) ([]model.OHLCV, error)
	Name() string
}
