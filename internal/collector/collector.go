package collector

import (
	"fmt"
	"log"
	"time"

	"LevelScan/internal/model"
	"LevelScan/internal/store"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ string, from, to time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		var bars []model.OHLCV
		for _, b := range m.Bars {
			if b.Time.Before(from) || b.Time.After(to) {
				continue
			}
			bars = append(bars, b)
		}
		return bars, nil
	}
	days := int(to.Sub(from).Hours()/24) + 1
	return GenerateMockBars(m.Price, days, from), nil
}

// GenerateMockBars builds a synthetic ascending series around basePrice.
func GenerateMockBars(basePrice float64, count int, start time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches a symbol's history, serving from the bar cache when
// the cached data already includes today's bar and refreshing it
// otherwise.
type Collector struct {
	Fetcher Fetcher
	Store   store.Store
	Years   float64
}

// NewCollector creates a new Collector. years is the amount of history
// to fetch; fractional values are allowed.
func NewCollector(fetcher Fetcher, st store.Store, years float64) *Collector {
	if st == nil {
		st = store.NewNoopStore()
	}
	if years <= 0 {
		years = 1
	}
	return &Collector{Fetcher: fetcher, Store: st, Years: years}
}

// Collect returns the price series for one symbol.
func (c *Collector) Collect(symbol string) (*model.PriceSeries, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -int(c.Years*365))

	bars, err := c.cachedBars(symbol, from, now)
	if err != nil {
		log.Printf("[WARN] bar cache read failed for %s: %v, fetching fresh", symbol, err)
		bars = nil
	}

	if bars == nil {
		bars, err = c.Fetcher.FetchDailyBars(symbol, from, now)
		if err != nil {
			return nil, fmt.Errorf("fetch daily bars for %s: %w", symbol, err)
		}
		if err := c.Store.UpsertBars(symbol, bars); err != nil {
			log.Printf("[WARN] bar cache write failed for %s: %v", symbol, err)
		}
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty series for %s", ErrDataUnavailable, symbol)
	}

	return &model.PriceSeries{
		Symbol:       symbol,
		Bars:         bars,
		CurrentPrice: bars[len(bars)-1].Close,
		FetchedAt:    now,
	}, nil
}

// cachedBars returns cached bars when the cache is fresh (its newest
// bar is from today), nil when the data source must be consulted.
func (c *Collector) cachedBars(symbol string, from, to time.Time) ([]model.OHLCV, error) {
	last, ok, err := c.Store.LastBarTime(symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	y1, m1, d1 := last.Date()
	y2, m2, d2 := to.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return nil, nil
	}
	return c.Store.LoadBars(symbol, from, to)
}
