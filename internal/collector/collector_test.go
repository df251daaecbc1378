package collector

import (
	"testing"
	"time"

	"LevelScan/internal/model"
	"LevelScan/internal/store"
)

// fakeStore reports a configurable newest cached bar and counts cache
// traffic.
type fakeStore struct {
	store.NoopStore
	last      time.Time
	hasBars   bool
	cached    []model.OHLCV
	loadCalls int
	upserts   int
}

func (f *fakeStore) LastBarTime(_ string) (time.Time, bool, error) {
	return f.last, f.hasBars, nil
}

func (f *fakeStore) LoadBars(_ string, _, _ time.Time) ([]model.OHLCV, error) {
	f.loadCalls++
	return f.cached, nil
}

func (f *fakeStore) UpsertBars(_ string, _ []model.OHLCV) error {
	f.upserts++
	return nil
}

// countingFetcher counts how often the data source is contacted.
type countingFetcher struct {
	bars  []model.OHLCV
	calls int
}

func (c *countingFetcher) Name() string { return "counting" }

func (c *countingFetcher) FetchDailyBars(_ string, _, _ time.Time) ([]model.OHLCV, error) {
	c.calls++
	return c.bars, nil
}

func recentBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	now := time.Now()
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = model.OHLCV{
			Time:   now.AddDate(0, 0, i-n+1),
			Open:   p,
			High:   p + 1,
			Low:    p - 1,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

func TestCollect_ServesFreshCacheWithoutFetching(t *testing.T) {
	bars := recentBars(5)
	st := &fakeStore{
		last:    bars[len(bars)-1].Time, // today
		hasBars: true,
		cached:  bars,
	}
	fetcher := &countingFetcher{bars: bars}
	col := NewCollector(fetcher, st, 1)

	series, err := col.Collect("TEST")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("expected no data source calls with a fresh cache, got %d", fetcher.calls)
	}
	if st.loadCalls != 1 {
		t.Errorf("expected 1 cache read, got %d", st.loadCalls)
	}
	if st.upserts != 0 {
		t.Errorf("expected no cache writes, got %d", st.upserts)
	}
	if len(series.Bars) != 5 {
		t.Errorf("expected 5 cached bars, got %d", len(series.Bars))
	}
}

func TestCollect_StaleCacheFetchesAndUpserts(t *testing.T) {
	bars := recentBars(5)
	st := &fakeStore{
		last:    time.Now().AddDate(0, 0, -1), // yesterday
		hasBars: true,
		cached:  bars[:4],
	}
	fetcher := &countingFetcher{bars: bars}
	col := NewCollector(fetcher, st, 1)

	series, err := col.Collect("TEST")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 data source call for a stale cache, got %d", fetcher.calls)
	}
	if st.loadCalls != 0 {
		t.Errorf("expected no cache read for a stale cache, got %d", st.loadCalls)
	}
	if st.upserts != 1 {
		t.Errorf("expected fetched bars to be upserted once, got %d", st.upserts)
	}
	if len(series.Bars) != 5 {
		t.Errorf("expected 5 fetched bars, got %d", len(series.Bars))
	}
}

func TestCollect_EmptyCacheFetches(t *testing.T) {
	bars := recentBars(3)
	st := &fakeStore{}
	fetcher := &countingFetcher{bars: bars}
	col := NewCollector(fetcher, st, 1)

	if _, err := col.Collect("TEST"); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 data source call with an empty cache, got %d", fetcher.calls)
	}
	if st.upserts != 1 {
		t.Errorf("expected fetched bars to be upserted, got %d", st.upserts)
	}
}
