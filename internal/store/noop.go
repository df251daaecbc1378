package store

import (
	"time"

	"LevelScan/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
// Every fetch goes straight to the data source and no history is kept.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) UpsertBars(_ string, _ []model.OHLCV) error { return nil }
func (n *NoopStore) LoadBars(_ string, _, _ time.Time) ([]model.OHLCV, error) {
	return nil, nil
}
func (n *NoopStore) LastBarTime(_ string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
func (n *NoopStore) RecordScan(_ *model.Analysis, _ ScanParams) error { return nil }
func (n *NoopStore) Close() error                                     { return nil }
