package store

import (
	"time"

	"LevelScan/internal/model"
)

// ScanParams records the parameters a scan ran with.
type ScanParams struct {
	Window     int
	Tolerance  float64
	MinTouches int
	MinGapDays int
}

// Store persists fetched bars and completed scans. Bars act as a
// day-cache: once a symbol's data includes today's bar, the data source
// is not contacted again until tomorrow.
type Store interface {
	UpsertBars(symbol string, bars []model.OHLCV) error
	LoadBars(symbol string, from, to time.Time) ([]model.OHLCV, error)
	LastBarTime(symbol string) (time.Time, bool, error)
	RecordScan(a *model.Analysis, params ScanParams) error
	Close() error
}
