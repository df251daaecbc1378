package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds raw price data for analysis. Bars are ordered
// ascending by time and are never modified after fetching.
type PriceSeries struct {
	Symbol       string
	Bars         []OHLCV
	CurrentPrice float64
	FetchedAt    time.Time
}
