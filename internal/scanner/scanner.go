package scanner

import (
	"fmt"
	"log"
	"time"

	"LevelScan/internal/collector"
	"LevelScan/internal/levels"
	"LevelScan/internal/model"
	"LevelScan/internal/store"
)

// Params holds the detection and filtering thresholds for a scan.
type Params struct {
	Window     int
	Tolerance  float64
	MinTouches int
	MinGapDays int
}

// Scanner runs the fetch -> detect -> filter -> annotate pipeline for
// one symbol at a time.
type Scanner struct {
	Collector *collector.Collector
	Store     store.Store
	Params    Params
}

// NewScanner creates a new Scanner.
func NewScanner(col *collector.Collector, st store.Store, params Params) *Scanner {
	if st == nil {
		st = store.NewNoopStore()
	}
	return &Scanner{Collector: col, Store: st, Params: params}
}

// Scan analyzes one symbol and records the result.
func (s *Scanner) Scan(symbol string) (*model.Analysis, error) {
	series, err := s.Collector.Collect(symbol)
	if err != nil {
		return nil, err
	}

	cands, err := levels.Detect(series.Bars, s.Params.Window)
	if err != nil {
		return nil, fmt.Errorf("detect levels for %s: %w", symbol, err)
	}

	opts := levels.FilterOptions{
		Tolerance:  s.Params.Tolerance,
		MinTouches: s.Params.MinTouches,
		MinGapDays: s.Params.MinGapDays,
	}
	confirmed, err := levels.Filter(cands, opts)
	if err != nil {
		return nil, fmt.Errorf("filter levels for %s: %w", symbol, err)
	}

	confirmed, err = levels.Annotate(confirmed, series.Bars, s.Params.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("annotate levels for %s: %w", symbol, err)
	}

	a := &model.Analysis{
		Symbol:    symbol,
		Series:    series,
		ScannedAt: time.Now(),
	}
	for _, lvl := range confirmed {
		switch lvl.Kind {
		case model.Support:
			a.Supports = append(a.Supports, lvl)
		case model.Resistance:
			a.Resistances = append(a.Resistances, lvl)
		}
	}

	a.FinalSupport = finalLevel(a.Supports)
	a.FinalResistance = finalLevel(a.Resistances)
	if a.FinalSupport != nil && a.FinalResistance != nil {
		a.RangeBound = true
		a.RangeWidth = a.FinalResistance.Price - a.FinalSupport.Price
	}

	if err := s.Store.RecordScan(a, store.ScanParams(s.Params)); err != nil {
		log.Printf("[WARN] record scan for %s: %v", symbol, err)
	}

	return a, nil
}

// ScanAll analyzes the given symbols sequentially and independently. A
// symbol whose data is unavailable is logged and skipped; the others
// proceed.
func (s *Scanner) ScanAll(symbols []string) []*model.Analysis {
	var results []*model.Analysis
	for _, symbol := range symbols {
		a, err := s.Scan(symbol)
		if err != nil {
			log.Printf("[WARN] scan %s failed: %v", symbol, err)
			continue
		}
		results = append(results, a)
	}
	return results
}

// finalLevel returns the unbreached level with the highest mean price,
// nil when every level of the kind has been breached.
func finalLevel(lvls []model.Level) *model.Level {
	var final *model.Level
	for i := range lvls {
		if lvls[i].Breached {
			continue
		}
		if final == nil || lvls[i].Price > final.Price {
			final = &lvls[i]
		}
	}
	return final
}
