package model

import "time"

// LevelKind distinguishes price floors from price ceilings.
type LevelKind string

const (
	Support    LevelKind = "SUPPORT"
	Resistance LevelKind = "RESISTANCE"
)

// Candidate is a local extremum that may belong to a support or
// resistance level. Candidates only live between the detector and the
// filter.
type Candidate struct {
	Kind  LevelKind
	Index int
	Time  time.Time
	Price float64
}

// Touch is one retained test of a confirmed level.
type Touch struct {
	Index int
	Time  time.Time
	Price float64
}

// Level is a confirmed support or resistance level. Price is the mean
// of the retained touch prices. Touches are ordered by index.
type Level struct {
	Kind       LevelKind
	Price      float64
	Touches    []Touch
	Breached   bool
	BreachTime time.Time
}

// TouchCount returns the number of retained touches.
func (l *Level) TouchCount() int { return len(l.Touches) }

// TouchIndices returns the bar indices of the touches, strictly increasing.
func (l *Level) TouchIndices() []int {
	idx := make([]int, len(l.Touches))
	for i, t := range l.Touches {
		idx[i] = t.Index
	}
	return idx
}

// FirstTouch returns the time of the earliest touch, or the zero time
// when the level has no touches.
func (l *Level) FirstTouch() time.Time {
	if len(l.Touches) == 0 {
		return time.Time{}
	}
	return l.Touches[0].Time
}

// LastTouch returns the time of the most recent touch, or the zero time
// when the level has no touches.
func (l *Level) LastTouch() time.Time {
	if len(l.Touches) == 0 {
		return time.Time{}
	}
	return l.Touches[len(l.Touches)-1].Time
}

// Analysis is the full result of scanning one symbol.
//
// FinalSupport and FinalResistance are the unbreached levels with the
// highest mean price of their kind, nil when no unbreached level of
// that kind exists. When both are present the stock is range-bound and
// RangeWidth is the distance between them.
type Analysis struct {
	Symbol          string
	Series          *PriceSeries
	Supports        []Level
	Resistances     []Level
	FinalSupport    *Level
	FinalResistance *Level
	RangeBound      bool
	RangeWidth      float64
	ScannedAt       time.Time
}
