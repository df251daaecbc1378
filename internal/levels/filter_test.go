package levels

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"LevelScan/internal/model"
)

func cand(kind model.LevelKind, index int, price float64) model.Candidate {
	return model.Candidate{
		Kind:  kind,
		Index: index,
		Time:  day0.AddDate(0, 0, index),
		Price: price,
	}
}

func TestFilter_InvalidParams(t *testing.T) {
	cs := []model.Candidate{cand(model.Support, 0, 100)}
	cases := []FilterOptions{
		{Tolerance: -0.01, MinTouches: 3, MinGapDays: 3},
		{Tolerance: 0.01, MinTouches: 0, MinGapDays: 3},
		{Tolerance: 0.01, MinTouches: 3, MinGapDays: -1},
	}
	for _, opts := range cases {
		if _, err := Filter(cs, opts); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("opts %+v: expected ErrInvalidParameter, got %v", opts, err)
		}
	}
}

// Double bottom: two lows near 100 ten days apart in a 21-day series.
func doubleBottomBars() []model.OHLCV {
	lows := []float64{
		106, 105, 104, 103, 102, 100, 102, 103, 104, 105,
		106, 105, 104, 103, 102, 100.5, 102, 103, 104, 105,
		106,
	}
	return barsFromLows(lows)
}

func TestFilter_DoubleBottom(t *testing.T) {
	cands, err := Detect(doubleBottomBars(), 3)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(supportsOf(cands)) != 2 {
		t.Fatalf("expected 2 support candidates, got %d", len(supportsOf(cands)))
	}

	lvls, err := Filter(cands, FilterOptions{Tolerance: 0.01, MinTouches: 2, MinGapDays: 5})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(lvls) != 1 {
		t.Fatalf("expected 1 level, got %d", len(lvls))
	}
	lvl := lvls[0]
	if lvl.Kind != model.Support {
		t.Errorf("expected support, got %s", lvl.Kind)
	}
	if lvl.TouchCount() != 2 {
		t.Errorf("expected 2 touches, got %d", lvl.TouchCount())
	}
	if math.Abs(lvl.Price-100.25) > 1e-9 {
		t.Errorf("expected mean price 100.25, got %.4f", lvl.Price)
	}
}

func TestFilter_MinTouchesRejectsDoubleBottom(t *testing.T) {
	cands, _ := Detect(doubleBottomBars(), 3)
	lvls, err := Filter(cands, FilterOptions{Tolerance: 0.01, MinTouches: 3, MinGapDays: 5})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(lvls) != 0 {
		t.Fatalf("expected no levels with min touches 3, got %d", len(lvls))
	}
}

func TestFilter_GapDiscardsSameSwing(t *testing.T) {
	// Two touches two days apart are one swing, not two tests of the level.
	cs := []model.Candidate{
		cand(model.Support, 0, 100),
		cand(model.Support, 2, 100.1),
	}
	lvls, err := Filter(cs, FilterOptions{Tolerance: 0.01, MinTouches: 2, MinGapDays: 3})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(lvls) != 0 {
		t.Fatalf("expected swing touches to collapse below min touches, got %d levels", len(lvls))
	}
}

func TestFilter_GapCountsCalendarDays(t *testing.T) {
	// Intraday timestamps: a late session close followed by an early
	// one three calendar days later spans less than 72 hours but is
	// still a three-day gap.
	first := cand(model.Support, 0, 100)
	first.Time = day0.Add(15*time.Hour + 30*time.Minute)
	second := cand(model.Support, 3, 100.1)
	second.Time = day0.AddDate(0, 0, 3).Add(9*time.Hour + 15*time.Minute)

	lvls, err := Filter([]model.Candidate{first, second},
		FilterOptions{Tolerance: 0.01, MinTouches: 2, MinGapDays: 3})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(lvls) != 1 {
		t.Fatalf("expected both touches retained across a 3-calendar-day gap, got %d levels", len(lvls))
	}
	if lvls[0].TouchCount() != 2 {
		t.Errorf("expected 2 touches, got %d", lvls[0].TouchCount())
	}
}

func TestFilter_KindsNeverMerge(t *testing.T) {
	cs := []model.Candidate{
		cand(model.Support, 0, 100),
		cand(model.Support, 5, 100),
		cand(model.Resistance, 2, 100),
		cand(model.Resistance, 8, 100),
	}
	lvls, err := Filter(cs, FilterOptions{Tolerance: 0.01, MinTouches: 2, MinGapDays: 3})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(lvls) != 2 {
		t.Fatalf("expected one support and one resistance, got %d levels", len(lvls))
	}
}

func TestFilter_ClusterUsesRunningMean(t *testing.T) {
	cs := []model.Candidate{
		cand(model.Support, 0, 100),
		cand(model.Support, 5, 100.4),
		cand(model.Support, 10, 100.8),
	}
	lvls, err := Filter(cs, FilterOptions{Tolerance: 0.005, MinTouches: 2, MinGapDays: 3})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	// 100.4 joins the cluster at mean 100; 100.8 exceeds the updated
	// mean's tolerance and starts its own cluster, which dies alone.
	if len(lvls) != 1 {
		t.Fatalf("expected 1 level, got %d", len(lvls))
	}
	if math.Abs(lvls[0].Price-100.2) > 1e-9 {
		t.Errorf("expected mean price 100.2, got %.4f", lvls[0].Price)
	}
}

func TestFilter_TouchIndicesIncrease(t *testing.T) {
	cands, _ := Detect(doubleBottomBars(), 3)
	lvls, err := Filter(cands, FilterOptions{Tolerance: 0.01, MinTouches: 2, MinGapDays: 5})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	for _, lvl := range lvls {
		idx := lvl.TouchIndices()
		for i := 1; i < len(idx); i++ {
			if idx[i] <= idx[i-1] {
				t.Fatalf("touch indices not strictly increasing: %v", idx)
			}
		}
	}
}

func TestFilter_Deterministic(t *testing.T) {
	cands, _ := Detect(doubleBottomBars(), 3)
	opts := FilterOptions{Tolerance: 0.01, MinTouches: 2, MinGapDays: 5}
	a, err := Filter(cands, opts)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	b, err := Filter(cands, opts)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("filter output differs between identical calls")
	}
}

func TestFilter_EmptyInput(t *testing.T) {
	lvls, err := Filter(nil, DefaultFilterOptions())
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(lvls) != 0 {
		t.Fatalf("expected empty output, got %d levels", len(lvls))
	}
}
