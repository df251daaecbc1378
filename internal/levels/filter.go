package levels

import (
	"fmt"
	"sort"
	"time"

	"LevelScan/internal/model"
)

// FilterOptions controls how candidates are clustered into levels.
type FilterOptions struct {
	// Tolerance is the relative price tolerance for clustering, e.g.
	// 0.005 means candidates within 0.5% of a cluster's mean price join it.
	Tolerance float64
	// MinTouches is the minimum number of retained touches a cluster
	// needs to become a confirmed level.
	MinTouches int
	// MinGapDays is the minimum number of calendar days between two
	// touches counted toward the same level. Touches closer than this
	// to the previous retained touch are discarded as part of the same
	// price swing.
	MinGapDays int
}

// DefaultFilterOptions match the thresholds the original analysis used.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{Tolerance: 0.005, MinTouches: 3, MinGapDays: 3}
}

// Filter clusters candidates into confirmed levels. Supports and
// resistances are processed independently; a level is never both.
// Empty input yields empty output. The function is pure: calling it
// twice with the same input produces identical results.
func Filter(cands []model.Candidate, opts FilterOptions) ([]model.Level, error) {
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrInvalidParameter, opts.Tolerance)
	}
	if opts.MinTouches < 1 {
		return nil, fmt.Errorf("%w: min touches must be at least 1, got %d", ErrInvalidParameter, opts.MinTouches)
	}
	if opts.MinGapDays < 0 {
		return nil, fmt.Errorf("%w: min gap days must be non-negative, got %d", ErrInvalidParameter, opts.MinGapDays)
	}

	var supports, resistances []model.Candidate
	for _, c := range cands {
		switch c.Kind {
		case model.Support:
			supports = append(supports, c)
		case model.Resistance:
			resistances = append(resistances, c)
		}
	}

	out := filterKind(supports, opts)
	out = append(out, filterKind(resistances, opts)...)
	return out, nil
}

type cluster struct {
	sum     float64
	members []model.Candidate
}

func (c *cluster) mean() float64 { return c.sum / float64(len(c.members)) }

func (c *cluster) add(cand model.Candidate) {
	c.sum += cand.Price
	c.members = append(c.members, cand)
}

func filterKind(cands []model.Candidate, opts FilterOptions) []model.Level {
	if len(cands) == 0 {
		return nil
	}

	// Sort by price so nearby candidates are adjacent; index breaks ties
	// to keep the walk deterministic.
	sorted := make([]model.Candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].Index < sorted[j].Index
	})

	// Greedy clustering against the running mean.
	var clusters []*cluster
	cur := &cluster{}
	cur.add(sorted[0])
	for _, c := range sorted[1:] {
		if c.Price-cur.mean() <= opts.Tolerance*cur.mean() {
			cur.add(c)
		} else {
			clusters = append(clusters, cur)
			cur = &cluster{}
			cur.add(c)
		}
	}
	clusters = append(clusters, cur)

	var out []model.Level
	for _, cl := range clusters {
		touches := retainTouches(cl.members, opts.MinGapDays)
		if len(touches) < opts.MinTouches {
			continue
		}
		sum := 0.0
		for _, t := range touches {
			sum += t.Price
		}
		out = append(out, model.Level{
			Kind:    cl.members[0].Kind,
			Price:   sum / float64(len(touches)),
			Touches: touches,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// retainTouches orders a cluster's candidates by bar index and keeps
// only touches separated from the previous retained touch by at least
// minGapDays calendar days. The first touch is always kept.
func retainTouches(members []model.Candidate, minGapDays int) []model.Touch {
	ordered := make([]model.Candidate, len(members))
	copy(ordered, members)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var touches []model.Touch
	for _, m := range ordered {
		if len(touches) > 0 {
			last := touches[len(touches)-1]
			if daysBetween(last.Time, m.Time) < minGapDays {
				continue
			}
			if m.Index == last.Index {
				continue
			}
		}
		touches = append(touches, model.Touch{Index: m.Index, Time: m.Time, Price: m.Price})
	}
	return touches
}

// daysBetween counts calendar days between two bar timestamps. Bars
// carry intraday times (and sometimes different UTC offsets), so the
// dates are normalized before subtracting.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
