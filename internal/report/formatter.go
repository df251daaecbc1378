package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"LevelScan/internal/calculator"
	"LevelScan/internal/model"
)

// FormatAnalysis formats the full scan result for one symbol.
func FormatAnalysis(a *model.Analysis) string {
	var b strings.Builder

	last := a.Series.Bars[len(a.Series.Bars)-1]
	b.WriteString(fmt.Sprintf("=== %s | %s ===\n", a.Symbol, a.ScannedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Last close: %.2f (%s) | Volume: %s\n",
		last.Close, last.Time.Format("2006-01-02"), humanize.Comma(int64(last.Volume))))
	if high, low, err := calculator.TradingRange(a.Series.Bars, 252); err == nil {
		pos, _ := calculator.RangePosition(a.Series.CurrentPrice, high, low)
		b.WriteString(fmt.Sprintf("52-week range: %.2f - %.2f (position %.0f%%)\n", low, high, pos*100))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Supports (%d):\n", len(a.Supports)))
	for i := range a.Supports {
		b.WriteString(FormatLevel(&a.Supports[i], a.Series.CurrentPrice, a.ScannedAt))
	}
	if len(a.Supports) == 0 {
		b.WriteString("  none\n")
	}

	b.WriteString(fmt.Sprintf("\nResistances (%d):\n", len(a.Resistances)))
	for i := range a.Resistances {
		b.WriteString(FormatLevel(&a.Resistances[i], a.Series.CurrentPrice, a.ScannedAt))
	}
	if len(a.Resistances) == 0 {
		b.WriteString("  none\n")
	}

	b.WriteString("\n")
	if a.FinalSupport != nil {
		b.WriteString(fmt.Sprintf("Final support: %.2f\n", a.FinalSupport.Price))
	} else {
		b.WriteString("This stock has no unbreached support\n")
	}
	if a.FinalResistance != nil {
		b.WriteString(fmt.Sprintf("Final resistance: %.2f\n", a.FinalResistance.Price))
	} else {
		b.WriteString("This stock has no unbreached resistance\n")
	}
	if a.RangeBound {
		b.WriteString(fmt.Sprintf("Range trading is possible, range width: %.2f\n", a.RangeWidth))
	} else {
		b.WriteString("Range trading is not possible in this stock\n")
	}

	return b.String()
}

// FormatLevel formats one confirmed level: mean price, touches, the
// spacing between them, holding period, breach state and where the
// current price sits relative to the level.
func FormatLevel(lvl *model.Level, currentPrice float64, now time.Time) string {
	var b strings.Builder

	kind := "support"
	if lvl.Kind == model.Resistance {
		kind = "resistance"
	}
	b.WriteString(fmt.Sprintf("  %s %.2f | %d touches\n", kind, lvl.Price, lvl.TouchCount()))

	for _, t := range lvl.Touches {
		b.WriteString(fmt.Sprintf("    %s  %.2f\n", t.Time.Format("2006-01-02"), t.Price))
	}

	if gaps := touchGaps(lvl); len(gaps) > 0 {
		parts := make([]string, len(gaps))
		for i, g := range gaps {
			parts[i] = fmt.Sprintf("%dd", g)
		}
		b.WriteString(fmt.Sprintf("    gaps between touches: %s\n", strings.Join(parts, ", ")))
	}

	held := int(lvl.LastTouch().Sub(lvl.FirstTouch()).Hours() / 24)
	b.WriteString(fmt.Sprintf("    held for %s", formatDays(held)))

	since := int(now.Sub(lvl.LastTouch()).Hours() / 24)
	b.WriteString(fmt.Sprintf(", last tested %s ago\n", formatDays(since)))

	if lvl.Breached {
		b.WriteString(fmt.Sprintf("    breached on %s\n", lvl.BreachTime.Format("2006-01-02")))
	}

	delta := currentPrice - lvl.Price
	position := "above"
	if delta < 0 {
		position = "below"
	}
	b.WriteString(fmt.Sprintf("    current price %s level (%+.2f)\n", position, delta))

	return b.String()
}

func touchGaps(lvl *model.Level) []int {
	if len(lvl.Touches) < 2 {
		return nil
	}
	gaps := make([]int, 0, len(lvl.Touches)-1)
	for i := 1; i < len(lvl.Touches); i++ {
		d := int(lvl.Touches[i].Time.Sub(lvl.Touches[i-1].Time).Hours() / 24)
		gaps = append(gaps, d)
	}
	return gaps
}

func formatDays(days int) string {
	if days >= 365 {
		return fmt.Sprintf("%d years %d days", days/365, days%365)
	}
	return fmt.Sprintf("%d days", days)
}
