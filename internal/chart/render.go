package chart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"LevelScan/internal/calculator"
	"LevelScan/internal/model"
)

// Options controls chart rendering.
type Options struct {
	OutputDir  string
	DarkMode   bool
	Volume     bool
	CloseUp    bool
	SMAPeriods []int
}

// Render writes an HTML candlestick chart for the analysis and returns
// the paths of the files written. When CloseUp is enabled and the stock
// is range-bound, a second chart truncated to the final support and
// resistance region is written as well.
func Render(a *model.Analysis, options Options) ([]string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	var written []string

	allLevels := append(append([]model.Level{}, a.Supports...), a.Resistances...)
	main := buildPage(a.Symbol, a.Series.Bars, allLevels, options)
	path := filepath.Join(options.OutputDir, a.Symbol+".html")
	if err := writePage(main, path); err != nil {
		return nil, err
	}
	written = append(written, path)

	if options.CloseUp && a.RangeBound {
		bars, lvls := closeUpRegion(a)
		if len(bars) > 0 {
			closeUp := buildPage(a.Symbol+" close up", bars, lvls, options)
			cuPath := filepath.Join(options.OutputDir, a.Symbol+"_closeup.html")
			if err := writePage(closeUp, cuPath); err != nil {
				return written, err
			}
			written = append(written, cuPath)
		}
	}

	return written, nil
}

// closeUpRegion truncates the series to start two bars before the
// earlier first touch of the final support and resistance, so the
// tradable range fills the chart.
func closeUpRegion(a *model.Analysis) ([]model.OHLCV, []model.Level) {
	start := a.FinalSupport.FirstTouch()
	if rt := a.FinalResistance.FirstTouch(); rt.Before(start) {
		start = rt
	}

	startIdx := 0
	for i, b := range a.Series.Bars {
		if !b.Time.Before(start) {
			startIdx = i
			break
		}
	}
	startIdx -= 2
	if startIdx < 0 {
		startIdx = 0
	}
	return a.Series.Bars[startIdx:], []model.Level{*a.FinalSupport, *a.FinalResistance}
}

func writePage(page *components.Page, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func buildPage(title string, bars []model.OHLCV, lvls []model.Level, options Options) *components.Page {
	var xAxis []string
	var klineData []opts.KlineData
	var volumeData []opts.BarData

	for _, b := range bars {
		xAxis = append(xAxis, b.Time.Format("2006-01-02"))
		klineData = append(klineData, opts.KlineData{
			Value: [4]float64{b.Open, b.Close, b.Low, b.High},
		})
		volColor := "#14b8a6"
		if b.Close < b.Open {
			volColor = "#ef4444"
		}
		volumeData = append(volumeData, opts.BarData{
			Value:     b.Volume,
			ItemStyle: &opts.ItemStyle{Color: volColor},
		})
	}

	theme := ""
	if options.DarkMode {
		theme = "dark"
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Candlesticks with detected support and resistance levels",
			Left:     "center",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
			Scale:       true,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     true,
			SplitLine: &opts.SplitLine{Show: true},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			XAxisIndex: []int{0},
			Start:      0,
			End:        100,
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			XAxisIndex: []int{0},
			Start:      0,
			End:        100,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: true,
			Top:  "5%",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "1400px",
			Height: "700px",
			Theme:  theme,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:        true,
			Trigger:     "axis",
			AxisPointer: &opts.AxisPointer{Type: "cross"},
		}),
	)
	kline.SetXAxis(xAxis).AddSeries("Candlestick", klineData)

	line := charts.NewLine()
	line.SetXAxis(xAxis)

	for _, period := range options.SMAPeriods {
		sma, err := calculator.SMASeries(bars, period)
		if err != nil {
			continue
		}
		var data []opts.LineData
		for _, v := range sma {
			if math.IsNaN(v) {
				data = append(data, opts.LineData{Value: nil})
			} else {
				data = append(data, opts.LineData{Value: v})
			}
		}
		line.AddSeries(fmt.Sprintf("SMA %d", period), data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: true}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: 1, Opacity: 0.7}),
		)
	}

	for _, lvl := range lvls {
		name := fmt.Sprintf("Support %.2f (%d)", lvl.Price, lvl.TouchCount())
		color := "#00b050"
		if lvl.Kind == model.Resistance {
			name = fmt.Sprintf("Resistance %.2f (%d)", lvl.Price, lvl.TouchCount())
			color = "#ff3b30"
		}
		lineType := "dashed"
		end := lvl.LastTouch()
		if lvl.Breached {
			lineType = "dotted"
			end = lvl.BreachTime
		}
		// The line spans the touches, not the whole chart.
		var data []opts.LineData
		for _, b := range bars {
			if b.Time.Before(lvl.FirstTouch()) || b.Time.After(end) {
				data = append(data, opts.LineData{Value: nil})
			} else {
				data = append(data, opts.LineData{Value: lvl.Price})
			}
		}
		line.AddSeries(name, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: false}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Color:   color,
				Width:   2,
				Type:    lineType,
				Opacity: 0.7,
			}),
		)
	}

	kline.Overlap(line)

	page := components.NewPage()
	page.AddCharts(kline)

	if options.Volume {
		volume := charts.NewBar()
		volume.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title: "Volume",
				Left:  "center",
			}),
			charts.WithXAxisOpts(opts.XAxis{
				SplitNumber: 20,
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Scale:     true,
				SplitLine: &opts.SplitLine{Show: true},
			}),
			charts.WithInitializationOpts(opts.Initialization{
				Width:  "1400px",
				Height: "220px",
				Theme:  theme,
			}),
			charts.WithLegendOpts(opts.Legend{Show: false}),
		)
		volume.SetXAxis(xAxis).AddSeries("Volume", volumeData)
		page.AddCharts(volume)
	}

	return page
}
