package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"pulsepath-go/internal/analysis"
	"pulsepath-go/internal/models"
)

// Output file names inside the chart directory.
const (
	ResponseTimesFile = "response_times.html"
	RatingsFile       = "performance_ratings.html"
	HeartRateFile     = "heart_rate_changes.html"
)

// renderer is satisfied by single charts and pages.
type renderer interface {
	Render(w io.Writer) error
}

// WriteAll renders the three analysis charts into dir and returns the paths
// written. A chart that fails is logged and skipped.
func WriteAll(dir string, rows []models.LevelRow, rep *analysis.Report, log *zap.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	conds := conditionOrder(rep)
	outputs := []struct {
		name string
		r    renderer
	}{
		{ResponseTimesFile, ResponseTimes(rows, conds)},
		{RatingsFile, Ratings(rows, conds)},
		{HeartRateFile, HeartRate(rep.HeartRate.Changes)},
	}

	var written []string
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		if err := writeChart(path, o.r); err != nil {
			log.Error("Failed to write chart", zap.String("file", path), zap.Error(err))
			continue
		}
		written = append(written, path)
	}
	return written, nil
}

func writeChart(path string, r renderer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return r.Render(f)
}

// ResponseTimes draws one box per condition for every level.
func ResponseTimes(rows []models.LevelRow, conds []models.Condition) *echarts.BoxPlot {
	levels := levelsIn(rows)

	box := echarts.NewBoxPlot()
	box.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{PageTitle: "Response times"}),
		echarts.WithTitleOpts(opts.Title{
			Title:    "Average response time",
			Subtitle: "per level and condition",
		}),
		echarts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "seconds", Scale: opts.Bool(true)}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(levels))
	for _, l := range levels {
		labels = append(labels, fmt.Sprintf("Level %d", l))
	}
	box.SetXAxis(labels)

	for _, c := range conds {
		items := make([]opts.BoxPlotData, 0, len(levels))
		for _, l := range levels {
			var xs []float64
			for _, r := range rows {
				if r.Condition == c && r.Level == l {
					xs = append(xs, r.AvgResponseTime)
				}
			}
			items = append(items, boxData(xs))
		}
		box.AddSeries(string(c), items)
	}
	return box
}

// Ratings is a page with the performance and stress distributions per
// condition, all levels pooled.
func Ratings(rows []models.LevelRow, conds []models.Condition) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Ratings"
	page.AddCharts(
		ratingBox("Performance rating", models.MaxPerformance, rows, conds, func(r models.LevelRow) int { return r.PerformanceEval }),
		ratingBox("Stress rating", models.MaxStress, rows, conds, func(r models.LevelRow) int { return r.StressEval }),
	)
	return page
}

func ratingBox(title string, upper int, rows []models.LevelRow, conds []models.Condition, get func(models.LevelRow) int) *echarts.BoxPlot {
	box := echarts.NewBoxPlot()
	box.SetGlobalOptions(
		echarts.WithTitleOpts(opts.Title{Title: title, Subtitle: "by condition"}),
		echarts.WithYAxisOpts(opts.YAxis{Type: "value", Min: models.MinRating, Max: upper}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(conds))
	items := make([]opts.BoxPlotData, 0, len(conds))
	for _, c := range conds {
		var xs []float64
		for _, r := range rows {
			if r.Condition == c {
				xs = append(xs, float64(get(r)))
			}
		}
		labels = append(labels, string(c))
		items = append(items, boxData(xs))
	}
	box.SetXAxis(labels).AddSeries(title, items)
	return box
}

// HeartRate draws the mean change per condition.
func HeartRate(groups []analysis.HeartRateGroup) *echarts.Bar {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{PageTitle: "Heart rate"}),
		echarts.WithTitleOpts(opts.Title{
			Title:    "Heart rate change",
			Subtitle: "after minus before, bpm",
		}),
		echarts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "bpm"}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	labels := make([]string, 0, len(groups))
	items := make([]opts.BarData, 0, len(groups))
	for _, g := range groups {
		labels = append(labels, string(g.Condition))
		items = append(items, opts.BarData{Value: g.Mean})
	}
	bar.SetXAxis(labels).AddSeries("mean change", items)
	return bar
}

// boxData is the [min, Q1, median, Q3, max] tuple echarts expects. An empty
// sample yields an empty box.
func boxData(xs []float64) opts.BoxPlotData {
	if len(xs) == 0 {
		return opts.BoxPlotData{Value: []float64{}}
	}
	return opts.BoxPlotData{Value: FiveNumber(xs)}
}

// FiveNumber returns min, lower quartile, median, upper quartile and max,
// interpolating linearly between closest ranks.
func FiveNumber(xs []float64) []float64 {
	s := slices.Clone(xs)
	slices.Sort(s)
	return []float64{
		s[0],
		quantile(s, 0.25),
		quantile(s, 0.5),
		quantile(s, 0.75),
		s[len(s)-1],
	}
}

// quantile expects sorted input.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(h)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func conditionOrder(rep *analysis.Report) []models.Condition {
	out := make([]models.Condition, 0, len(rep.PerCondition))
	for _, c := range rep.PerCondition {
		out = append(out, c.Condition)
	}
	return out
}

func levelsIn(rows []models.LevelRow) []int {
	var levels []int
	for _, r := range rows {
		if !slices.Contains(levels, r.Level) {
			levels = append(levels, r.Level)
		}
	}
	slices.Sort(levels)
	return levels
}
