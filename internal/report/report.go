// Package report accumulates per-bin statistics over a run and renders them
// as an interactive HTML dashboard or a static PNG trend chart, mirroring
// the teacher's echarts/gonum-plot dual-output monitoring tooling.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/fenwick-labs/threatscope/internal/monitoring"
	"github.com/fenwick-labs/threatscope/internal/security"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// BinStatisticsSample is one finalized bin's summary row.
type BinStatisticsSample struct {
	BinStart     int64
	EventCount   uint32
	UniqueCells  uint32
	MaxIntensity uint32
}

// Report accumulates BinStatisticsSamples for one pipeline run and renders
// them on demand. Not safe for concurrent use; the pipeline driver is
// single-threaded.
type Report struct {
	runID   string
	samples []BinStatisticsSample
}

// NewReport starts an empty report tagged with runID (the Run Identity
// threaded through the run's logs).
func NewReport(runID string) *Report {
	return &Report{runID: runID}
}

// Observe appends one finalized bin's statistics.
func (r *Report) Observe(sample BinStatisticsSample) {
	r.samples = append(r.samples, sample)
}

// EventCountSummary holds percentile statistics over a run's per-bin event
// counts, for spotting burst bins without scanning the whole series by eye.
type EventCountSummary struct {
	P50, P85, P98 float64
}

// Summary computes EventCountSummary across all observed bins. Returns the
// zero value if no bins have been observed.
func (r *Report) Summary() EventCountSummary {
	if len(r.samples) == 0 {
		return EventCountSummary{}
	}
	counts := make([]float64, len(r.samples))
	for i, s := range r.samples {
		counts[i] = float64(s.EventCount)
	}
	sort.Float64s(counts)
	return EventCountSummary{
		P50: stat.Quantile(0.5, stat.Empirical, counts, nil),
		P85: stat.Quantile(0.85, stat.Empirical, counts, nil),
		P98: stat.Quantile(0.98, stat.Empirical, counts, nil),
	}
}

// WriteHTML renders a self-contained dashboard (event count, unique-cell
// count and max-intensity line series across all observed bins) to path.
// Best-effort: errors are returned for the caller to log and ignore.
func (r *Report) WriteHTML(path string) error {
	if len(r.samples) == 0 {
		return fmt.Errorf("report: no samples observed for run %s", r.runID)
	}

	xAxis := make([]string, len(r.samples))
	events := make([]opts.LineData, len(r.samples))
	cells := make([]opts.LineData, len(r.samples))
	maxIntensity := make([]opts.LineData, len(r.samples))
	for i, s := range r.samples {
		xAxis[i] = time.Unix(s.BinStart, 0).Local().Format("15:04:05")
		events[i] = opts.LineData{Value: s.EventCount}
		cells[i] = opts.LineData{Value: s.UniqueCells}
		maxIntensity[i] = opts.LineData{Value: s.MaxIntensity}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: "threatscope run report", Subtitle: r.runID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis).
		AddSeries("events", events).
		AddSeries("unique cells", cells).
		AddSeries("max intensity", maxIntensity).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	page := components.NewPage()
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("report: render HTML: %w", err)
	}

	f, err := security.OpenFileNoSymlink(path)
	if err != nil {
		return fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	monitoring.Logf("report: wrote HTML dashboard to %s (%d bins)", path, len(r.samples))
	return nil
}

// WriteTrendChart renders the same three series to a static PNG via
// gonum/plot, for environments without a browser.
func (r *Report) WriteTrendChart(path string) error {
	if len(r.samples) == 0 {
		return fmt.Errorf("report: no samples observed for run %s", r.runID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("threatscope run %s", r.runID)
	p.X.Label.Text = "bin"
	p.Y.Label.Text = "count"

	events := make(plotter.XYs, len(r.samples))
	cells := make(plotter.XYs, len(r.samples))
	maxIntensity := make(plotter.XYs, len(r.samples))
	for i, s := range r.samples {
		events[i] = plotter.XY{X: float64(i), Y: float64(s.EventCount)}
		cells[i] = plotter.XY{X: float64(i), Y: float64(s.UniqueCells)}
		maxIntensity[i] = plotter.XY{X: float64(i), Y: float64(s.MaxIntensity)}
	}

	if err := addTrendLine(p, "events", events); err != nil {
		return fmt.Errorf("report: events line: %w", err)
	}
	if err := addTrendLine(p, "unique cells", cells); err != nil {
		return fmt.Errorf("report: unique cells line: %w", err)
	}
	if err := addTrendLine(p, "max intensity", maxIntensity); err != nil {
		return fmt.Errorf("report: max intensity line: %w", err)
	}

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save PNG %s: %w", path, err)
	}
	monitoring.Logf("report: wrote trend chart to %s (%d bins)", path, len(r.samples))
	return nil
}

func addTrendLine(p *plot.Plot, label string, pts plotter.XYs) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
