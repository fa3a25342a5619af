package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteHTMLProducesNonEmptyFile(t *testing.T) {
	r := NewReport("test-run")
	r.Observe(BinStatisticsSample{BinStart: 0, EventCount: 3, UniqueCells: 2, MaxIntensity: 2})
	r.Observe(BinStatisticsSample{BinStart: 60, EventCount: 5, UniqueCells: 4, MaxIntensity: 3})

	dir := t.TempDir()
	out := filepath.Join(dir, "report.html")
	if err := r.WriteHTML(out); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty HTML report")
	}
}

func TestWriteHTMLFailsWithoutSamples(t *testing.T) {
	r := NewReport("empty-run")
	dir := t.TempDir()
	if err := r.WriteHTML(filepath.Join(dir, "report.html")); err == nil {
		t.Error("expected error writing a report with no observed samples")
	}
}

func TestWriteTrendChartProducesNonEmptyFile(t *testing.T) {
	r := NewReport("test-run")
	for i := int64(0); i < 10; i++ {
		r.Observe(BinStatisticsSample{BinStart: i * 60, EventCount: uint32(i + 1), UniqueCells: uint32(i), MaxIntensity: uint32(i % 3)})
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "trend.png")
	if err := r.WriteTrendChart(out); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty trend chart PNG")
	}
}

func TestWriteTrendChartFailsWithoutSamples(t *testing.T) {
	r := NewReport("empty-run")
	dir := t.TempDir()
	if err := r.WriteTrendChart(filepath.Join(dir, "trend.png")); err == nil {
		t.Error("expected error writing a trend chart with no observed samples")
	}
}

func TestSummaryEmptyReport(t *testing.T) {
	r := NewReport("empty-run")
	s := r.Summary()
	if s.P50 != 0 || s.P85 != 0 || s.P98 != 0 {
		t.Errorf("Summary() on empty report = %+v, want zero value", s)
	}
}

func TestSummaryPercentiles(t *testing.T) {
	r := NewReport("summary-run")
	for i := int64(1); i <= 10; i++ {
		r.Observe(BinStatisticsSample{BinStart: i * 60, EventCount: uint32(i)})
	}
	s := r.Summary()
	if s.P50 <= 0 || s.P50 >= 10 {
		t.Errorf("P50 = %f, want strictly between 0 and 10", s.P50)
	}
	if s.P98 < s.P85 || s.P85 < s.P50 {
		t.Errorf("percentiles out of order: p50=%f p85=%f p98=%f", s.P50, s.P85, s.P98)
	}
}

func TestObserveSamplePreservesBinOrder(t *testing.T) {
	r := NewReport("order-run")
	starts := []int64{0, 60, 120, 180}
	for _, s := range starts {
		r.Observe(BinStatisticsSample{BinStart: s, EventCount: 1})
	}

	if len(r.samples) != len(starts) {
		t.Fatalf("samples = %d, want %d", len(r.samples), len(starts))
	}
	for i, want := range starts {
		if r.samples[i].BinStart != want {
			t.Errorf("samples[%d].BinStart = %d, want %d", i, r.samples[i].BinStart, want)
		}
	}
}
