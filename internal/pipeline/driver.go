// Package pipeline drives the end-to-end run: ordering input files,
// mapping and binning their events, rendering each finalized bin, and
// invoking the external video encoder over the resulting frames.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fenwick-labs/threatscope/internal/binmanager"
	"github.com/fenwick-labs/threatscope/internal/binraster"
	"github.com/fenwick-labs/threatscope/internal/cidrband"
	"github.com/fenwick-labs/threatscope/internal/config"
	"github.com/fenwick-labs/threatscope/internal/curve"
	"github.com/fenwick-labs/threatscope/internal/logsource"
	"github.com/fenwick-labs/threatscope/internal/mapper"
	"github.com/fenwick-labs/threatscope/internal/mask"
	"github.com/fenwick-labs/threatscope/internal/monitoring"
	"github.com/fenwick-labs/threatscope/internal/render"
	"github.com/fenwick-labs/threatscope/internal/report"
	"github.com/fenwick-labs/threatscope/internal/residue"
	"github.com/fenwick-labs/threatscope/internal/timeutil"
	"github.com/google/uuid"
)

// State is the Pipeline State: every field the driver owns exclusively for
// the duration of one run.
type State struct {
	RunID     string
	StartedAt time.Time

	CurveOrder      int
	BinSeconds      int64
	DecaySeconds    int64
	OutputDirectory string
	OutputPrefix    string
	ImageWidth      int
	ImageHeight     int
	VideoFPS        int
	CodecName       string
	ShowTimestamp   bool
	AutoScale       bool
	EncodeVideo     bool

	FirstEventTS   int64
	LastEventTS    int64
	sawEvent       bool
	BinsEmitted    int
	EventsProcessed int64
}

// Driver owns the wired-together components for one run.
type Driver struct {
	state   State
	cfg     *config.PipelineConfig
	curveCfg curve.Config
	table   *cidrband.Table
	mapr    *mapper.Mapper
	maskCache *mask.Cache
	manager *binmanager.Manager
	runner  Runner
	rep     *report.Report
	clock   timeutil.Clock

	frameSeq    int
	fpsExplicit bool
}

// New configures a Driver from cfg. fpsExplicit indicates the CLI set
// --fps, which disables the fps leg of auto-scale per spec.md's CLI table.
func New(cfg *config.PipelineConfig, fpsExplicit bool) (*Driver, error) {
	curveCfg, err := curve.NewConfig(uint(cfg.GetCurveOrder()))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	var table *cidrband.Table
	if path := cfg.GetCIDRTablePath(); path != "" {
		t, err := cidrband.Load(path)
		if err != nil {
			monitoring.Logf("pipeline: CIDR table %s failed to open (%v); continuing in direct-mapping mode", path, err)
		} else {
			table = t
		}
	}

	m := mapper.New(curveCfg, table)

	runID := uuid.NewString()
	clock := timeutil.Clock(timeutil.RealClock{})
	d := &Driver{
		cfg:       cfg,
		curveCfg:  curveCfg,
		table:     table,
		mapr:      m,
		maskCache: mask.NewCache(),
		runner:    CommandRunner{},
		rep:       report.NewReport(runID),
		clock:     clock,
		fpsExplicit: fpsExplicit,
		state: State{
			RunID:           runID,
			StartedAt:       clock.Now(),
			CurveOrder:      cfg.GetCurveOrder(),
			BinSeconds:      cfg.GetBinSeconds(),
			DecaySeconds:    cfg.GetDecaySeconds(),
			OutputDirectory: cfg.GetOutputDirectory(),
			OutputPrefix:    cfg.GetOutputPrefix(),
			ImageWidth:      cfg.GetImageWidth(),
			ImageHeight:     cfg.GetImageHeight(),
			VideoFPS:        cfg.GetVideoFPS(),
			CodecName:       cfg.GetCodecName(),
			ShowTimestamp:   cfg.GetShowTimestamp(),
			AutoScale:       cfg.GetAutoScale(),
			EncodeVideo:     true,
		},
	}

	d.manager = binmanager.New(d.state.BinSeconds, d.state.DecaySeconds, curveCfg.Dimension, d.emitBin)
	return d, nil
}

// RunID exposes the Run Identity threaded through logs and the run report.
func (d *Driver) RunID() string { return d.state.RunID }

// StartedAt returns the run's recorded start time.
func (d *Driver) StartedAt() time.Time { return d.state.StartedAt }

// Dimension exposes the curve's grid dimension, for loading a matching
// residue map from the residue store.
func (d *Driver) Dimension() uint32 { return d.curveCfg.Dimension }

// Residue exposes the accumulated residue map, for saving to the residue
// store at the end of a run.
func (d *Driver) Residue() *residue.Map { return d.manager.Residue() }

// SeedResidue primes the bin manager's residue map with counts carried over
// from a prior run.
func (d *Driver) SeedResidue(seed *residue.Map) { d.manager.SeedResidue(seed) }

// DisableEncode skips the ffmpeg encoding step, leaving rendered frames on
// disk instead of compositing and deleting them.
func (d *Driver) DisableEncode() { d.state.EncodeVideo = false }

// SetClock overrides the driver's time source and re-stamps StartedAt from
// it, for deterministic tests of the run report's start time.
func (d *Driver) SetClock(clock timeutil.Clock) {
	d.clock = clock
	d.state.StartedAt = clock.Now()
}

// OrderFilesByEarliestTimestamp sorts paths ascending by each file's
// earliest parseable timestamp, per spec's multi-file ordering rule.
func OrderFilesByEarliestTimestamp(paths []string) ([]string, error) {
	type entry struct {
		path string
		ts   int64
	}
	entries := make([]entry, 0, len(paths))
	for _, p := range paths {
		ts, err := logsource.PeekEarliestTimestamp(p)
		if err != nil {
			return nil, fmt.Errorf("pipeline: ordering %s: %w", p, err)
		}
		entries = append(entries, entry{p, ts})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })

	ordered := make([]string, len(entries))
	for i, e := range entries {
		ordered[i] = e.path
	}
	return ordered, nil
}

// ProcessFile streams every event in path through the mapper and bin
// manager, in order.
func (d *Driver) ProcessFile(path string) error {
	s, err := logsource.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		ev, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := d.processEvent(ev); err != nil {
			return err
		}
	}
}

func (d *Driver) processEvent(ev logsource.Event) error {
	x, y := d.mapr.Map(ev.SourceAddr)

	if !d.state.sawEvent || ev.Timestamp < d.state.FirstEventTS {
		d.state.FirstEventTS = ev.Timestamp
	}
	if !d.state.sawEvent || ev.Timestamp > d.state.LastEventTS {
		d.state.LastEventTS = ev.Timestamp
	}
	d.state.sawEvent = true
	d.state.EventsProcessed++

	return d.manager.Process(ev.Timestamp, x, y)
}

// ApplyAutoScale recomputes video_fps and decay_seconds from the observed
// event span, per spec.md §4.K step 4; video_fps is left alone when --fps
// was given. Call after all input files have been processed and before Flush.
func (d *Driver) ApplyAutoScale() {
	if !d.state.AutoScale || !d.state.sawEvent {
		return
	}
	span := d.state.LastEventTS - d.state.FirstEventTS
	if span <= 0 {
		return
	}

	spanDays := float64(span) / 86400
	if !d.fpsExplicit {
		fps := int(math.Round(spanDays * 3))
		if fps < 1 {
			fps = 1
		}
		if fps > 120 {
			fps = 120
		}
		d.state.VideoFPS = fps
	}

	decay := int64(math.Round(spanDays * 3 * 3600))
	if decay < 3600 {
		decay = 3600
	}
	d.state.DecaySeconds = decay
	d.manager.SetDecaySeconds(decay)
}

// Flush finalizes the open bin, if any.
func (d *Driver) Flush() error {
	return d.manager.Flush()
}

// Encode invokes the external video encoder over the emitted frames and,
// on success, deletes them. No-op if video encoding was disabled.
func (d *Driver) Encode(ctx context.Context) (string, error) {
	if !d.state.EncodeVideo {
		return "", nil
	}
	outputPath, err := EncodeFrames(ctx, d.runner, d.state.OutputDirectory, d.state.VideoFPS, d.state.CodecName)
	if err != nil {
		return "", err
	}

	matches, _ := filepath.Glob(filepath.Join(d.state.OutputDirectory, "frame_*.ppm"))
	for _, m := range matches {
		os.Remove(m)
	}
	return outputPath, nil
}

// WriteReports writes the run's HTML dashboard and PNG trend chart,
// best-effort: failures are logged, not returned.
func (d *Driver) WriteReports() {
	htmlPath := filepath.Join(d.state.OutputDirectory, fmt.Sprintf("%s_report.html", d.state.OutputPrefix))
	if err := d.rep.WriteHTML(htmlPath); err != nil {
		monitoring.Logf("pipeline: run report HTML failed: %v", err)
	}
	pngPath := filepath.Join(d.state.OutputDirectory, fmt.Sprintf("%s_trend.png", d.state.OutputPrefix))
	if err := d.rep.WriteTrendChart(pngPath); err != nil {
		monitoring.Logf("pipeline: run report trend chart failed: %v", err)
	}

	summary := d.rep.Summary()
	monitoring.Logf("pipeline: run %s event count p50=%.0f p85=%.0f p98=%.0f", d.RunID(), summary.P50, summary.P85, summary.P98)
}

// emitBin is the bin manager's finalize-emit hook: it renders bin to a PPM
// frame and records its statistics for the run report.
func (d *Driver) emitBin(bin *binraster.Raster, res *residue.Map) error {
	name := frameFilename(d.state.OutputPrefix, bin.BinStart, d.frameSeq)
	outputPath := filepath.Join(d.state.OutputDirectory, name)

	m := d.maskCache.Get(d.curveCfg.Order, d.curveCfg.Dimension, d.mapr.Map)
	opts := render.Options{
		ImageWidth:    d.state.ImageWidth,
		ImageHeight:   d.state.ImageHeight,
		ShowTimestamp: d.state.ShowTimestamp,
	}
	if err := render.Render(bin, res, m, opts, outputPath); err != nil {
		return fmt.Errorf("pipeline: render bin at %d: %w", bin.BinStart, err)
	}

	d.rep.Observe(report.BinStatisticsSample{
		BinStart:     bin.BinStart,
		EventCount:   bin.EventCount,
		UniqueCells:  bin.UniqueCells,
		MaxIntensity: bin.MaxIntensity,
	})

	d.frameSeq++
	d.state.BinsEmitted++
	return nil
}

// frameFilename builds "<prefix>_<YYYYMMDD_HHMMSS>_<NNNN>.ppm" using
// binStart's local time and a 4-digit zero-padded sequence.
func frameFilename(prefix string, binStart int64, seq int) string {
	ts := time.Unix(binStart, 0).Local().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%04d.ppm", prefix, ts, seq)
}
