// Command threatscope turns honeypot connection logs into a Hilbert-curve
// heatmap video: one frame per time bin, encoded into an mp4 by ffmpeg.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/fenwick-labs/threatscope/internal/config"
	"github.com/fenwick-labs/threatscope/internal/monitoring"
	"github.com/fenwick-labs/threatscope/internal/pipeline"
	"github.com/fenwick-labs/threatscope/internal/store"
	"github.com/fenwick-labs/threatscope/internal/version"
)

var periodPattern = regexp.MustCompile(`^(\d+)([smh])?$`)

func main() {
	var (
		showVersion   = flag.Bool("version", false, "print version information and exit")
		configPath    = flag.String("config", "", "path to a pipeline config JSON file (defaults compiled in if omitted)")
		period        = flag.String("period", "", "bin period, e.g. 60s, 5m, 1h (overrides config bin_seconds)")
		outputDir     = flag.String("output", "", "output directory for frames, video, and reports (overrides config output_directory)")
		noVideo       = flag.Bool("no-video", false, "skip ffmpeg encoding, leaving rendered frames on disk")
		fps           = flag.Int("fps", 0, "video frame rate (overrides config video_fps and disables auto-scale's fps leg)")
		codec         = flag.String("codec", "", "ffmpeg video codec (overrides config codec_name)")
		cidrMap       = flag.String("cidr-map", "", "path to a CIDR-to-geography table (overrides config cidr_table_path)")
		duration      = flag.Int("duration", 0, "target video duration in seconds, 10-3600 (overrides config target_video_duration)")
		showTimestamp = flag.Bool("timestamp", false, "burn a timestamp strip into each frame")
		residuePath   = flag.String("residue-db", "", "path to a sqlite database for carrying residue counts across runs (overrides config residue_store_path)")
		debug         = flag.Bool("debug", false, "enable verbose diagnostic logging")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("threatscope %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if !*debug {
		monitoring.SetLogger(nil)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "threatscope: at least one input log file is required")
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("threatscope: %v", err)
	}

	fpsExplicit := *fps != 0
	if err := applyFlags(cfg, period, outputDir, fps, codec, cidrMap, duration, showTimestamp); err != nil {
		log.Fatalf("threatscope: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("threatscope: invalid configuration: %v", err)
	}

	residueDB := *residuePath
	if residueDB == "" {
		residueDB = cfg.GetResidueStorePath()
	}
	if err := run(cfg, fpsExplicit, *noVideo, residueDB, flag.Args()); err != nil {
		log.Fatalf("threatscope: %v", err)
	}
}

func run(cfg *config.PipelineConfig, fpsExplicit, noVideo bool, residuePath string, inputs []string) error {
	d, err := pipeline.New(cfg, fpsExplicit)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}
	if noVideo {
		d.DisableEncode()
	}

	var residueStore *store.Store
	if residuePath != "" {
		s, err := store.Open(residuePath, cfg.GetCurveOrder())
		if err != nil {
			log.Printf("threatscope: residue store %s failed to open (%v); continuing without cross-run history", residuePath, err)
		} else {
			defer s.Close()
			residueStore = s

			seed, err := residueStore.Load(d.Dimension())
			if err != nil {
				log.Printf("threatscope: residue store %s failed to load (%v); continuing without cross-run history", residuePath, err)
			} else {
				d.SeedResidue(seed)
			}
		}
	}

	ordered, err := pipeline.OrderFilesByEarliestTimestamp(inputs)
	if err != nil {
		return fmt.Errorf("ordering input files: %w", err)
	}

	log.Printf("threatscope: run %s processing %d input file(s)", d.RunID(), len(ordered))
	for _, path := range ordered {
		if err := d.ProcessFile(path); err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
	}

	d.ApplyAutoScale()
	if err := d.Flush(); err != nil {
		return fmt.Errorf("flushing final bin: %w", err)
	}

	if residueStore != nil {
		if err := residueStore.Save(d.Residue()); err != nil {
			log.Printf("threatscope: residue store %s failed to save (%v); this run's residue history is lost", residuePath, err)
		}
	}

	ctx := context.Background()
	outputPath, err := d.Encode(ctx)
	if err != nil {
		return fmt.Errorf("encoding video: %w", err)
	}
	if outputPath != "" {
		log.Printf("threatscope: wrote %s", outputPath)
	}

	d.WriteReports()
	return nil
}

func loadConfig(path string) (*config.PipelineConfig, error) {
	if path == "" {
		return config.MustLoadDefaultConfig(), nil
	}
	return config.LoadPipelineConfig(path)
}

func applyFlags(cfg *config.PipelineConfig, period, outputDir *string, fps *int, codec, cidrMap *string, duration *int, showTimestamp *bool) error {
	if *period != "" {
		seconds, err := parsePeriod(*period)
		if err != nil {
			return fmt.Errorf("invalid --period: %w", err)
		}
		cfg.BinSeconds = &seconds
	}
	if *outputDir != "" {
		cfg.OutputDirectory = outputDir
	}
	if *fps != 0 {
		cfg.VideoFPS = fps
	}
	if *codec != "" {
		cfg.CodecName = codec
	}
	if *cidrMap != "" {
		cfg.CIDRTablePath = cidrMap
	}
	if *duration != 0 {
		cfg.TargetVideoDuration = duration
	}
	if *showTimestamp {
		cfg.ShowTimestamp = showTimestamp
	}
	return nil
}

// parsePeriod parses "N", "Ns", "Nm", or "Nh" into a count of seconds.
func parsePeriod(s string) (int64, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("expected a duration like 60s, 5m, or 1h, got %q", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, err
	}
	switch m[2] {
	case "m":
		n *= 60
	case "h":
		n *= 3600
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `threatscope %s - honeypot log heatmap renderer

Usage: threatscope [flags] <logfile> [logfile...]

Input log files may be plain text, gzip (.gz), or zstd (.zst) compressed,
each line "<unix_seconds> <dotted-quad>".

Flags:
`, version.Version)
	flag.PrintDefaults()
}
