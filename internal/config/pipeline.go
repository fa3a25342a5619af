// Package config loads the pipeline's tuning parameters: a JSON defaults
// file mirrored by CLI flags, every field a pointer so an absent key in the
// file or an unset flag leaves the compiled-in default untouched.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// CodecWhitelist lists the video codecs the encoder invocation accepts.
var CodecWhitelist = map[string]bool{
	"libx264":   true,
	"libx265":   true,
	"libvpx":    true,
	"libvpx-vp9": true,
	"h264":      true,
	"hevc":      true,
	"vp8":       true,
	"vp9":       true,
}

// PipelineConfig mirrors the pipeline driver's Pipeline State fields.
// Every field is a pointer: omitted from JSON or unset on the CLI means
// "use the compiled-in default", not "use the zero value".
type PipelineConfig struct {
	CurveOrder          *int    `json:"curve_order,omitempty"`
	BinSeconds          *int64  `json:"bin_seconds,omitempty"`
	DecaySeconds        *int64  `json:"decay_seconds,omitempty"`
	ImageWidth          *int    `json:"image_width,omitempty"`
	ImageHeight         *int    `json:"image_height,omitempty"`
	OutputDirectory     *string `json:"output_directory,omitempty"`
	OutputPrefix        *string `json:"output_prefix,omitempty"`
	VideoFPS            *int    `json:"video_fps,omitempty"`
	CodecName           *string `json:"codec_name,omitempty"`
	ShowTimestamp       *bool   `json:"show_timestamp,omitempty"`
	AutoScale           *bool   `json:"auto_scale,omitempty"`
	TargetVideoDuration *int    `json:"target_video_duration,omitempty"`
	CIDRTablePath       *string `json:"cidr_table_path,omitempty"`
	ResidueStorePath    *string `json:"residue_store_path,omitempty"`
}

func ptrInt(v int) *int       { return &v }
func ptrInt64(v int64) *int64 { return &v }
func ptrBool(v bool) *bool    { return &v }
func ptrString(v string) *string { return &v }

// EmptyPipelineConfig returns a PipelineConfig with all fields nil.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file must
// have a .json extension and be under 1MB. Omitted keys retain their
// compiled-in default via the Get* accessors.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical pipeline defaults, searching
// from the current directory up through common parent directories. Panics
// if the file cannot be found; intended for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks any fields that are set for structural validity. Nil
// fields are always valid; they simply defer to the compiled-in default.
func (c *PipelineConfig) Validate() error {
	if c.CurveOrder != nil {
		if *c.CurveOrder < 4 || *c.CurveOrder > 16 {
			return fmt.Errorf("curve_order must be in [4, 16], got %d", *c.CurveOrder)
		}
	}
	if c.BinSeconds != nil && *c.BinSeconds <= 0 {
		return fmt.Errorf("bin_seconds must be positive, got %d", *c.BinSeconds)
	}
	if c.DecaySeconds != nil && *c.DecaySeconds <= 0 {
		return fmt.Errorf("decay_seconds must be positive, got %d", *c.DecaySeconds)
	}
	if c.ImageWidth != nil && *c.ImageWidth <= 0 {
		return fmt.Errorf("image_width must be positive, got %d", *c.ImageWidth)
	}
	if c.ImageHeight != nil && *c.ImageHeight <= 0 {
		return fmt.Errorf("image_height must be positive, got %d", *c.ImageHeight)
	}
	if c.VideoFPS != nil && (*c.VideoFPS < 1 || *c.VideoFPS > 120) {
		return fmt.Errorf("video_fps must be in [1, 120], got %d", *c.VideoFPS)
	}
	if c.CodecName != nil && !CodecWhitelist[*c.CodecName] {
		return fmt.Errorf("codec_name %q is not in the supported codec whitelist", *c.CodecName)
	}
	if c.TargetVideoDuration != nil && (*c.TargetVideoDuration < 10 || *c.TargetVideoDuration > 3600) {
		return fmt.Errorf("target_video_duration must be in [10, 3600], got %d", *c.TargetVideoDuration)
	}
	return nil
}

// GetCurveOrder returns the curve_order value or the default (12).
func (c *PipelineConfig) GetCurveOrder() int {
	if c.CurveOrder == nil {
		return 12
	}
	return *c.CurveOrder
}

// GetBinSeconds returns the bin_seconds value or the default (60).
func (c *PipelineConfig) GetBinSeconds() int64 {
	if c.BinSeconds == nil {
		return 60
	}
	return *c.BinSeconds
}

// GetDecaySeconds returns the decay_seconds value or the default (3 hours).
func (c *PipelineConfig) GetDecaySeconds() int64 {
	if c.DecaySeconds == nil {
		return 3 * 3600
	}
	return *c.DecaySeconds
}

// GetImageWidth returns the image_width value or the default (3440).
func (c *PipelineConfig) GetImageWidth() int {
	if c.ImageWidth == nil {
		return 3440
	}
	return *c.ImageWidth
}

// GetImageHeight returns the image_height value or the default (1440).
func (c *PipelineConfig) GetImageHeight() int {
	if c.ImageHeight == nil {
		return 1440
	}
	return *c.ImageHeight
}

// GetOutputDirectory returns the output_directory value or the default (".").
func (c *PipelineConfig) GetOutputDirectory() string {
	if c.OutputDirectory == nil || *c.OutputDirectory == "" {
		return "."
	}
	return *c.OutputDirectory
}

// GetOutputPrefix returns the output_prefix value or the default ("frame").
func (c *PipelineConfig) GetOutputPrefix() string {
	if c.OutputPrefix == nil || *c.OutputPrefix == "" {
		return "frame"
	}
	return *c.OutputPrefix
}

// GetVideoFPS returns the video_fps value or the default (30). Callers that
// need to distinguish "explicitly set" from "defaulted" (the auto-scale fps
// leg) should check VideoFPS directly.
func (c *PipelineConfig) GetVideoFPS() int {
	if c.VideoFPS == nil {
		return 30
	}
	return *c.VideoFPS
}

// GetCodecName returns the codec_name value or the default ("libx264").
func (c *PipelineConfig) GetCodecName() string {
	if c.CodecName == nil || *c.CodecName == "" {
		return "libx264"
	}
	return *c.CodecName
}

// GetShowTimestamp returns the show_timestamp value or the default (false).
func (c *PipelineConfig) GetShowTimestamp() bool {
	if c.ShowTimestamp == nil {
		return false
	}
	return *c.ShowTimestamp
}

// GetAutoScale returns the auto_scale value or the default (true).
func (c *PipelineConfig) GetAutoScale() bool {
	if c.AutoScale == nil {
		return true
	}
	return *c.AutoScale
}

// GetTargetVideoDuration returns the target_video_duration value or the
// default (300 seconds).
func (c *PipelineConfig) GetTargetVideoDuration() int {
	if c.TargetVideoDuration == nil {
		return 300
	}
	return *c.TargetVideoDuration
}

// GetCIDRTablePath returns the cidr_table_path value, or "" if unset (no
// geography banding; addresses map directly onto the curve).
func (c *PipelineConfig) GetCIDRTablePath() string {
	if c.CIDRTablePath == nil {
		return ""
	}
	return *c.CIDRTablePath
}

// GetResidueStorePath returns the residue_store_path value, or "" if unset
// (no cross-run residue persistence).
func (c *PipelineConfig) GetResidueStorePath() string {
	if c.ResidueStorePath == nil {
		return ""
	}
	return *c.ResidueStorePath
}
