package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.GetCurveOrder() < 4 || cfg.GetCurveOrder() > 16 {
		t.Errorf("CurveOrder out of range: %d", cfg.GetCurveOrder())
	}
	if cfg.GetBinSeconds() <= 0 {
		t.Errorf("BinSeconds must be positive: %d", cfg.GetBinSeconds())
	}
	if cfg.GetDecaySeconds() <= 0 {
		t.Errorf("DecaySeconds must be positive: %d", cfg.GetDecaySeconds())
	}
	if !CodecWhitelist[cfg.GetCodecName()] {
		t.Errorf("default codec %q not in whitelist", cfg.GetCodecName())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must pass Validate(): %v", err)
	}
}

func TestEmptyPipelineConfig(t *testing.T) {
	cfg := EmptyPipelineConfig()
	if cfg.CurveOrder != nil || cfg.BinSeconds != nil || cfg.CodecName != nil {
		t.Error("expected all fields nil on an empty config")
	}
	// Accessors still return usable compiled-in defaults.
	if cfg.GetCurveOrder() != 12 {
		t.Errorf("GetCurveOrder() = %d, want 12", cfg.GetCurveOrder())
	}
	if cfg.GetCodecName() != "libx264" {
		t.Errorf("GetCodecName() = %q, want libx264", cfg.GetCodecName())
	}
}

func TestLoadPipelineConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "curve_order": 10,
  "bin_seconds": 120,
  "decay_seconds": 7200,
  "image_width": 1920,
  "image_height": 1080,
  "output_directory": "/tmp/frames",
  "output_prefix": "scan",
  "video_fps": 24,
  "codec_name": "libx265",
  "show_timestamp": true,
  "auto_scale": false,
  "target_video_duration": 120,
  "cidr_table_path": "bands.txt",
  "residue_store_path": "residue.db"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadPipelineConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.GetCurveOrder() != 10 {
		t.Errorf("CurveOrder = %d, want 10", cfg.GetCurveOrder())
	}
	if cfg.GetBinSeconds() != 120 {
		t.Errorf("BinSeconds = %d, want 120", cfg.GetBinSeconds())
	}
	if cfg.GetDecaySeconds() != 7200 {
		t.Errorf("DecaySeconds = %d, want 7200", cfg.GetDecaySeconds())
	}
	if cfg.GetImageWidth() != 1920 || cfg.GetImageHeight() != 1080 {
		t.Errorf("image dims = %dx%d, want 1920x1080", cfg.GetImageWidth(), cfg.GetImageHeight())
	}
	if cfg.GetOutputDirectory() != "/tmp/frames" {
		t.Errorf("OutputDirectory = %q, want /tmp/frames", cfg.GetOutputDirectory())
	}
	if cfg.GetOutputPrefix() != "scan" {
		t.Errorf("OutputPrefix = %q, want scan", cfg.GetOutputPrefix())
	}
	if cfg.GetVideoFPS() != 24 {
		t.Errorf("VideoFPS = %d, want 24", cfg.GetVideoFPS())
	}
	if cfg.GetCodecName() != "libx265" {
		t.Errorf("CodecName = %q, want libx265", cfg.GetCodecName())
	}
	if !cfg.GetShowTimestamp() {
		t.Error("ShowTimestamp = false, want true")
	}
	if cfg.GetAutoScale() {
		t.Error("AutoScale = true, want false")
	}
	if cfg.GetTargetVideoDuration() != 120 {
		t.Errorf("TargetVideoDuration = %d, want 120", cfg.GetTargetVideoDuration())
	}
	if cfg.GetCIDRTablePath() != "bands.txt" {
		t.Errorf("CIDRTablePath = %q, want bands.txt", cfg.GetCIDRTablePath())
	}
	if cfg.GetResidueStorePath() != "residue.db" {
		t.Errorf("ResidueStorePath = %q, want residue.db", cfg.GetResidueStorePath())
	}
}

func TestLoadPipelineConfigPartial(t *testing.T) {
	// Partial configs are accepted: omitted keys fall back to the
	// compiled-in default via the Get* accessors.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	if err := os.WriteFile(configPath, []byte(`{"bin_seconds": 30}`), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadPipelineConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load partial config: %v", err)
	}
	if cfg.GetBinSeconds() != 30 {
		t.Errorf("BinSeconds = %d, want 30", cfg.GetBinSeconds())
	}
	if cfg.GetCurveOrder() != 12 {
		t.Errorf("CurveOrder = %d, want default 12", cfg.GetCurveOrder())
	}
}

func TestLoadPipelineConfigMissing(t *testing.T) {
	_, err := LoadPipelineConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("expected error when loading missing file, got nil")
	}
}

func TestLoadPipelineConfigInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")
	if err := os.WriteFile(configPath, []byte(`{"bin_seconds": `), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadPipelineConfig(configPath); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestLoadPipelineConfigRejectsNonJSON(t *testing.T) {
	if _, err := LoadPipelineConfig("/some/path/config.yaml"); err == nil {
		t.Error("expected error for non-.json extension, got nil")
	}
}

func TestLoadPipelineConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")
	largeData := make([]byte, 2*1024*1024)
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("failed to write large file: %v", err)
	}
	if _, err := LoadPipelineConfig(configPath); err == nil {
		t.Error("expected error for file size > 1MB, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *PipelineConfig
		wantErr bool
	}{
		{"valid defaults", MustLoadDefaultConfig(), false},
		{"empty config is valid", &PipelineConfig{}, false},
		{"curve order too low", &PipelineConfig{CurveOrder: ptrInt(2)}, true},
		{"curve order too high", &PipelineConfig{CurveOrder: ptrInt(20)}, true},
		{"non-positive bin seconds", &PipelineConfig{BinSeconds: ptrInt64(0)}, true},
		{"non-positive decay seconds", &PipelineConfig{DecaySeconds: ptrInt64(-1)}, true},
		{"codec not in whitelist", &PipelineConfig{CodecName: ptrString("mpeg1")}, true},
		{"fps out of range", &PipelineConfig{VideoFPS: ptrInt(200)}, true},
		{"duration out of range", &PipelineConfig{TargetVideoDuration: ptrInt(5)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadPipelineConfig("../../config/pipeline.defaults.json")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must pass Validate(): %v", err)
	}
}
