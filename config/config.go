package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds all recorder configuration options
type Config struct {
	// Required fields
	Output string `yaml:"output"`

	// Encoder settings
	FFmpegPath       string `yaml:"ffmpeg_path"`        // encoder binary
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"` // conduit handshake bound

	// Video settings
	Video VideoConfig `yaml:"video"`

	// Audio settings
	Audio AudioConfig `yaml:"audio"`

	// Backup settings
	Backup BackupConfig `yaml:"backup"`

	// Behavioral flags
	Merge   bool `yaml:"-"`       // Merge an existing backup dir instead of recording
	Strict  bool `yaml:"strict"`  // Fail the merge when uncompacted segment data remains
	Verbose bool `yaml:"verbose"` // Show detailed logs
	DryRun  bool `yaml:"dry_run"` // Show config without recording
}

// VideoConfig holds the capture geometry and encoding settings
type VideoConfig struct {
	Width        int    `yaml:"width"`         // capture width in pixels
	Height       int    `yaml:"height"`        // capture height in pixels
	FrameRate    int    `yaml:"frame_rate"`    // e.g., 30, 60
	Quality      int    `yaml:"quality"`       // 0-100, higher = better
	Codec        string `yaml:"codec"`         // e.g., "libx264", "libx265"
	Preset       string `yaml:"preset"`        // e.g., "ultrafast", "veryfast"
	ResizeWidth  int    `yaml:"resize_width"`  // 0 = no resize
	ResizeHeight int    `yaml:"resize_height"` // 0 = no resize
}

// AudioConfig holds the raw audio input settings
type AudioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Input      string `yaml:"input"`       // path to a raw s16le source (file or FIFO)
	SampleRate int    `yaml:"sample_rate"` // e.g., 44100, 48000
	Channels   int    `yaml:"channels"`    // 1 (mono), 2 (stereo)
	Codec      string `yaml:"codec"`       // output codec, e.g., "aac"
	Bitrate    string `yaml:"bitrate"`     // e.g., "128k"
}

// BackupConfig holds the segment backup recorder settings
type BackupConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"`        // empty = derived from output path
	WindowSec int    `yaml:"window_sec"` // rotation window in seconds
	Mode      string `yaml:"mode"`       // "segments" or "images"
	QueueSize int    `yaml:"queue_size"` // hand-off queue capacity
	Verify    bool   `yaml:"verify"`     // probe artifacts before deleting raw data
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: "",

		FFmpegPath:       "ffmpeg",
		ConnectTimeoutMs: 5000,

		Video: VideoConfig{
			Width:     1920,
			Height:    1080,
			FrameRate: 30,
			Quality:   75,
			Codec:     "libx264",
			Preset:    "ultrafast", // live capture must keep up with the frame rate
		},

		Audio: AudioConfig{
			Enabled:    false,
			SampleRate: 44100,
			Channels:   2,
			Codec:      "aac",
			Bitrate:    "128k",
		},

		Backup: BackupConfig{
			Enabled:   true,
			WindowSec: 10,
			Mode:      "segments",
			QueueSize: 256,
			Verify:    false,
		},

		Merge:   false,
		Strict:  false,
		Verbose: false,
		DryRun:  false,
	}
}

// BackupDir returns the effective backup directory: the configured one, or
// the output path with its extension stripped.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return strings.TrimSuffix(c.Output, filepath.Ext(c.Output))
}

// BackupModeValues returns valid backup mode values
func BackupModeValues() []string {
	return []string{"segments", "images"}
}

// IsValidBackupMode checks if mode is valid
func IsValidBackupMode(mode string) bool {
	for _, valid := range BackupModeValues() {
		if mode == valid {
			return true
		}
	}
	return false
}

// ParseResolution parses a "WxH" string into width and height.
func ParseResolution(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid resolution %q, expected WxH: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q, dimensions must be positive", s)
	}
	return w, h, nil
}
