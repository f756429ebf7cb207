package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration for errors.
// All problems are collected and reported together.
func (c *Config) Validate() error {
	var errors []string

	if !c.Merge {
		if c.Output == "" {
			errors = append(errors, "output path is required (use -output)")
		}

		if c.Video.Width <= 0 {
			errors = append(errors, fmt.Sprintf("width must be positive, got %d", c.Video.Width))
		}
		if c.Video.Height <= 0 {
			errors = append(errors, fmt.Sprintf("height must be positive, got %d", c.Video.Height))
		}
		if c.Video.FrameRate <= 0 {
			errors = append(errors, fmt.Sprintf("frame rate must be positive, got %d", c.Video.FrameRate))
		}
		if c.Video.Quality < 0 || c.Video.Quality > 100 {
			errors = append(errors, fmt.Sprintf("quality must be 0-100, got %d", c.Video.Quality))
		}
		if (c.Video.ResizeWidth > 0) != (c.Video.ResizeHeight > 0) {
			errors = append(errors, "resize requires both width and height")
		}

		if c.Audio.Enabled {
			if c.Audio.Input == "" {
				errors = append(errors, "audio requires an input source (use -audio-input)")
			}
			if c.Audio.SampleRate <= 0 {
				errors = append(errors, fmt.Sprintf("audio sample rate must be positive, got %d", c.Audio.SampleRate))
			}
			if c.Audio.Channels <= 0 {
				errors = append(errors, fmt.Sprintf("audio channels must be positive, got %d", c.Audio.Channels))
			}
		}

		if c.ConnectTimeoutMs <= 0 {
			errors = append(errors, fmt.Sprintf("connect timeout must be positive, got %d", c.ConnectTimeoutMs))
		}
	} else {
		if c.Output == "" {
			errors = append(errors, "merge requires an output path (use -output)")
		}
		if c.Backup.Dir == "" {
			errors = append(errors, "merge requires a backup directory (use -backup-dir)")
		}
	}

	if c.Backup.Enabled {
		if c.Backup.WindowSec <= 0 {
			errors = append(errors, fmt.Sprintf("backup window must be positive, got %d", c.Backup.WindowSec))
		}
		if !IsValidBackupMode(c.Backup.Mode) {
			errors = append(errors, fmt.Sprintf("invalid backup mode %q, valid: %s",
				c.Backup.Mode, strings.Join(BackupModeValues(), ", ")))
		}
		if c.Backup.QueueSize <= 0 {
			errors = append(errors, fmt.Sprintf("backup queue size must be positive, got %d", c.Backup.QueueSize))
		}
	}

	if c.FFmpegPath == "" {
		errors = append(errors, "ffmpeg path cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// PrintConfig displays the effective configuration
func (c *Config) PrintConfig() {
	fmt.Println("Configuration:")
	fmt.Printf("  Output:       %s\n", c.Output)
	fmt.Printf("  FFmpeg:       %s\n", c.FFmpegPath)
	fmt.Printf("  Video:        %dx%d @ %d fps, %s quality %d preset %s\n",
		c.Video.Width, c.Video.Height, c.Video.FrameRate,
		c.Video.Codec, c.Video.Quality, c.Video.Preset)
	if c.Video.ResizeWidth > 0 {
		fmt.Printf("  Resize:       %dx%d\n", c.Video.ResizeWidth, c.Video.ResizeHeight)
	}
	if c.Audio.Enabled {
		fmt.Printf("  Audio:        %s, %d Hz, %d ch, %s %s\n",
			c.Audio.Input, c.Audio.SampleRate, c.Audio.Channels, c.Audio.Codec, c.Audio.Bitrate)
	} else {
		fmt.Printf("  Audio:        disabled\n")
	}
	if c.Backup.Enabled {
		fmt.Printf("  Backup:       %s, %s mode, %ds window, queue %d\n",
			c.BackupDir(), c.Backup.Mode, c.Backup.WindowSec, c.Backup.QueueSize)
	} else {
		fmt.Printf("  Backup:       disabled\n")
	}
	fmt.Printf("  Verbose:      %v\n", c.Verbose)
}
