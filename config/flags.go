package config

import (
	"flag"
	"fmt"
	"os"
)

// Flags holds parsed command-line flag values
type Flags struct {
	Output     string
	ConfigPath string
	FFmpeg     string

	Width     int
	Height    int
	FrameRate int
	Quality   int
	Codec     string
	Preset    string
	Resize    string

	Audio           bool
	AudioInput      string
	AudioSampleRate int
	AudioChannels   int
	AudioCodec      string
	AudioBitrate    string

	NoBackup     bool
	BackupDir    string
	BackupWindow int
	BackupMode   string
	QueueSize    int
	VerifyBackup bool

	Merge   bool
	Strict  bool
	Verbose bool
	DryRun  bool

	set map[string]bool
}

// ParseFlags parses command-line arguments into a Flags struct.
// Exits with usage on parse error.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.Output, "output", "", "Output file path (required)")
	flag.StringVar(&f.ConfigPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.FFmpeg, "ffmpeg", "", "Path to ffmpeg binary")

	flag.IntVar(&f.Width, "width", 0, "Capture width in pixels")
	flag.IntVar(&f.Height, "height", 0, "Capture height in pixels")
	flag.IntVar(&f.FrameRate, "fps", 0, "Frame rate")
	flag.IntVar(&f.Quality, "quality", -1, "Encoding quality 0-100")
	flag.StringVar(&f.Codec, "codec", "", "Video codec (libx264, libx265, ...)")
	flag.StringVar(&f.Preset, "preset", "", "Encoder preset (ultrafast, veryfast, ...)")
	flag.StringVar(&f.Resize, "resize", "", "Resize output to WxH")

	flag.BoolVar(&f.Audio, "audio", false, "Enable audio input")
	flag.StringVar(&f.AudioInput, "audio-input", "", "Raw s16le audio source (file or FIFO)")
	flag.IntVar(&f.AudioSampleRate, "audio-sample-rate", 0, "Audio sample rate in Hz")
	flag.IntVar(&f.AudioChannels, "audio-channels", 0, "Audio channel count")
	flag.StringVar(&f.AudioCodec, "audio-codec", "", "Audio output codec")
	flag.StringVar(&f.AudioBitrate, "audio-bitrate", "", "Audio bitrate (e.g. 128k)")

	flag.BoolVar(&f.NoBackup, "no-backup", false, "Disable the segment backup recorder")
	flag.StringVar(&f.BackupDir, "backup-dir", "", "Backup directory (default: output path minus extension)")
	flag.IntVar(&f.BackupWindow, "backup-window", 0, "Backup segment window in seconds")
	flag.StringVar(&f.BackupMode, "backup-mode", "", "Backup mode: segments or images")
	flag.IntVar(&f.QueueSize, "backup-queue", 0, "Backup hand-off queue capacity")
	flag.BoolVar(&f.VerifyBackup, "verify-backup", false, "Probe compacted artifacts before deleting raw data")

	flag.BoolVar(&f.Merge, "merge", false, "Merge backup segments under -backup-dir into -output")
	flag.BoolVar(&f.Strict, "strict", false, "Fail the merge when uncompacted segment data remains")
	flag.BoolVar(&f.Verbose, "verbose", false, "Show detailed logs")
	flag.BoolVar(&f.DryRun, "dry-run", false, "Show configuration and encoder arguments without recording")

	flag.Usage = printUsage
	flag.Parse()

	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	return f
}

// isSet reports whether the flag was given on the command line
func (f *Flags) isSet(name string) bool {
	return f.set[name]
}

// MergeFromFlags applies flag values over cfg. Only flags the user
// actually passed override the existing values.
func MergeFromFlags(cfg *Config, f *Flags) {
	if f.isSet("output") {
		cfg.Output = f.Output
	}
	if f.isSet("ffmpeg") {
		cfg.FFmpegPath = f.FFmpeg
	}

	if f.isSet("width") {
		cfg.Video.Width = f.Width
	}
	if f.isSet("height") {
		cfg.Video.Height = f.Height
	}
	if f.isSet("fps") {
		cfg.Video.FrameRate = f.FrameRate
	}
	if f.isSet("quality") {
		cfg.Video.Quality = f.Quality
	}
	if f.isSet("codec") {
		cfg.Video.Codec = f.Codec
	}
	if f.isSet("preset") {
		cfg.Video.Preset = f.Preset
	}
	if f.isSet("resize") {
		if w, h, err := ParseResolution(f.Resize); err == nil {
			cfg.Video.ResizeWidth = w
			cfg.Video.ResizeHeight = h
		}
	}

	if f.isSet("audio") {
		cfg.Audio.Enabled = f.Audio
	}
	if f.isSet("audio-input") {
		cfg.Audio.Input = f.AudioInput
	}
	if f.isSet("audio-sample-rate") {
		cfg.Audio.SampleRate = f.AudioSampleRate
	}
	if f.isSet("audio-channels") {
		cfg.Audio.Channels = f.AudioChannels
	}
	if f.isSet("audio-codec") {
		cfg.Audio.Codec = f.AudioCodec
	}
	if f.isSet("audio-bitrate") {
		cfg.Audio.Bitrate = f.AudioBitrate
	}

	if f.isSet("no-backup") {
		cfg.Backup.Enabled = !f.NoBackup
	}
	if f.isSet("backup-dir") {
		cfg.Backup.Dir = f.BackupDir
	}
	if f.isSet("backup-window") {
		cfg.Backup.WindowSec = f.BackupWindow
	}
	if f.isSet("backup-mode") {
		cfg.Backup.Mode = f.BackupMode
	}
	if f.isSet("backup-queue") {
		cfg.Backup.QueueSize = f.QueueSize
	}
	if f.isSet("verify-backup") {
		cfg.Backup.Verify = f.VerifyBackup
	}

	if f.isSet("merge") {
		cfg.Merge = f.Merge
	}
	if f.isSet("strict") {
		cfg.Strict = f.Strict
	}
	if f.isSet("verbose") {
		cfg.Verbose = f.Verbose
	}
	if f.isSet("dry-run") {
		cfg.DryRun = f.DryRun
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `screenrec - stream raw frames to an encoder with segment backup

Usage:
  screenrec -output <file> [options]         record from stdin
  screenrec -merge -backup-dir <dir> -output <file>   merge backup segments

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  capture | screenrec -output out.mp4 -width 1280 -height 720 -fps 30
  screenrec -output out.mp4 -quality 90 -preset veryfast -audio -audio-input mic.fifo
  screenrec -merge -backup-dir out -output recovered.mp4
`)
}
