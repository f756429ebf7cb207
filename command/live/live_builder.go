// Package live builds the FFmpeg invocation for a live recording session:
// one raw-video conduit input, an optional raw-audio conduit input, and a
// single compressed output file.
package live

import (
	"fmt"
	"strings"

	"screenrec/command"
)

// Builder assembles the live-session FFmpeg argument list.
//
// The video input is a raw RGBA stream read from a named pipe, so pixel
// format, resolution and frame rate must be stated explicitly. Audio, when
// enabled, is a second pipe carrying s16le interleaved samples.
type Builder struct {
	videoPipe  string
	outputPath string

	// Video input properties
	width     int
	height    int
	frameRate int

	// Audio input (optional)
	audioPipe     string
	sampleRate    int
	channels      int
	audioCodec    string
	audioBitrate  string

	// Encoding settings
	codec        string
	quality      int
	preset       string
	resizeWidth  int
	resizeHeight int
}

// NewBuilder creates a live-session builder for the given video conduit,
// frame geometry and output path.
func NewBuilder(videoPipe string, width, height, frameRate int, outputPath string) *Builder {
	return &Builder{
		videoPipe:  videoPipe,
		outputPath: outputPath,
		width:      width,
		height:     height,
		frameRate:  frameRate,
		codec:      "libx264",
		quality:    75,
		preset:     "ultrafast",
	}
}

// SetAudio enables the audio input pipe with the given sample rate and
// channel count.
func (b *Builder) SetAudio(audioPipe string, sampleRate, channels int) *Builder {
	b.audioPipe = audioPipe
	b.sampleRate = sampleRate
	b.channels = channels
	b.audioCodec = "aac"
	b.audioBitrate = "128k"
	return b
}

// SetAudioCodec overrides the output audio codec and bitrate.
func (b *Builder) SetAudioCodec(codec, bitrate string) *Builder {
	b.audioCodec = codec
	b.audioBitrate = bitrate
	return b
}

// SetCodec sets the output video codec (e.g., "libx264", "libx265").
func (b *Builder) SetCodec(codec string) *Builder {
	b.codec = codec
	return b
}

// SetQuality sets the 0-100 quality value (higher = better); it is mapped
// onto the encoder's CRF scale when the arguments are built.
func (b *Builder) SetQuality(quality int) *Builder {
	b.quality = quality
	return b
}

// SetPreset sets the encoding speed preset. Live capture defaults to
// "ultrafast" so the encoder keeps up with the frame rate.
func (b *Builder) SetPreset(preset string) *Builder {
	b.preset = preset
	return b
}

// SetResize sets an output resize target. Dimensions are rounded up to the
// nearest even number before being placed into the argument list.
func (b *Builder) SetResize(width, height int) *Builder {
	b.resizeWidth = width
	b.resizeHeight = height
	return b
}

// BuildArgs constructs the FFmpeg arguments for the live session.
func (b *Builder) BuildArgs() []string {
	args := []string{
		"-y",

		// Raw video input from the video conduit
		"-f", "rawvideo",
		"-pix_fmt", command.RawPixelFormat,
		"-video_size", fmt.Sprintf("%dx%d", b.width, b.height),
		"-framerate", fmt.Sprintf("%d", b.frameRate),
		"-i", b.videoPipe,
	}

	// Raw audio input from the audio conduit
	if b.audioPipe != "" {
		args = append(args,
			"-f", command.RawAudioFormat,
			"-ar", fmt.Sprintf("%d", b.sampleRate),
			"-ac", fmt.Sprintf("%d", b.channels),
			"-i", b.audioPipe,
		)
	}

	if b.resizeWidth > 0 && b.resizeHeight > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d",
			command.EvenDimension(b.resizeWidth),
			command.EvenDimension(b.resizeHeight)))
	}

	args = append(args,
		"-c:v", b.codec,
		"-crf", fmt.Sprintf("%d", command.CRFFromQuality(b.quality)),
		"-preset", b.preset,
		"-pix_fmt", "yuv420p",
	)

	if b.audioPipe != "" {
		args = append(args,
			"-c:a", b.audioCodec,
			"-b:a", b.audioBitrate,
		)
	}

	args = append(args, b.outputPath)

	return args
}

// DryRun returns the command that would be executed without running it.
func (b *Builder) DryRun() (string, error) {
	return "ffmpeg " + strings.Join(b.BuildArgs(), " "), nil
}

// GetTaskType returns the task type identifier.
func (b *Builder) GetTaskType() command.TaskType {
	return command.TaskTypeLive
}

// GetOutputPath returns the output file path.
func (b *Builder) GetOutputPath() string {
	return b.outputPath
}
