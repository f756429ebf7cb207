// Package compaction builds the FFmpeg invocation that converts a closed
// raw backup segment into a compressed artifact.
//
// A segment's raw data is either one growing rawvideo file or a numbered
// sequence of BMP stills; both are re-encoded at the session frame rate
// using the live path's quality configuration.
package compaction

import (
	"fmt"
	"strings"

	"screenrec/command"
)

// Builder assembles the compaction FFmpeg argument list for one segment.
type Builder struct {
	inputPath  string // raw segment file, or printf image pattern
	outputPath string
	images     bool

	width     int
	height    int
	frameRate int

	codec   string
	quality int
	preset  string
}

// NewRawBuilder creates a compaction builder for a single raw segment file.
// Width, height and frame rate must match the parameters the segment was
// recorded with; they come from the backup manifest.
func NewRawBuilder(rawPath, outputPath string, width, height, frameRate int) *Builder {
	return &Builder{
		inputPath:  rawPath,
		outputPath: outputPath,
		width:      width,
		height:     height,
		frameRate:  frameRate,
		codec:      "libx264",
		quality:    75,
		preset:     "veryfast",
	}
}

// NewImageBuilder creates a compaction builder for a numbered image
// sequence (printf pattern, e.g. "seg_20260101-120000_%06d.bmp").
func NewImageBuilder(imagePattern, outputPath string, frameRate int) *Builder {
	return &Builder{
		inputPath:  imagePattern,
		outputPath: outputPath,
		images:     true,
		frameRate:  frameRate,
		codec:      "libx264",
		quality:    75,
		preset:     "veryfast",
	}
}

// SetCodec sets the output video codec.
func (b *Builder) SetCodec(codec string) *Builder {
	b.codec = codec
	return b
}

// SetQuality sets the 0-100 quality value. Compaction uses the same quality
// configuration as the live path; there is no separate backup profile.
func (b *Builder) SetQuality(quality int) *Builder {
	b.quality = quality
	return b
}

// SetPreset sets the encoding speed preset. Compaction runs off the live
// path, so it defaults to "veryfast" rather than the live "ultrafast".
func (b *Builder) SetPreset(preset string) *Builder {
	b.preset = preset
	return b
}

// BuildArgs constructs the FFmpeg arguments for the compaction invocation.
func (b *Builder) BuildArgs() []string {
	args := []string{"-y"}

	if b.images {
		args = append(args,
			"-f", "image2",
			"-framerate", fmt.Sprintf("%d", b.frameRate),
			"-i", b.inputPath,
		)
	} else {
		args = append(args,
			"-f", "rawvideo",
			"-pix_fmt", command.RawPixelFormat,
			"-video_size", fmt.Sprintf("%dx%d", b.width, b.height),
			"-framerate", fmt.Sprintf("%d", b.frameRate),
			"-i", b.inputPath,
		)
	}

	args = append(args,
		"-c:v", b.codec,
		"-crf", fmt.Sprintf("%d", command.CRFFromQuality(b.quality)),
		"-preset", b.preset,
		"-pix_fmt", "yuv420p",
	)

	// Image sources may carry odd dimensions; pad to the encoder's even
	// macroblock alignment.
	if b.images {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
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
	return command.TaskTypeCompaction
}

// GetOutputPath returns the artifact path.
func (b *Builder) GetOutputPath() string {
	return b.outputPath
}
