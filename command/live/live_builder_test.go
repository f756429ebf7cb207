package live

import (
	"strings"
	"testing"

	"screenrec/command"
)

func TestNewBuilder_Defaults(t *testing.T) {
	builder := NewBuilder("/tmp/video.fifo", 640, 480, 30, "/output/session.mp4")

	if builder.codec != "libx264" {
		t.Errorf("Expected default codec 'libx264', got '%s'", builder.codec)
	}
	if builder.preset != "ultrafast" {
		t.Errorf("Expected default preset 'ultrafast', got '%s'", builder.preset)
	}
	if builder.quality != 75 {
		t.Errorf("Expected default quality 75, got %d", builder.quality)
	}
	if builder.GetOutputPath() != "/output/session.mp4" {
		t.Errorf("Expected output path '/output/session.mp4', got '%s'", builder.GetOutputPath())
	}
	if builder.GetTaskType() != command.TaskTypeLive {
		t.Errorf("Expected task type 'live', got '%s'", builder.GetTaskType())
	}
}

func TestBuildArgs_VideoOnly(t *testing.T) {
	builder := NewBuilder("/tmp/video.fifo", 640, 480, 30, "/output/session.mp4")

	args := builder.BuildArgs()
	argsStr := strings.Join(args, " ")

	if !strings.Contains(argsStr, "-f rawvideo") {
		t.Error("Expected rawvideo input format")
	}
	if !strings.Contains(argsStr, "-pix_fmt rgba") {
		t.Error("Expected rgba input pixel format")
	}
	if !strings.Contains(argsStr, "-video_size 640x480") {
		t.Error("Expected video size 640x480")
	}
	if !strings.Contains(argsStr, "-framerate 30") {
		t.Error("Expected framerate 30")
	}
	if !strings.Contains(argsStr, "-i /tmp/video.fifo") {
		t.Error("Expected video pipe input")
	}
	if strings.Contains(argsStr, "s16le") {
		t.Error("Video-only session should not have an audio input")
	}
	if !strings.Contains(argsStr, "-pix_fmt yuv420p") {
		t.Error("Expected yuv420p output pixel format")
	}
	if args[len(args)-1] != "/output/session.mp4" {
		t.Errorf("Expected output path as last argument, got '%s'", args[len(args)-1])
	}
}

func TestBuildArgs_WithAudio(t *testing.T) {
	builder := NewBuilder("/tmp/video.fifo", 1920, 1080, 60, "/output/session.mp4")
	builder.SetAudio("/tmp/audio.fifo", 44100, 2)

	argsStr := strings.Join(builder.BuildArgs(), " ")

	if !strings.Contains(argsStr, "-f s16le") {
		t.Error("Expected s16le audio input format")
	}
	if !strings.Contains(argsStr, "-ar 44100") {
		t.Error("Expected sample rate 44100")
	}
	if !strings.Contains(argsStr, "-ac 2") {
		t.Error("Expected 2 channels")
	}
	if !strings.Contains(argsStr, "-i /tmp/audio.fifo") {
		t.Error("Expected audio pipe input")
	}
	if !strings.Contains(argsStr, "-c:a aac") {
		t.Error("Expected aac output audio codec")
	}
}

func TestBuildArgs_QualityMapping(t *testing.T) {
	tests := []struct {
		quality int
		wantCRF string
	}{
		{100, "-crf 0"},
		{0, "-crf 51"},
		{50, "-crf 25"},
	}

	for _, tt := range tests {
		builder := NewBuilder("/tmp/video.fifo", 640, 480, 30, "/output/out.mp4")
		builder.SetQuality(tt.quality)

		argsStr := strings.Join(builder.BuildArgs(), " ")
		if !strings.Contains(argsStr, tt.wantCRF) {
			t.Errorf("Quality %d: expected '%s' in args, got: %s", tt.quality, tt.wantCRF, argsStr)
		}
	}
}

func TestBuildArgs_ResizeRoundsUpToEven(t *testing.T) {
	builder := NewBuilder("/tmp/video.fifo", 1280, 720, 30, "/output/out.mp4")
	builder.SetResize(641, 481)

	argsStr := strings.Join(builder.BuildArgs(), " ")

	if !strings.Contains(argsStr, "scale=642:482") {
		t.Errorf("Expected resize 641x481 to round up to 642x482, got: %s", argsStr)
	}
}

func TestBuildArgs_Deterministic(t *testing.T) {
	builder := NewBuilder("/tmp/video.fifo", 640, 480, 30, "/output/out.mp4")
	builder.SetAudio("/tmp/audio.fifo", 48000, 2).SetQuality(90)

	first := strings.Join(builder.BuildArgs(), " ")
	second := strings.Join(builder.BuildArgs(), " ")

	if first != second {
		t.Error("BuildArgs must be deterministic for an unchanged builder")
	}
}

func TestDryRun(t *testing.T) {
	builder := NewBuilder("/tmp/video.fifo", 640, 480, 30, "/output/out.mp4")

	cmd, err := builder.DryRun()
	if err != nil {
		t.Fatalf("DryRun failed: %v", err)
	}
	if !strings.HasPrefix(cmd, "ffmpeg ") {
		t.Errorf("Expected command to start with 'ffmpeg ', got: %s", cmd)
	}
}
