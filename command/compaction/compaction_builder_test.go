package compaction

import (
	"strings"
	"testing"

	"screenrec/command"
)

func TestRawBuilder(t *testing.T) {
	builder := NewRawBuilder("/backup/seg_20260101-120000.raw", "/backup/seg_20260101-120000.mp4",
		640, 480, 30)

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
	if !strings.Contains(argsStr, "-i /backup/seg_20260101-120000.raw") {
		t.Error("Expected raw segment input")
	}
	if args[len(args)-1] != "/backup/seg_20260101-120000.mp4" {
		t.Errorf("Expected artifact path as last argument, got '%s'", args[len(args)-1])
	}
	if strings.Contains(argsStr, "image2") {
		t.Error("Raw mode should not use the image2 demuxer")
	}
	if builder.GetTaskType() != command.TaskTypeCompaction {
		t.Errorf("Expected task type 'compaction', got '%s'", builder.GetTaskType())
	}
}

func TestImageBuilder(t *testing.T) {
	builder := NewImageBuilder("/backup/seg_20260101-120000_%06d.bmp",
		"/backup/seg_20260101-120000.mp4", 30)

	argsStr := strings.Join(builder.BuildArgs(), " ")

	if !strings.Contains(argsStr, "-f image2") {
		t.Error("Expected image2 input format")
	}
	if !strings.Contains(argsStr, "-framerate 30") {
		t.Error("Expected framerate 30")
	}
	if !strings.Contains(argsStr, "-i /backup/seg_20260101-120000_%06d.bmp") {
		t.Error("Expected image pattern input")
	}
	if !strings.Contains(argsStr, "pad=ceil(iw/2)*2:ceil(ih/2)*2") {
		t.Error("Expected even-dimension padding filter for image mode")
	}
	if strings.Contains(argsStr, "rawvideo") {
		t.Error("Image mode should not use the rawvideo demuxer")
	}
}

func TestBuilder_QualityMapping(t *testing.T) {
	builder := NewRawBuilder("/backup/seg.raw", "/backup/seg.mp4", 640, 480, 30)
	builder.SetQuality(100)

	if !strings.Contains(strings.Join(builder.BuildArgs(), " "), "-crf 0") {
		t.Error("Quality 100 should map to CRF 0")
	}

	builder.SetQuality(0)
	if !strings.Contains(strings.Join(builder.BuildArgs(), " "), "-crf 51") {
		t.Error("Quality 0 should map to CRF 51")
	}
}

func TestBuilder_DefaultPreset(t *testing.T) {
	builder := NewRawBuilder("/backup/seg.raw", "/backup/seg.mp4", 640, 480, 30)

	if !strings.Contains(strings.Join(builder.BuildArgs(), " "), "-preset veryfast") {
		t.Error("Expected compaction default preset 'veryfast'")
	}
}

func TestDryRun(t *testing.T) {
	builder := NewImageBuilder("/backup/seg_%06d.bmp", "/backup/seg.mp4", 30)

	cmd, err := builder.DryRun()
	if err != nil {
		t.Fatalf("DryRun failed: %v", err)
	}
	if !strings.HasPrefix(cmd, "ffmpeg ") {
		t.Errorf("Expected command to start with 'ffmpeg ', got: %s", cmd)
	}
}
