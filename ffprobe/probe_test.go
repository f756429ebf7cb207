package ffprobe

import (
	"strings"
	"testing"
)

func TestProbe_EmptyPath(t *testing.T) {
	_, err := Probe("")
	if err == nil {
		t.Error("Expected error for empty path")
	}
	if !strings.Contains(err.Error(), "cannot be empty") {
		t.Errorf("Expected 'cannot be empty' error, got: %v", err)
	}
}

func TestParse_ValidOutput(t *testing.T) {
	raw := []byte(`{
		"streams": [
			{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 640, "height": 480},
			{"index": 1, "codec_name": "aac", "codec_type": "audio"}
		],
		"format": {
			"filename": "seg_20260826-120000.000.mp4",
			"format_name": "mov,mp4,m4a,3gp,3g2,mj2",
			"duration": "10.033333",
			"size": "1048576",
			"bit_rate": "836000"
		}
	}`)

	result, err := parse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	duration, err := result.GetDuration()
	if err != nil {
		t.Fatalf("GetDuration failed: %v", err)
	}
	if duration < 10.0 || duration > 10.1 {
		t.Errorf("Expected duration ~10.03, got %v", duration)
	}

	videos := result.GetVideoStreams()
	if len(videos) != 1 {
		t.Fatalf("Expected 1 video stream, got %d", len(videos))
	}
	if videos[0].Width != 640 || videos[0].Height != 480 {
		t.Errorf("Expected 640x480, got %dx%d", videos[0].Width, videos[0].Height)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := parse([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestGetDuration_Missing(t *testing.T) {
	result := &ProbeResult{}
	if _, err := result.GetDuration(); err == nil {
		t.Error("Expected error when duration is missing")
	}
}

func TestGetDuration_Unparseable(t *testing.T) {
	result := &ProbeResult{Format: Format{Duration: "N/A"}}
	if _, err := result.GetDuration(); err == nil {
		t.Error("Expected error for unparseable duration")
	}
}
