package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeRunner records compaction invocations instead of spawning ffmpeg.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	err   error

	// When gate is set, Run blocks until the gate is closed and signals
	// entered once per call.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeRunner) Run(bin string, args []string) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	return f.err
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testOptions(t *testing.T, runner Runner) Options {
	t.Helper()
	return Options{
		Dir:       filepath.Join(t.TempDir(), "backup"),
		Window:    time.Second,
		Width:     4,
		Height:    2,
		FrameRate: 30,
		Quality:   75,
		Runner:    runner,
		Logger:    zerolog.Nop(),
	}
}

func framePixels(fill byte) []byte {
	pixels := make([]byte, 4*2*4)
	for i := range pixels {
		pixels[i] = fill
	}
	return pixels
}

func TestNewRecorder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing dir", func(o *Options) { o.Dir = "" }},
		{"zero width", func(o *Options) { o.Width = 0 }},
		{"zero frame rate", func(o *Options) { o.FrameRate = 0 }},
		{"bad mode", func(o *Options) { o.Mode = "sideways" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, &fakeRunner{})
			tt.mutate(&opts)
			if _, err := NewRecorder(opts); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestRecorder_WritesManifestAndSegment(t *testing.T) {
	runner := &fakeRunner{}
	opts := testOptions(t, runner)
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	r.Submit(framePixels(1), base)
	r.Submit(framePixels(2), base.Add(100*time.Millisecond))
	r.Close()

	m, err := LoadManifest(opts.Dir)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Width != 4 || m.Height != 2 || m.FrameRate != 30 {
		t.Errorf("Manifest format mismatch: %+v", m)
	}
	if m.PixelFormat != "rgba" {
		t.Errorf("Expected pixel format 'rgba', got '%s'", m.PixelFormat)
	}

	// Both frames fall inside one window, so the tail segment is the
	// only compaction.
	if got := runner.callCount(); got != 1 {
		t.Errorf("Expected 1 compaction (tail), got %d", got)
	}
}

func TestRecorder_AppendsFramesInOrder(t *testing.T) {
	// Failing runner keeps the raw file around for inspection.
	runner := &fakeRunner{err: fmt.Errorf("simulated compaction failure")}
	opts := testOptions(t, runner)
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		r.Submit(framePixels(byte(i+1)), base.Add(time.Duration(i)*100*time.Millisecond))
	}
	r.Close()

	raws, err := filepath.Glob(filepath.Join(opts.Dir, "seg_*.raw"))
	if err != nil || len(raws) != 1 {
		t.Fatalf("Expected 1 raw segment file, got %v (err %v)", raws, err)
	}
	data, err := os.ReadFile(raws[0])
	if err != nil {
		t.Fatalf("Failed to read segment: %v", err)
	}

	frameSize := 4 * 2 * 4
	if len(data) != 3*frameSize {
		t.Fatalf("Expected %d bytes, got %d", 3*frameSize, len(data))
	}
	for i := 0; i < 3; i++ {
		if data[i*frameSize] != byte(i+1) {
			t.Errorf("Frame %d out of order: got fill byte %d", i, data[i*frameSize])
		}
	}
}

func TestRecorder_RotationCount(t *testing.T) {
	runner := &fakeRunner{}
	opts := testOptions(t, runner) // 1s window
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	// Frames spanning ~3.1s with a 1s window: rotations at 1.2s and
	// 2.4s, plus the tail segment finalized on Close.
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	offsets := []time.Duration{
		0, 500 * time.Millisecond,
		1200 * time.Millisecond, 1700 * time.Millisecond,
		2400 * time.Millisecond, 3100 * time.Millisecond,
	}
	for i, off := range offsets {
		r.Submit(framePixels(byte(i)), base.Add(off))
	}
	r.Close()

	if got := runner.callCount(); got != 3 {
		t.Errorf("Expected 3 compactions (2 rotations + tail), got %d", got)
	}

	// Successful compactions delete the raw segment data.
	raws, _ := filepath.Glob(filepath.Join(opts.Dir, "seg_*.raw"))
	if len(raws) != 0 {
		t.Errorf("Expected raw segments removed after compaction, found %v", raws)
	}
}

func TestRecorder_CompactionArgs(t *testing.T) {
	runner := &fakeRunner{}
	opts := testOptions(t, runner)
	opts.Quality = 100
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	r.Submit(framePixels(1), base)
	r.Close()

	if runner.callCount() != 1 {
		t.Fatalf("Expected 1 compaction, got %d", runner.callCount())
	}
	argsStr := strings.Join(runner.calls[0], " ")

	if !strings.Contains(argsStr, "-f rawvideo") {
		t.Error("Expected rawvideo compaction input")
	}
	if !strings.Contains(argsStr, "-video_size 4x2") {
		t.Error("Expected manifest dimensions in compaction args")
	}
	// Compaction shares the live path's quality configuration.
	if !strings.Contains(argsStr, "-crf 0") {
		t.Error("Expected quality 100 to map to CRF 0 in compaction args")
	}
	if !strings.Contains(argsStr, ".mp4") {
		t.Error("Expected mp4 artifact output")
	}
}

func TestRecorder_FailedCompactionPreservesRaw(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("encoder exploded")}
	opts := testOptions(t, runner)
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	r.Submit(framePixels(1), base)
	r.Close()

	raws, _ := filepath.Glob(filepath.Join(opts.Dir, "seg_*.raw"))
	if len(raws) != 1 {
		t.Errorf("Expected raw segment preserved after failed compaction, found %v", raws)
	}
	if r.Failures() == 0 {
		t.Error("Expected failure counter to increase")
	}
}

func TestRecorder_ImageMode(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("keep the stills")}
	opts := testOptions(t, runner)
	opts.Mode = ModeImages
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	r.Submit(framePixels(1), base)
	r.Submit(framePixels(2), base.Add(100*time.Millisecond))
	r.Close()

	stills, _ := filepath.Glob(filepath.Join(opts.Dir, "seg_*.bmp"))
	if len(stills) != 2 {
		t.Fatalf("Expected 2 numbered stills, got %v", stills)
	}

	if runner.callCount() != 1 {
		t.Fatalf("Expected 1 compaction, got %d", runner.callCount())
	}
	argsStr := strings.Join(runner.calls[0], " ")
	if !strings.Contains(argsStr, "-f image2") {
		t.Error("Expected image2 compaction input in image mode")
	}
	if !strings.Contains(argsStr, "%06d.bmp") {
		t.Error("Expected numbered still pattern in compaction args")
	}
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	runner := &fakeRunner{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	opts := testOptions(t, runner)
	opts.QueueSize = 2
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)

	// First frame opens the segment; wait until the worker consumed it.
	r.Submit(framePixels(1), base)
	for r.Backlog() > 0 {
		time.Sleep(time.Millisecond)
	}

	// This frame crosses the window boundary; the worker blocks inside
	// the (gated) compaction run.
	r.Submit(framePixels(2), base.Add(2*time.Second))
	<-runner.entered

	// Queue capacity is 2: two frames queue up, two more are dropped.
	for i := 0; i < 4; i++ {
		r.Submit(framePixels(3), base.Add(2*time.Second+time.Duration(i)*10*time.Millisecond))
	}

	if got := r.Dropped(); got != 2 {
		t.Errorf("Expected 2 dropped frames, got %d", got)
	}

	close(runner.gate)
	r.Close()
}

func TestRecorder_SubmitCopiesPixels(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("keep raw")}
	opts := testOptions(t, runner)
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	pixels := framePixels(0xAA)
	r.Submit(pixels, base)
	// The live path is free to overwrite its buffer immediately.
	for i := range pixels {
		pixels[i] = 0
	}
	r.Close()

	raws, _ := filepath.Glob(filepath.Join(opts.Dir, "seg_*.raw"))
	if len(raws) != 1 {
		t.Fatalf("Expected 1 raw segment, got %v", raws)
	}
	data, _ := os.ReadFile(raws[0])
	if len(data) == 0 || data[0] != 0xAA {
		t.Error("Recorder must copy pixels before queueing")
	}
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	r, err := NewRecorder(testOptions(t, &fakeRunner{}))
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
