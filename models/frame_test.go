package models

import "testing"

func TestNewFrame(t *testing.T) {
	data := make([]byte, 16)
	frame := NewFrame(data, nil)

	if frame.Repeat {
		t.Error("Expected non-repeat frame")
	}
	if len(frame.Data) != 16 {
		t.Errorf("Expected 16 bytes of data, got %d", len(frame.Data))
	}
	if frame.Released() {
		t.Error("New frame should not be released")
	}
}

func TestNewRepeatFrame(t *testing.T) {
	frame := NewRepeatFrame()

	if !frame.Repeat {
		t.Error("Expected repeat flag to be set")
	}
	if frame.Data != nil {
		t.Error("Repeat frame should carry no data")
	}
}

func TestFrameRelease_ExactlyOnce(t *testing.T) {
	releases := 0
	frame := NewFrame(make([]byte, 4), func() { releases++ })

	frame.Release()
	frame.Release()
	frame.Release()

	if releases != 1 {
		t.Errorf("Expected release callback to fire exactly once, fired %d times", releases)
	}
	if !frame.Released() {
		t.Error("Expected frame to report released")
	}
}

func TestFrameRelease_NilCallback(t *testing.T) {
	frame := NewFrame(make([]byte, 4), nil)

	// Must not panic
	frame.Release()

	if !frame.Released() {
		t.Error("Expected frame to report released")
	}
}
