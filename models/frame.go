// Package models provides core data structures for the recording system.
package models

// BytesPerPixel is the size of one pixel in the raw capture format (RGBA).
const BytesPerPixel = 4

// Frame represents one captured video frame handed to the pipeline.
//
// A frame either carries a pixel buffer (width*height*4 bytes, RGBA) or is
// marked as a repeat of the previously written frame, in which case Data is
// nil and the pipeline reuses its own buffer contents unchanged.
//
// Ownership: the caller transfers the frame to the pipeline for the duration
// of one write. The pipeline copies the pixels into its private buffer and
// then releases the frame, so the caller's buffer may be reused as soon as
// the write call returns. Release fires the release callback exactly once,
// no matter how often it is called.
type Frame struct {
	Data   []byte
	Repeat bool

	released  bool
	onRelease func()
}

// NewFrame creates a frame around the given pixel buffer.
//
// onRelease may be nil; when set it is invoked exactly once when the
// pipeline (or an error path) releases the frame, typically to return the
// buffer to a capture-side pool.
func NewFrame(data []byte, onRelease func()) *Frame {
	return &Frame{
		Data:      data,
		onRelease: onRelease,
	}
}

// NewRepeatFrame creates a marker frame that instructs the pipeline to
// re-send the previous frame's pixels. It carries no data of its own.
func NewRepeatFrame() *Frame {
	return &Frame{Repeat: true}
}

// Release returns the frame's buffer to its owner. Safe to call more than
// once; only the first call has an effect.
func (f *Frame) Release() {
	if f.released {
		return
	}
	f.released = true
	if f.onRelease != nil {
		f.onRelease()
	}
}

// Released reports whether the frame has been released.
func (f *Frame) Released() bool {
	return f.released
}
