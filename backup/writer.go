package backup

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/bmp"

	"screenrec/internal/timeutil"
	"screenrec/models"
)

// segmentWriter owns the on-disk storage of one active segment: either a
// single growing raw file or a numbered BMP still per frame.
type segmentWriter struct {
	seg    models.Segment
	mode   Mode
	width  int
	height int

	file *os.File // raw mode only
}

// openSegmentWriter creates storage for a new active segment starting at
// start.
func openSegmentWriter(dir string, start time.Time, mode Mode, width, height int) (*segmentWriter, error) {
	w := &segmentWriter{
		seg:    models.Segment{Start: start, State: models.SegmentActive},
		mode:   mode,
		width:  width,
		height: height,
	}

	stamp := timeutil.Stamp(start)
	switch mode {
	case ModeImages:
		w.seg.ImagePattern = filepath.Join(dir, fmt.Sprintf("seg_%s_%%06d.bmp", stamp))
	default:
		w.seg.RawPath = filepath.Join(dir, fmt.Sprintf("seg_%s.raw", stamp))
		f, err := os.OpenFile(w.seg.RawPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to create segment file: %w", err)
		}
		w.file = f
	}
	return w, nil
}

// append stores one frame's raw bytes in submission order.
func (w *segmentWriter) append(pixels []byte) error {
	switch w.mode {
	case ModeImages:
		path := fmt.Sprintf(w.seg.ImagePattern, w.seg.Frames)
		if err := w.writeStill(path, pixels); err != nil {
			return err
		}
	default:
		if _, err := w.file.Write(pixels); err != nil {
			return fmt.Errorf("failed to append frame: %w", err)
		}
	}
	w.seg.Frames++
	return nil
}

// writeStill encodes pixels as a BMP file. BMP keeps the encode nearly
// free: a fixed header in front of the pixel data.
func (w *segmentWriter) writeStill(path string, pixels []byte) error {
	img := &image.RGBA{
		Pix:    pixels,
		Stride: w.width * models.BytesPerPixel,
		Rect:   image.Rect(0, 0, w.width, w.height),
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create still %s: %w", path, err)
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode still %s: %w", path, err)
	}
	return f.Close()
}

// close flushes and closes the segment's storage; it stays on disk until
// compaction removes it.
func (w *segmentWriter) close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// removeRaw deletes the segment's raw data after a successful compaction:
// the single raw file, or every still belonging to the segment.
func (w *segmentWriter) removeRaw() error {
	if w.mode == ModeImages {
		for i := 0; i < w.seg.Frames; i++ {
			path := fmt.Sprintf(w.seg.ImagePattern, i)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		return nil
	}
	return os.Remove(w.seg.RawPath)
}
