package models

import (
	"fmt"
	"time"
)

// SegmentState tracks a backup segment through its lifecycle.
type SegmentState int

const (
	// SegmentActive means frames are currently being appended.
	SegmentActive SegmentState = iota
	// SegmentPendingCompaction means the segment is closed and queued for
	// compaction into a compressed artifact.
	SegmentPendingCompaction
	// SegmentCompacting means a compaction invocation is running.
	SegmentCompacting
	// SegmentDone means the artifact exists and the raw data was removed.
	SegmentDone
	// SegmentFailed means compaction failed; the raw data is preserved.
	SegmentFailed
)

// String returns a human-readable state name for logs.
func (s SegmentState) String() string {
	switch s {
	case SegmentActive:
		return "active"
	case SegmentPendingCompaction:
		return "pending-compaction"
	case SegmentCompacting:
		return "compacting"
	case SegmentDone:
		return "done"
	case SegmentFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Segment is a time-bounded accumulation of raw frames awaiting compaction.
//
// A segment is identified by its rotation start timestamp. It holds either a
// single growing raw file (RawPath) or a numbered sequence of per-frame
// image files matching ImagePattern. Exactly one segment per recorder is in
// SegmentActive state at any time; rotation opens the next active segment
// before the previous one becomes SegmentPendingCompaction.
type Segment struct {
	Start        time.Time
	State        SegmentState
	RawPath      string // raw-file mode: the growing segment file
	ImagePattern string // image mode: printf pattern for numbered stills
	Frames       int
	ArtifactPath string // compressed output, set once compaction starts
}

// Validate checks the segment for internal consistency.
//
// Returns an error if the start timestamp is zero or if the segment names
// neither a raw file nor an image pattern.
func (s *Segment) Validate() error {
	if s.Start.IsZero() {
		return fmt.Errorf("segment start timestamp cannot be zero")
	}
	if s.RawPath == "" && s.ImagePattern == "" {
		return fmt.Errorf("segment must have a raw path or an image pattern")
	}
	return nil
}
