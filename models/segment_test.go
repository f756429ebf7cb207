package models

import (
	"testing"
	"time"
)

func TestSegmentState_String(t *testing.T) {
	tests := []struct {
		state SegmentState
		want  string
	}{
		{SegmentActive, "active"},
		{SegmentPendingCompaction, "pending-compaction"},
		{SegmentCompacting, "compacting"},
		{SegmentDone, "done"},
		{SegmentFailed, "failed"},
		{SegmentState(99), "unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SegmentState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name        string
		segment     Segment
		expectError bool
	}{
		{
			name:    "valid raw segment",
			segment: Segment{Start: time.Now(), RawPath: "/backup/seg_20260101-120000.raw"},
		},
		{
			name:    "valid image segment",
			segment: Segment{Start: time.Now(), ImagePattern: "/backup/seg_20260101-120000_%06d.bmp"},
		},
		{
			name:        "zero start timestamp",
			segment:     Segment{RawPath: "/backup/seg.raw"},
			expectError: true,
		},
		{
			name:        "no storage location",
			segment:     Segment{Start: time.Now()},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.segment.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}
