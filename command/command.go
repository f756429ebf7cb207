// Package command provides the core Command interface and the shared
// quality/format mapping used when building FFmpeg invocations.
//
// The specialized builders (live, compaction) implement the Command
// interface. Builders are pure: they only assemble argument lists; running
// the resulting invocation is the process supervisor's job.
package command

// Raw sample formats handed to the encoder. The capture side produces
// fixed-format RGBA pixels (4 bytes per pixel) and signed 16-bit
// little-endian interleaved audio samples.
const (
	RawPixelFormat = "rgba"
	RawAudioFormat = "s16le"
)

// TaskType represents the type of encoding invocation.
type TaskType string

const (
	TaskTypeLive       TaskType = "live"       // Live session encode fed through conduits
	TaskTypeCompaction TaskType = "compaction" // Backup segment compaction
	TaskTypeMerge      TaskType = "merge"      // Concatenation of segment artifacts
)

// Command represents an FFmpeg invocation that can be built or previewed.
//
// Builders are deterministic and stateless per invocation: calling BuildArgs
// twice on an unchanged builder yields identical argument lists.
type Command interface {
	// BuildArgs constructs the FFmpeg command arguments as a slice,
	// suitable for handing to the process supervisor.
	BuildArgs() []string

	// DryRun returns the full command as a string without executing it.
	DryRun() (string, error)

	// GetTaskType returns the invocation type (live, compaction, merge).
	GetTaskType() TaskType

	// GetOutputPath returns the output file path for this invocation.
	GetOutputPath() string
}
