// Package backup persists raw frames to rotating segment files and
// compacts finished segments into compressed artifacts.
//
// A single background goroutine per Recorder is the sole reader of the
// hand-off queue and the sole writer to segment storage. The live encoding
// path never waits on backup I/O: the hand-off is a bounded channel, and
// when the worker falls behind the newest frames are dropped and counted
// rather than applying backpressure. Segment compaction runs as a second
// encoder invocation, awaited synchronously on the worker goroutine, which
// serializes compaction against further appends by construction.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"screenrec/command"
	"screenrec/command/compaction"
	"screenrec/ffprobe"
	"screenrec/internal/timeutil"
	"screenrec/models"
	"screenrec/process"
)

// Mode selects how raw frames are stored inside a segment.
type Mode string

const (
	// ModeSegments appends every frame to one growing raw file per
	// segment.
	ModeSegments Mode = "segments"
	// ModeImages writes one numbered BMP still per frame.
	ModeImages Mode = "images"
)

// Defaults for recorder options left at their zero value.
const (
	DefaultWindow    = 10 * time.Second
	DefaultQueueSize = 256
)

// Runner executes one compaction invocation and reports its outcome.
// The default runner spawns the encoder through the process supervisor;
// tests substitute fakes.
type Runner interface {
	Run(bin string, args []string) error
}

type processRunner struct{}

func (processRunner) Run(bin string, args []string) error {
	p, err := process.Start(bin, args)
	if err != nil {
		return err
	}
	return p.Wait()
}

// Options configures a Recorder.
type Options struct {
	// Dir is the backup directory; created on the first frame.
	Dir string

	// Window is the wall-clock rotation boundary (default 10s).
	Window time.Duration

	// Mode selects raw-file or per-frame-image storage.
	Mode Mode

	// QueueSize bounds the hand-off queue (default 256). When full, the
	// newest frame is dropped and counted.
	QueueSize int

	// Raw-input format, shared with the live path. Compaction reuses
	// Quality; there is no separate backup quality profile.
	Width     int
	Height    int
	FrameRate int
	Quality   int

	// FFmpegBin is the encoder binary (default "ffmpeg").
	FFmpegBin string

	// Verify probes each compacted artifact before the raw segment is
	// deleted.
	Verify bool

	// Runner overrides how compaction invocations are executed.
	Runner Runner

	Logger zerolog.Logger
}

// Recorder is the segment backup worker. All rotation and queue state is
// owned per instance; two recorders never interfere.
type Recorder struct {
	dir       string
	window    time.Duration
	mode      Mode
	width     int
	height    int
	frameRate int
	quality   int
	bin       string
	verify    bool
	runner    Runner
	log       zerolog.Logger

	frameSize int
	frames    chan frameJob
	pool      sync.Pool
	dropped   atomic.Uint64
	failures  atomic.Uint64

	active      *segmentWriter
	initialized bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type frameJob struct {
	pixels []byte
	ts     time.Time
}

// NewRecorder validates the options and starts the background worker.
func NewRecorder(opts Options) (*Recorder, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("backup: directory is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("backup: frame dimensions must be positive")
	}
	if opts.FrameRate <= 0 {
		return nil, fmt.Errorf("backup: frame rate must be positive")
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Mode == "" {
		opts.Mode = ModeSegments
	}
	if opts.Mode != ModeSegments && opts.Mode != ModeImages {
		return nil, fmt.Errorf("backup: invalid mode %q", opts.Mode)
	}
	if opts.FFmpegBin == "" {
		opts.FFmpegBin = "ffmpeg"
	}
	if opts.Runner == nil {
		opts.Runner = processRunner{}
	}

	frameSize := opts.Width * opts.Height * models.BytesPerPixel
	r := &Recorder{
		dir:       opts.Dir,
		window:    opts.Window,
		mode:      opts.Mode,
		width:     opts.Width,
		height:    opts.Height,
		frameRate: opts.FrameRate,
		quality:   opts.Quality,
		bin:       opts.FFmpegBin,
		verify:    opts.Verify,
		runner:    opts.Runner,
		log:       opts.Logger,
		frameSize: frameSize,
		frames:    make(chan frameJob, opts.QueueSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.pool.New = func() any { return make([]byte, frameSize) }

	go r.loop()
	return r, nil
}

// Dir returns the backup directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// Backlog returns the number of frames waiting in the hand-off queue.
func (r *Recorder) Backlog() int {
	return len(r.frames)
}

// Dropped returns how many frames were discarded because the queue was
// full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Failures returns how many per-frame or compaction errors were absorbed.
func (r *Recorder) Failures() uint64 {
	return r.failures.Load()
}

// Submit hands one frame's pixels to the recorder. The bytes are copied
// before Submit returns, so the caller may overwrite its buffer
// immediately. Submit never blocks: on a full queue the frame is dropped
// and counted.
func (r *Recorder) Submit(pixels []byte, ts time.Time) {
	if len(pixels) != r.frameSize {
		r.failures.Add(1)
		r.log.Error().Int("got", len(pixels)).Int("want", r.frameSize).
			Msg("backup: dropping frame with unexpected size")
		return
	}

	buf := r.pool.Get().([]byte)
	copy(buf, pixels)

	select {
	case r.frames <- frameJob{pixels: buf, ts: ts}:
	default:
		r.pool.Put(buf)
		r.dropped.Add(1)
	}
}

// Close stops the worker, drains the queue, and finalizes the last active
// segment so no raw frames are orphaned. Idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
	return nil
}

// loop is the worker goroutine: sole queue reader, sole segment writer.
func (r *Recorder) loop() {
	defer close(r.done)

	for {
		select {
		case job := <-r.frames:
			r.handleFrame(job)
		case <-r.stop:
			r.drain()
			r.finalize()
			return
		}
	}
}

// drain consumes whatever is still queued at shutdown.
func (r *Recorder) drain() {
	for {
		select {
		case job := <-r.frames:
			r.handleFrame(job)
		default:
			return
		}
	}
}

// handleFrame appends one frame, rotating segments on window boundaries.
// Every error is absorbed here: logged, counted, and the loop moves on.
func (r *Recorder) handleFrame(job frameJob) {
	defer r.pool.Put(job.pixels)

	if r.active == nil {
		if err := r.openSegment(job.ts); err != nil {
			r.failures.Add(1)
			r.log.Error().Err(err).Msg("backup: failed to open segment")
			return
		}
	} else if job.ts.Sub(r.active.seg.Start) > r.window {
		r.rotate(job.ts)
	}

	if err := r.active.append(job.pixels); err != nil {
		r.failures.Add(1)
		r.log.Error().Err(err).Msg("backup: failed to append frame")
	}
}

// openSegment creates the next active segment, initializing the backup
// directory and manifest on first use.
func (r *Recorder) openSegment(start time.Time) error {
	if !r.initialized {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		m := &Manifest{
			Width:       r.width,
			Height:      r.height,
			FrameRate:   r.frameRate,
			PixelFormat: command.RawPixelFormat,
			Quality:     r.quality,
			Mode:        r.mode,
		}
		if err := WriteManifest(r.dir, m); err != nil {
			return err
		}
		r.initialized = true
	}

	w, err := openSegmentWriter(r.dir, start, r.mode, r.width, r.height)
	if err != nil {
		return err
	}
	r.active = w
	return nil
}

// rotate opens the next active segment, then closes the previous one and
// compacts it synchronously on this goroutine. If the new segment cannot
// be opened the old one stays active; losing a rotation boundary beats
// losing frames.
func (r *Recorder) rotate(start time.Time) {
	prev := r.active

	if err := r.openSegment(start); err != nil {
		r.failures.Add(1)
		r.log.Error().Err(err).Msg("backup: rotation failed, keeping current segment")
		return
	}

	if err := prev.close(); err != nil {
		r.failures.Add(1)
		r.log.Error().Err(err).Msg("backup: failed to close segment")
	}
	prev.seg.State = models.SegmentPendingCompaction
	r.compact(prev)
}

// finalize closes and compacts the tail segment at shutdown.
func (r *Recorder) finalize() {
	if r.active == nil {
		return
	}
	w := r.active
	r.active = nil

	if err := w.close(); err != nil {
		r.failures.Add(1)
		r.log.Error().Err(err).Msg("backup: failed to close final segment")
	}
	if w.seg.Frames == 0 {
		// Nothing was appended; just remove the empty storage.
		if err := w.removeRaw(); err != nil {
			r.log.Error().Err(err).Msg("backup: failed to remove empty segment")
		}
		return
	}
	w.seg.State = models.SegmentPendingCompaction
	r.compact(w)
}

// compact spawns the secondary encoder invocation for a closed segment,
// waits for it to exit, and deletes the raw data only on success. A failed
// compaction preserves the raw segment and logs a warning.
func (r *Recorder) compact(w *segmentWriter) {
	stamp := timeutil.Stamp(w.seg.Start)
	artifact := filepath.Join(r.dir, fmt.Sprintf("seg_%s.mp4", stamp))
	w.seg.ArtifactPath = artifact
	w.seg.State = models.SegmentCompacting

	var builder *compaction.Builder
	if r.mode == ModeImages {
		builder = compaction.NewImageBuilder(w.seg.ImagePattern, artifact, r.frameRate)
	} else {
		builder = compaction.NewRawBuilder(w.seg.RawPath, artifact, r.width, r.height, r.frameRate)
	}
	builder.SetQuality(r.quality)

	if err := r.runner.Run(r.bin, builder.BuildArgs()); err != nil {
		w.seg.State = models.SegmentFailed
		r.failures.Add(1)
		r.log.Warn().Err(err).Str("segment", stamp).
			Msg("backup: compaction failed, raw segment preserved")
		return
	}

	if r.verify {
		if err := r.verifyArtifact(artifact); err != nil {
			w.seg.State = models.SegmentFailed
			r.failures.Add(1)
			r.log.Warn().Err(err).Str("segment", stamp).
				Msg("backup: artifact verification failed, raw segment preserved")
			return
		}
	}

	if err := w.removeRaw(); err != nil {
		r.failures.Add(1)
		r.log.Error().Err(err).Str("segment", stamp).
			Msg("backup: failed to remove raw segment data")
	}
	w.seg.State = models.SegmentDone
	r.log.Info().Str("segment", stamp).Int("frames", w.seg.Frames).
		Str("artifact", artifact).Msg("backup: segment compacted")
}

// verifyArtifact probes the compacted file and rejects artifacts the
// encoder produced but cannot be read back.
func (r *Recorder) verifyArtifact(path string) error {
	result, err := ffprobe.Probe(path)
	if err != nil {
		return err
	}
	duration, err := result.GetDuration()
	if err != nil {
		return err
	}
	if duration <= 0 {
		return fmt.Errorf("artifact has zero duration")
	}
	if len(result.GetVideoStreams()) == 0 {
		return fmt.Errorf("artifact has no video stream")
	}
	return nil
}
