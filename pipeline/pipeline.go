// Package pipeline streams captured frames and audio blocks into a live
// encoder process through named conduits.
//
// One caller goroutine drives WriteFrame/WriteAudio synchronously. Each
// conduit performs its write asynchronously, but the pipeline waits for the
// prior write's completion before issuing the next, so there is exactly one
// logical writer per conduit and never two writes in flight on the same
// conduit. A fully decoupled backup recorder receives a copy of every frame
// without ever blocking the live path.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"screenrec/models"
)

// DefaultConnectTimeout bounds the first-write handshake with the encoder.
const DefaultConnectTimeout = 5000 * time.Millisecond

var (
	// ErrEncoderTerminated means the encoder process exited before a
	// write; fatal to the session. The offending frame is released
	// before the error is returned.
	ErrEncoderTerminated = errors.New("pipeline: encoder process terminated")

	// ErrConduitConnectTimeout means no consumer attached to a conduit
	// within the connect timeout; fatal to the session.
	ErrConduitConnectTimeout = errors.New("pipeline: conduit connect timed out")

	// ErrClosed is returned for writes after Close.
	ErrClosed = errors.New("pipeline: closed")
)

// Conduit is the byte-stream surface the pipeline drives. *conduit.Pipe
// implements it; tests substitute fakes.
type Conduit interface {
	Connect(timeout time.Duration) error
	WriteAsync(buf []byte) <-chan error
	Close() error
}

// Encoder is the encoder-process surface the pipeline observes.
// *process.Process implements it.
type Encoder interface {
	Exited() bool
	ExitCode() int
	Wait() error
}

// Backup receives a copy of every video frame's bytes off the live path.
// *backup.Recorder implements it.
type Backup interface {
	Submit(pixels []byte, ts time.Time)
	Close() error
}

// Pipeline coordinates the conduit handshake and serialized writes for one
// recording session. All state is per instance; two pipelines never share
// queues, buffers or timestamps.
type Pipeline struct {
	encoder Encoder
	video   Conduit
	audio   Conduit // nil when the session has no audio
	backup  Backup  // nil when backup is disabled

	connectTimeout time.Duration
	log            zerolog.Logger

	// videoBuf is the single reusable frame buffer (width*height*4),
	// sized once at construction and never resized. Between writes it is
	// exclusively owned by the pipeline; during a write it is read by
	// the conduit goroutine and must not be mutated.
	videoBuf []byte

	videoConnected bool
	audioConnected bool
	pendingVideo   <-chan error
	pendingAudio   <-chan error
	closed         bool
}

// New assembles a pipeline from its collaborators. The conduits and the
// encoder process are created by the session owner (see the session
// constructor in package main) so that tests can inject fakes here.
func New(encoder Encoder, video, audio Conduit, width, height int, bk Backup, connectTimeout time.Duration, log zerolog.Logger) *Pipeline {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &Pipeline{
		encoder:        encoder,
		video:          video,
		audio:          audio,
		backup:         bk,
		connectTimeout: connectTimeout,
		log:            log,
		videoBuf:       make([]byte, width*height*models.BytesPerPixel),
	}
}

// WriteFrame serializes one video frame into the video conduit.
//
// The frame is released before this method returns, on every path. A
// repeat frame re-sends the buffer contents of the previous frame without
// copying. The same bytes are handed to the backup recorder after the live
// write is issued; the recorder copies them before queueing, so the live
// buffer is never aliased.
func (p *Pipeline) WriteFrame(frame *models.Frame) error {
	if p.closed {
		frame.Release()
		return ErrClosed
	}
	if p.encoder.Exited() {
		frame.Release()
		return fmt.Errorf("%w (exit code %d)", ErrEncoderTerminated, p.encoder.ExitCode())
	}

	if !p.videoConnected {
		if err := p.video.Connect(p.connectTimeout); err != nil {
			frame.Release()
			return fmt.Errorf("%w: %v", ErrConduitConnectTimeout, err)
		}
		p.videoConnected = true
		p.log.Debug().Msg("video conduit connected")
	}

	// Serialize: at most one in-flight write per conduit.
	if p.pendingVideo != nil {
		if err := <-p.pendingVideo; err != nil {
			p.pendingVideo = nil
			frame.Release()
			return fmt.Errorf("video write failed: %w", err)
		}
		p.pendingVideo = nil
	}

	if !frame.Repeat {
		if len(frame.Data) != len(p.videoBuf) {
			frame.Release()
			return fmt.Errorf("frame size mismatch: got %d bytes, want %d", len(frame.Data), len(p.videoBuf))
		}
		copy(p.videoBuf, frame.Data)
	}
	frame.Release()

	p.pendingVideo = p.video.WriteAsync(p.videoBuf)

	if p.backup != nil {
		p.backup.Submit(p.videoBuf, time.Now())
	}
	return nil
}

// WriteAudio writes one caller-owned audio block to the audio conduit.
// Blocks are written directly, in submission order, with no buffering and
// no backup path.
func (p *Pipeline) WriteAudio(block []byte) error {
	if p.closed {
		return ErrClosed
	}
	if p.audio == nil {
		return fmt.Errorf("pipeline: session has no audio conduit")
	}
	if p.encoder.Exited() {
		return fmt.Errorf("%w (exit code %d)", ErrEncoderTerminated, p.encoder.ExitCode())
	}

	if !p.audioConnected {
		if err := p.audio.Connect(p.connectTimeout); err != nil {
			return fmt.Errorf("%w: %v", ErrConduitConnectTimeout, err)
		}
		p.audioConnected = true
		p.log.Debug().Msg("audio conduit connected")
	}

	if p.pendingAudio != nil {
		if err := <-p.pendingAudio; err != nil {
			p.pendingAudio = nil
			return fmt.Errorf("audio write failed: %w", err)
		}
		p.pendingAudio = nil
	}

	p.pendingAudio = p.audio.WriteAsync(block)
	return nil
}

// Close disposes the session: both conduits are closed (unblocking a
// consumer mid-read), the encoder process is awaited, and the backup
// recorder, when owned, is stopped. Close never deadlocks when the process
// has already exited. Errors from the individual steps are aggregated.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	// Let in-flight writes settle before yanking the conduits.
	if p.pendingVideo != nil {
		<-p.pendingVideo
		p.pendingVideo = nil
	}
	if p.pendingAudio != nil {
		<-p.pendingAudio
		p.pendingAudio = nil
	}

	var errs *multierror.Error

	if err := p.video.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("closing video conduit: %w", err))
	}
	if p.audio != nil {
		if err := p.audio.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("closing audio conduit: %w", err))
		}
	}

	if err := p.encoder.Wait(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("encoder exit: %w", err))
	}
	p.log.Debug().Int("exit_code", p.encoder.ExitCode()).Msg("encoder process exited")

	if p.backup != nil {
		if err := p.backup.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("stopping backup recorder: %w", err))
		}
	}

	return errs.ErrorOrNil()
}
