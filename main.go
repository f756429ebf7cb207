package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"screenrec/backup"
	"screenrec/command/live"
	"screenrec/concatenator"
	"screenrec/conduit"
	"screenrec/config"
	"screenrec/ffprobe"
	"screenrec/internal/timeutil"
	"screenrec/models"
	"screenrec/pipeline"
	"screenrec/process"
)

func main() {
	// Step 1: Load configuration (CLI flags > config file > defaults)
	flags := config.ParseFlags()
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Verbose)

	// Step 2: Handle dry-run mode
	if cfg.DryRun {
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("                      DRY RUN MODE")
		fmt.Println("═══════════════════════════════════════════════════════════")
		cfg.PrintConfig()
		if !cfg.Merge {
			cmdline, _ := buildLiveCommand(cfg, "<video.fifo>", "<audio.fifo>").DryRun()
			fmt.Printf("\nEncoder invocation:\n  %s %s\n", cfg.FFmpegPath, cmdline)
		}
		fmt.Println("\n✓ Configuration is valid. Nothing was recorded.")
		return
	}

	// Merge mode needs no capture loop or signal plumbing
	if cfg.Merge {
		if err := runMerge(cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "\n❌ Merge error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\n✅ Merge completed successfully!")
		return
	}

	// Step 3: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 4: Register signal handlers (Ctrl+C, SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠️  Interrupt received, finishing the recording...")
		cancel()
	}()

	// Step 5: Run the recording session
	if err := runRecord(ctx, cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "\n❌ Recording error: %v\n", err)
		os.Exit(1)
	}

	if ctx.Err() == context.Canceled {
		fmt.Println("\n✅ Recording stopped and finalized.")
		return
	}
	fmt.Println("\n✅ Recording completed successfully!")
}

// newLogger builds the console logger used across the session
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// buildLiveCommand assembles the encoder invocation from config
func buildLiveCommand(cfg *config.Config, videoPipe, audioPipe string) *live.Builder {
	b := live.NewBuilder(videoPipe, cfg.Video.Width, cfg.Video.Height, cfg.Video.FrameRate, cfg.Output).
		SetCodec(cfg.Video.Codec).
		SetQuality(cfg.Video.Quality).
		SetPreset(cfg.Video.Preset)

	if cfg.Video.ResizeWidth > 0 {
		b.SetResize(cfg.Video.ResizeWidth, cfg.Video.ResizeHeight)
	}
	if cfg.Audio.Enabled {
		b.SetAudio(audioPipe, cfg.Audio.SampleRate, cfg.Audio.Channels).
			SetAudioCodec(cfg.Audio.Codec, cfg.Audio.Bitrate)
	}
	return b
}

// runRecord executes the complete recording workflow: raw RGBA frames are
// read from stdin and streamed through named pipes into the encoder, with
// the backup recorder shadowing every video frame.
func runRecord(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	startTime := time.Now()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  SCREENREC - SESSION START                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Input:  stdin (%dx%d rgba @ %d fps)\n", cfg.Video.Width, cfg.Video.Height, cfg.Video.FrameRate)
	fmt.Printf("Output: %s\n", cfg.Output)
	fmt.Println()

	// PHASE 1: Conduits
	fmt.Println("🔌 Phase 1: Conduit Setup")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	sessionID := uuid.NewString()[:8]
	videoPath := filepath.Join(os.TempDir(), fmt.Sprintf("screenrec-%s-video.fifo", sessionID))
	audioPath := filepath.Join(os.TempDir(), fmt.Sprintf("screenrec-%s-audio.fifo", sessionID))

	videoConduit, err := conduit.New(videoPath)
	if err != nil {
		return fmt.Errorf("failed to create video conduit: %w", err)
	}
	defer videoConduit.Close()
	fmt.Printf("  Video:  %s\n", videoPath)

	var audioConduit pipeline.Conduit
	var audioSource io.ReadCloser
	if cfg.Audio.Enabled {
		ac, err := conduit.New(audioPath)
		if err != nil {
			return fmt.Errorf("failed to create audio conduit: %w", err)
		}
		defer ac.Close()
		audioConduit = ac
		fmt.Printf("  Audio:  %s\n", audioPath)

		audioSource, err = os.Open(cfg.Audio.Input)
		if err != nil {
			return fmt.Errorf("failed to open audio source: %w", err)
		}
		defer audioSource.Close()
	}
	fmt.Println()

	// PHASE 2: Encoder process
	fmt.Println("🎬 Phase 2: Encoder Start")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	builder := buildLiveCommand(cfg, videoPath, audioPath)
	args := builder.BuildArgs()
	log.Debug().Strs("args", args).Msg("encoder invocation")

	proc, err := process.Start(cfg.FFmpegPath, args)
	if err != nil {
		return fmt.Errorf("failed to start encoder: %w", err)
	}
	fmt.Printf("  Binary: %s\n", cfg.FFmpegPath)
	fmt.Printf("  Codec:  %s (quality %d, preset %s)\n", cfg.Video.Codec, cfg.Video.Quality, cfg.Video.Preset)
	fmt.Println()

	// PHASE 3: Backup recorder
	var bk pipeline.Backup
	var rec *backup.Recorder
	if cfg.Backup.Enabled {
		fmt.Println("💾 Phase 3: Backup Recorder")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		rec, err = backup.NewRecorder(backup.Options{
			Dir:       cfg.BackupDir(),
			Window:    time.Duration(cfg.Backup.WindowSec) * time.Second,
			Mode:      backup.Mode(cfg.Backup.Mode),
			QueueSize: cfg.Backup.QueueSize,
			Width:     cfg.Video.Width,
			Height:    cfg.Video.Height,
			FrameRate: cfg.Video.FrameRate,
			Quality:   cfg.Video.Quality,
			FFmpegBin: cfg.FFmpegPath,
			Verify:    cfg.Backup.Verify,
			Logger:    log,
		})
		if err != nil {
			return fmt.Errorf("failed to start backup recorder: %w", err)
		}
		bk = rec

		fmt.Printf("  Dir:    %s\n", rec.Dir())
		fmt.Printf("  Mode:   %s (%ds window, queue %d)\n", cfg.Backup.Mode, cfg.Backup.WindowSec, cfg.Backup.QueueSize)
		fmt.Println()
	}

	// PHASE 4: Streaming
	fmt.Println("📡 Phase 4: Streaming")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	connectTimeout := time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond
	p := pipeline.New(proc, videoConduit, audioConduit, cfg.Video.Width, cfg.Video.Height, bk, connectTimeout, log)

	frames, streamErr := streamFrames(ctx, cfg, p, audioSource)

	closeErr := p.Close()

	if streamErr != nil {
		return streamErr
	}
	if closeErr != nil {
		return fmt.Errorf("session teardown: %w", closeErr)
	}

	// PHASE 5: Final Report
	elapsed := time.Since(startTime)

	outputSize := int64(0)
	if info, err := os.Stat(cfg.Output); err == nil {
		outputSize = info.Size()
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                     ✅ SESSION REPORT")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Output:      %s\n", cfg.Output)
	fmt.Printf("  Size:        %.2f MB\n", float64(outputSize)/(1024*1024))
	fmt.Printf("  Frames:      %d\n", frames)
	fmt.Printf("  Total time:  %.2fs\n", elapsed.Seconds())
	if rec != nil {
		fmt.Printf("  Backup:      %s\n", rec.Dir())
		if rec.Dropped() > 0 {
			fmt.Printf("  ⚠️  Dropped:   %d backup frames (queue was full)\n", rec.Dropped())
		}
		if rec.Failures() > 0 {
			fmt.Printf("  ⚠️  Failures:  %d segments kept raw data (compaction failed)\n", rec.Failures())
		}
	}
	fmt.Println("═══════════════════════════════════════════════════════════")

	return nil
}

// streamFrames pumps stdin into the pipeline until EOF or cancellation.
// When audio is enabled, one frame interval worth of samples is forwarded
// after every video frame so both streams advance together.
func streamFrames(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, audioSource io.Reader) (int, error) {
	frameSize := cfg.Video.Width * cfg.Video.Height * models.BytesPerPixel
	frameBuf := make([]byte, frameSize)

	// s16le: two bytes per sample per channel
	audioBlockSize := 0
	if audioSource != nil {
		audioBlockSize = cfg.Audio.SampleRate * cfg.Audio.Channels * 2 / cfg.Video.FrameRate
	}
	audioBuf := make([]byte, audioBlockSize)
	audioDone := audioSource == nil

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return frames, nil
		default:
		}

		if _, err := io.ReadFull(os.Stdin, frameBuf); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				fmt.Fprintf(os.Stderr, "⚠️  Truncated frame on stdin, stopping\n")
				return frames, nil
			}
			return frames, fmt.Errorf("reading frame from stdin: %w", err)
		}

		frame := models.NewFrame(frameBuf, nil)
		if err := p.WriteFrame(frame); err != nil {
			if errors.Is(err, pipeline.ErrEncoderTerminated) {
				return frames, fmt.Errorf("encoder terminated mid-session: %w", err)
			}
			return frames, err
		}
		frames++

		if !audioDone {
			if _, err := io.ReadFull(audioSource, audioBuf); err != nil {
				// Audio running short is not fatal; video continues alone
				audioDone = true
			} else if err := p.WriteAudio(audioBuf); err != nil {
				return frames, err
			}
		}

		if frames%300 == 0 {
			fmt.Printf("\r  frame=%d time=%.1fs", frames, float64(frames)/float64(cfg.Video.FrameRate))
		}
	}
}

// runMerge rebuilds a final recording from the backup directory
func runMerge(cfg *config.Config, log zerolog.Logger) error {
	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                   SCREENREC - MERGE MODE                       ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Backup: %s\n", cfg.Backup.Dir)
	fmt.Printf("Output: %s\n", cfg.Output)
	fmt.Println()

	if m, err := backup.LoadManifest(cfg.Backup.Dir); err == nil {
		fmt.Printf("  Session:  %dx%d @ %d fps, %s mode\n", m.Width, m.Height, m.FrameRate, m.Mode)
	} else {
		log.Warn().Err(err).Msg("no readable manifest in backup dir")
	}

	artifacts, err := concatenator.ListArtifacts(cfg.Backup.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("  Segments: %d\n", len(artifacts))
	fmt.Println()

	fmt.Printf("  Concatenating %d segments...", len(artifacts))
	c := concatenator.NewConcatenator(cfg.Strict).SetBinary(cfg.FFmpegPath)
	if err := c.Merge(cfg.Backup.Dir, cfg.Output); err != nil {
		return err
	}
	fmt.Printf("\r  ✓ Merged %d segments          \n", len(artifacts))

	// Report the merged duration when ffprobe is available
	if probe, err := ffprobe.Probe(cfg.Output); err == nil {
		if duration, err := probe.GetDuration(); err == nil {
			fmt.Printf("  Duration: %s\n", timeutil.FormatSeconds(duration))
		}
	}

	return nil
}
