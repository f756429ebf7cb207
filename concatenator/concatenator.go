// Package concatenator merges a backup directory's compacted segment
// artifacts into a single recovery file.
//
// Artifacts are named by their segment's rotation start timestamp, so
// lexicographic order is chronological order. Merging uses ffmpeg's concat
// demuxer with stream copy, which avoids a third re-encode of the frames.
package concatenator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"screenrec/internal/timeutil"
	"screenrec/process"
)

// Runner executes the merge invocation; the default spawns ffmpeg through
// the process supervisor.
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

// Concatenator merges compacted segment artifacts.
type Concatenator struct {
	strictMode bool // If true, fail when uncompacted raw segments remain.
	bin        string
	runner     Runner
}

// NewConcatenator creates a concatenator. In strict mode, leftover raw
// segment data (a failed or never-run compaction) aborts the merge instead
// of silently producing a recovery file with a hole in it.
func NewConcatenator(strictMode bool) *Concatenator {
	return &Concatenator{
		strictMode: strictMode,
		bin:        "ffmpeg",
		runner:     processRunner{},
	}
}

// SetBinary overrides the ffmpeg binary path.
func (c *Concatenator) SetBinary(bin string) *Concatenator {
	c.bin = bin
	return c
}

// SetRunner overrides how the merge invocation is executed.
func (c *Concatenator) SetRunner(runner Runner) *Concatenator {
	c.runner = runner
	return c
}

// Merge concatenates every segment artifact in backupDir into
// finalOutputPath, in segment order.
func (c *Concatenator) Merge(backupDir, finalOutputPath string) error {
	artifacts, err := ListArtifacts(backupDir)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("no segment artifacts found in %s", backupDir)
	}

	if c.strictMode {
		if leftover := uncompacted(backupDir); len(leftover) > 0 {
			return fmt.Errorf("strict mode: %d uncompacted raw segment(s) remain (e.g. %s)",
				len(leftover), filepath.Base(leftover[0]))
		}
	}

	concatFilePath, err := c.createConcatFile(artifacts)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFilePath)

	if err := c.runConcat(concatFilePath, finalOutputPath); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}

	return nil
}

// ListArtifacts returns the backup directory's compacted artifacts sorted
// by segment start timestamp.
func ListArtifacts(backupDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(backupDir, "seg_*.mp4"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", backupDir, err)
	}

	// Keep only names whose stamp actually parses; a stray file must not
	// end up in the middle of a recovery video.
	artifacts := matches[:0]
	for _, path := range matches {
		if _, err := stampOf(path); err == nil {
			artifacts = append(artifacts, path)
		}
	}

	sort.Strings(artifacts)
	return artifacts, nil
}

// uncompacted lists raw segment data still sitting in the backup
// directory, which means at least one window never became an artifact.
func uncompacted(backupDir string) []string {
	raws, _ := filepath.Glob(filepath.Join(backupDir, "seg_*.raw"))
	stills, _ := filepath.Glob(filepath.Join(backupDir, "seg_*.bmp"))
	return append(raws, stills...)
}

// stampOf extracts and validates the segment timestamp from an artifact
// file name ("seg_<stamp>.mp4").
func stampOf(path string) (string, error) {
	name := filepath.Base(path)
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "seg_"), ".mp4")
	if _, err := timeutil.ParseStamp(stamp); err != nil {
		return "", err
	}
	return stamp, nil
}

// createConcatFile creates a text file listing the artifacts for ffmpeg's
// concat demuxer, one `file '<path>'` line each.
func (c *Concatenator) createConcatFile(artifacts []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	for _, artifact := range artifacts {
		absPath, err := filepath.Abs(artifact)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for %s: %w", artifact, err)
		}

		// Escape single quotes in the path for the concat demuxer.
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")

		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", escapedPath); err != nil {
			return "", fmt.Errorf("failed to write to concat file: %w", err)
		}
	}

	return tmpFile.Name(), nil
}

// runConcat executes the ffmpeg concat invocation.
func (c *Concatenator) runConcat(concatFilePath, outputPath string) error {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", concatFilePath,
		"-c", "copy", // Copy without re-encoding
		"-y",
		outputPath,
	}

	if err := c.runner.Run(c.bin, args); err != nil {
		return err
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}

	return nil
}
