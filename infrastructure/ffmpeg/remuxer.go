package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"video-to-audio/domain/media"
)

// stderr fragments ffmpeg prints when the input has no audio stream to map
var noAudioMessages = []string{
	"matches no streams",
	"does not contain any stream",
	"Output file #0 does not contain any stream",
}

// Remuxer implements media.FallbackRemuxer using ffmpeg stream copy
type Remuxer struct {
	ffmpegPath string
	runner     CommandRunner
}

// RemuxerOption is a functional option for configuring Remuxer
type RemuxerOption func(*Remuxer)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) RemuxerOption {
	return func(r *Remuxer) {
		if path != "" {
			r.ffmpegPath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) RemuxerOption {
	return func(r *Remuxer) {
		r.runner = runner
	}
}

// NewRemuxer creates a new FFmpeg-based remuxer
func NewRemuxer(opts ...RemuxerOption) *Remuxer {
	r := &Remuxer{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RemuxAudio copies the first audio stream of sourcePath into an MPEG-4 file at outputPath
func (r *Remuxer) RemuxAudio(ctx context.Context, sourcePath, outputPath string) error {
	args := []string{
		"-hide_banner",
		"-i", sourcePath,
		"-vn",           // No video
		"-map", "0:a:0", // First audio stream only
		"-c:a", "copy", // No re-encoding
		"-f", "mp4",
		"-y", // The partial output file already exists
		outputPath,
	}

	if err := r.runner.Run(ctx, r.ffmpegPath, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var runErr *RunError
		if errors.As(err, &runErr) && reportsNoAudio(runErr.Stderr) {
			return fmt.Errorf("%w: ffmpeg found no audio stream in %s", media.ErrNoAudioTrack, sourcePath)
		}
		return fmt.Errorf("%w: ffmpeg remux failed: %w", media.ErrIOFailure, err)
	}

	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (r *Remuxer) VerifyInstalled(ctx context.Context) error {
	_, err := r.runner.Output(ctx, r.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

func reportsNoAudio(stderr string) bool {
	for _, msg := range noAudioMessages {
		if strings.Contains(stderr, msg) {
			return true
		}
	}
	return false
}

// Ensure Remuxer implements media.FallbackRemuxer
var _ media.FallbackRemuxer = (*Remuxer)(nil)
