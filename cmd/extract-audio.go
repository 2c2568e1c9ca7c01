package cmd

import (
	"context"
	"fmt"
	"time"

	"video-to-audio/application/audio"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/ffmpeg"
	"video-to-audio/infrastructure/filesystem"
	"video-to-audio/infrastructure/mp4"

	"github.com/spf13/cobra"
)

var (
	extractSourcePath string
	extractNameHint   string
	extractOutputDir  string
)

var extractAudioCmd = &cobra.Command{
	Use:   "extract-audio",
	Short: "Extract the audio track of a video file",
	Long: `Copy the first audio track of a video into its own MPEG-4 audio file (.m4a).

Samples are copied without re-encoding, so the output has the same codec,
quality and timing as the audio inside the video. The file is written to the
configured extract directory (VideoMusic under the music directory) unless
--output-dir is given. The output name defaults to the video's base name.

--source accepts a path or a file:// URI.

Example:
  video-to-audio extract-audio --source ~/Movies/holiday.mp4
  video-to-audio extract-audio --source "file:///sdcard/DCIM/clip.mp4" --name "beach"`,
	RunE: runExtractAudio,
}

func init() {
	rootCmd.AddCommand(extractAudioCmd)
	extractAudioCmd.Flags().StringVar(&extractSourcePath, "source", "", "Path or file:// URI of the source video (required)")
	extractAudioCmd.Flags().StringVar(&extractNameHint, "name", "", "Output file name without extension (defaults to the source name)")
	extractAudioCmd.Flags().StringVar(&extractOutputDir, "output-dir", "", "Output directory (defaults to the configured extract directory)")
	extractAudioCmd.MarkFlagRequired("source")
}

func runExtractAudio(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	sourcePath, err := filesystem.ResolvePath(extractSourcePath)
	if err != nil {
		return err
	}

	nameHint := extractNameHint
	if nameHint == "" {
		nameHint = media.NameHintFromSource(sourcePath)
	}

	outputDir := extractOutputDir
	if outputDir == "" {
		outputDir = cfg.Paths.ExtractPath()
	}

	// Create dependencies using production implementations
	var fallback media.FallbackRemuxer
	if cfg.Extract.FFmpegFallback {
		fallback = ffmpeg.NewRemuxer(ffmpeg.WithFFmpegPath(cfg.Extract.FFmpegPath))
	}

	return RunExtractAudioWithDependencies(
		cmd.Context(),
		mp4.NewDemuxer(),
		mp4.NewMuxerFactory(),
		filesystem.NewSinks(),
		filesystem.NewChecker(),
		fallback,
		outputDir,
		cfg.Extract.BufferSize,
		sourcePath,
		nameHint,
		DefaultOutput,
	)
}

// RunExtractAudioWithDependencies runs the extract-audio command with injected dependencies (for testing)
func RunExtractAudioWithDependencies(
	ctx context.Context,
	demuxer media.Demuxer,
	muxers media.MuxerFactory,
	sinks media.SinkFactory,
	fileChecker media.FileChecker,
	fallback media.FallbackRemuxer,
	outputDir string,
	bufferSize int,
	sourcePath string,
	nameHint string,
	output OutputWriter,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []audio.ExtractOption{audio.WithBufferSize(bufferSize)}
	if fallback != nil {
		// Verify ffmpeg is available if the fallback supports it
		if verifiable, ok := fallback.(interface{ VerifyInstalled(context.Context) error }); ok {
			verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
				return fmt.Errorf("ffmpeg verification failed: %w", err)
			}
		}
		opts = append(opts, audio.WithFallback(fallback))
	}

	// Create service with injected dependencies
	service := audio.NewExtractService(demuxer, muxers, sinks, fileChecker, outputDir, opts...)

	fmt.Fprintf(output, "Extracting audio from %s...\n", sourcePath)

	result, err := service.Extract(ctx, audio.ExtractInput{
		SourcePath: sourcePath,
		NameHint:   nameHint,
	})
	if err != nil {
		return err
	}

	if result.UsedFallback {
		fmt.Fprintf(output, "Copied audio with ffmpeg\n")
	} else {
		fmt.Fprintf(output, "Copied %d %s samples (%d bytes)\n", result.SampleCount, result.MediaType, result.Bytes)
	}
	fmt.Fprintf(output, "Successfully created: %s\n", result.OutputPath)
	return nil
}
