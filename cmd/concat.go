package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"video-to-audio/application/audio"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var concatOutput string

var concatCmd = &cobra.Command{
	Use:   "concat --output <name> <source>...",
	Short: "Join audio files byte by byte",
	Long: `Append the full contents of each source file, in the order given, to one output file.

This is a raw byte join with no container awareness. The result plays back
correctly only for formats that tolerate stream concatenation, such as MP3 or
ADTS AAC. Joining MPEG-4 (.m4a) files this way produces a file that players
will truncate after the first part.

Sources that do not exist are skipped and reported. A relative --output is
placed in the configured merge directory (MergedAudio under the music directory).

Example:
  video-to-audio concat --output mix.mp3 intro.mp3 song.mp3 outro.mp3
  video-to-audio concat --output /tmp/joined.aac part1.aac part2.aac`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConcat,
}

func init() {
	rootCmd.AddCommand(concatCmd)
	concatCmd.Flags().StringVar(&concatOutput, "output", "", "Output file name or path (required)")
	concatCmd.MarkFlagRequired("output")
}

func runConcat(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	sources := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := filesystem.ResolvePath(arg)
		if err != nil {
			return err
		}
		sources = append(sources, path)
	}

	return RunConcatWithDependencies(
		cmd.Context(),
		filesystem.NewOpener(),
		filesystem.NewSinks(),
		cfg.Paths.MergePath(),
		sources,
		concatOutput,
		DefaultOutput,
	)
}

// RunConcatWithDependencies runs the concat command with injected dependencies (for testing)
func RunConcatWithDependencies(
	ctx context.Context,
	opener media.SourceOpener,
	sinks media.SinkFactory,
	mergeDir string,
	sourcePaths []string,
	output string,
	out OutputWriter,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	destination := output
	if destination != "" && !filepath.IsAbs(destination) {
		destination = filepath.Join(mergeDir, destination)
	}

	service := audio.NewConcatService(opener, sinks)

	fmt.Fprintf(out, "Joining %d files into %s...\n", len(sourcePaths), destination)

	result, err := service.Concatenate(ctx, audio.ConcatInput{
		SourcePaths:     sourcePaths,
		DestinationPath: destination,
	})
	if err != nil {
		return err
	}

	for _, skipped := range result.Skipped {
		fmt.Fprintf(out, "Skipped missing file: %s\n", skipped)
	}
	fmt.Fprintf(out, "Joined %d files (%d bytes)\n", len(result.Sources), result.Bytes)
	fmt.Fprintf(out, "Successfully created: %s\n", result.OutputPath)
	return nil
}
