package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	cfg        *config.Config
	cfgLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "video-to-audio",
	Short: "Extract and join audio tracks of local media files",
	Long: `video-to-audio pulls the audio out of video files and joins audio files,
without re-encoding:

  - Extract the first audio track of a video into an .m4a file
  - Concatenate audio files byte by byte
  - List video and audio files in the media library
  - Register a file as the default ringtone

Example:
  video-to-audio extract-audio --source ~/Movies/holiday.mp4
  video-to-audio concat --output mix.mp3 intro.mp3 song.mp3`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// DefaultOutput is the output writer used by commands in production
var DefaultOutput OutputWriter = os.Stdout

func Execute() {
	// Interrupts cancel the running operation between samples or copy blocks
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, FormatError(err))
		os.Exit(1)
	}
}

// FormatError renders err as "<CODE>: <message>"
func FormatError(err error) string {
	return fmt.Sprintf("%s: %v", media.Code(err), err)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// A missing file means built-in defaults; a malformed one is reported by the commands that need it
	cfg, cfgLoadErr = config.LoadOrDefault(cfgFile)
}

// GetConfig returns the loaded configuration
func GetConfig() (*config.Config, error) {
	if cfgLoadErr != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrInvalidArguments, cfgLoadErr)
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}
