package cmd

import (
	"context"
	"fmt"

	applibrary "video-to-audio/application/library"
	"video-to-audio/domain/library"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var setRingtoneCmd = &cobra.Command{
	Use:   "set-ringtone <path>",
	Short: "Register an audio file as the default ringtone",
	Long: `Copy an audio file into the configured ringtone directory and record it as
the default ringtone in the ringtone state file.

Example:
  video-to-audio set-ringtone ~/Music/MergedAudio/mix.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: runSetRingtone,
}

func init() {
	rootCmd.AddCommand(setRingtoneCmd)
}

func runSetRingtone(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	path, err := filesystem.ResolvePath(args[0])
	if err != nil {
		return err
	}

	registrar := filesystem.NewRingtones(cfg.Paths.RingtonePath(), cfg.Paths.RingtoneStatePath())

	return RunSetRingtoneWithDependencies(cmd.Context(), registrar, filesystem.NewChecker(), path, DefaultOutput)
}

// RunSetRingtoneWithDependencies runs the set-ringtone command with injected dependencies (for testing)
func RunSetRingtoneWithDependencies(
	ctx context.Context,
	registrar library.RingtoneRegistrar,
	fileChecker media.FileChecker,
	path string,
	out OutputWriter,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	service := applibrary.NewService(nil, registrar, nil, fileChecker, applibrary.Folders{})
	ok, err := service.SetRingtone(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: ringtone was not registered", media.ErrIOFailure)
	}

	fmt.Fprintf(out, "Ringtone set successfully: %s\n", path)
	return nil
}
