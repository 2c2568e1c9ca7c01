package cmd

import (
	"fmt"
	"os"

	applibrary "video-to-audio/application/library"
	"video-to-audio/domain/library"
	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/filesystem"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through choosing the music directory, the output
folders for extracted and merged audio, the media library directories and
the optional ffmpeg fallback. The output folders are created afterwards.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, configPath, filesystem.NewFolders(), DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, folders library.FolderCreator, out OutputWriter) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to video-to-audio setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	// Paths section
	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	// Library section
	if err := promptLibrary(prompter, cfg); err != nil {
		return err
	}

	// Extract section
	if err := promptExtract(prompter, cfg); err != nil {
		return err
	}

	// Save configuration
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)

	service := applibrary.NewService(nil, nil, folders, nil, applibrary.Folders{
		Extract:   cfg.Paths.ExtractPath(),
		Merge:     cfg.Paths.MergePath(),
		Converter: cfg.Paths.ConverterPath(),
	})
	created, err := service.EnsureFolders()
	if err != nil {
		return err
	}
	for _, dir := range created {
		fmt.Fprintf(out, "Folder ready: %s\n", dir)
	}
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	music, err := prompter.Input("Where is your music directory?", cfg.Paths.MusicDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if music == "" {
		return fmt.Errorf("music directory is required")
	}
	cfg.Paths.MusicDirectory = music

	extract, err := prompter.Input("Folder for extracted audio (relative to the music directory)?", cfg.Paths.ExtractDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if extract != "" {
		cfg.Paths.ExtractDirectory = extract
	}

	merge, err := prompter.Input("Folder for merged audio (relative to the music directory)?", cfg.Paths.MergeDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if merge != "" {
		cfg.Paths.MergeDirectory = merge
	}

	return nil
}

func promptLibrary(prompter Prompter, cfg *config.Config) error {
	keep, err := prompter.Confirm(fmt.Sprintf("Scan the default library directories %v?", cfg.Library.Directories), true)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !keep {
		cfg.Library.Directories = []string{}
	}

	for {
		add, err := prompter.Confirm("Add a library directory?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !add {
			break
		}

		dir, err := prompter.Input("  Directory:", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if dir == "" {
			return fmt.Errorf("directory is required")
		}
		cfg.Library.Directories = append(cfg.Library.Directories, dir)
	}

	return nil
}

func promptExtract(prompter Prompter, cfg *config.Config) error {
	fallback, err := prompter.Confirm("Use ffmpeg for videos that are not MP4/MOV?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Extract.FFmpegFallback = fallback
	if !fallback {
		return nil
	}

	path, err := prompter.Input("Path to the ffmpeg executable?", cfg.Extract.FFmpegPath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if path != "" {
		cfg.Extract.FFmpegPath = path
	}
	return nil
}
