package cmd

import (
	"fmt"
	"text/tabwriter"

	"video-to-audio/infrastructure/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and manage configuration entries",
	Long: `Show the effective configuration and manage media library entries.

Examples:
  video-to-audio config show
  video-to-audio config library add ~/Movies/Camera
  video-to-audio config library list
  video-to-audio config library remove ~/Movies/Camera
  video-to-audio config extension add video .ts`,
}

var configLibraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage media library directories",
}

var configExtensionCmd = &cobra.Command{
	Use:   "extension",
	Short: "Manage media file extensions",
}

func init() {
	rootCmd.AddCommand(configCmd)

	// Add subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configLibraryCmd)
	configCmd.AddCommand(configExtensionCmd)
	configLibraryCmd.AddCommand(configLibraryAddCmd)
	configLibraryCmd.AddCommand(configLibraryListCmd)
	configLibraryCmd.AddCommand(configLibraryRemoveCmd)
	configExtensionCmd.AddCommand(configExtensionAddCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration in effect, with defaults filled in, followed by the
resolved output directories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	fmt.Fprintf(out, "# %s\n", configPath)
	if _, err := out.Write(data); err != nil {
		return err
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIRECTORY\tPATH")
	fmt.Fprintf(w, "extract\t%s\n", cfg.Paths.ExtractPath())
	fmt.Fprintf(w, "merge\t%s\n", cfg.Paths.MergePath())
	fmt.Fprintf(w, "converter\t%s\n", cfg.Paths.ConverterPath())
	fmt.Fprintf(w, "ringtones\t%s\n", cfg.Paths.RingtonePath())
	return w.Flush()
}

// --- LIBRARY commands ---

var configLibraryAddCmd = &cobra.Command{
	Use:   "add <directory>",
	Short: "Add a library directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigLibraryAddWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigLibraryAddWithDependencies runs the library add command with injected dependencies
func RunConfigLibraryAddWithDependencies(cfg *config.Config, configPath, dir string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.AddLibraryDirectory(dir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added library directory %q\n", dir)
	return nil
}

var configLibraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigLibraryListWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigLibraryListWithDependencies runs the library list command with injected dependencies
func RunConfigLibraryListWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	dirs := mgr.ListLibraryDirectories()
	if len(dirs) == 0 {
		fmt.Fprintln(out, "No library directories configured.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIRECTORY\tEXPANDED")
	for _, d := range dirs {
		fmt.Fprintf(w, "%s\t%s\n", d, config.ExpandHome(d))
	}
	return w.Flush()
}

var configLibraryRemoveCmd = &cobra.Command{
	Use:   "remove <directory>",
	Short: "Remove a library directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigLibraryRemoveWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigLibraryRemoveWithDependencies runs the library remove command with injected dependencies
func RunConfigLibraryRemoveWithDependencies(cfg *config.Config, configPath, dir string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.RemoveLibraryDirectory(dir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed library directory %q\n", dir)
	return nil
}

// --- EXTENSION commands ---

var configExtensionAddCmd = &cobra.Command{
	Use:   "add [video|audio] <extension>",
	Short: "Add a file extension to the video or audio list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigExtensionAddWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigExtensionAddWithDependencies runs the extension add command with injected dependencies
func RunConfigExtensionAddWithDependencies(cfg *config.Config, configPath, kind, ext string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.AddExtension(kind, ext); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s extension %q\n", kind, ext)
	return nil
}
