package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	applibrary "video-to-audio/application/library"
	"video-to-audio/domain/library"
	"video-to-audio/infrastructure/filesystem"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	listMediaKind string
	listMediaYAML bool
)

var listMediaCmd = &cobra.Command{
	Use:   "list-media",
	Short: "List video or audio files in the media library",
	Long: `List the video or audio files found under the configured library directories,
newest first. Hidden files and folders are ignored.

Example:
  video-to-audio list-media --kind video
  video-to-audio list-media --kind audio --yaml`,
	RunE: runListMedia,
}

func init() {
	rootCmd.AddCommand(listMediaCmd)
	listMediaCmd.Flags().StringVar(&listMediaKind, "kind", "", "Media kind: video or audio (required)")
	listMediaCmd.Flags().BoolVar(&listMediaYAML, "yaml", false, "Print entries as YAML")
	listMediaCmd.MarkFlagRequired("kind")
}

func runListMedia(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	index := filesystem.NewIndex(
		cfg.Library.ExpandedDirectories(),
		cfg.Library.VideoExtensions,
		cfg.Library.AudioExtensions,
	)

	return RunListMediaWithDependencies(cmd.Context(), index, listMediaKind, listMediaYAML, DefaultOutput)
}

// RunListMediaWithDependencies runs the list-media command with injected dependencies (for testing)
func RunListMediaWithDependencies(
	ctx context.Context,
	index library.Index,
	kind string,
	asYAML bool,
	out OutputWriter,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	service := applibrary.NewService(index, nil, nil, nil, applibrary.Folders{})
	entries, err := service.ListMedia(ctx, kind)
	if err != nil {
		return err
	}

	if asYAML {
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to serialize entries: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No %s files found.\n", kind)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE ADDED\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", time.Unix(e.DateAdded, 0).Format("2006-01-02 15:04"), e.Path)
	}
	return w.Flush()
}
