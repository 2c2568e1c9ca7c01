package cmd

import (
	"fmt"
	"text/tabwriter"

	"video-to-audio/infrastructure/filesystem"
	"video-to-audio/infrastructure/mp4"
	"video-to-audio/infrastructure/probe"

	"github.com/spf13/cobra"
)

// MediaProber describes media files (allows mocking in tests)
type MediaProber interface {
	Probe(path string) (*probe.Report, error)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Show the tracks and format of a media file",
	Long: `Describe a media file without decoding it: the tracks of an MPEG-4 / QuickTime
file, or the stream parameters of an MP3 or FLAC file.

Example:
  video-to-audio inspect ~/Movies/holiday.mp4
  video-to-audio inspect ~/Music/VideoMusic/holiday.m4a`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path, err := filesystem.ResolvePath(args[0])
	if err != nil {
		return err
	}

	return RunInspectWithDependencies(probe.NewProber(mp4.NewDemuxer()), path, DefaultOutput)
}

// RunInspectWithDependencies runs the inspect command with injected dependencies (for testing)
func RunInspectWithDependencies(prober MediaProber, path string, out OutputWriter) error {
	report, err := prober.Probe(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File:     %s\n", report.Path)
	fmt.Fprintf(out, "Format:   %s\n", report.Format)
	fmt.Fprintf(out, "Duration: %s\n", report.Duration)

	if report.SampleRate > 0 {
		fmt.Fprintf(out, "Audio:    %d Hz, %d channels, %d bit\n", report.SampleRate, report.Channels, report.BitDepth)
	}

	if len(report.Tracks) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tID\tTYPE\tTIMESCALE\tSAMPLES")
		for _, t := range report.Tracks {
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\n", t.Index, t.ID, t.MediaType, t.Timescale, t.SampleCount)
		}
		return w.Flush()
	}
	return nil
}
