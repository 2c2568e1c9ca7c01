package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/probe"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "wrapped media error",
			err:  fmt.Errorf("%w: clip.mp4", media.ErrNoAudioTrack),
			want: "NO_AUDIO_TRACK: no audio track: clip.mp4",
		},
		{
			name: "unclassified error",
			err:  errors.New("boom"),
			want: "ERROR: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatError(tt.err); got != tt.want {
				t.Errorf("FormatError() = %q, want %q", got, tt.want)
			}
		})
	}
}

// mockProber returns a canned report
type mockProber struct {
	report *probe.Report
	err    error
}

func (m *mockProber) Probe(path string) (*probe.Report, error) {
	return m.report, m.err
}

func TestRunInspectWithDependencies(t *testing.T) {
	prober := &mockProber{report: &probe.Report{
		Path:     "/movies/clip.mp4",
		Format:   "mp4",
		Duration: 2 * time.Second,
		Tracks: []media.Track{
			{Index: 0, ID: 1, MediaType: "video/avc", Timescale: 90000, SampleCount: 60},
			{Index: 1, ID: 2, MediaType: "audio/mp4a-latm", Timescale: 44100, SampleCount: 86},
		},
	}}

	var out bytes.Buffer
	if err := RunInspectWithDependencies(prober, "/movies/clip.mp4", &out); err != nil {
		t.Fatalf("RunInspectWithDependencies() unexpected error: %v", err)
	}

	for _, want := range []string{"File:     /movies/clip.mp4", "Duration: 2s", "audio/mp4a-latm", "video/avc"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "Audio:") {
		t.Error("container reports should not print stream parameters")
	}
}

func TestRunInspectWithDependencies_Error(t *testing.T) {
	prober := &mockProber{err: fmt.Errorf("%w: bad header", media.ErrSourceUnreadable)}

	var out bytes.Buffer
	err := RunInspectWithDependencies(prober, "x", &out)
	if !errors.Is(err, media.ErrSourceUnreadable) {
		t.Fatalf("error = %v, want ErrSourceUnreadable", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed on error, got %q", out.String())
	}
}
