package media

import (
	"errors"
	"strings"
	"testing"
)

func TestNewExtractRequest(t *testing.T) {
	tests := []struct {
		name        string
		sourcePath  string
		nameHint    string
		wantHint    string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid request with explicit hint",
			sourcePath: "/videos/clip.mp4",
			nameHint:   "out",
			wantHint:   "out",
		},
		{
			name:       "empty hint uses default",
			sourcePath: "/videos/clip.mp4",
			nameHint:   "",
			wantHint:   DefaultNameHint,
		},
		{
			name:       "hint is trimmed",
			sourcePath: "/videos/clip.mp4",
			nameHint:   "  song  ",
			wantHint:   "song",
		},
		{
			name:        "empty source path",
			sourcePath:  "",
			nameHint:    "out",
			wantErr:     true,
			errContains: "source video path is required",
		},
		{
			name:        "hint with separator",
			sourcePath:  "/videos/clip.mp4",
			nameHint:    "../escape",
			wantErr:     true,
			errContains: "plain file name",
		},
		{
			name:        "hint is parent directory",
			sourcePath:  "/videos/clip.mp4",
			nameHint:    "..",
			wantErr:     true,
			errContains: "plain file name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractRequest(tt.sourcePath, tt.nameHint)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewExtractRequest() expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidArguments) {
					t.Errorf("NewExtractRequest() error = %v, want ErrInvalidArguments", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewExtractRequest() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewExtractRequest() unexpected error: %v", err)
			}
			if got.NameHint != tt.wantHint {
				t.Errorf("NewExtractRequest() NameHint = %q, want %q", got.NameHint, tt.wantHint)
			}
		})
	}
}

func TestExtractRequest_OutputFilename(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"out", "out.m4a"},
		{"song.m4a", "song.m4a"},
		{"SONG.M4A", "SONG.M4A"},
		{"track.mp3", "track.mp3.m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			req := &ExtractRequest{NameHint: tt.hint}
			if got := req.OutputFilename(); got != tt.want {
				t.Errorf("ExtractRequest.OutputFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRequest_OutputPath(t *testing.T) {
	req := &ExtractRequest{NameHint: "out"}

	tests := []struct {
		outputDir string
		want      string
	}{
		{"/home/user/Music/VideoMusic", "/home/user/Music/VideoMusic/out.m4a"},
		{"/tmp", "/tmp/out.m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.outputDir, func(t *testing.T) {
			if got := req.OutputPath(tt.outputDir); got != tt.want {
				t.Errorf("ExtractRequest.OutputPath(%q) = %q, want %q", tt.outputDir, got, tt.want)
			}
		})
	}
}

func TestNameHintFromSource(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"/videos/clip.mp4", "clip"},
		{"holiday.2024.mov", "holiday.2024"},
		{"noext", "noext"},
		{"/", DefaultNameHint},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := NameHintFromSource(tt.source); got != tt.want {
				t.Errorf("NameHintFromSource(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestNewConcatRequest(t *testing.T) {
	tests := []struct {
		name        string
		sources     []string
		destination string
		wantErr     bool
	}{
		{name: "valid", sources: []string{"a.mp3", "b.mp3"}, destination: "c.mp3"},
		{name: "single source", sources: []string{"a.mp3"}, destination: "c.mp3"},
		{name: "no sources", sources: nil, destination: "c.mp3", wantErr: true},
		{name: "blank source", sources: []string{"a.mp3", " "}, destination: "c.mp3", wantErr: true},
		{name: "no destination", sources: []string{"a.mp3"}, destination: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConcatRequest(tt.sources, tt.destination)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArguments) {
					t.Errorf("NewConcatRequest() error = %v, want ErrInvalidArguments", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConcatRequest() unexpected error: %v", err)
			}
			if len(got.SourcePaths) != len(tt.sources) {
				t.Errorf("NewConcatRequest() SourcePaths = %v, want %v", got.SourcePaths, tt.sources)
			}
		})
	}
}

func TestNewConcatRequest_CopiesSources(t *testing.T) {
	sources := []string{"a.mp3", "b.mp3"}
	req, err := NewConcatRequest(sources, "c.mp3")
	if err != nil {
		t.Fatalf("NewConcatRequest() unexpected error: %v", err)
	}

	sources[0] = "changed.mp3"
	if req.SourcePaths[0] != "a.mp3" {
		t.Errorf("request shares the caller's slice: got %q", req.SourcePaths[0])
	}
}
