package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AudioExtension is the file extension of extracted audio files (MPEG-4 audio)
const AudioExtension = ".m4a"

// DefaultNameHint is used when the caller does not name the output
const DefaultNameHint = "default_audio"

// DefaultBufferSize is the size of the sample transfer buffer
const DefaultBufferSize = 1024 * 1024

// ExtractRequest represents a request to extract the audio track of a video
type ExtractRequest struct {
	SourcePath string
	NameHint   string
}

// NewExtractRequest creates a new ExtractRequest with validation
func NewExtractRequest(sourcePath, nameHint string) (*ExtractRequest, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, fmt.Errorf("%w: source video path is required", ErrInvalidArguments)
	}

	nameHint = strings.TrimSpace(nameHint)
	if nameHint == "" {
		nameHint = DefaultNameHint
	}
	if strings.ContainsAny(nameHint, `/\`) || nameHint == "." || nameHint == ".." {
		return nil, fmt.Errorf("%w: output name %q must be a plain file name", ErrInvalidArguments, nameHint)
	}

	return &ExtractRequest{
		SourcePath: sourcePath,
		NameHint:   nameHint,
	}, nil
}

// OutputFilename returns the output filename, <hint>.m4a
func (r *ExtractRequest) OutputFilename() string {
	if strings.EqualFold(filepath.Ext(r.NameHint), AudioExtension) {
		return r.NameHint
	}
	return r.NameHint + AudioExtension
}

// OutputPath returns the full output path including the directory
func (r *ExtractRequest) OutputPath(outputDir string) string {
	return filepath.Join(outputDir, r.OutputFilename())
}

// NameHintFromSource derives an output name from the source file name
func NameHintFromSource(sourcePath string) string {
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return DefaultNameHint
	}
	return name
}
