package media

import (
	"fmt"
	"strings"
)

// ConcatRequest represents a request to join audio files byte by byte.
//
// The output is a raw concatenation without any container awareness. It only plays back
// correctly when the codec tolerates stream concatenation (MP3 or ADTS AAC elementary
// streams do; MP4, WAV and most other containers do not). Inputs are assumed homogeneous.
type ConcatRequest struct {
	SourcePaths     []string
	DestinationPath string
}

// NewConcatRequest creates a new ConcatRequest with validation
func NewConcatRequest(sourcePaths []string, destinationPath string) (*ConcatRequest, error) {
	if len(sourcePaths) == 0 {
		return nil, fmt.Errorf("%w: at least one source file is required", ErrInvalidArguments)
	}
	for i, p := range sourcePaths {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("%w: source path %d is empty", ErrInvalidArguments, i+1)
		}
	}
	if strings.TrimSpace(destinationPath) == "" {
		return nil, fmt.Errorf("%w: output file name is required", ErrInvalidArguments)
	}

	paths := make([]string, len(sourcePaths))
	copy(paths, sourcePaths)

	return &ConcatRequest{
		SourcePaths:     paths,
		DestinationPath: destinationPath,
	}, nil
}
