package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"video-to-audio/domain/media"
)

// copyBufferSize is the block size used when appending source files
const copyBufferSize = 256 * 1024

// ConcatInput represents the input for a concatenation operation
type ConcatInput struct {
	SourcePaths     []string
	DestinationPath string
}

// ConcatResult contains the result of a concatenation operation
type ConcatResult struct {
	OutputPath string
	Bytes      int64
	Sources    []string // sources that were appended, in order
	Skipped    []string // sources that did not exist
}

// ConcatService joins audio files byte by byte
type ConcatService struct {
	opener media.SourceOpener
	sinks  media.SinkFactory
}

// NewConcatService creates a new ConcatService
func NewConcatService(opener media.SourceOpener, sinks media.SinkFactory) *ConcatService {
	return &ConcatService{
		opener: opener,
		sinks:  sinks,
	}
}

// Concatenate appends the full content of each existing source, in order, to the destination.
// Sources that do not exist are skipped. On failure the destination is left untouched.
func (s *ConcatService) Concatenate(ctx context.Context, input ConcatInput) (*ConcatResult, error) {
	req, err := media.NewConcatRequest(input.SourcePaths, input.DestinationPath)
	if err != nil {
		return nil, err
	}

	sink, err := s.sinks.Create(req.DestinationPath)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", media.ErrIOFailure, req.DestinationPath, err)
	}

	result := &ConcatResult{OutputPath: req.DestinationPath}
	buf := make([]byte, copyBufferSize)

	for _, path := range req.SourcePaths {
		if err := ctx.Err(); err != nil {
			return nil, discard(sink, err)
		}

		n, err := s.appendFile(ctx, sink, path, buf)
		if errors.Is(err, fs.ErrNotExist) {
			result.Skipped = append(result.Skipped, path)
			continue
		}
		if err != nil {
			return nil, discard(sink, err)
		}

		result.Bytes += n
		result.Sources = append(result.Sources, path)
	}

	if err := sink.Commit(); err != nil {
		return nil, discard(sink, fmt.Errorf("%w: finalizing %s: %w", media.ErrIOFailure, req.DestinationPath, err))
	}

	return result, nil
}

// appendFile copies path into w. A missing file is reported as fs.ErrNotExist, unwrapped.
func (s *ConcatService) appendFile(ctx context.Context, w io.Writer, path string, buf []byte) (int64, error) {
	f, err := s.opener.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fs.ErrNotExist
		}
		return 0, fmt.Errorf("%w: opening %s: %w", media.ErrIOFailure, path, err)
	}
	defer f.Close()

	n, err := io.CopyBuffer(w, &contextReader{ctx: ctx, r: f}, buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, fmt.Errorf("%w: copying %s: %w", media.ErrIOFailure, path, err)
	}
	return n, nil
}

// contextReader stops reading once its context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
