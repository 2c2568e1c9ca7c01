package audio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"video-to-audio/domain/media"
)

// ExtractResult contains the result of an audio extraction operation
type ExtractResult struct {
	OutputPath   string
	MediaType    string // empty when the fallback remuxer produced the file
	SampleCount  int
	Bytes        int64 // total sample payload bytes copied
	UsedFallback bool
}

// ExtractInput represents the input for an audio extraction operation
type ExtractInput struct {
	SourcePath string
	NameHint   string // Optional, uses media.DefaultNameHint if empty
}

// ExtractService demuxes the first audio track of a video and remuxes it into its own file
type ExtractService struct {
	demuxer     media.Demuxer
	muxers      media.MuxerFactory
	sinks       media.SinkFactory
	fileChecker media.FileChecker
	outputDir   string
	bufferSize  int
	fallback    media.FallbackRemuxer
}

// ExtractOption is a functional option for configuring ExtractService
type ExtractOption func(*ExtractService)

// WithBufferSize sets the size of the sample transfer buffer
func WithBufferSize(size int) ExtractOption {
	return func(s *ExtractService) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// WithFallback sets a remuxer used when the demuxer cannot open the source
func WithFallback(fallback media.FallbackRemuxer) ExtractOption {
	return func(s *ExtractService) {
		s.fallback = fallback
	}
}

// NewExtractService creates a new ExtractService
func NewExtractService(
	demuxer media.Demuxer,
	muxers media.MuxerFactory,
	sinks media.SinkFactory,
	fileChecker media.FileChecker,
	outputDir string,
	opts ...ExtractOption,
) *ExtractService {
	s := &ExtractService{
		demuxer:     demuxer,
		muxers:      muxers,
		sinks:       sinks,
		fileChecker: fileChecker,
		outputDir:   outputDir,
		bufferSize:  media.DefaultBufferSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Extract copies the first audio track of the source into <outputDir>/<hint>.m4a.
// Nothing is left at the output path unless the whole track was written and finalized.
func (s *ExtractService) Extract(ctx context.Context, input ExtractInput) (*ExtractResult, error) {
	req, err := media.NewExtractRequest(input.SourcePath, input.NameHint)
	if err != nil {
		return nil, err
	}

	if !s.fileChecker.Exists(req.SourcePath) {
		return nil, fmt.Errorf("%w: source video does not exist: %s", media.ErrSourceUnreadable, req.SourcePath)
	}

	src, err := s.demuxer.Open(req.SourcePath)
	if err != nil {
		if s.fallback != nil {
			return s.extractWithFallback(ctx, req)
		}
		return nil, fmt.Errorf("%w: %s: %w", media.ErrSourceUnreadable, req.SourcePath, err)
	}
	defer src.Close()

	tracks := src.Tracks()
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s contains no tracks", media.ErrSourceUnreadable, req.SourcePath)
	}

	track, ok := media.FirstAudioTrack(tracks)
	if !ok {
		return nil, fmt.Errorf("%w: %s", media.ErrNoAudioTrack, req.SourcePath)
	}

	if err := src.SelectTrack(track.Index); err != nil {
		return nil, fmt.Errorf("%w: selecting track %d: %w", media.ErrSourceUnreadable, track.Index, err)
	}

	outputPath := req.OutputPath(s.outputDir)
	sink, err := s.sinks.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", media.ErrIOFailure, outputPath, err)
	}

	stats, err := s.remux(ctx, src, track, sink)
	if err != nil {
		return nil, discard(sink, err)
	}

	if err := sink.Commit(); err != nil {
		return nil, discard(sink, fmt.Errorf("%w: finalizing %s: %w", media.ErrIOFailure, outputPath, err))
	}

	return &ExtractResult{
		OutputPath:  outputPath,
		MediaType:   track.MediaType,
		SampleCount: stats.samples,
		Bytes:       stats.bytes,
	}, nil
}

type remuxStats struct {
	samples int
	bytes   int64
}

// remux copies every sample of the selected track into a single-track output, in read order
func (s *ExtractService) remux(ctx context.Context, src media.Container, track media.Track, out io.WriteSeeker) (remuxStats, error) {
	var stats remuxStats

	muxer := s.muxers.NewMuxer(out)
	outTrack, err := muxer.AddTrack(track)
	if err != nil {
		return stats, fmt.Errorf("%w: adding %s track: %w", media.ErrIOFailure, track.MediaType, err)
	}
	if err := muxer.Start(); err != nil {
		return stats, fmt.Errorf("%w: starting output: %w", media.ErrIOFailure, err)
	}

	buf := make([]byte, s.bufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		sample, err := src.ReadSample(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, media.ErrSampleTooLarge) {
				return stats, err
			}
			return stats, fmt.Errorf("%w: reading sample %d: %w", media.ErrIOFailure, stats.samples, err)
		}

		if err := muxer.WriteSample(outTrack, sample); err != nil {
			return stats, fmt.Errorf("%w: writing sample %d: %w", media.ErrIOFailure, stats.samples, err)
		}
		stats.samples++
		stats.bytes += int64(len(sample.Data))
	}

	if err := muxer.Stop(); err != nil {
		return stats, fmt.Errorf("%w: finalizing output: %w", media.ErrIOFailure, err)
	}
	return stats, nil
}

// extractWithFallback hands a source the demuxer rejected to the fallback remuxer
func (s *ExtractService) extractWithFallback(ctx context.Context, req *media.ExtractRequest) (*ExtractResult, error) {
	outputPath := req.OutputPath(s.outputDir)
	sink, err := s.sinks.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", media.ErrIOFailure, outputPath, err)
	}

	if err := s.fallback.RemuxAudio(ctx, req.SourcePath, sink.Path()); err != nil {
		return nil, discard(sink, err)
	}

	if err := sink.Commit(); err != nil {
		return nil, discard(sink, fmt.Errorf("%w: finalizing %s: %w", media.ErrIOFailure, outputPath, err))
	}

	return &ExtractResult{
		OutputPath:   outputPath,
		UsedFallback: true,
	}, nil
}

// discard aborts the sink and returns cause, joined with any abort failure
func discard(sink media.Sink, cause error) error {
	if err := sink.Abort(); err != nil {
		return errors.Join(cause, fmt.Errorf("discarding partial output: %w", err))
	}
	return cause
}
