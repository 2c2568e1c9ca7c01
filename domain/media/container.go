package media

import (
	"context"
	"io"
)

// Demuxer opens containers for reading.
// This is a port that can be implemented by different infrastructure adapters
type Demuxer interface {
	// Open opens the container at path
	Open(path string) (Container, error)
}

// Container is an opened, readable media container
type Container interface {
	// Tracks returns the track descriptors in container order
	Tracks() []Track

	// SelectTrack chooses the track that ReadSample reads from
	SelectTrack(index int) error

	// ReadSample reads the next sample of the selected track into buf and advances the cursor.
	// It returns io.EOF at the end of the track and an error wrapping ErrSampleTooLarge
	// if the sample does not fit in buf. The returned Sample.Data aliases buf.
	ReadSample(buf []byte) (Sample, error)

	// Close releases the container
	Close() error
}

// Muxer writes tracks and samples into a new container.
// A write session must be started before the first sample and stopped after the last one;
// the output is only valid once Stop has returned without error.
type Muxer interface {
	// AddTrack adds a track with the given format and returns its output index
	AddTrack(track Track) (int, error)

	// Start writes the container header and opens the write session
	Start() error

	// WriteSample appends a sample to the given output track
	WriteSample(track int, sample Sample) error

	// Stop closes the write session and finalizes the container
	Stop() error
}

// MuxerFactory creates muxers over a writable destination
type MuxerFactory interface {
	NewMuxer(w io.WriteSeeker) Muxer
}

// FallbackRemuxer copies the first audio stream of a source that no Demuxer can open
// into an MPEG-4 audio file at outputPath, without re-encoding
type FallbackRemuxer interface {
	RemuxAudio(ctx context.Context, sourcePath, outputPath string) error
}
