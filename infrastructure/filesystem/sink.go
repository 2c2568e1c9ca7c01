package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"video-to-audio/domain/media"

	"github.com/google/uuid"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Sinks implements media.SinkFactory with write-then-rename files
type Sinks struct{}

// NewSinks creates a new sink factory
func NewSinks() *Sinks {
	return &Sinks{}
}

// Create opens a partial file beside destination, creating missing parent directories.
// The partial name is unique per call so concurrent writers never share it.
func (s *Sinks) Create(destination string) (media.Sink, error) {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	partial := filepath.Join(dir, partialName(filepath.Base(destination)))
	f, err := os.OpenFile(partial, os.O_RDWR|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return nil, err
	}

	return &fileSink{
		f:           f,
		partial:     partial,
		destination: destination,
	}, nil
}

// Ensure Sinks implements media.SinkFactory
var _ media.SinkFactory = (*Sinks)(nil)

func partialName(base string) string {
	return "." + base + "." + uuid.NewString() + ".partial"
}

// fileSink is an *os.File that is renamed into place on commit
type fileSink struct {
	f           *os.File
	partial     string
	destination string
	closed      bool
	committed   bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *fileSink) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *fileSink) Path() string {
	return s.partial
}

// Commit syncs the partial file and renames it over the destination
func (s *fileSink) Commit() error {
	if s.committed {
		return nil
	}
	if s.closed {
		return errors.New("sink already closed")
	}

	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", s.partial, err)
	}
	s.closed = true
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.partial, err)
	}
	if err := os.Rename(s.partial, s.destination); err != nil {
		return fmt.Errorf("moving output into place: %w", err)
	}

	s.committed = true
	return nil
}

// Abort closes and removes the partial file. It does nothing after a successful commit.
func (s *fileSink) Abort() error {
	if s.committed {
		return nil
	}

	var closeErr error
	if !s.closed {
		s.closed = true
		closeErr = s.f.Close()
	}
	if err := os.Remove(s.partial); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(closeErr, err)
	}
	return closeErr
}
