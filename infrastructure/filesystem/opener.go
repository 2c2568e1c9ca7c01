package filesystem

import (
	"io"
	"os"

	"video-to-audio/domain/media"
)

// Opener implements media.SourceOpener using os.Open
type Opener struct{}

// NewOpener creates a new Opener
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens path for reading. Directories are rejected.
func (o *Opener) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, &os.PathError{Op: "open", Path: path, Err: errIsDirectory}
	}

	return f, nil
}

// Ensure Opener implements media.SourceOpener
var _ media.SourceOpener = (*Opener)(nil)
