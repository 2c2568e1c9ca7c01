package media

import "io"

// Sink is an output file that becomes visible at its destination only once committed
type Sink interface {
	io.Writer
	io.Seeker

	// Path returns the path data is currently written to (not the destination)
	Path() string

	// Commit flushes the data and moves it to the destination path
	Commit() error

	// Abort discards everything written so far
	Abort() error
}

// SinkFactory creates sinks, creating parent directories of the destination as needed
type SinkFactory interface {
	Create(destination string) (Sink, error)
}

// SourceOpener opens input files for reading.
// Implementations return an error satisfying errors.Is(err, fs.ErrNotExist) for missing files
type SourceOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}
