package filesystem

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/domain/library"
	"video-to-audio/domain/media"
)

var errIsDirectory = errors.New("is a directory")

// ResolvePath turns a plain path or a file:// URI into a cleaned filesystem path
func ResolvePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: path is required", media.ErrInvalidArguments)
	}
	if !strings.Contains(p, "://") {
		return filepath.Clean(p), nil
	}

	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URI %q: %w", media.ErrInvalidArguments, p, err)
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return "", fmt.Errorf("%w: unsupported URI scheme %q", media.ErrInvalidArguments, u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote file URI %q", media.ErrInvalidArguments, p)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: URI %q has no path", media.ErrInvalidArguments, p)
	}

	return filepath.Clean(filepath.FromSlash(u.Path)), nil
}

// Folders implements library.FolderCreator
type Folders struct{}

// NewFolders creates a new Folders
func NewFolders() *Folders {
	return &Folders{}
}

// MkdirAll creates path and any missing parents
func (f *Folders) MkdirAll(path string) error {
	return os.MkdirAll(path, dirPerm)
}

// Ensure Folders implements library.FolderCreator
var _ library.FolderCreator = (*Folders)(nil)
