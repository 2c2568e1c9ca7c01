package library

import (
	"context"
	"fmt"
	"strings"

	"video-to-audio/domain/media"
)

// Kind selects which media files a listing returns
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ParseKind parses a media kind name (case-insensitive)
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindVideo:
		return KindVideo, nil
	case KindAudio:
		return KindAudio, nil
	default:
		return "", fmt.Errorf("%w: unknown media kind %q, use video or audio", media.ErrInvalidArguments, s)
	}
}

// Entry is one media file known to the index
type Entry struct {
	Path      string `yaml:"path"`
	DateAdded int64  `yaml:"date_added"` // epoch seconds
}

// Index is a queryable media index.
// This is a port that can be implemented by different infrastructure adapters
type Index interface {
	// List returns all known files of the given kind
	List(ctx context.Context, kind Kind) ([]Entry, error)
}

// RingtoneRegistrar registers a file as the system default ringtone
type RingtoneRegistrar interface {
	// SetDefault registers path as the default ringtone and returns the registered location
	SetDefault(ctx context.Context, path string) (string, error)
}

// FolderCreator creates directories, including missing parents
type FolderCreator interface {
	MkdirAll(path string) error
}
