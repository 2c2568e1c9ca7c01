package library

import (
	"context"
	"fmt"

	"video-to-audio/domain/library"
	"video-to-audio/domain/media"
)

// Folders names the output directories the service bootstraps
type Folders struct {
	Extract   string
	Merge     string
	Converter string
}

// Service answers media library queries and manages library side effects
type Service struct {
	index       library.Index
	ringtones   library.RingtoneRegistrar
	folders     library.FolderCreator
	fileChecker media.FileChecker
	layout      Folders
}

// NewService creates a new library Service
func NewService(
	index library.Index,
	ringtones library.RingtoneRegistrar,
	folders library.FolderCreator,
	fileChecker media.FileChecker,
	layout Folders,
) *Service {
	return &Service{
		index:       index,
		ringtones:   ringtones,
		folders:     folders,
		fileChecker: fileChecker,
		layout:      layout,
	}
}

// ListMedia returns the library's video or audio files, newest first
func (s *Service) ListMedia(ctx context.Context, kind string) ([]library.Entry, error) {
	k, err := library.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	entries, err := s.index.List(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("listing %s files: %w", k, err)
	}
	return entries, nil
}

// SetRingtone registers path as the default ringtone.
// It reports true once the registration is stored.
func (s *Service) SetRingtone(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: ringtone path is required", media.ErrInvalidArguments)
	}
	if !s.fileChecker.Exists(path) {
		return false, fmt.Errorf("%w: %s does not exist", media.ErrSourceUnreadable, path)
	}

	if _, err := s.ringtones.SetDefault(ctx, path); err != nil {
		return false, fmt.Errorf("setting ringtone: %w", err)
	}
	return true, nil
}

// EnsureFolders creates the extract, merge and converter directories.
// It is safe to call repeatedly.
func (s *Service) EnsureFolders() ([]string, error) {
	dirs := []string{s.layout.Extract, s.layout.Merge, s.layout.Converter}
	created := make([]string, 0, len(dirs))

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := s.folders.MkdirAll(dir); err != nil {
			return created, fmt.Errorf("%w: creating %s: %w", media.ErrIOFailure, dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}
