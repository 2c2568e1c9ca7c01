package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"video-to-audio/domain/library"
	"video-to-audio/domain/media"
)

// Index implements library.Index by walking library directories
type Index struct {
	directories []string
	extensions  map[library.Kind]map[string]bool
}

// NewIndex creates an index over directories, classifying files by extension
func NewIndex(directories, videoExtensions, audioExtensions []string) *Index {
	return &Index{
		directories: directories,
		extensions: map[library.Kind]map[string]bool{
			library.KindVideo: extensionSet(videoExtensions),
			library.KindAudio: extensionSet(audioExtensions),
		},
	}
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// List returns every file of the given kind, newest first.
// Hidden files and directories are skipped, as are library directories that do not exist.
func (i *Index) List(ctx context.Context, kind library.Kind) ([]library.Entry, error) {
	exts, ok := i.extensions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown media kind %q", media.ErrInvalidArguments, kind)
	}

	entries := []library.Entry{}
	seen := make(map[string]bool)

	for _, dir := range i.directories {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return err
				}
				// unreadable subtree
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			hidden := strings.HasPrefix(d.Name(), ".") && path != dir
			if d.IsDir() {
				if hidden {
					return filepath.SkipDir
				}
				return nil
			}
			if hidden || !d.Type().IsRegular() || !exts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if seen[path] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				// removed while walking
				return nil
			}
			seen[path] = true
			entries = append(entries, library.Entry{
				Path:      path,
				DateAdded: info.ModTime().Unix(),
			})
			return nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: scanning %s: %w", media.ErrIOFailure, dir, err)
		}
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].DateAdded != entries[b].DateAdded {
			return entries[a].DateAdded > entries[b].DateAdded
		}
		return entries[a].Path < entries[b].Path
	})
	return entries, nil
}

// Ensure Index implements library.Index
var _ library.Index = (*Index)(nil)
