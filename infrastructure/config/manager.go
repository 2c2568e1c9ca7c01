package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Errors for config management
var (
	ErrDirectoryNotFound = errors.New("library directory not found")
	ErrDuplicateKey      = errors.New("entry already exists")
)

// ConfigManager provides CRUD operations for config entries
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// --- Library directory CRUD ---

// AddLibraryDirectory adds a directory to the media library
func (m *ConfigManager) AddLibraryDirectory(dir string) error {
	dir = normalizeDir(dir)
	if dir == "" {
		return fmt.Errorf("directory is required")
	}

	if m.indexOf(dir) >= 0 {
		return fmt.Errorf("%w: library directory %q", ErrDuplicateKey, dir)
	}

	m.config.Library.Directories = append(m.config.Library.Directories, dir)
	return Save(m.config, m.configPath)
}

// ListLibraryDirectories returns the library directories in configured order
func (m *ConfigManager) ListLibraryDirectories() []string {
	return append([]string(nil), m.config.Library.Directories...)
}

// RemoveLibraryDirectory removes a directory from the media library
func (m *ConfigManager) RemoveLibraryDirectory(dir string) error {
	i := m.indexOf(normalizeDir(dir))
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrDirectoryNotFound, dir)
	}

	dirs := m.config.Library.Directories
	m.config.Library.Directories = append(dirs[:i:i], dirs[i+1:]...)
	return Save(m.config, m.configPath)
}

// --- Extension CRUD ---

// AddExtension adds a file extension to the video or audio list
func (m *ConfigManager) AddExtension(kind, ext string) error {
	list, err := m.extensionList(kind)
	if err != nil {
		return err
	}

	ext = normalizeExt(ext)
	if ext == "" {
		return fmt.Errorf("extension is required")
	}
	for _, e := range *list {
		if strings.EqualFold(e, ext) {
			return fmt.Errorf("%w: %s extension %q", ErrDuplicateKey, kind, ext)
		}
	}

	*list = append(*list, ext)
	return Save(m.config, m.configPath)
}

func (m *ConfigManager) extensionList(kind string) (*[]string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "video":
		return &m.config.Library.VideoExtensions, nil
	case "audio":
		return &m.config.Library.AudioExtensions, nil
	default:
		return nil, fmt.Errorf("unknown media kind %q, use video or audio", kind)
	}
}

func (m *ConfigManager) indexOf(dir string) int {
	for i, d := range m.config.Library.Directories {
		if normalizeDir(d) == dir {
			return i
		}
	}
	return -1
}

func normalizeDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		// keep the portable form in the file
		return "~" + strings.TrimSuffix(filepath.ToSlash(filepath.Clean("/"+strings.TrimPrefix(dir, "~"))), "/")
	}
	return filepath.Clean(dir)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
