package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Library LibraryConfig `yaml:"library"`
	Extract ExtractConfig `yaml:"extract"`
}

// PathsConfig contains output directories. Relative entries resolve under MusicDirectory.
type PathsConfig struct {
	MusicDirectory     string `yaml:"music_directory"`
	ExtractDirectory   string `yaml:"extract_directory"`
	MergeDirectory     string `yaml:"merge_directory"`
	ConverterDirectory string `yaml:"converter_directory"`
	RingtoneDirectory  string `yaml:"ringtone_directory"`
	RingtoneStateFile  string `yaml:"ringtone_state_file"`
}

// LibraryConfig controls which files the media listing reports
type LibraryConfig struct {
	Directories     []string `yaml:"directories"`
	VideoExtensions []string `yaml:"video_extensions"`
	AudioExtensions []string `yaml:"audio_extensions"`
}

// ExtractConfig contains audio extraction settings
type ExtractConfig struct {
	BufferSize     int    `yaml:"buffer_size"`
	FFmpegFallback bool   `yaml:"ffmpeg_fallback"`
	FFmpegPath     string `yaml:"ffmpeg_path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			MusicDirectory:     "~/Music",
			ExtractDirectory:   "VideoMusic",
			MergeDirectory:     "MergedAudio",
			ConverterDirectory: "Format Converter",
			RingtoneDirectory:  "Ringtones",
			RingtoneStateFile:  "ringtone.yaml",
		},
		Library: LibraryConfig{
			Directories:     []string{"~/Movies", "~/Music"},
			VideoExtensions: []string{".mp4", ".m4v", ".mov", ".3gp", ".mkv", ".webm"},
			AudioExtensions: []string{".mp3", ".m4a", ".aac", ".wav", ".flac", ".ogg", ".opus", ".amr"},
		},
		Extract: ExtractConfig{
			BufferSize: 1 << 20,
			FFmpegPath: "ffmpeg",
		},
	}
}

// Load reads and parses the configuration from the specified YAML file.
// Settings the file leaves empty keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyDefaults restores defaults for values a file explicitly blanked
func (c *Config) applyDefaults() {
	d := Default()

	setIfEmpty(&c.Paths.MusicDirectory, d.Paths.MusicDirectory)
	setIfEmpty(&c.Paths.ExtractDirectory, d.Paths.ExtractDirectory)
	setIfEmpty(&c.Paths.MergeDirectory, d.Paths.MergeDirectory)
	setIfEmpty(&c.Paths.ConverterDirectory, d.Paths.ConverterDirectory)
	setIfEmpty(&c.Paths.RingtoneDirectory, d.Paths.RingtoneDirectory)
	setIfEmpty(&c.Paths.RingtoneStateFile, d.Paths.RingtoneStateFile)
	setIfEmpty(&c.Extract.FFmpegPath, d.Extract.FFmpegPath)

	if len(c.Library.VideoExtensions) == 0 {
		c.Library.VideoExtensions = d.Library.VideoExtensions
	}
	if len(c.Library.AudioExtensions) == 0 {
		c.Library.AudioExtensions = d.Library.AudioExtensions
	}
	if c.Extract.BufferSize <= 0 {
		c.Extract.BufferSize = d.Extract.BufferSize
	}
}

func setIfEmpty(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// MusicPath returns the music directory with ~ expanded
func (p PathsConfig) MusicPath() string {
	return ExpandHome(p.MusicDirectory)
}

// ExtractPath returns the directory extracted audio is written to
func (p PathsConfig) ExtractPath() string {
	return p.underMusic(p.ExtractDirectory)
}

// MergePath returns the directory concatenated audio is written to
func (p PathsConfig) MergePath() string {
	return p.underMusic(p.MergeDirectory)
}

// ConverterPath returns the format converter working directory
func (p PathsConfig) ConverterPath() string {
	return p.underMusic(p.ConverterDirectory)
}

// RingtonePath returns the directory registered ringtones are copied to
func (p PathsConfig) RingtonePath() string {
	return p.underMusic(p.RingtoneDirectory)
}

// RingtoneStatePath returns the file recording the default ringtone
func (p PathsConfig) RingtoneStatePath() string {
	return p.underMusic(p.RingtoneStateFile)
}

func (p PathsConfig) underMusic(path string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.MusicPath(), path)
}

// ExpandedDirectories returns the library directories with ~ expanded
func (l LibraryConfig) ExpandedDirectories() []string {
	dirs := make([]string, 0, len(l.Directories))
	for _, d := range l.Directories {
		dirs = append(dirs, ExpandHome(d))
	}
	return dirs
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
